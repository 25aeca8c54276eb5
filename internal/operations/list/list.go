// Package list handles single-page S3 object listings.
package list

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/awserr"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

const (
	// DefaultMaxKeys is used when ListInput.MaxKeys is zero or negative.
	DefaultMaxKeys int32 = 100
	// MaxKeysLimit is the largest page S3 returns.
	MaxKeysLimit int32 = 1000
)

// Plan describes one listing request.
type Plan struct {
	Bucket                   string
	Input                    s3types.ListInput
	Options                  s3types.ListOptions
	ReportInvalidCredentials bool
}

// Lister handles S3 list operations.
type Lister struct {
	s3Client s3api.S3API
	logger   *slog.Logger
}

// New creates a new Lister instance.
func New(s3Client s3api.S3API, logger *slog.Logger) *Lister {
	return &Lister{
		s3Client: s3Client,
		logger:   logger,
	}
}

// List issues one ListObjectsV2 call and maps the page.
func (l *Lister) List(ctx context.Context, plan Plan) (s3types.ListOutput, error) {
	input := BuildInput(plan.Bucket, plan.Input, plan.Options.FetchOwner)

	out, err := l.s3Client.ListObjectsV2(ctx, input)
	if err != nil {
		return s3types.ListOutput{}, errors.NewError("list", awserr.Wrap(err, plan.ReportInvalidCredentials)).
			WithBucket(plan.Bucket).
			WithMessage("failed to list objects")
	}

	result := MapOutput(out)

	l.logger.DebugContext(ctx, "listed objects",
		"bucket", plan.Bucket,
		"key", plan.Input.Prefix,
		"count", len(result.S3Objects),
		"truncated", result.IsTruncated)

	if plan.Options.ThrowErrorIfNoFilesFound && len(result.S3Objects) == 0 {
		return s3types.ListOutput{}, errors.NewError("list", errors.ErrNoMatch).
			WithBucket(plan.Bucket).
			WithMessage(fmt.Sprintf(
				"no objects found with supplied parameters: Prefix=%q, Delimiter=%q, StartAfter=%q",
				plan.Input.Prefix, plan.Input.Delimiter, plan.Input.StartAfter))
	}

	output := s3types.ListOutput{Objects: result.S3Objects}
	if plan.Options.FullResponse {
		output.Response = result
	}
	return output, nil
}

// BuildInput converts in to SDK parameters. Blank strings are left nil so
// S3 treats them as unspecified.
func BuildInput(bucket string, in s3types.ListInput, fetchOwner bool) *s3.ListObjectsV2Input {
	return &s3.ListObjectsV2Input{
		Bucket:            aws.String(bucket),
		Prefix:            optional(in.Prefix),
		Delimiter:         optional(in.Delimiter),
		StartAfter:        optional(in.StartAfter),
		ContinuationToken: optional(in.ContinuationToken),
		MaxKeys:           aws.Int32(maxKeys(in.MaxKeys)),
		FetchOwner:        aws.Bool(fetchOwner),
	}
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return aws.String(s)
}

func maxKeys(n int32) int32 {
	switch {
	case n <= 0:
		return DefaultMaxKeys
	case n > MaxKeysLimit:
		return MaxKeysLimit
	default:
		return n
	}
}

// MapOutput builds the response envelope from an SDK listing page.
func MapOutput(out *s3.ListObjectsV2Output) *s3types.ListResult {
	result := &s3types.ListResult{
		HTTPStatusCode:        statusCode(out),
		Name:                  aws.ToString(out.Name),
		Prefix:                aws.ToString(out.Prefix),
		Delimiter:             aws.ToString(out.Delimiter),
		MaxKeys:               aws.ToInt32(out.MaxKeys),
		KeyCount:              aws.ToInt32(out.KeyCount),
		StartAfter:            aws.ToString(out.StartAfter),
		ContinuationToken:     aws.ToString(out.ContinuationToken),
		NextContinuationToken: aws.ToString(out.NextContinuationToken),
		IsTruncated:           aws.ToBool(out.IsTruncated),
		S3Objects:             make([]s3types.Object, 0, len(out.Contents)),
	}
	if id, ok := awsmiddleware.GetRequestIDMetadata(out.ResultMetadata); ok {
		result.RequestID = id
	}

	for _, cp := range out.CommonPrefixes {
		result.CommonPrefixes = append(result.CommonPrefixes, aws.ToString(cp.Prefix))
	}

	for _, obj := range out.Contents {
		o := s3types.Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         aws.ToString(obj.ETag),
			StorageClass: string(obj.StorageClass),
		}
		if obj.Owner != nil {
			o.Owner = &s3types.Owner{
				ID:          aws.ToString(obj.Owner.ID),
				DisplayName: aws.ToString(obj.Owner.DisplayName),
			}
		}
		result.S3Objects = append(result.S3Objects, o)
	}

	return result
}

// statusCode reads the raw HTTP status. Outputs built without a transport
// carry no raw response and report 200.
func statusCode(out *s3.ListObjectsV2Output) int {
	if resp, ok := awsmiddleware.GetRawResponse(out.ResultMetadata).(*smithyhttp.Response); ok && resp != nil {
		return resp.StatusCode
	}
	return http.StatusOK
}
