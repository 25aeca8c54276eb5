package auth

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

// DefaultDurationSeconds is the session lifetime when none is requested.
const DefaultDurationSeconds int32 = 3600

// AssumeRole requests temporary credentials for in.RoleARN.
func AssumeRole(ctx context.Context, client s3api.STSAPI, in s3types.TempCredentialsInput) (s3types.Credentials, error) {
	duration := in.DurationSeconds
	if duration <= 0 {
		duration = DefaultDurationSeconds
	}

	req := &sts.AssumeRoleInput{
		RoleArn:         aws.String(in.RoleARN),
		RoleSessionName: aws.String(in.SessionName),
		DurationSeconds: aws.Int32(duration),
	}
	if strings.TrimSpace(in.ExternalID) != "" {
		req.ExternalId = aws.String(in.ExternalID)
	}

	out, err := client.AssumeRole(ctx, req)
	if err != nil {
		return s3types.Credentials{}, err
	}
	if out.Credentials == nil {
		return s3types.Credentials{}, errors.NewError("assumeRole", errors.ErrInvalidCredentials).
			WithKey(in.RoleARN).
			WithMessage("STS returned no credentials")
	}

	return s3types.Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
		Expiration:      aws.ToTime(out.Credentials.Expiration),
	}, nil
}
