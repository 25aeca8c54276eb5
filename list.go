package s3tasks

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/operations/list"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

// ListObjects returns one page of objects from conn.BucketName.
// Use ListResult.NextContinuationToken from a full response to request the next page.
func (c *Client) ListObjects(
	ctx context.Context,
	input s3types.ListInput,
	conn s3types.Connection,
	opts s3types.ListOptions,
) (output s3types.ListOutput, err error) {
	if err := ctx.Err(); err != nil {
		return s3types.ListOutput{}, err
	}
	if err := validation.ValidateConnection(conn); err != nil {
		return s3types.ListOutput{}, err
	}

	ctx, span := c.startSpan(ctx, "ListObjects", conn)
	defer func() { endSpan(span, err) }()

	client, release, err := c.acquire(ctx, conn)
	if err != nil {
		return s3types.ListOutput{}, err
	}
	defer release()

	return list.New(client, c.logger).List(ctx, list.Plan{
		Bucket:                   conn.BucketName,
		Input:                    input,
		Options:                  opts,
		ReportInvalidCredentials: conn.ReportInvalidCredentials,
	})
}
