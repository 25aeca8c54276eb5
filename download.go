package s3tasks

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/operations/download"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

// DownloadFiles downloads objects from conn.BucketName into
// input.DestinationPath.
//
// With input.ObjectKey set exactly that object is downloaded. Otherwise every
// object under input.S3Directory whose file name matches input.SearchPattern
// is downloaded, flattened into the destination directory.
func (c *Client) DownloadFiles(
	ctx context.Context,
	input s3types.DownloadInput,
	conn s3types.Connection,
	opts s3types.DownloadOptions,
) (result *s3types.DownloadResult, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validation.ValidateConnection(conn); err != nil {
		return nil, err
	}
	if err := validation.ValidateDownloadInput(input); err != nil {
		return nil, err
	}
	if input.DestinationPath, err = absPath("downloadFiles", input.DestinationPath); err != nil {
		return nil, err
	}

	ctx, span := c.startSpan(ctx, "DownloadFiles", conn)
	defer func() { endSpan(span, err) }()

	client, release, err := c.acquire(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err = download.New(client, c.filesystem(), c.logger).Download(ctx, download.Plan{
		Bucket:                   conn.BucketName,
		Input:                    input,
		Options:                  opts,
		ReportInvalidCredentials: conn.ReportInvalidCredentials,
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("s3tasks.files", result.TotalCount),
		attribute.Int64("s3tasks.bytes", result.TotalBytes),
	)
	return result, nil
}
