package s3tasks

import (
	"bytes"
	"context"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/otel/attribute"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/localfs"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/operations/upload"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

// UploadFiles uploads the files under input.FilePath that match input.FileMask
// to conn.BucketName, below input.S3Directory.
//
// The result lists object keys or local paths depending on
// opts.ReturnListOfObjectKeys. Under the BestEffort policy per-file failures
// are returned on the result instead of as the error.
func (c *Client) UploadFiles(
	ctx context.Context,
	input s3types.UploadInput,
	conn s3types.Connection,
	opts s3types.UploadOptions,
) (result *s3types.UploadResult, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validation.ValidateConnection(conn); err != nil {
		return nil, err
	}
	if err := validation.ValidateUploadInput(input); err != nil {
		return nil, err
	}
	if input.FilePath, err = absPath("uploadFiles", input.FilePath); err != nil {
		return nil, err
	}

	ctx, span := c.startSpan(ctx, "UploadFiles", conn)
	defer func() { endSpan(span, err) }()

	logger := c.logger
	var debugLog *bytes.Buffer
	if opts.CaptureDebugLog {
		debugLog = &bytes.Buffer{}
		logger = slog.New(slogmulti.Fanout(
			c.logger.Handler(),
			slog.NewTextHandler(debugLog, &slog.HandlerOptions{Level: slog.LevelDebug}),
		))
	}

	client, release, err := c.acquire(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer release()

	uploader := upload.New(client, c.filesystem(), logger, upload.Config{
		PartSize:    c.cfg.PartSize,
		Concurrency: c.cfg.UploadConcurrency,
		DeleteRetry: localfs.DefaultRetryConfig(),
	})

	result, err = uploader.Upload(ctx, upload.Plan{
		Bucket:                   conn.BucketName,
		Input:                    input,
		Options:                  opts,
		ReportInvalidCredentials: conn.ReportInvalidCredentials,
	})
	if err != nil {
		return nil, err
	}

	if debugLog != nil {
		result.DebugLog = debugLog.String()
	}
	span.SetAttributes(attribute.Int("s3tasks.files", len(result.Objects)))
	return result, nil
}
