package s3tasks

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

// WithRegion sets the region used for connections that leave Region empty.
// If not specified, such connections use eu-west-1.
func WithRegion(region s3types.Region) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithForcePathStyle forces the use of path-style URLs instead of virtual-hosted style.
func WithForcePathStyle(forcePathStyle bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithMaxRetries sets the maximum number of SDK attempts per request.
// Default is 3. Zero keeps the SDK default.
func WithMaxRetries(maxRetries int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the HTTP client timeout for individual requests.
// Default is no timeout.
func WithTimeout(timeout time.Duration) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithPartSize sets the part size for multipart uploads.
// Default is 8MB. Must be at least 5MB.
func WithPartSize(partSize int64) s3types.Option {
	return func(c *s3types.ClientConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithUploadConcurrency sets how many parts of one file are uploaded in parallel.
// File-level parallelism is set per call with UploadOptions.Concurrency.
func WithUploadConcurrency(concurrency int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		if concurrency > 0 {
			c.UploadConcurrency = concurrency
		}
	}
}

// WithFilesystem sets the local filesystem used by upload and download.
// If not specified, defaults to the OS filesystem rooted at /.
func WithFilesystem(filesystem s3types.Filesystem) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithLogger sets the logger. If not specified, log output is discarded.
func WithLogger(logger *slog.Logger) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Logger = logger
	}
}

// WithTracing instruments SDK calls with OpenTelemetry spans.
func WithTracing(enabled bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.EnableTracing = enabled
	}
}

// WithAWSConfig provides a base AWS configuration instead of loading the
// shared config files and environment. Region and credentials are still
// taken from each connection.
func WithAWSConfig(config *aws.Config) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(client *http.Client) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithS3Client replaces the per-connection S3 client.
func WithS3Client(client s3api.S3API) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.S3Client = client
	}
}

// WithSTSClient replaces the per-connection STS client.
func WithSTSClient(client s3api.STSAPI) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.STSClient = client
	}
}
