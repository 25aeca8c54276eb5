package s3tasks

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/auth"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

const tracerName = "github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks"

// DefaultPartSize is the multipart part size used when none is configured.
const DefaultPartSize int64 = 8 * 1024 * 1024

// Client runs S3 transfer tasks. It holds only configuration, so one Client
// may serve concurrent operations against different connections.
type Client struct {
	// cfg holds the client-wide settings
	cfg s3types.ClientConfig

	// provider builds per-operation AWS configurations
	provider *auth.Provider

	// s3Client, when set, replaces the per-connection S3 client
	s3Client s3api.S3API

	// mu protects fs
	mu sync.RWMutex

	// fs is the local filesystem used by upload and download
	fs s3types.Filesystem

	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a new task client with the provided options.
//
// Example:
//
//	client, err := s3tasks.New(
//	    s3tasks.WithRegion(s3types.RegionUsWest2),
//	    s3tasks.WithMaxRetries(5),
//	)
func New(opts ...s3types.Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.PartSize < manager.MinUploadPartSize {
		return nil, errors.NewError("client initialization", errors.ErrInvalidInput).
			WithMessage("part size must be at least 5MB")
	}

	return newClient(cfg), nil
}

// NewWithClient creates a task client that uses s3Client for every
// operation regardless of the connection credentials.
// This is primarily used for testing with mocked clients.
func NewWithClient(s3Client s3api.S3API, opts ...s3types.Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.S3Client = s3Client
	return newClient(cfg)
}

func defaultConfig() s3types.ClientConfig {
	return s3types.ClientConfig{
		MaxRetries:        3,
		PartSize:          DefaultPartSize,
		UploadConcurrency: manager.DefaultUploadConcurrency,
	}
}

func newClient(cfg s3types.ClientConfig) *Client {
	filesystem := cfg.Filesystem
	if filesystem == nil {
		filesystem = billy.NewOSFS("/")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		cfg:      cfg,
		provider: auth.NewProvider(cfg),
		s3Client: cfg.S3Client,
		fs:       filesystem,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// SetFilesystem sets the filesystem implementation for the client.
func (c *Client) SetFilesystem(filesystem s3types.Filesystem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs = filesystem
}

// SetSTSClient overrides the STS client used for temporary credentials and
// role assumption. It may be called while operations are running.
func (c *Client) SetSTSClient(client s3api.STSAPI) {
	c.provider.SetSTSClient(client)
}

// Close releases any resources held by the client.
// Per-operation SDK clients are released when each operation returns.
func (c *Client) Close() error {
	return nil
}

func (c *Client) filesystem() s3types.Filesystem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fs
}

// absPath resolves a local path against the working directory. The default
// filesystem is rooted at "/", where a relative path would otherwise land.
func absPath(op, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.NewError(op, err).WithKey(path)
	}
	return abs, nil
}

// acquire returns the S3 client for one operation.
func (c *Client) acquire(ctx context.Context, conn s3types.Connection) (s3api.S3API, auth.Release, error) {
	if c.s3Client != nil {
		return c.s3Client, func() {}, nil
	}
	client, release, err := c.provider.S3Client(ctx, conn)
	if err != nil {
		return nil, nil, err
	}
	return client, release, nil
}

// startSpan opens the span for one public operation.
func (c *Client) startSpan(ctx context.Context, name string, conn s3types.Connection) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "s3tasks."+name, trace.WithAttributes(
		attribute.String("aws.s3.bucket", conn.BucketName),
		attribute.String("aws.region", c.provider.Region(conn)),
	))
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
