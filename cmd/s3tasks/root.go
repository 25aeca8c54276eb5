package main

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

// app carries what every command needs once configuration is loaded.
type app struct {
	cfg    *Config
	conn   s3types.Connection
	client *s3tasks.Client
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "s3tasks",
		Short:         "Batch S3 uploads, downloads and listings",
		Long:          `Upload local files to S3, download objects to a local directory, list bucket contents and obtain temporary credentials.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default ./s3tasks.yaml)")
	pf.String("bucket", "", "bucket name")
	pf.String("region", "", "AWS region name or code (default eu-west-1)")
	pf.String("access-key-id", "", "AWS access key id")
	pf.String("secret-access-key", "", "AWS secret access key")
	pf.String("session-token", "", "session token for temporary credentials")
	pf.Bool("use-default-credentials", false, "use the SDK default credential chain")
	pf.String("assume-role-arn", "", "assume this role for the operation")
	pf.String("credentials-secret", "", "Secrets Manager secret holding the access key pair")
	pf.Bool("report-invalid-creds", false, "report rejected credentials as invalid credentials")
	pf.String("endpoint", "", "custom S3 endpoint URL")
	pf.Bool("path-style", false, "use path-style addressing")
	pf.Int("max-retries", 3, "maximum SDK attempts per request")
	pf.Duration("timeout", 0, "HTTP request timeout")
	pf.Int64("part-size", s3tasks.DefaultPartSize, "multipart upload part size in bytes")
	pf.Bool("tracing", false, "instrument SDK calls with OpenTelemetry")
	pf.Bool("debug", false, "enable debug logging")

	setup := func(cmd *cobra.Command) (*app, error) {
		return newApp(cmd, configFile)
	}

	root.AddCommand(
		newUploadCmd(setup),
		newDownloadCmd(setup),
		newListCmd(setup),
		newCredentialsCmd(setup),
	)
	return root
}

func newApp(cmd *cobra.Command, configFile string) (*app, error) {
	cfg, err := Load(cmd.Flags(), configFile)
	if err != nil {
		return nil, err
	}

	conn, err := cfg.S3Connection()
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	opts, err := cfg.ClientOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, s3tasks.WithLogger(logger))

	client, err := s3tasks.New(opts...)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, conn: conn, client: client, logger: logger}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
