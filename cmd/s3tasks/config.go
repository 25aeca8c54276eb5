package main

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

// Config holds the settings shared by every command.
type Config struct {
	Connection ConnectionConfig `mapstructure:"connection"`
	Client     ClientConfig     `mapstructure:"client"`
	Debug      bool             `mapstructure:"debug"`
}

// ConnectionConfig selects the bucket and credentials.
type ConnectionConfig struct {
	Bucket                   string `mapstructure:"bucket"`
	Region                   string `mapstructure:"region"`
	AccessKeyID              string `mapstructure:"access_key_id"`
	SecretAccessKey          string `mapstructure:"secret_access_key"`
	SessionToken             string `mapstructure:"session_token"`
	UseDefaultCredentials    bool   `mapstructure:"use_default_credentials"`
	RoleARN                  string `mapstructure:"role_arn"`
	CredentialsSecretID      string `mapstructure:"credentials_secret_id"`
	ReportInvalidCredentials bool   `mapstructure:"report_invalid_credentials"`
}

// ClientConfig tunes the SDK clients.
type ClientConfig struct {
	Region            string        `mapstructure:"region"`
	Endpoint          string        `mapstructure:"endpoint"`
	ForcePathStyle    bool          `mapstructure:"force_path_style"`
	MaxRetries        int           `mapstructure:"max_retries"`
	Timeout           time.Duration `mapstructure:"timeout"`
	PartSize          int64         `mapstructure:"part_size"`
	UploadConcurrency int           `mapstructure:"upload_concurrency"`
	Tracing           bool          `mapstructure:"tracing"`
}

// flagKeys maps persistent flag names to configuration keys.
var flagKeys = map[string]string{
	"bucket":                  "connection.bucket",
	"region":                  "connection.region",
	"access-key-id":           "connection.access_key_id",
	"secret-access-key":       "connection.secret_access_key",
	"session-token":           "connection.session_token",
	"use-default-credentials": "connection.use_default_credentials",
	"assume-role-arn":         "connection.role_arn",
	"credentials-secret":      "connection.credentials_secret_id",
	"report-invalid-creds":    "connection.report_invalid_credentials",
	"endpoint":                "client.endpoint",
	"path-style":              "client.force_path_style",
	"max-retries":             "client.max_retries",
	"timeout":                 "client.timeout",
	"part-size":               "client.part_size",
	"tracing":                 "client.tracing",
	"debug":                   "debug",
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			MaxRetries: 3,
			PartSize:   s3tasks.DefaultPartSize,
		},
	}
}

// Load reads configuration from an optional s3tasks.yaml, environment
// variables and flags, in increasing order of precedence. Environment
// variables use the prefix "S3TASKS" and the dot character in keys is
// replaced by an underscore. For example, "connection.bucket" becomes
// "S3TASKS_CONNECTION_BUCKET".
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("s3tasks")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	v.SetEnvPrefix("S3TASKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string{}, parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}

// parseRegion accepts a region name such as "EuWest1" or a code such as
// "eu-west-1". Empty means unset.
func parseRegion(s string) (s3types.Region, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	region, ok := s3types.ParseRegion(s)
	if !ok {
		return "", fmt.Errorf("unsupported region %q", s)
	}
	return region, nil
}

// S3Connection converts the connection settings.
func (c *Config) S3Connection() (s3types.Connection, error) {
	region, err := parseRegion(c.Connection.Region)
	if err != nil {
		return s3types.Connection{}, err
	}

	cc := c.Connection
	conn := s3types.Connection{
		BucketName:               cc.Bucket,
		AccessKeyID:              cc.AccessKeyID,
		SecretAccessKey:          cc.SecretAccessKey,
		Region:                   region,
		UseDefaultCredentials:    cc.UseDefaultCredentials,
		RoleARN:                  cc.RoleARN,
		CredentialsSecretID:      cc.CredentialsSecretID,
		ReportInvalidCredentials: cc.ReportInvalidCredentials,
	}
	if cc.SessionToken != "" {
		conn.TemporaryCredentials = &s3types.Credentials{
			AccessKeyID:     cc.AccessKeyID,
			SecretAccessKey: cc.SecretAccessKey,
			SessionToken:    cc.SessionToken,
		}
	}
	return conn, nil
}

// ClientOptions converts the client settings.
func (c *Config) ClientOptions() ([]s3types.Option, error) {
	region, err := parseRegion(c.Client.Region)
	if err != nil {
		return nil, err
	}

	opts := []s3types.Option{
		s3tasks.WithMaxRetries(c.Client.MaxRetries),
		s3tasks.WithTimeout(c.Client.Timeout),
		s3tasks.WithPartSize(c.Client.PartSize),
		s3tasks.WithUploadConcurrency(c.Client.UploadConcurrency),
		s3tasks.WithForcePathStyle(c.Client.ForcePathStyle),
		s3tasks.WithTracing(c.Client.Tracing),
	}
	if region != "" {
		opts = append(opts, s3tasks.WithRegion(region))
	}
	if c.Client.Endpoint != "" {
		opts = append(opts, s3tasks.WithEndpoint(c.Client.Endpoint))
	}
	return opts, nil
}
