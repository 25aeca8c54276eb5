// Package auth builds per-operation AWS configurations and S3 clients from a
// Connection, choosing the credential provider for its credential source.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

// DefaultSessionName is the role session name used for Connection.RoleARN.
const DefaultSessionName = "s3tasks"

// Release frees the resources of one acquired configuration.
type Release func()

// Provider turns connections into AWS configurations.
type Provider struct {
	cfg s3types.ClientConfig

	// mu protects the client overrides
	mu            sync.RWMutex
	stsClient     s3api.STSAPI
	secretsClient s3api.SecretsAPI
}

// NewProvider creates a provider applying the client-wide settings in cfg.
// cfg.STSClient, when set, is used instead of building STS clients.
func NewProvider(cfg s3types.ClientConfig) *Provider {
	return &Provider{cfg: cfg, stsClient: cfg.STSClient}
}

// SetSTSClient overrides the STS client used for role assumption.
func (p *Provider) SetSTSClient(client s3api.STSAPI) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stsClient = client
}

// SetSecretsClient overrides the Secrets Manager client used for secret credentials.
func (p *Provider) SetSecretsClient(client s3api.SecretsAPI) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.secretsClient = client
}

func (p *Provider) stsOverride() s3api.STSAPI {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stsClient
}

func (p *Provider) secretsOverride() s3api.SecretsAPI {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.secretsClient
}

// Region returns the region code used for conn.
func (p *Provider) Region(conn s3types.Connection) string {
	if conn.Region == "" && p.cfg.Region != "" {
		return p.cfg.Region.Code()
	}
	return conn.Region.Code()
}

// Config returns an AWS configuration authenticated for conn. The returned
// Release closes idle connections of the per-operation HTTP client.
func (p *Provider) Config(ctx context.Context, conn s3types.Connection) (aws.Config, Release, error) {
	httpClient, release := p.httpClient()

	cfg, err := p.baseConfig(ctx, conn, httpClient)
	if err != nil {
		release()
		return aws.Config{}, nil, err
	}

	switch conn.Source() {
	case s3types.CredentialSourceStatic:
		cfg.Credentials = credentials.NewStaticCredentialsProvider(conn.AccessKeyID, conn.SecretAccessKey, "")
	case s3types.CredentialSourceTemporary:
		creds := conn.TemporaryCredentials
		cfg.Credentials = credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken,
		)
	case s3types.CredentialSourceSecret:
		provider, err := p.secretCredentials(ctx, cfg, conn.CredentialsSecretID)
		if err != nil {
			release()
			return aws.Config{}, nil, err
		}
		cfg.Credentials = provider
	case s3types.CredentialSourceDefault:
	}

	if conn.RoleARN != "" {
		stsClient := p.stsOverride()
		if stsClient == nil {
			stsClient = sts.NewFromConfig(cfg)
		}
		provider := stscreds.NewAssumeRoleProvider(stsClient, conn.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = DefaultSessionName
		})
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}

	if p.cfg.EnableTracing {
		otelaws.AppendMiddlewares(&cfg.APIOptions)
	}

	return cfg, release, nil
}

// S3Client returns an S3 client for conn.
func (p *Provider) S3Client(ctx context.Context, conn s3types.Connection) (*s3.Client, Release, error) {
	cfg, release, err := p.Config(ctx, conn)
	if err != nil {
		return nil, nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if p.cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
		if p.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(p.cfg.Endpoint)
		}
	})
	return client, release, nil
}

// STSClient returns an STS client authenticated for conn.
func (p *Provider) STSClient(ctx context.Context, conn s3types.Connection) (s3api.STSAPI, Release, error) {
	if client := p.stsOverride(); client != nil {
		return client, func() {}, nil
	}

	cfg, release, err := p.Config(ctx, conn)
	if err != nil {
		return nil, nil, err
	}
	return sts.NewFromConfig(cfg), release, nil
}

func (p *Provider) httpClient() (aws.HTTPClient, Release) {
	if p.cfg.CustomHTTPClient != nil {
		return p.cfg.CustomHTTPClient, func() {}
	}

	client := awshttp.NewBuildableClient()
	if p.cfg.Timeout > 0 {
		client = client.WithTimeout(p.cfg.Timeout)
	}
	return client, func() {
		if c, ok := any(client).(interface{ CloseIdleConnections() }); ok {
			c.CloseIdleConnections()
		}
	}
}

func (p *Provider) baseConfig(
	ctx context.Context,
	conn s3types.Connection,
	httpClient aws.HTTPClient,
) (aws.Config, error) {
	region := p.Region(conn)

	if p.cfg.CustomAWSConfig != nil {
		cfg := p.cfg.CustomAWSConfig.Copy()
		cfg.Region = region
		cfg.HTTPClient = httpClient
		if p.cfg.MaxRetries > 0 {
			cfg.RetryMaxAttempts = p.cfg.MaxRetries
		}
		return cfg, nil
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithHTTPClient(httpClient),
	}
	if p.cfg.MaxRetries > 0 {
		loadOpts = append(loadOpts, config.WithRetryMaxAttempts(p.cfg.MaxRetries))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, errors.NewError("loadConfig", err).WithMessage("loading AWS config")
	}
	return cfg, nil
}

// secretKeyPair is the JSON layout of a credentials secret.
type secretKeyPair struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	SessionToken    string `json:"sessionToken,omitempty"`
}

func (p *Provider) secretCredentials(
	ctx context.Context,
	cfg aws.Config,
	secretID string,
) (aws.CredentialsProvider, error) {
	client := p.secretsOverride()
	if client == nil {
		client = secretsmanager.NewFromConfig(cfg)
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return nil, errors.NewError("loadConfig", err).
			WithKey(secretID).
			WithMessage("reading credentials secret")
	}

	var raw []byte
	switch {
	case out.SecretString != nil:
		raw = []byte(*out.SecretString)
	case out.SecretBinary != nil:
		raw = out.SecretBinary
	default:
		return nil, errors.NewError("loadConfig", errors.ErrInvalidCredentials).
			WithKey(secretID).
			WithMessage("credentials secret is empty")
	}

	var pair secretKeyPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		return nil, errors.NewError("loadConfig", errors.ErrInvalidCredentials).
			WithKey(secretID).
			WithMessage(fmt.Sprintf("credentials secret is not a JSON key pair: %v", err))
	}
	if strings.TrimSpace(pair.AccessKeyID) == "" || strings.TrimSpace(pair.SecretAccessKey) == "" {
		return nil, errors.NewError("loadConfig", errors.ErrInvalidCredentials).
			WithKey(secretID).
			WithMessage("credentials secret lacks accessKeyId or secretAccessKey")
	}

	return credentials.NewStaticCredentialsProvider(pair.AccessKeyID, pair.SecretAccessKey, pair.SessionToken), nil
}
