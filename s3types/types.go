// Package s3types provides shared type definitions for the S3 task operations.
package s3types

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/s3api"
)

// Filesystem is the local filesystem used by upload and download.
// *billy.FS from catalyst-forge-libs/fs satisfies it.
type Filesystem interface {
	Create(name string) (fs.File, error)
	Open(name string) (fs.File, error)
	Stat(name string) (os.FileInfo, error)
	Walk(root string, walkFn filepath.WalkFunc) error
	Remove(name string) error
	MkdirAll(path string, perm os.FileMode) error
}

// Connection describes the bucket and credentials for a single operation.
// It is passed by value and never stored by the client.
type Connection struct {
	// BucketName is the target bucket.
	BucketName string `json:"bucketName" mapstructure:"bucket"`

	// AccessKeyID and SecretAccessKey are static credentials.
	AccessKeyID     string `json:"accessKeyId,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"-" mapstructure:"secret_access_key"`

	// Region selects the AWS region. Unknown values resolve to eu-west-1.
	Region Region `json:"region" mapstructure:"region"`

	// UseDefaultCredentials resolves credentials through the SDK default chain.
	UseDefaultCredentials bool `json:"useDefaultCredentials" mapstructure:"use_default_credentials"`

	// TemporaryCredentials is a pre-obtained session token, e.g. from GetTemporaryCredentials.
	TemporaryCredentials *Credentials `json:"-" mapstructure:"-"`

	// RoleARN, when set, assumes this role on top of the selected credential source.
	RoleARN string `json:"roleArn,omitempty" mapstructure:"role_arn"`

	// CredentialsSecretID names a Secrets Manager secret holding an access key pair as JSON.
	CredentialsSecretID string `json:"credentialsSecretId,omitempty" mapstructure:"credentials_secret_id"`

	// ReportInvalidCredentials maps rejected-credential responses to ErrInvalidCredentials
	// instead of a generic wrapped error.
	ReportInvalidCredentials bool `json:"reportInvalidCredentials" mapstructure:"report_invalid_credentials"`
}

// CredentialSource identifies how a Connection authenticates.
type CredentialSource int

const (
	// CredentialSourceStatic uses AccessKeyID and SecretAccessKey.
	CredentialSourceStatic CredentialSource = iota
	// CredentialSourceDefault uses the SDK default credential chain.
	CredentialSourceDefault
	// CredentialSourceTemporary uses TemporaryCredentials.
	CredentialSourceTemporary
	// CredentialSourceSecret reads the key pair from Secrets Manager.
	CredentialSourceSecret
)

// Source returns the credential source in precedence order:
// temporary token, secret, default chain, static keys.
func (c Connection) Source() CredentialSource {
	switch {
	case c.TemporaryCredentials != nil:
		return CredentialSourceTemporary
	case c.CredentialsSecretID != "":
		return CredentialSourceSecret
	case c.UseDefaultCredentials:
		return CredentialSourceDefault
	default:
		return CredentialSourceStatic
	}
}

// Credentials are temporary AWS credentials.
type Credentials struct {
	AccessKeyID     string    `json:"accessKeyId"`
	SecretAccessKey string    `json:"secretAccessKey"`
	SessionToken    string    `json:"sessionToken"`
	Expiration      time.Time `json:"expiration"`
}

// FailurePolicy controls how a batch reacts to a per-file failure.
type FailurePolicy int

const (
	// FailFast aborts the batch on the first failure and returns it.
	FailFast FailurePolicy = iota
	// BestEffort records failures on the result and continues with the remaining files.
	BestEffort
)

// String returns the policy name.
func (p FailurePolicy) String() string {
	if p == BestEffort {
		return "best-effort"
	}
	return "fail-fast"
}

// UploadInput selects local files and the remote directory.
type UploadInput struct {
	// FilePath is the local root directory.
	FilePath string `json:"filePath"`

	// FileMask filters file names, e.g. "*.csv" or "a?.txt". Empty matches everything.
	FileMask string `json:"fileMask"`

	// S3Directory is the key prefix for uploaded objects.
	S3Directory string `json:"s3Directory"`

	// CannedACL is applied to every uploaded object when set.
	CannedACL CannedACL `json:"cannedAcl,omitempty"`
}

// UploadOptions controls upload behavior.
type UploadOptions struct {
	UploadFromCurrentDirectoryOnly bool          `json:"uploadFromCurrentDirectoryOnly"`
	PreserveFolderStructure        bool          `json:"preserveFolderStructure"`
	Overwrite                      bool          `json:"overwrite"`
	DeleteSource                   bool          `json:"deleteSource"`
	ThrowErrorIfNoMatch            bool          `json:"throwErrorIfNoMatch"`
	ReturnListOfObjectKeys         bool          `json:"returnListOfObjectKeys"`
	StorageClass                   StorageClass  `json:"storageClass,omitempty"`
	FailurePolicy                  FailurePolicy `json:"failurePolicy"`

	// Concurrency bounds parallel per-file transfers. Values below 2 process files sequentially.
	Concurrency int `json:"concurrency"`

	// CaptureDebugLog returns the operation log on UploadResult.DebugLog.
	CaptureDebugLog bool `json:"captureDebugLog"`
}

// DefaultUploadOptions returns the options used when none are supplied.
func DefaultUploadOptions() UploadOptions {
	return UploadOptions{
		UploadFromCurrentDirectoryOnly: true,
		ThrowErrorIfNoMatch:            true,
		StorageClass:                   StorageClassStandard,
		Concurrency:                    1,
	}
}

// DownloadInput selects remote objects and the local destination.
type DownloadInput struct {
	// S3Directory is the key prefix to download from.
	S3Directory string `json:"s3Directory"`

	// SearchPattern filters object file names with * and ? wildcards.
	SearchPattern string `json:"searchPattern"`

	// DestinationPath is the local directory files are written to.
	DestinationPath string `json:"destinationPath"`

	// ObjectKey switches to single-object mode: exactly this key is downloaded.
	ObjectKey string `json:"objectKey,omitempty"`

	// DestinationFileName overrides the local file name in single-object mode.
	DestinationFileName string `json:"destinationFileName,omitempty"`
}

// SingleObject reports whether the input selects exactly one key.
func (in DownloadInput) SingleObject() bool {
	return in.ObjectKey != ""
}

// DownloadOptions controls download behavior.
type DownloadOptions struct {
	DownloadFromCurrentDirectoryOnly bool          `json:"downloadFromCurrentDirectoryOnly"`
	DeleteSourceFile                 bool          `json:"deleteSourceFile"`
	Overwrite                        bool          `json:"overwrite"`
	ThrowErrorIfNoMatches            bool          `json:"throwErrorIfNoMatches"`
	CreateDestinationDirectory       bool          `json:"createDestinationDirectory"`
	FailurePolicy                    FailurePolicy `json:"failurePolicy"`
	Concurrency                      int           `json:"concurrency"`
}

// DefaultDownloadOptions returns the options used when none are supplied.
func DefaultDownloadOptions() DownloadOptions {
	return DownloadOptions{
		DownloadFromCurrentDirectoryOnly: true,
		ThrowErrorIfNoMatches:            true,
		Concurrency:                      1,
	}
}

// ListInput holds the ListObjectsV2 query parameters.
// Blank strings mean "not specified".
type ListInput struct {
	Prefix            string `json:"prefix"`
	Delimiter         string `json:"delimiter"`
	MaxKeys           int32  `json:"maxKeys"`
	StartAfter        string `json:"startAfter"`
	ContinuationToken string `json:"continuationToken"`
}

// ListOptions controls the listing response.
type ListOptions struct {
	FullResponse             bool `json:"fullResponse"`
	ThrowErrorIfNoFilesFound bool `json:"throwErrorIfNoFilesFound"`
	FetchOwner               bool `json:"fetchOwner"`
}

// DefaultListOptions returns the options used when none are supplied.
func DefaultListOptions() ListOptions {
	return ListOptions{ThrowErrorIfNoFilesFound: true}
}

// TempCredentialsInput describes an STS AssumeRole request.
type TempCredentialsInput struct {
	RoleARN     string `json:"roleArn"`
	SessionName string `json:"sessionName"`
	ExternalID  string `json:"externalId,omitempty"`

	// DurationSeconds is the session lifetime. Zero means one hour.
	DurationSeconds int32 `json:"durationSeconds"`
}

// Object represents an S3 object with its basic metadata.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	ETag         string    `json:"eTag"`
	StorageClass string    `json:"storageClass"`
	Owner        *Owner    `json:"owner,omitempty"`
}

// Owner is the object owner, present only when FetchOwner was requested.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// LocalFile is a local file selected for upload.
type LocalFile struct {
	// Path is the full local path.
	Path string
	// RelPath is Path relative to the scan root, using the OS separator.
	RelPath string
	Size    int64
	ModTime time.Time
}

// RemoteFile is an object found by an exhaustive prefix listing.
type RemoteFile struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}

// ClientConfig holds configuration for the task client.
type ClientConfig struct {
	// Region is used for connections that leave Region empty.
	Region            Region
	Endpoint          string
	ForcePathStyle    bool
	MaxRetries        int
	Timeout           time.Duration
	PartSize          int64
	UploadConcurrency int
	CustomAWSConfig   *aws.Config
	CustomHTTPClient  *http.Client
	Filesystem        Filesystem
	Logger            *slog.Logger
	EnableTracing     bool

	// S3Client and STSClient replace the clients built per connection.
	S3Client  s3api.S3API
	STSClient s3api.STSAPI
}

// Option is a functional option for configuring the task client.
type Option func(*ClientConfig)
