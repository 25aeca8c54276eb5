package s3tasks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

func testConnection() s3types.Connection {
	return s3types.Connection{
		BucketName:      "test-bucket",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "secret",
		Region:          s3types.RegionEuWest1,
	}
}

func newTestClient(t *testing.T, files map[string]string) (*Client, *testutil.MemoryBucket, *billy.FS) {
	t.Helper()
	bucket := testutil.NewMemoryBucket()
	memFS := testutil.NewMemFS(t, files)
	return NewWithClient(bucket.Client(), WithFilesystem(memFS)), bucket, memFS
}

func TestNew(t *testing.T) {
	client, err := New()
	require.NoError(t, err)
	assert.Equal(t, DefaultPartSize, client.cfg.PartSize)
	assert.Equal(t, 3, client.cfg.MaxRetries)
	assert.NotNil(t, client.filesystem())
	assert.NotNil(t, client.logger)
	assert.NoError(t, client.Close())

	client, err = New(
		WithRegion(s3types.RegionUsWest2),
		WithEndpoint("http://localhost:4566"),
		WithForcePathStyle(true),
		WithMaxRetries(7),
		WithTimeout(time.Second),
		WithPartSize(16*1024*1024),
		WithUploadConcurrency(2),
		WithTracing(true),
	)
	require.NoError(t, err)
	assert.Equal(t, s3types.RegionUsWest2, client.cfg.Region)
	assert.Equal(t, "http://localhost:4566", client.cfg.Endpoint)
	assert.True(t, client.cfg.ForcePathStyle)
	assert.Equal(t, 7, client.cfg.MaxRetries)
	assert.Equal(t, time.Second, client.cfg.Timeout)
	assert.Equal(t, int64(16*1024*1024), client.cfg.PartSize)
	assert.Equal(t, 2, client.cfg.UploadConcurrency)
	assert.True(t, client.cfg.EnableTracing)
	assert.Equal(t, "us-west-2", client.provider.Region(s3types.Connection{}))
}

func TestNewRejectsSmallPartSize(t *testing.T) {
	_, err := New(WithPartSize(1024))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestClient_ValidationBeforeRemoteCalls(t *testing.T) {
	client, bucket, _ := newTestClient(t, nil)
	ctx := context.Background()

	conn := testConnection()
	conn.SecretAccessKey = " "
	conn.BucketName = ""

	_, err := client.UploadFiles(ctx, s3types.UploadInput{FilePath: "/data"}, conn, s3types.DefaultUploadOptions())
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "BucketName, SecretAccessKey")

	_, err = client.DownloadFiles(ctx, s3types.DownloadInput{}, testConnection(), s3types.DefaultDownloadOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DestinationPath")

	_, err = client.ListObjects(ctx, s3types.ListInput{}, conn, s3types.DefaultListOptions())
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	assert.Zero(t, bucket.Calls("ListObjectsV2"))
	assert.Zero(t, bucket.Calls("PutObject"))
}

func TestClient_UploadFiles(t *testing.T) {
	client, bucket, _ := newTestClient(t, map[string]string{
		"/data/a.csv": "1,2",
		"/data/b.csv": "3,4",
		"/data/c.txt": "skip",
	})

	opts := s3types.DefaultUploadOptions()
	opts.ReturnListOfObjectKeys = true
	opts.CaptureDebugLog = true

	result, err := client.UploadFiles(context.Background(), s3types.UploadInput{
		FilePath:    "/data",
		FileMask:    "*.csv",
		S3Directory: "incoming",
	}, testConnection(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"incoming/a.csv", "incoming/b.csv"}, result.UploadedFiles)
	assert.Equal(t, []string{"incoming/a.csv", "incoming/b.csv"}, bucket.Keys())
	assert.Contains(t, result.DebugLog, "uploaded file")
	assert.Contains(t, result.DebugLog, "key=incoming/a.csv")
}

func TestClient_UploadFiles_NoMatchBeforeRemoteCalls(t *testing.T) {
	client, bucket, _ := newTestClient(t, map[string]string{"/data/a.txt": "a"})

	_, err := client.UploadFiles(context.Background(), s3types.UploadInput{
		FilePath: "/data",
		FileMask: "*.csv",
	}, testConnection(), s3types.DefaultUploadOptions())
	require.Error(t, err)
	assert.True(t, errors.IsNoMatch(err))
	assert.Zero(t, bucket.Calls("HeadObject"))
	assert.Zero(t, bucket.Calls("PutObject"))
}

func TestClient_DownloadFiles(t *testing.T) {
	client, bucket, memFS := newTestClient(t, nil)
	bucket.Put("reports/2024.csv", []byte("year,total"))
	bucket.Put("reports/2025.csv", []byte("year,total,delta"))
	bucket.Put("reports/archive/2023.csv", []byte("old"))

	opts := s3types.DefaultDownloadOptions()
	opts.CreateDestinationDirectory = true

	result, err := client.DownloadFiles(context.Background(), s3types.DownloadInput{
		S3Directory:     "reports/",
		SearchPattern:   "*.csv",
		DestinationPath: "/downloads",
	}, testConnection(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"/downloads/2024.csv", "/downloads/2025.csv"}, result.Paths())
	assert.Equal(t, int64(26), result.TotalBytes)
	assert.Equal(t, "year,total", testutil.ReadFile(t, memFS, "/downloads/2024.csv"))
}

func TestClient_RelativePathsUseWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll("outbox", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("outbox", "a.txt"), []byte("alpha"), 0o644))

	bucket := testutil.NewMemoryBucket()
	client := NewWithClient(bucket.Client())
	ctx := context.Background()

	uploaded, err := client.UploadFiles(ctx, s3types.UploadInput{
		FilePath:    "outbox",
		FileMask:    "*.txt",
		S3Directory: "in",
	}, testConnection(), s3types.DefaultUploadOptions())
	require.NoError(t, err)
	require.Len(t, uploaded.UploadedFiles, 1)
	assert.True(t, filepath.IsAbs(uploaded.UploadedFiles[0]))
	assert.Equal(t, []string{"in/a.txt"}, bucket.Keys())

	opts := s3types.DefaultDownloadOptions()
	opts.CreateDestinationDirectory = true
	downloaded, err := client.DownloadFiles(ctx, s3types.DownloadInput{
		S3Directory:     "in/",
		SearchPattern:   "*",
		DestinationPath: "inbox",
	}, testConnection(), opts)
	require.NoError(t, err)
	require.Len(t, downloaded.Files, 1)
	assert.True(t, filepath.IsAbs(downloaded.Files[0].LocalPath))

	data, err := os.ReadFile(filepath.Join("inbox", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))
}

func TestClient_ListObjects(t *testing.T) {
	client, bucket, _ := newTestClient(t, nil)
	bucket.Put("logs/a.log", []byte("a"))
	bucket.Put("logs/b.log", []byte("b"))

	opts := s3types.DefaultListOptions()
	opts.FullResponse = true

	out, err := client.ListObjects(context.Background(), s3types.ListInput{Prefix: "logs/"}, testConnection(), opts)
	require.NoError(t, err)
	require.NotNil(t, out.Response)
	assert.Equal(t, "test-bucket", out.Response.Name)
	assert.Len(t, out.Objects, 2)

	_, err = client.ListObjects(context.Background(), s3types.ListInput{Prefix: "none/"}, testConnection(), s3types.DefaultListOptions())
	require.Error(t, err)
	assert.True(t, errors.IsNoMatch(err))
}

func TestClient_CancelledContext(t *testing.T) {
	client, bucket, _ := newTestClient(t, map[string]string{"/data/a.txt": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.UploadFiles(ctx, s3types.UploadInput{FilePath: "/data"}, testConnection(), s3types.DefaultUploadOptions())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = client.ListObjects(ctx, s3types.ListInput{}, testConnection(), s3types.DefaultListOptions())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = client.GetTemporaryCredentials(ctx, s3types.TempCredentialsInput{}, testConnection())
	assert.ErrorIs(t, err, context.Canceled)

	assert.Zero(t, bucket.Calls("ListObjectsV2"))
}

func TestClient_GetTemporaryCredentials(t *testing.T) {
	expiration := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	stsClient := &testutil.MockSTSClient{
		AssumeRoleFunc: func(
			_ context.Context,
			in *sts.AssumeRoleInput,
			_ ...func(*sts.Options),
		) (*sts.AssumeRoleOutput, error) {
			assert.Equal(t, "arn:aws:iam::123456789012:role/uploader", aws.ToString(in.RoleArn))
			assert.Equal(t, "nightly", aws.ToString(in.RoleSessionName))
			return &sts.AssumeRoleOutput{Credentials: &ststypes.Credentials{
				AccessKeyId:     aws.String("ASIA"),
				SecretAccessKey: aws.String("temp"),
				SessionToken:    aws.String("token"),
				Expiration:      aws.Time(expiration),
			}}, nil
		},
	}

	client, bucket, _ := newTestClient(t, nil)
	client.SetSTSClient(stsClient)
	bucket.Put("in/a.txt", []byte("a"))

	// The bucket is not needed to assume a role.
	conn := testConnection()
	conn.BucketName = ""

	creds, err := client.GetTemporaryCredentials(context.Background(), s3types.TempCredentialsInput{
		RoleARN:     "arn:aws:iam::123456789012:role/uploader",
		SessionName: "nightly",
	}, conn)
	require.NoError(t, err)
	assert.Equal(t, "ASIA", creds.AccessKeyID)
	assert.Equal(t, expiration, creds.Expiration)

	// The credentials authenticate a follow-up operation.
	temp := s3types.Connection{BucketName: "test-bucket", TemporaryCredentials: &creds}
	out, err := client.ListObjects(context.Background(), s3types.ListInput{}, temp, s3types.DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, out.Objects, 1)
}

func TestClient_GetTemporaryCredentials_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     s3types.TempCredentialsInput
		stsErr    error
		report    bool
		checkErr  func(error) bool
		wantCalls int
	}{
		{
			name:      "missing_fields",
			input:     s3types.TempCredentialsInput{RoleARN: "arn:role"},
			checkErr:  errors.IsInvalidInput,
			wantCalls: 0,
		},
		{
			name:      "rejected_credentials_reported",
			input:     s3types.TempCredentialsInput{RoleARN: "arn:role", SessionName: "s"},
			stsErr:    testutil.APIError("InvalidClientTokenId", "bad token"),
			report:    true,
			checkErr:  errors.IsInvalidCredentials,
			wantCalls: 1,
		},
		{
			name:      "access_denied",
			input:     s3types.TempCredentialsInput{RoleARN: "arn:role", SessionName: "s"},
			stsErr:    testutil.APIError("AccessDenied", "not allowed"),
			checkErr:  errors.IsAccessDenied,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			client := NewWithClient(&testutil.MockS3Client{}, WithSTSClient(&testutil.MockSTSClient{
				AssumeRoleFunc: func(context.Context, *sts.AssumeRoleInput, ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
					calls++
					return nil, tt.stsErr
				},
			}))

			conn := testConnection()
			conn.ReportInvalidCredentials = tt.report

			_, err := client.GetTemporaryCredentials(context.Background(), tt.input, conn)
			require.Error(t, err)
			assert.True(t, tt.checkErr(err), err.Error())
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

// TestClient_RoundTrip uploads a tree with structure preserved, lists it,
// downloads it into a fresh directory and compares the bytes.
func TestClient_RoundTrip(t *testing.T) {
	files := map[string]string{
		"/src/one.txt":        "first file",
		"/src/two.txt":        "second file",
		"/src/a/three.txt":    "third file",
		"/src/a/b/four.txt":   "fourth file",
		"/src/a/b/c/five.txt": "fifth file",
	}
	client, bucket, memFS := newTestClient(t, files)
	bucket.PageSize = 2
	ctx := context.Background()
	conn := testConnection()

	uploadOpts := s3types.DefaultUploadOptions()
	uploadOpts.UploadFromCurrentDirectoryOnly = false
	uploadOpts.PreserveFolderStructure = true
	uploadOpts.DeleteSource = true

	uploaded, err := client.UploadFiles(ctx, s3types.UploadInput{
		FilePath:    "/src",
		FileMask:    "*.txt",
		S3Directory: "tree",
	}, conn, uploadOpts)
	require.NoError(t, err)
	assert.Len(t, uploaded.Objects, 5)
	for path := range files {
		assert.False(t, testutil.FileExists(t, memFS, path), path)
	}

	listed, err := client.ListObjects(ctx, s3types.ListInput{Prefix: "tree/", MaxKeys: 10}, conn, s3types.DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, listed.Objects, 2, "a single page is returned")

	downloadOpts := s3types.DefaultDownloadOptions()
	downloadOpts.DownloadFromCurrentDirectoryOnly = false
	downloadOpts.CreateDestinationDirectory = true

	downloaded, err := client.DownloadFiles(ctx, s3types.DownloadInput{
		S3Directory:     "tree/",
		SearchPattern:   "*.txt",
		DestinationPath: "/dst",
	}, conn, downloadOpts)
	require.NoError(t, err)
	assert.Equal(t, 5, downloaded.TotalCount)

	for path, content := range files {
		assert.Equal(t, content, testutil.ReadFile(t, memFS, filepath.Join("/dst", filepath.Base(path))))
	}

	data, err := json.Marshal(downloaded)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"totalCount":5`)
}

func TestClient_SetFilesystem(t *testing.T) {
	client := NewWithClient(&testutil.MockS3Client{})
	memFS := billy.NewInMemoryFS()
	client.SetFilesystem(memFS)
	assert.Same(t, memFS, client.filesystem())
}
