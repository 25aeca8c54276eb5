package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/localfs"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

var testFiles = map[string]string{
	"/data/a.txt":     "alpha",
	"/data/b.txt":     "bravo",
	"/data/c.csv":     "x,y\n1,2\n",
	"/data/sub/d.txt": "delta",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUploader(t *testing.T, client *testutil.MockS3Client, files map[string]string) *Uploader {
	t.Helper()
	memFS := testutil.NewMemFS(t, files)
	cfg := Config{DeleteRetry: localfs.RetryConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		MaxElapsedTime:  50 * time.Millisecond,
	}}
	return New(client, memFS, discardLogger(), cfg)
}

func basePlan() Plan {
	opts := s3types.DefaultUploadOptions()
	return Plan{
		Bucket: "test-bucket",
		Input: s3types.UploadInput{
			FilePath:    "/data",
			FileMask:    "*.txt",
			S3Directory: "in",
		},
		Options: opts,
	}
}

func TestUploader_Upload_Flat(t *testing.T) {
	bucket := testutil.NewMemoryBucket()
	u := newTestUploader(t, bucket.Client(), testFiles)

	result, err := u.Upload(context.Background(), basePlan())
	require.NoError(t, err)

	assert.Equal(t, []string{"/data/a.txt", "/data/b.txt"}, result.UploadedFiles)
	assert.Equal(t, []string{"in/a.txt", "in/b.txt"}, bucket.Keys())
	require.Len(t, result.Objects, 2)
	assert.Equal(t, s3types.TransferEntry{Key: "in/a.txt", LocalPath: "/data/a.txt", Size: 5}, result.Objects[0])
	assert.Empty(t, result.Failures)
	assert.NoError(t, result.Err())

	stored := bucket.Get("in/a.txt")
	assert.Equal(t, "alpha", string(stored.Data))
	assert.Contains(t, stored.ContentType, "text/plain")
	assert.Equal(t, awstypes.StorageClassStandard, stored.StorageClass)
}

func TestUploader_Upload_PreserveFolderStructure(t *testing.T) {
	bucket := testutil.NewMemoryBucket()
	u := newTestUploader(t, bucket.Client(), testFiles)

	plan := basePlan()
	plan.Input.S3Directory = "in/"
	plan.Options.UploadFromCurrentDirectoryOnly = false
	plan.Options.PreserveFolderStructure = true
	plan.Options.ReturnListOfObjectKeys = true

	result, err := u.Upload(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, []string{"in/a.txt", "in/b.txt", "in/sub/d.txt"}, result.UploadedFiles)
	assert.Equal(t, []string{"in/a.txt", "in/b.txt", "in/sub/d.txt"}, bucket.Keys())
}

func TestUploader_Upload_RecursiveFlattensWithoutPreserve(t *testing.T) {
	bucket := testutil.NewMemoryBucket()
	u := newTestUploader(t, bucket.Client(), testFiles)

	plan := basePlan()
	plan.Options.UploadFromCurrentDirectoryOnly = false
	plan.Options.ReturnListOfObjectKeys = true

	result, err := u.Upload(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"in/a.txt", "in/b.txt", "in/d.txt"}, result.UploadedFiles)
}

func TestUploader_Upload_NoMatch(t *testing.T) {
	t.Run("fails_before_any_s3_call", func(t *testing.T) {
		bucket := testutil.NewMemoryBucket()
		u := newTestUploader(t, bucket.Client(), testFiles)

		plan := basePlan()
		plan.Input.FileMask = "*.xml"

		_, err := u.Upload(context.Background(), plan)
		require.Error(t, err)
		assert.True(t, errors.IsNoMatch(err))
		assert.Contains(t, err.Error(), "*.xml")
		assert.Zero(t, bucket.Calls("HeadObject"))
		assert.Zero(t, bucket.Calls("PutObject"))
	})

	t.Run("empty_result_when_allowed", func(t *testing.T) {
		bucket := testutil.NewMemoryBucket()
		u := newTestUploader(t, bucket.Client(), testFiles)

		plan := basePlan()
		plan.Input.FileMask = "*.xml"
		plan.Options.ThrowErrorIfNoMatch = false

		result, err := u.Upload(context.Background(), plan)
		require.NoError(t, err)
		assert.NotNil(t, result.UploadedFiles)
		assert.Empty(t, result.UploadedFiles)
	})
}

func TestUploader_Upload_MissingSource(t *testing.T) {
	bucket := testutil.NewMemoryBucket()
	u := newTestUploader(t, bucket.Client(), testFiles)

	plan := basePlan()
	plan.Input.FilePath = "/missing"

	_, err := u.Upload(context.Background(), plan)
	require.Error(t, err)
	assert.True(t, errors.IsPathNotFound(err))
	assert.Contains(t, err.Error(), "source path not found")
}

func TestUploader_Upload_Overwrite(t *testing.T) {
	t.Run("conflict_when_disabled", func(t *testing.T) {
		bucket := testutil.NewMemoryBucket()
		bucket.Put("in/a.txt", []byte("old"))
		u := newTestUploader(t, bucket.Client(), testFiles)

		_, err := u.Upload(context.Background(), basePlan())
		require.Error(t, err)
		assert.True(t, errors.IsConflict(err))
		assert.Contains(t, err.Error(), "in/a.txt")
		assert.Equal(t, "old", string(bucket.Get("in/a.txt").Data))
	})

	t.Run("replaces_when_enabled", func(t *testing.T) {
		bucket := testutil.NewMemoryBucket()
		bucket.Put("in/a.txt", []byte("old"))
		u := newTestUploader(t, bucket.Client(), testFiles)

		plan := basePlan()
		plan.Options.Overwrite = true

		_, err := u.Upload(context.Background(), plan)
		require.NoError(t, err)
		assert.Equal(t, "alpha", string(bucket.Get("in/a.txt").Data))
		assert.Zero(t, bucket.Calls("HeadObject"))
	})
}

func TestUploader_Upload_ExistenceProbeError(t *testing.T) {
	bucket := testutil.NewMemoryBucket()
	client := bucket.Client()
	client.HeadObjectFunc = func(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return nil, testutil.APIError("AccessDenied", "denied")
	}
	u := newTestUploader(t, client, testFiles)

	_, err := u.Upload(context.Background(), basePlan())
	require.Error(t, err)
	assert.True(t, errors.IsAccessDenied(err))
	assert.Zero(t, bucket.Calls("PutObject"))
}

func TestUploader_Upload_DeleteSource(t *testing.T) {
	bucket := testutil.NewMemoryBucket()
	memFS := testutil.NewMemFS(t, testFiles)
	u := New(bucket.Client(), memFS, discardLogger(), Config{})

	plan := basePlan()
	plan.Options.DeleteSource = true

	result, err := u.Upload(context.Background(), plan)
	require.NoError(t, err)

	assert.False(t, testutil.FileExists(t, memFS, "/data/a.txt"))
	assert.False(t, testutil.FileExists(t, memFS, "/data/b.txt"))
	assert.True(t, testutil.FileExists(t, memFS, "/data/c.csv"))
	for _, obj := range result.Objects {
		assert.Empty(t, obj.LocalPath)
		assert.Equal(t, int64(5), obj.Size)
	}
}

func TestUploader_Upload_StorageClassAndACL(t *testing.T) {
	bucket := testutil.NewMemoryBucket()
	u := newTestUploader(t, bucket.Client(), testFiles)

	plan := basePlan()
	plan.Input.CannedACL = s3types.ACLBucketOwnerFullControl
	plan.Options.StorageClass = s3types.StorageClassGlacier

	_, err := u.Upload(context.Background(), plan)
	require.NoError(t, err)

	stored := bucket.Get("in/b.txt")
	assert.Equal(t, awstypes.StorageClassGlacier, stored.StorageClass)
	assert.Equal(t, awstypes.ObjectCannedACLBucketOwnerFullControl, stored.ACL)
}

func failingPut(bucket *testutil.MemoryBucket, failKey string) *testutil.MockS3Client {
	client := bucket.Client()
	put := client.PutObjectFunc
	client.PutObjectFunc = func(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		if aws.ToString(in.Key) == failKey {
			return nil, testutil.APIError("InternalError", "boom")
		}
		return put(ctx, in, opts...)
	}
	return client
}

func TestUploader_Upload_FailurePolicy(t *testing.T) {
	t.Run("fail_fast", func(t *testing.T) {
		bucket := testutil.NewMemoryBucket()
		u := newTestUploader(t, failingPut(bucket, "in/a.txt"), testFiles)

		_, err := u.Upload(context.Background(), basePlan())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "in/a.txt")
		assert.Empty(t, bucket.Keys())
	})

	t.Run("best_effort", func(t *testing.T) {
		bucket := testutil.NewMemoryBucket()
		u := newTestUploader(t, failingPut(bucket, "in/a.txt"), testFiles)

		plan := basePlan()
		plan.Options.FailurePolicy = s3types.BestEffort

		result, err := u.Upload(context.Background(), plan)
		require.NoError(t, err)

		assert.Equal(t, []string{"/data/b.txt"}, result.UploadedFiles)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "in/a.txt", result.Failures[0].Key)
		assert.Equal(t, "/data/a.txt", result.Failures[0].LocalPath)
		assert.Error(t, result.Err())
	})
}

func TestUploader_Upload_InvalidCredentials(t *testing.T) {
	bucket := testutil.NewMemoryBucket()
	client := bucket.Client()
	client.HeadObjectFunc = func(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return nil, testutil.APIError("InvalidAccessKeyId", "bad key")
	}
	u := newTestUploader(t, client, testFiles)

	plan := basePlan()
	_, err := u.Upload(context.Background(), plan)
	require.Error(t, err)
	assert.False(t, errors.IsInvalidCredentials(err))

	plan.ReportInvalidCredentials = true
	_, err = u.Upload(context.Background(), plan)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidCredentials(err))
}

func TestUploader_Upload_ConcurrentKeepsOrder(t *testing.T) {
	files := make(map[string]string)
	var want []string
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("/data/file%02d.txt", i)
		files[name] = strings.Repeat("x", i+1)
		want = append(want, fmt.Sprintf("in/file%02d.txt", i))
	}

	bucket := testutil.NewMemoryBucket()
	u := newTestUploader(t, bucket.Client(), files)

	plan := basePlan()
	plan.Options.Concurrency = 4
	plan.Options.ReturnListOfObjectKeys = true

	result, err := u.Upload(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, want, result.UploadedFiles)
	assert.Equal(t, want, bucket.Keys())
	for i, obj := range result.Objects {
		assert.Equal(t, int64(i+1), obj.Size)
	}
}

func TestUploader_Upload_ConcurrentSameKey(t *testing.T) {
	files := map[string]string{
		"/data/x/dup.txt": "first",
		"/data/y/dup.txt": "second",
		"/data/z.txt":     "other",
	}

	setup := func(t *testing.T) (*Uploader, *testutil.MemoryBucket, Plan) {
		t.Helper()
		bucket := testutil.NewMemoryBucket()
		client := bucket.Client()
		head := client.HeadObjectFunc
		client.HeadObjectFunc = func(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			time.Sleep(20 * time.Millisecond)
			return head(ctx, in, opts...)
		}

		plan := basePlan()
		plan.Options.UploadFromCurrentDirectoryOnly = false
		plan.Options.Concurrency = 4
		return newTestUploader(t, client, files), bucket, plan
	}

	t.Run("fail_fast_conflict", func(t *testing.T) {
		u, bucket, plan := setup(t)

		_, err := u.Upload(context.Background(), plan)
		require.Error(t, err)
		assert.True(t, errors.IsConflict(err))
		assert.Equal(t, "first", string(bucket.Get("in/dup.txt").Data))
	})

	t.Run("best_effort_conflict", func(t *testing.T) {
		u, bucket, plan := setup(t)
		plan.Options.FailurePolicy = s3types.BestEffort

		result, err := u.Upload(context.Background(), plan)
		require.NoError(t, err)
		assert.Equal(t, []string{"/data/x/dup.txt", "/data/z.txt"}, result.UploadedFiles)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "in/dup.txt", result.Failures[0].Key)
		assert.Equal(t, "/data/y/dup.txt", result.Failures[0].LocalPath)
		assert.True(t, errors.IsConflict(result.Failures[0].Err))
		assert.Equal(t, "first", string(bucket.Get("in/dup.txt").Data))
	})

	t.Run("overwrite_last_file_wins", func(t *testing.T) {
		u, bucket, plan := setup(t)
		plan.Options.Overwrite = true

		result, err := u.Upload(context.Background(), plan)
		require.NoError(t, err)
		assert.Len(t, result.UploadedFiles, 3)
		assert.Equal(t, "second", string(bucket.Get("in/dup.txt").Data))
	})
}

func TestUploader_Upload_Cancelled(t *testing.T) {
	bucket := testutil.NewMemoryBucket()
	u := newTestUploader(t, bucket.Client(), testFiles)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := u.Upload(ctx, basePlan())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, bucket.Keys())
}

func TestDetectContentType(t *testing.T) {
	ct, err := detectContentType(strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, "application/json", ct)

	r := strings.NewReader("plain text body")
	ct, err = detectContentType(r)
	require.NoError(t, err)
	assert.Contains(t, ct, "text/plain")

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "plain text body", string(rest), "reader is rewound")
}
