// Package testutil provides test helper functions.
package testutil

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/require"
)

// GenerateTestBucketName generates a unique bucket name for testing.
// Bucket names follow S3 naming conventions (lowercase, no underscores).
func GenerateTestBucketName(prefix string) string {
	//nolint:gosec // test data only
	suffix := rand.Int63()
	name := fmt.Sprintf("%s-%d-%d", prefix, time.Now().Unix(), suffix)
	name = strings.ToLower(name)
	if len(name) > 63 {
		name = name[:63]
	}
	return strings.TrimRight(name, "-")
}

// CalculateETag calculates the ETag for data, matching S3 single-part uploads.
func CalculateETag(data []byte) string {
	//nolint:gosec // MD5 mirrors S3 ETag semantics
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// CreateTestObject creates a test S3 object for listing responses.
func CreateTestObject(key string, size int64, lastModified time.Time) types.Object {
	return types.Object{
		Key:          aws.String(key),
		Size:         aws.Int64(size),
		LastModified: aws.Time(lastModified),
		ETag:         aws.String(`"etag-` + key + `"`),
		StorageClass: types.ObjectStorageClassStandard,
	}
}

// CreateListObjectsV2Output creates a single listing page.
// A non-empty nextToken marks the page as truncated.
func CreateListObjectsV2Output(bucket string, objects []types.Object, nextToken string) *s3.ListObjectsV2Output {
	out := &s3.ListObjectsV2Output{
		Name:        aws.String(bucket),
		Contents:    objects,
		KeyCount:    aws.Int32(int32(len(objects))),
		IsTruncated: aws.Bool(nextToken != ""),
	}
	if nextToken != "" {
		out.NextContinuationToken = aws.String(nextToken)
	}
	return out
}

// APIError builds a generic smithy API error with the given code.
func APIError(code, message string) error {
	return &smithy.GenericAPIError{Code: code, Message: message}
}

// NewMemFS creates an in-memory filesystem populated with files.
// Keys are absolute paths; parent directories are created as needed.
func NewMemFS(t *testing.T, files map[string]string) *billy.FS {
	t.Helper()
	memFS := billy.NewInMemoryFS()
	for path, content := range files {
		require.NoError(t, memFS.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, memFS.WriteFile(path, []byte(content), 0o644))
	}
	return memFS
}

// ReadFile reads a file from the filesystem, failing the test on error.
func ReadFile(t *testing.T, memFS *billy.FS, path string) string {
	t.Helper()
	data, err := memFS.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// FileExists reports whether path exists on the filesystem.
func FileExists(t *testing.T, memFS *billy.FS, path string) bool {
	t.Helper()
	_, err := memFS.Stat(path)
	if err == nil {
		return true
	}
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	require.NoError(t, err)
	return false
}
