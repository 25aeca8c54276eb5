package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

// listPageSize is the AWS default and maximum page size.
const listPageSize = 1000

// Scanner handles scanning operations for both local filesystem and remote S3.
type Scanner struct {
	s3Client   s3api.S3API
	filesystem s3types.Filesystem
}

// NewScanner creates a new scanner with the provided S3 client and filesystem.
// Either may be nil when only the other side is scanned.
func NewScanner(s3Client s3api.S3API, filesystem s3types.Filesystem) *Scanner {
	return &Scanner{
		s3Client:   s3Client,
		filesystem: filesystem,
	}
}

// ScanLocal returns the files under root whose base name matches mask,
// sorted by path. Subdirectories are descended only when recursive is set.
func (s *Scanner) ScanLocal(
	ctx context.Context,
	root string,
	mask string,
	recursive bool,
) ([]*s3types.LocalFile, error) {
	matcher, err := NewMaskMatcher(mask)
	if err != nil {
		return nil, errors.NewError("scanLocal", errors.ErrInvalidInput).WithMessage(err.Error())
	}

	info, err := s.filesystem.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.NewError("scanLocal", errors.ErrPathNotFound).
			WithKey(root).
			WithMessage("source path not found")
	}

	root = filepath.Clean(root)
	var files []*s3types.LocalFile

	err = s.filesystem.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if info.IsDir() {
			if !recursive && filepath.Clean(path) != root {
				return filepath.SkipDir
			}
			return nil
		}

		if !matcher.Match(info.Name()) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}

		files = append(files, &s3types.LocalFile{
			Path:    path,
			RelPath: relPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// ScanRemote lists every object under prefix, following continuation
// tokens until the listing is no longer truncated.
func (s *Scanner) ScanRemote(
	ctx context.Context,
	bucket string,
	prefix string,
) ([]*s3types.RemoteFile, error) {
	var objects []*s3types.RemoteFile
	var continuationToken *string

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(listPageSize),
	}
	if strings.TrimSpace(prefix) != "" {
		input.Prefix = aws.String(prefix)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during S3 listing: %w", err)
		}

		input.ContinuationToken = continuationToken
		result, err := s.s3Client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in bucket %s: %w", bucket, err)
		}

		for _, obj := range result.Contents {
			remoteFile := &s3types.RemoteFile{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			}
			if obj.ETag != nil {
				remoteFile.ETag = strings.Trim(*obj.ETag, `"`)
			}
			objects = append(objects, remoteFile)
		}

		if !aws.ToBool(result.IsTruncated) || result.NextContinuationToken == nil {
			break
		}
		continuationToken = result.NextContinuationToken
	}

	return objects, nil
}
