// Package download handles S3-to-local batch downloads.
//
// A batch either names one object key, or lists a key prefix to exhaustion
// and keeps the objects whose file name matches a wildcard pattern. Matched
// objects are written flat into the destination directory under their last
// key segment.
package download

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/awserr"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/keymap"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

// Plan describes one download batch.
type Plan struct {
	Bucket                   string
	Input                    s3types.DownloadInput
	Options                  s3types.DownloadOptions
	ReportInvalidCredentials bool
}

// Downloader handles S3 download batches.
type Downloader struct {
	s3Client   s3api.S3API
	filesystem s3types.Filesystem
	logger     *slog.Logger
}

// New creates a new Downloader instance.
func New(s3Client s3api.S3API, filesystem s3types.Filesystem, logger *slog.Logger) *Downloader {
	return &Downloader{
		s3Client:   s3Client,
		filesystem: filesystem,
		logger:     logger,
	}
}

// candidate is an object selected for download and its local file name.
type candidate struct {
	key  string
	name string
}

type slot struct {
	entry   *s3types.TransferEntry
	failure *s3types.TransferFailure
}

// Download selects the objects described by plan and writes them to the
// destination directory.
func (d *Downloader) Download(ctx context.Context, plan Plan) (*s3types.DownloadResult, error) {
	if err := d.prepareDestination(plan); err != nil {
		return nil, err
	}

	candidates, err := d.selectObjects(ctx, plan)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		if plan.Options.ThrowErrorIfNoMatches {
			return nil, errors.NewError("download", errors.ErrNoMatch).
				WithBucket(plan.Bucket).
				WithMessage(fmt.Sprintf("no matches found with search pattern %q", plan.Input.SearchPattern))
		}
		return &s3types.DownloadResult{Files: []s3types.TransferEntry{}}, nil
	}

	d.logger.InfoContext(ctx, "downloading files",
		"bucket", plan.Bucket,
		"path", plan.Input.DestinationPath,
		"count", len(candidates))

	// Objects from different folders can flatten to the same local file.
	// Those are written one at a time in key order so the overwrite check
	// sees the earlier file.
	destinations := make([]string, len(candidates))
	for i, c := range candidates {
		destinations[i] = filepath.Join(plan.Input.DestinationPath, c.name)
	}

	opts := plan.Options
	slots := make([]slot, len(candidates))
	err = pool.RunKeyed(ctx, opts.Concurrency, destinations, func(ctx context.Context, i int) error {
		c := candidates[i]
		entry, err := d.downloadFile(ctx, plan, c)
		if err == nil {
			slots[i].entry = &entry
			return nil
		}

		if opts.FailurePolicy == s3types.BestEffort && ctx.Err() == nil {
			d.logger.ErrorContext(ctx, "download failed, continuing",
				"bucket", plan.Bucket,
				"key", c.key,
				"error", err)
			slots[i].failure = &s3types.TransferFailure{
				Key:       c.key,
				LocalPath: destinations[i],
				Err:       err,
			}
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &s3types.DownloadResult{Files: make([]s3types.TransferEntry, 0, len(candidates))}
	for _, s := range slots {
		switch {
		case s.entry != nil:
			result.Add(*s.entry)
		case s.failure != nil:
			result.Failures = append(result.Failures, *s.failure)
		}
	}

	d.logger.InfoContext(ctx, "download finished",
		"bucket", plan.Bucket,
		"count", result.TotalCount,
		"bytes", result.TotalBytes,
		"failures", len(result.Failures))

	return result, nil
}

// prepareDestination requires the destination directory to exist, creating
// it only when asked to.
func (d *Downloader) prepareDestination(plan Plan) error {
	dest := plan.Input.DestinationPath
	info, err := d.filesystem.Stat(dest)
	switch {
	case err == nil:
		if !info.IsDir() {
			return errors.NewError("download", errors.ErrPathNotFound).
				WithKey(dest).
				WithMessage("destination path is not a directory")
		}
		return nil
	case !stderrors.Is(err, os.ErrNotExist):
		return errors.NewError("download", err).WithKey(dest)
	case plan.Options.CreateDestinationDirectory:
		if err := d.filesystem.MkdirAll(dest, 0o755); err != nil {
			return errors.NewError("download", err).
				WithKey(dest).
				WithMessage("creating destination directory")
		}
		return nil
	default:
		return errors.NewError("download", errors.ErrPathNotFound).
			WithKey(dest).
			WithMessage("destination path not found")
	}
}

func (d *Downloader) selectObjects(ctx context.Context, plan Plan) ([]candidate, error) {
	in := plan.Input
	if in.SingleObject() {
		name := in.DestinationFileName
		if name == "" {
			name = keymap.LastSegment(in.ObjectKey)
		}
		return []candidate{{key: in.ObjectKey, name: name}}, nil
	}

	matcher, err := scanner.NewSearchMatcher(in.SearchPattern)
	if err != nil {
		return nil, errors.NewError("download", errors.ErrInvalidInput).
			WithMessage(err.Error())
	}

	objects, err := scanner.NewScanner(d.s3Client, nil).ScanRemote(ctx, plan.Bucket, in.S3Directory)
	if err != nil {
		return nil, errors.NewError("download", awserr.Wrap(err, plan.ReportInvalidCredentials)).
			WithBucket(plan.Bucket)
	}

	currentOnly := plan.Options.DownloadFromCurrentDirectoryOnly
	var candidates []candidate
	for _, obj := range objects {
		if !keymap.InScope(obj.Key, in.S3Directory, in.SearchPattern, currentOnly, matcher) {
			continue
		}
		candidates = append(candidates, candidate{key: obj.Key, name: keymap.LastSegment(obj.Key)})
	}

	d.logger.DebugContext(ctx, "listed objects",
		"bucket", plan.Bucket,
		"key", in.S3Directory,
		"count", len(objects),
		"matched", len(candidates))

	return candidates, nil
}

func (d *Downloader) downloadFile(ctx context.Context, plan Plan, c candidate) (s3types.TransferEntry, error) {
	if err := ctx.Err(); err != nil {
		return s3types.TransferEntry{}, err
	}

	dest := plan.Input.DestinationPath
	localPath := filepath.Join(dest, c.name)

	if !plan.Options.Overwrite {
		exists, err := d.exists(localPath)
		if err != nil {
			return s3types.TransferEntry{}, errors.NewError("download", err).WithKey(localPath)
		}
		if exists {
			return s3types.TransferEntry{}, errors.NewObjectError("download", plan.Bucket, c.key, errors.ErrConflict).
				WithMessage(fmt.Sprintf("file %s already exists at %s, set Overwrite to true to replace it", c.name, dest))
		}
	}

	if err := d.fetch(ctx, plan, c.key, localPath); err != nil {
		return s3types.TransferEntry{}, err
	}

	entry, err := s3types.NewTransferEntry(d.filesystem, c.key, localPath)
	if err != nil {
		return s3types.TransferEntry{}, errors.NewError("download", err).WithKey(localPath)
	}

	d.logger.DebugContext(ctx, "downloaded file",
		"bucket", plan.Bucket,
		"key", c.key,
		"path", localPath,
		"bytes", entry.Size)

	if plan.Options.DeleteSourceFile {
		_, err := d.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(plan.Bucket),
			Key:    aws.String(c.key),
		})
		if err != nil {
			return entry, errors.NewObjectError("download", plan.Bucket, c.key, awserr.Wrap(err, plan.ReportInvalidCredentials)).
				WithMessage("deleting source object")
		}
	}

	return entry, nil
}

// fetch streams the object into localPath. The local file is created only
// after the object response arrives.
func (d *Downloader) fetch(ctx context.Context, plan Plan, key, localPath string) error {
	out, err := d.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(plan.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.NewObjectError("download", plan.Bucket, key, awserr.Wrap(err, plan.ReportInvalidCredentials))
	}
	defer out.Body.Close()

	f, err := d.filesystem.Create(localPath)
	if err != nil {
		return errors.NewError("download", err).WithKey(localPath)
	}

	_, copyErr := pool.Copy(f, out.Body)
	closeErr := f.Close()
	if copyErr != nil {
		_ = d.filesystem.Remove(localPath)
		return errors.NewObjectError("download", plan.Bucket, key, copyErr).
			WithMessage("writing " + localPath)
	}
	if closeErr != nil {
		return errors.NewError("download", closeErr).WithKey(localPath)
	}
	return nil
}

func (d *Downloader) exists(path string) (bool, error) {
	_, err := d.filesystem.Stat(path)
	if err == nil {
		return true, nil
	}
	if stderrors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
