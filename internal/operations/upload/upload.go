// Package upload handles local-to-S3 batch uploads.
//
// Files are selected from a local directory by mask, mapped to object keys
// and transferred with the SDK transfer manager, which switches to multipart
// uploads above the configured part size.
package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/awserr"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/keymap"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/localfs"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

// sniffSize is how much of a file is read for content type detection.
const sniffSize = 3072

// Plan describes one upload batch.
type Plan struct {
	Bucket                   string
	Input                    s3types.UploadInput
	Options                  s3types.UploadOptions
	ReportInvalidCredentials bool
}

// Config tunes the transfer manager.
type Config struct {
	// PartSize is the multipart part size. Values below the S3 minimum keep the manager default.
	PartSize int64
	// Concurrency is the number of parts uploaded in parallel per file.
	Concurrency int
	// DeleteRetry bounds retries when removing a source file that is still locked.
	DeleteRetry localfs.RetryConfig
}

// Uploader handles S3 upload batches.
type Uploader struct {
	s3Client   s3api.S3API
	manager    *manager.Uploader
	filesystem s3types.Filesystem
	logger     *slog.Logger
	retry      localfs.RetryConfig
}

// New creates a new Uploader instance.
func New(s3Client s3api.S3API, filesystem s3types.Filesystem, logger *slog.Logger, cfg Config) *Uploader {
	mgr := manager.NewUploader(s3Client, func(u *manager.Uploader) {
		if cfg.PartSize >= manager.MinUploadPartSize {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
	})

	return &Uploader{
		s3Client:   s3Client,
		manager:    mgr,
		filesystem: filesystem,
		logger:     logger,
		retry:      cfg.DeleteRetry,
	}
}

// slot holds the outcome for one file so results keep enumeration order
// when files are transferred concurrently.
type slot struct {
	entry    *s3types.TransferEntry
	recorded string
	failure  *s3types.TransferFailure
}

// Upload selects the files described by plan and uploads them.
func (u *Uploader) Upload(ctx context.Context, plan Plan) (*s3types.UploadResult, error) {
	opts := plan.Options
	files, err := scanner.NewScanner(nil, u.filesystem).ScanLocal(
		ctx,
		plan.Input.FilePath,
		plan.Input.FileMask,
		!opts.UploadFromCurrentDirectoryOnly,
	)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		if opts.ThrowErrorIfNoMatch {
			return nil, errors.NewError("upload", errors.ErrNoMatch).
				WithKey(plan.Input.FilePath).
				WithMessage(fmt.Sprintf("no files match the file mask %q", plan.Input.FileMask))
		}
		return &s3types.UploadResult{UploadedFiles: []string{}}, nil
	}

	u.logger.InfoContext(ctx, "uploading files",
		"bucket", plan.Bucket,
		"path", plan.Input.FilePath,
		"count", len(files))

	// Flattened files from different folders can map to the same key. Those
	// are uploaded one at a time in enumeration order so the existence probe
	// sees the earlier object.
	destinations := make([]string, len(files))
	for i, file := range files {
		key, err := keymap.ObjectKey(plan.Input.S3Directory, plan.Input.FilePath, file.Path, opts.PreserveFolderStructure)
		if err != nil {
			key = file.Path
		}
		destinations[i] = key
	}

	slots := make([]slot, len(files))
	err = pool.RunKeyed(ctx, opts.Concurrency, destinations, func(ctx context.Context, i int) error {
		file := files[i]
		entry, err := u.uploadFile(ctx, file, plan)
		if err == nil {
			slots[i].entry = &entry
			slots[i].recorded = file.Path
			if opts.ReturnListOfObjectKeys {
				slots[i].recorded = entry.Key
			}
			return nil
		}

		if opts.FailurePolicy == s3types.BestEffort && ctx.Err() == nil {
			u.logger.ErrorContext(ctx, "upload failed, continuing",
				"bucket", plan.Bucket,
				"path", file.Path,
				"error", err)
			slots[i].failure = &s3types.TransferFailure{Key: entry.Key, LocalPath: file.Path, Err: err}
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &s3types.UploadResult{
		UploadedFiles: make([]string, 0, len(files)),
		Objects:       make([]s3types.TransferEntry, 0, len(files)),
	}
	for _, s := range slots {
		switch {
		case s.entry != nil:
			result.UploadedFiles = append(result.UploadedFiles, s.recorded)
			result.Objects = append(result.Objects, *s.entry)
		case s.failure != nil:
			result.Failures = append(result.Failures, *s.failure)
		}
	}

	u.logger.InfoContext(ctx, "upload finished",
		"bucket", plan.Bucket,
		"count", len(result.Objects),
		"failures", len(result.Failures))

	return result, nil
}

// uploadFile transfers one file. The returned entry carries the key even on
// failure once it is known.
func (u *Uploader) uploadFile(
	ctx context.Context,
	file *s3types.LocalFile,
	plan Plan,
) (s3types.TransferEntry, error) {
	if err := ctx.Err(); err != nil {
		return s3types.TransferEntry{}, err
	}

	key, err := keymap.ObjectKey(plan.Input.S3Directory, plan.Input.FilePath, file.Path, plan.Options.PreserveFolderStructure)
	if err != nil {
		return s3types.TransferEntry{}, errors.NewError("upload", err).WithKey(file.Path)
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return s3types.TransferEntry{Key: key}, err
	}

	entry, err := s3types.NewTransferEntry(u.filesystem, key, file.Path)
	if err != nil {
		return s3types.TransferEntry{Key: key}, errors.NewError("upload", err).
			WithKey(file.Path).
			WithMessage("source file does not exist")
	}

	if !plan.Options.Overwrite {
		if err := u.checkAbsent(ctx, plan, key); err != nil {
			return entry, err
		}
	}

	if err := u.put(ctx, plan, entry); err != nil {
		return entry, err
	}

	u.logger.DebugContext(ctx, "uploaded file",
		"bucket", plan.Bucket,
		"key", key,
		"path", file.Path,
		"bytes", entry.Size)

	if plan.Options.DeleteSource {
		if err := localfs.RemoveWithRetry(ctx, u.filesystem, file.Path, u.retry); err != nil {
			return entry, errors.NewError("upload", err).WithKey(file.Path)
		}
		entry.LocalPath = ""
	}

	return entry, nil
}

// checkAbsent fails with ErrConflict when key already exists.
// Only a not-found response lets the upload proceed.
func (u *Uploader) checkAbsent(ctx context.Context, plan Plan, key string) error {
	_, err := u.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(plan.Bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		return errors.NewObjectError("upload", plan.Bucket, key, errors.ErrConflict).
			WithMessage("object already exists, set Overwrite to true to replace it")
	case awserr.IsNotFound(err):
		return nil
	default:
		return errors.NewObjectError("upload", plan.Bucket, key, awserr.Wrap(err, plan.ReportInvalidCredentials)).
			WithMessage("checking for existing object")
	}
}

func (u *Uploader) put(ctx context.Context, plan Plan, entry s3types.TransferEntry) error {
	f, err := u.filesystem.Open(entry.LocalPath)
	if err != nil {
		return errors.NewError("upload", err).WithKey(entry.LocalPath)
	}
	defer f.Close()

	contentType, err := detectContentType(f)
	if err != nil {
		return errors.NewError("upload", err).WithKey(entry.LocalPath)
	}

	input := &s3.PutObjectInput{
		Bucket:       aws.String(plan.Bucket),
		Key:          aws.String(entry.Key),
		Body:         f,
		ContentType:  aws.String(contentType),
		StorageClass: plan.Options.StorageClass.SDK(),
	}
	if acl := plan.Input.CannedACL.SDK(); acl != "" {
		input.ACL = acl
	}

	if _, err := u.manager.Upload(ctx, input); err != nil {
		return errors.NewObjectError("upload", plan.Bucket, entry.Key, awserr.Wrap(err, plan.ReportInvalidCredentials))
	}
	return nil
}

// detectContentType sniffs the head of r with mimetype and rewinds it.
func detectContentType(r io.ReadSeeker) (string, error) {
	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mimetype.Detect(buf[:n]).String(), nil
}
