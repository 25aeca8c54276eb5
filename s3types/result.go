package s3types

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
)

// FileStater reports file metadata.
type FileStater interface {
	Stat(name string) (os.FileInfo, error)
}

// TransferEntry records one transferred file.
type TransferEntry struct {
	Key       string `json:"key"`
	LocalPath string `json:"localPath,omitempty"`
	Size      int64  `json:"size"`
}

// NewTransferEntry builds an entry for a file that must exist at localPath.
// It fails when the file is missing or is a directory.
func NewTransferEntry(stater FileStater, key, localPath string) (TransferEntry, error) {
	info, err := stater.Stat(localPath)
	if err != nil {
		return TransferEntry{}, fmt.Errorf("stat %s: %w", localPath, err)
	}
	if info.IsDir() {
		return TransferEntry{}, fmt.Errorf("%s is a directory", localPath)
	}
	return TransferEntry{
		Key:       key,
		LocalPath: localPath,
		Size:      info.Size(),
	}, nil
}

// TransferFailure records a file skipped under the BestEffort policy.
type TransferFailure struct {
	Key       string `json:"key,omitempty"`
	LocalPath string `json:"localPath,omitempty"`
	Err       error  `json:"-"`
}

// MarshalJSON includes the error message.
func (f TransferFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	type alias TransferFailure
	return json.Marshal(struct {
		alias
		Error string `json:"error"`
	}{alias: alias(f), Error: msg})
}

// UploadResult is returned by an upload.
type UploadResult struct {
	// UploadedFiles holds object keys or local paths, per ReturnListOfObjectKeys.
	UploadedFiles []string          `json:"uploadedFiles"`
	Objects       []TransferEntry   `json:"objects"`
	Failures      []TransferFailure `json:"failures,omitempty"`
	DebugLog      string            `json:"debugLog,omitempty"`
}

// Err aggregates the recorded failures, or returns nil.
func (r *UploadResult) Err() error {
	return joinFailures(r.Failures)
}

// DownloadResult is returned by a download.
type DownloadResult struct {
	Files      []TransferEntry   `json:"files"`
	TotalCount int               `json:"totalCount"`
	TotalBytes int64             `json:"totalBytes"`
	Failures   []TransferFailure `json:"failures,omitempty"`
}

// Add appends an entry and updates the totals.
func (r *DownloadResult) Add(entry TransferEntry) {
	r.Files = append(r.Files, entry)
	r.TotalCount++
	r.TotalBytes += entry.Size
}

// Paths returns the local paths of the downloaded files.
func (r *DownloadResult) Paths() []string {
	paths := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		paths = append(paths, f.LocalPath)
	}
	return paths
}

// Err aggregates the recorded failures, or returns nil.
func (r *DownloadResult) Err() error {
	return joinFailures(r.Failures)
}

func joinFailures(failures []TransferFailure) error {
	var errs *multierror.Error
	for _, f := range failures {
		errs = multierror.Append(errs, f.Err)
	}
	return errs.ErrorOrNil()
}

// ListResult is the full ListObjectsV2 response envelope.
type ListResult struct {
	HTTPStatusCode        int      `json:"httpStatusCode"`
	RequestID             string   `json:"requestId,omitempty"`
	Name                  string   `json:"name"`
	Prefix                string   `json:"prefix,omitempty"`
	Delimiter             string   `json:"delimiter,omitempty"`
	MaxKeys               int32    `json:"maxKeys"`
	KeyCount              int32    `json:"keyCount"`
	StartAfter            string   `json:"startAfter,omitempty"`
	ContinuationToken     string   `json:"continuationToken,omitempty"`
	NextContinuationToken string   `json:"nextContinuationToken,omitempty"`
	IsTruncated           bool     `json:"isTruncated"`
	CommonPrefixes        []string `json:"commonPrefixes,omitempty"`
	S3Objects             []Object `json:"s3Objects"`
}

// ListOutput is the listing result. Response is set only when the full
// response was requested; Objects always holds the object array.
type ListOutput struct {
	Response *ListResult
	Objects  []Object
}

// MarshalJSON emits the envelope for full responses and the bare array otherwise.
func (o ListOutput) MarshalJSON() ([]byte, error) {
	if o.Response != nil {
		return json.Marshal(o.Response)
	}
	objects := o.Objects
	if objects == nil {
		objects = []Object{}
	}
	return json.Marshal(objects)
}
