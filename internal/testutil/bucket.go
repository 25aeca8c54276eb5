package testutil

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// StoredObject is an object held by a MemoryBucket.
type StoredObject struct {
	Data         []byte
	ContentType  string
	StorageClass types.StorageClass
	ACL          types.ObjectCannedACL
	LastModified time.Time
}

// MemoryBucket is an in-memory bucket that serves S3 calls through a MockS3Client.
// It is safe for concurrent use.
type MemoryBucket struct {
	// PageSize caps every listing page, forcing pagination when small.
	PageSize int32

	mu      sync.Mutex
	objects map[string]*StoredObject
	calls   map[string]int
}

// NewMemoryBucket creates an empty in-memory bucket.
func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{
		PageSize: 1000,
		objects:  make(map[string]*StoredObject),
		calls:    make(map[string]int),
	}
}

// Put stores an object directly.
func (b *MemoryBucket) Put(key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = &StoredObject{Data: data, LastModified: time.Now()}
}

// Get returns a stored object, or nil.
func (b *MemoryBucket) Get(key string) *StoredObject {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.objects[key]
}

// Keys returns all stored keys in lexical order.
func (b *MemoryBucket) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns how many times the named S3 operation was invoked.
func (b *MemoryBucket) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// Client returns a MockS3Client backed by the bucket.
// Individual Func fields may be overridden after construction.
func (b *MemoryBucket) Client() *MockS3Client {
	return &MockS3Client{
		PutObjectFunc:     b.putObject,
		GetObjectFunc:     b.getObject,
		HeadObjectFunc:    b.headObject,
		DeleteObjectFunc:  b.deleteObject,
		ListObjectsV2Func: b.listObjectsV2,
	}
}

func (b *MemoryBucket) record(op string) {
	b.mu.Lock()
	b.calls[op]++
	b.mu.Unlock()
}

func (b *MemoryBucket) putObject(
	_ context.Context,
	in *s3.PutObjectInput,
	_ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	b.record("PutObject")
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[aws.ToString(in.Key)] = &StoredObject{
		Data:         data,
		ContentType:  aws.ToString(in.ContentType),
		StorageClass: in.StorageClass,
		ACL:          in.ACL,
		LastModified: time.Now(),
	}
	return &s3.PutObjectOutput{ETag: aws.String(CalculateETag(data))}, nil
}

func (b *MemoryBucket) getObject(
	_ context.Context,
	in *s3.GetObjectInput,
	_ ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	b.record("GetObject")
	obj := b.Get(aws.ToString(in.Key))
	if obj == nil {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.Data)),
		ContentLength: aws.Int64(int64(len(obj.Data))),
		ContentType:   aws.String(obj.ContentType),
		ETag:          aws.String(CalculateETag(obj.Data)),
	}, nil
}

func (b *MemoryBucket) headObject(
	_ context.Context,
	in *s3.HeadObjectInput,
	_ ...func(*s3.Options),
) (*s3.HeadObjectOutput, error) {
	b.record("HeadObject")
	obj := b.Get(aws.ToString(in.Key))
	if obj == nil {
		return nil, &types.NotFound{Message: aws.String("Not Found")}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.Data))),
		LastModified:  aws.Time(obj.LastModified),
	}, nil
}

func (b *MemoryBucket) deleteObject(
	_ context.Context,
	in *s3.DeleteObjectInput,
	_ ...func(*s3.Options),
) (*s3.DeleteObjectOutput, error) {
	b.record("DeleteObject")
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

// listObjectsV2 pages through keys in lexical order. The continuation token
// is the last key of the previous page.
func (b *MemoryBucket) listObjectsV2(
	_ context.Context,
	in *s3.ListObjectsV2Input,
	_ ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	b.record("ListObjectsV2")
	prefix := aws.ToString(in.Prefix)
	delimiter := aws.ToString(in.Delimiter)
	after := aws.ToString(in.StartAfter)
	if in.ContinuationToken != nil {
		after = aws.ToString(in.ContinuationToken)
	}

	limit := b.PageSize
	if in.MaxKeys != nil && *in.MaxKeys > 0 && *in.MaxKeys < limit {
		limit = *in.MaxKeys
	}

	out := &s3.ListObjectsV2Output{
		Name:              in.Bucket,
		Prefix:            in.Prefix,
		Delimiter:         in.Delimiter,
		StartAfter:        in.StartAfter,
		ContinuationToken: in.ContinuationToken,
		MaxKeys:           aws.Int32(limit),
		IsTruncated:       aws.Bool(false),
	}

	seenPrefixes := make(map[string]bool)
	var count int32
	for _, key := range b.Keys() {
		if !strings.HasPrefix(key, prefix) || key <= after {
			continue
		}
		if count == limit {
			out.IsTruncated = aws.Bool(true)
			break
		}

		if delimiter != "" {
			rest := strings.TrimPrefix(key, prefix)
			if i := strings.Index(rest, delimiter); i >= 0 {
				cp := prefix + rest[:i+len(delimiter)]
				if !seenPrefixes[cp] {
					seenPrefixes[cp] = true
					out.CommonPrefixes = append(out.CommonPrefixes, types.CommonPrefix{Prefix: aws.String(cp)})
					count++
				}
				out.NextContinuationToken = aws.String(key)
				continue
			}
		}

		obj := b.Get(key)
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(obj.Data))),
			LastModified: aws.Time(obj.LastModified),
			ETag:         aws.String(CalculateETag(obj.Data)),
			StorageClass: types.ObjectStorageClassStandard,
		})
		count++
		out.NextContinuationToken = aws.String(key)
	}

	if !aws.ToBool(out.IsTruncated) {
		out.NextContinuationToken = nil
	}
	out.KeyCount = aws.Int32(count)
	return out, nil
}
