// Package s3tasks provides batch S3 transfer tasks built on the AWS SDK for Go v2.
//
// The Client exposes four operations, each taking an input descriptor, the
// connection to use and an options descriptor:
//
//   - UploadFiles uploads the files of a local directory that match a mask.
//   - DownloadFiles downloads the objects under a key prefix that match a
//     search pattern, or a single object.
//   - ListObjects lists one page of objects.
//   - GetTemporaryCredentials assumes an IAM role through STS.
//
// Credentials and region travel with every call in a s3types.Connection, so
// one Client can serve many buckets and accounts. Each operation builds its
// own SDK client and releases it before returning.
//
// Basic usage:
//
//	client, err := s3tasks.New(s3tasks.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	conn := s3types.Connection{
//	    BucketName:            "my-bucket",
//	    Region:                s3types.RegionEuWest1,
//	    UseDefaultCredentials: true,
//	}
//
//	result, err := client.UploadFiles(ctx, s3types.UploadInput{
//	    FilePath:    "/data/outbox",
//	    FileMask:    "*.csv",
//	    S3Directory: "incoming",
//	}, conn, s3types.DefaultUploadOptions())
//
// Errors carry the failing operation, bucket and key, and wrap sentinels from
// the errors subpackage for use with errors.Is.
package s3tasks
