package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

func validConnection() s3types.Connection {
	return s3types.Connection{
		BucketName:      "my-bucket",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "secret",
		Region:          s3types.RegionEuWest1,
	}
}

func TestValidateConnection(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*s3types.Connection)
		wantErr string
	}{
		{"all_present", func(*s3types.Connection) {}, ""},
		{"blank_bucket", func(c *s3types.Connection) { c.BucketName = "" }, "required fields are empty: BucketName"},
		{"whitespace_key", func(c *s3types.Connection) { c.AccessKeyID = "   " }, "required fields are empty: AccessKeyID"},
		{"blank_secret", func(c *s3types.Connection) { c.SecretAccessKey = "" }, "required fields are empty: SecretAccessKey"},
		{
			"multiple_sorted",
			func(c *s3types.Connection) {
				c.SecretAccessKey = ""
				c.BucketName = ""
				c.AccessKeyID = ""
			},
			"required fields are empty: AccessKeyID, BucketName, SecretAccessKey",
		},
		{
			"default_credentials_skip_keys",
			func(c *s3types.Connection) {
				c.UseDefaultCredentials = true
				c.AccessKeyID = ""
				c.SecretAccessKey = ""
			},
			"",
		},
		{
			"secret_source_skips_keys",
			func(c *s3types.Connection) {
				c.CredentialsSecretID = "s3tasks/creds"
				c.AccessKeyID = ""
			},
			"",
		},
		{
			"temporary_requires_token",
			func(c *s3types.Connection) {
				c.TemporaryCredentials = &s3types.Credentials{AccessKeyID: "ASIA", SecretAccessKey: "s"}
			},
			"required fields are empty: TemporaryCredentials.SessionToken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := validConnection()
			tt.modify(&conn)

			err := ValidateConnection(conn)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsInvalidInput(err))
		})
	}
}

func TestValidateConnectionNamesExactlyTheBlankField(t *testing.T) {
	for _, name := range []string{"AccessKeyID", "BucketName", "SecretAccessKey"} {
		t.Run(name, func(t *testing.T) {
			conn := validConnection()
			switch name {
			case "AccessKeyID":
				conn.AccessKeyID = ""
			case "BucketName":
				conn.BucketName = ""
			case "SecretAccessKey":
				conn.SecretAccessKey = ""
			}

			err := ValidateConnection(conn)
			require.Error(t, err)

			var verr *errors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []string{name}, verr.Fields)
		})
	}
}

func TestValidateCredentialSource(t *testing.T) {
	conn := validConnection()
	conn.BucketName = ""
	assert.NoError(t, ValidateCredentialSource(conn))

	conn.SecretAccessKey = ""
	err := ValidateCredentialSource(conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SecretAccessKey")
	assert.NotContains(t, err.Error(), "BucketName")
}

func TestValidateUploadInput(t *testing.T) {
	assert.NoError(t, ValidateUploadInput(s3types.UploadInput{FilePath: "/data"}))

	err := ValidateUploadInput(s3types.UploadInput{FilePath: " "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required fields are empty: FilePath")
}

func TestValidateDownloadInput(t *testing.T) {
	tests := []struct {
		name    string
		input   s3types.DownloadInput
		wantErr string
	}{
		{"prefix_mode", s3types.DownloadInput{S3Directory: "in/", SearchPattern: "*", DestinationPath: "/tmp"}, ""},
		{"blank_destination", s3types.DownloadInput{S3Directory: "in/"}, "DestinationPath"},
		{"single_object", s3types.DownloadInput{ObjectKey: "in/a.txt", DestinationPath: "/tmp"}, ""},
		{"single_object_folder", s3types.DownloadInput{ObjectKey: "in/", DestinationPath: "/tmp"}, "names a folder"},
		{
			"single_object_bad_name",
			s3types.DownloadInput{ObjectKey: "in/a.txt", DestinationPath: "/tmp", DestinationFileName: "../x"},
			"not a plain file name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDownloadInput(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateTempCredentialsInput(t *testing.T) {
	valid := s3types.TempCredentialsInput{RoleARN: "arn:aws:iam::123:role/r", SessionName: "s"}
	assert.NoError(t, ValidateTempCredentialsInput(valid))

	err := ValidateTempCredentialsInput(s3types.TempCredentialsInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required fields are empty: RoleARN, SessionName")

	valid.DurationSeconds = -1
	assert.True(t, errors.IsInvalidInput(ValidateTempCredentialsInput(valid)))
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantError bool
		errMsg    string
	}{
		{"valid_simple", "file.txt", false, ""},
		{"valid_with_path", "path/to/file.txt", false, ""},
		{"valid_double_dot_in_name", "a..b.txt", false, ""},
		{"valid_unicode", "文件/файл.txt", false, ""},
		{"valid_max_length", strings.Repeat("a", 1024), false, ""},

		{"empty", "", true, "object key cannot be empty"},
		{"too_long", strings.Repeat("a", 1025), true, "object key cannot exceed 1024 bytes"},
		{"control_char", "file\x00.txt", true, "object key cannot contain control characters"},
		{"newline", "file\n.txt", true, "object key cannot contain control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.ErrorIs(t, err, errors.ErrInvalidObjectKey)
		})
	}
}

func TestValidateLocalName(t *testing.T) {
	assert.NoError(t, ValidateLocalName("report.csv"))
	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.Error(t, ValidateLocalName(name), name)
	}
}
