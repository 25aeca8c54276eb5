// Package validation provides centralized input validation logic.
// Required-field checks run before any I/O and report every blank field at once.
package validation

import (
	"sort"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

// field is a named string value that must not be blank.
type field struct {
	name  string
	value string
}

// requireFields returns a ValidationError naming every blank field in
// alphabetical order, or nil when all fields are set.
func requireFields(op string, fields []field) error {
	var blank []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			blank = append(blank, f.name)
		}
	}
	if len(blank) == 0 {
		return nil
	}
	sort.Strings(blank)
	return errors.NewError(op, &errors.ValidationError{Fields: blank})
}

// connectionFields lists the required connection fields for its credential source.
func connectionFields(conn s3types.Connection) []field {
	fields := []field{{"BucketName", conn.BucketName}}

	switch conn.Source() {
	case s3types.CredentialSourceStatic:
		fields = append(fields,
			field{"AccessKeyID", conn.AccessKeyID},
			field{"SecretAccessKey", conn.SecretAccessKey},
		)
	case s3types.CredentialSourceTemporary:
		creds := conn.TemporaryCredentials
		fields = append(fields,
			field{"TemporaryCredentials.AccessKeyID", creds.AccessKeyID},
			field{"TemporaryCredentials.SecretAccessKey", creds.SecretAccessKey},
			field{"TemporaryCredentials.SessionToken", creds.SessionToken},
		)
	case s3types.CredentialSourceDefault, s3types.CredentialSourceSecret:
	}

	return fields
}

// ValidateConnection checks that the bucket and the credentials required by
// the connection's credential source are present.
func ValidateConnection(conn s3types.Connection) error {
	return requireFields("validateConnection", connectionFields(conn))
}

// ValidateCredentialSource checks only the credential fields, for operations
// that do not address a bucket.
func ValidateCredentialSource(conn s3types.Connection) error {
	fields := connectionFields(conn)[1:]
	return requireFields("validateConnection", fields)
}

// ValidateUploadInput checks the required upload fields.
func ValidateUploadInput(in s3types.UploadInput) error {
	return requireFields("validateUploadInput", []field{
		{"FilePath", in.FilePath},
	})
}

// ValidateDownloadInput checks the required download fields.
// In single-object mode the key must name an object, not a folder.
func ValidateDownloadInput(in s3types.DownloadInput) error {
	if err := requireFields("validateDownloadInput", []field{
		{"DestinationPath", in.DestinationPath},
	}); err != nil {
		return err
	}

	if in.SingleObject() {
		if strings.HasSuffix(in.ObjectKey, "/") {
			return errors.NewError("validateDownloadInput", errors.ErrInvalidObjectKey).
				WithKey(in.ObjectKey).
				WithMessage("object key names a folder")
		}
		if in.DestinationFileName != "" {
			if err := ValidateLocalName(in.DestinationFileName); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateTempCredentialsInput checks the required AssumeRole fields.
func ValidateTempCredentialsInput(in s3types.TempCredentialsInput) error {
	if err := requireFields("validateTempCredentialsInput", []field{
		{"RoleARN", in.RoleARN},
		{"SessionName", in.SessionName},
	}); err != nil {
		return err
	}
	if in.DurationSeconds < 0 {
		return errors.NewError("validateTempCredentialsInput", errors.ErrInvalidInput).
			WithMessage("duration seconds cannot be negative")
	}
	return nil
}

// ValidateObjectKey validates that an object key is valid according to AWS S3 rules.
func ValidateObjectKey(key string) error {
	if key == "" {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithMessage("object key cannot be empty")
	}

	// S3 supports keys up to 1024 bytes
	if len(key) > 1024 {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithKey(key).
			WithMessage("object key cannot exceed 1024 bytes")
	}

	if hasControlCharacters(key) {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithKey(key).
			WithMessage("object key cannot contain control characters")
	}

	return nil
}

// ValidateLocalName rejects file names that would escape the destination directory.
func ValidateLocalName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.NewError("validateLocalName", errors.ErrInvalidInput).
			WithKey(name).
			WithMessage("not a plain file name")
	}
	return nil
}

// hasControlCharacters checks for control characters in the key
func hasControlCharacters(key string) bool {
	for _, char := range key {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}
