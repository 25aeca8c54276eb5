// Package awserr classifies errors returned by the AWS SDK.
package awserr

import (
	"errors"
	"fmt"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	s3errors "github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/errors"
)

var notFoundCodes = map[string]bool{
	"NotFound":  true,
	"NoSuchKey": true,
}

var credentialCodes = map[string]bool{
	"InvalidAccessKeyId":          true,
	"SignatureDoesNotMatch":       true,
	"ExpiredToken":                true,
	"InvalidToken":                true,
	"InvalidClientTokenId":        true,
	"TokenRefreshRequired":        true,
	"UnrecognizedClientException": true,
}

var accessDeniedCodes = map[string]bool{
	"AccessDenied":          true,
	"AccessDeniedException": true,
}

// Kind is the class of an SDK error.
type Kind int

const (
	// KindOther is any error not covered below.
	KindOther Kind = iota
	// KindNotFound means the object does not exist.
	KindNotFound
	// KindCredentials means the credentials were rejected.
	KindCredentials
	// KindAccessDenied means the credentials lack permission.
	KindAccessDenied
)

// Classify returns the kind of err.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindOther
	case IsNotFound(err):
		return KindNotFound
	case IsCredentialError(err):
		return KindCredentials
	case IsAccessDenied(err):
		return KindAccessDenied
	default:
		return KindOther
	}
}

// Wrap attaches the matching sentinel to err so callers can test it with
// errors.Is while the SDK error stays in the chain. Rejected credentials are
// only marked when reportInvalidCredentials is set.
func Wrap(err error, reportInvalidCredentials bool) error {
	switch Classify(err) {
	case KindNotFound:
		return fmt.Errorf("%w: %w", s3errors.ErrObjectNotFound, err)
	case KindCredentials:
		if reportInvalidCredentials {
			return fmt.Errorf("%w: %w", s3errors.ErrInvalidCredentials, err)
		}
	case KindAccessDenied:
		return fmt.Errorf("%w: %w", s3errors.ErrAccessDenied, err)
	case KindOther:
	}
	return err
}

// IsNotFound reports whether err means the object does not exist.
func IsNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	code := errorCode(err)
	if notFoundCodes[code] {
		return true
	}
	// A coded 404 such as NoSuchBucket is not a missing object.
	return code == "" && statusCode(err) == http.StatusNotFound
}

// IsCredentialError reports whether err means the credentials were rejected.
func IsCredentialError(err error) bool {
	return credentialCodes[errorCode(err)]
}

// IsAccessDenied reports whether err means access was refused.
func IsAccessDenied(err error) bool {
	if accessDeniedCodes[errorCode(err)] {
		return true
	}
	return errorCode(err) == "" && statusCode(err) == http.StatusForbidden
}

func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func statusCode(err error) int {
	var re *awshttp.ResponseError
	if errors.As(err, &re) && re.Response != nil {
		return re.Response.StatusCode
	}
	return 0
}
