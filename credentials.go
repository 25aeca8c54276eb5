package s3tasks

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/auth"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/awserr"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

// GetTemporaryCredentials assumes input.RoleARN with the credentials of conn
// and returns the session credentials. conn.BucketName is not used.
//
// The result can be passed back as Connection.TemporaryCredentials.
func (c *Client) GetTemporaryCredentials(
	ctx context.Context,
	input s3types.TempCredentialsInput,
	conn s3types.Connection,
) (creds s3types.Credentials, err error) {
	if err := ctx.Err(); err != nil {
		return s3types.Credentials{}, err
	}
	if err := validation.ValidateCredentialSource(conn); err != nil {
		return s3types.Credentials{}, err
	}
	if err := validation.ValidateTempCredentialsInput(input); err != nil {
		return s3types.Credentials{}, err
	}

	ctx, span := c.startSpan(ctx, "GetTemporaryCredentials", conn)
	defer func() { endSpan(span, err) }()

	client, release, err := c.provider.STSClient(ctx, conn)
	if err != nil {
		return s3types.Credentials{}, err
	}
	defer release()

	creds, err = auth.AssumeRole(ctx, client, input)
	if err != nil {
		return s3types.Credentials{}, errors.NewError("getTemporaryCredentials", awserr.Wrap(err, conn.ReportInvalidCredentials)).
			WithKey(input.RoleARN)
	}

	c.logger.InfoContext(ctx, "assumed role",
		"role", input.RoleARN,
		"session", input.SessionName,
		"expiration", creds.Expiration)

	return creds, nil
}
