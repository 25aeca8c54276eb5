package main

import (
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

func newCredentialsCmd(setup func(*cobra.Command) (*app, error)) *cobra.Command {
	var input s3types.TempCredentialsInput

	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Assume a role and print temporary credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.client.Close()

			creds, err := a.client.GetTemporaryCredentials(cmd.Context(), input, a.conn)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), creds)
		},
	}

	f := cmd.Flags()
	f.StringVar(&input.RoleARN, "role-arn", "", "ARN of the role to assume")
	f.StringVar(&input.SessionName, "session-name", "", "role session name")
	f.StringVar(&input.ExternalID, "external-id", "", "external id required by the role trust policy")
	f.Int32Var(&input.DurationSeconds, "duration", 3600, "session lifetime in seconds")

	return cmd
}
