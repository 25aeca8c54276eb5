package main

import (
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

func newListCmd(setup func(*cobra.Command) (*app, error)) *cobra.Command {
	var (
		input      s3types.ListInput
		opts       = s3types.DefaultListOptions()
		allowEmpty bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of objects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.client.Close()

			opts.ThrowErrorIfNoFilesFound = !allowEmpty
			out, err := a.client.ListObjects(cmd.Context(), input, a.conn, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	f := cmd.Flags()
	f.StringVar(&input.Prefix, "prefix", "", "key prefix")
	f.StringVar(&input.Delimiter, "delimiter", "", "group keys by this delimiter")
	f.Int32Var(&input.MaxKeys, "max-keys", 100, "maximum objects to return (1-1000)")
	f.StringVar(&input.StartAfter, "start-after", "", "list keys after this key")
	f.StringVar(&input.ContinuationToken, "token", "", "continuation token from a previous page")
	f.BoolVar(&opts.FullResponse, "full", false, "print the full response envelope")
	f.BoolVar(&opts.FetchOwner, "fetch-owner", false, "include object owners")
	f.BoolVar(&allowEmpty, "allow-empty", false, "succeed when no object is found")

	return cmd
}
