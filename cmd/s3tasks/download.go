package main

import (
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

func newDownloadCmd(setup func(*cobra.Command) (*app, error)) *cobra.Command {
	var (
		input      s3types.DownloadInput
		opts       = s3types.DefaultDownloadOptions()
		recursive  bool
		allowEmpty bool
		bestEffort bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download objects matching a pattern, or a single object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.client.Close()

			opts.DownloadFromCurrentDirectoryOnly = !recursive
			opts.ThrowErrorIfNoMatches = !allowEmpty
			if bestEffort {
				opts.FailurePolicy = s3types.BestEffort
			}

			result, err := a.client.DownloadFiles(cmd.Context(), input, a.conn, opts)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			return result.Err()
		},
	}

	f := cmd.Flags()
	f.StringVar(&input.S3Directory, "prefix", "", "key prefix to download from")
	f.StringVar(&input.SearchPattern, "pattern", "*", "object file name pattern, e.g. *.csv")
	f.StringVar(&input.DestinationPath, "dest", "", "local destination directory")
	f.StringVar(&input.ObjectKey, "key", "", "download exactly this object key")
	f.StringVar(&input.DestinationFileName, "name", "", "local file name for --key")
	f.BoolVar(&recursive, "recursive", false, "include objects below the prefix's subfolders")
	f.BoolVar(&opts.Overwrite, "overwrite", false, "replace existing local files")
	f.BoolVar(&opts.DeleteSourceFile, "delete-source", false, "delete objects after download")
	f.BoolVar(&opts.CreateDestinationDirectory, "create-dest", false, "create the destination directory")
	f.BoolVar(&allowEmpty, "allow-empty", false, "succeed when no object matches")
	f.BoolVar(&bestEffort, "best-effort", false, "continue after per-file failures")
	f.IntVar(&opts.Concurrency, "concurrency", 1, "objects downloaded in parallel")
	_ = cmd.MarkFlagRequired("dest")

	return cmd
}
