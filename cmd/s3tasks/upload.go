package main

import (
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3tasks/s3types"
)

func newUploadCmd(setup func(*cobra.Command) (*app, error)) *cobra.Command {
	var (
		input      s3types.UploadInput
		opts       = s3types.DefaultUploadOptions()
		recursive  bool
		allowEmpty bool
		bestEffort bool
		acl        string
		class      string
	)

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload local files matching a mask",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.client.Close()

			input.CannedACL = s3types.CannedACL(acl)
			opts.StorageClass = s3types.StorageClass(class)
			opts.UploadFromCurrentDirectoryOnly = !recursive
			opts.ThrowErrorIfNoMatch = !allowEmpty
			if bestEffort {
				opts.FailurePolicy = s3types.BestEffort
			}

			result, err := a.client.UploadFiles(cmd.Context(), input, a.conn, opts)
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
	f.StringVar(&input.FilePath, "path", "", "local directory to upload from")
	f.StringVar(&input.FileMask, "mask", "*", "file name mask, e.g. *.csv")
	f.StringVar(&input.S3Directory, "prefix", "", "key prefix for uploaded objects")
	f.StringVar(&acl, "acl", "", "canned ACL, e.g. Private or BucketOwnerFullControl")
	f.StringVar(&class, "storage-class", string(s3types.StorageClassStandard), "storage class, e.g. Standard or Glacier")
	f.BoolVar(&recursive, "recursive", false, "include subdirectories")
	f.BoolVar(&opts.PreserveFolderStructure, "preserve", false, "keep relative folders in object keys")
	f.BoolVar(&opts.Overwrite, "overwrite", false, "replace existing objects")
	f.BoolVar(&opts.DeleteSource, "delete-source", false, "delete local files after upload")
	f.BoolVar(&allowEmpty, "allow-empty", false, "succeed when no file matches")
	f.BoolVar(&opts.ReturnListOfObjectKeys, "keys", false, "report object keys instead of local paths")
	f.BoolVar(&bestEffort, "best-effort", false, "continue after per-file failures")
	f.IntVar(&opts.Concurrency, "concurrency", 1, "files uploaded in parallel")
	f.BoolVar(&opts.CaptureDebugLog, "capture-log", false, "include the operation log in the result")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}
