package dataset

import (
	"context"

	"github.com/spf13/cobra"

	"mljet.io/mljet/pkg/storage"
)

func NewDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Dataset preparation and staging",
		Long:  "Dataset preparation and staging",
	}
	cmd.AddCommand(NewDatasetSplitCmd())
	cmd.AddCommand(NewDatasetUploadCmd())
	return cmd
}

// StorageFlags selects the object store the CLI stages data into. S3 when
// an url is set, the local filesystem otherwise.
type StorageFlags struct {
	S3    *storage.S3Options
	Local *storage.LocalOptions
}

func NewStorageFlags() *StorageFlags {
	return &StorageFlags{
		S3:    storage.NewDefaultS3Options(),
		Local: storage.NewDefaultLocalOptions(),
	}
}

func (f *StorageFlags) AddFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.S3.URL, "s3-url", "", "s3 url, empty uses local storage")
	flags.StringVar(&f.S3.Bucket, "s3-bucket", f.S3.Bucket, "s3 bucket")
	flags.StringVar(&f.S3.AccessKey, "s3-access-key", f.S3.AccessKey, "s3 access key")
	flags.StringVar(&f.S3.SecretKey, "s3-secret-key", f.S3.SecretKey, "s3 secret key")
	flags.StringVar(&f.S3.Region, "s3-region", f.S3.Region, "s3 region")
	flags.StringVar(&f.Local.Basepath, "local-basepath", f.Local.Basepath, "local storage base path")
}

func (f *StorageFlags) Provider(ctx context.Context) (storage.Provider, error) {
	if f.S3.URL != "" {
		return storage.NewS3Provider(ctx, f.S3)
	}
	return storage.NewLocalProvider(f.Local)
}
