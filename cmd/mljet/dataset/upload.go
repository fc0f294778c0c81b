package dataset

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"mljet.io/mljet/cmd/mljet/platform"
	"mljet.io/mljet/pkg/client"
)

func NewDatasetUploadCmd() *cobra.Command {
	var (
		prefix      string
		contentType string
		storageOpts = NewStorageFlags()
	)
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload split partitions as data channels",
		Example: `
	# Upload ./splits/{train,validation,test} under datasets/abalone
	mljet dataset upload ./splits --prefix datasets/abalone --s3-url https://s3.example.com
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("dataset upload requires the split directory argument")
			}
			ctx, cancel := platform.BaseContext()
			defer cancel()

			provider, err := storageOpts.Provider(ctx)
			if err != nil {
				return err
			}
			uploaded, err := client.UploadChannels(ctx, provider, args[0], prefix, contentType)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Channel", "URI", "Files", "Bytes"})
			for _, item := range uploaded {
				t.AppendRow(table.Row{item.Channel.Name, item.Channel.URI, item.Files, item.Bytes})
			}
			t.Render()
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&prefix, "prefix", "datasets", "storage prefix the channels are uploaded under")
	flags.StringVar(&contentType, "content-type", "text/csv", "content type of the uploaded objects")
	storageOpts.AddFlags(cmd)
	return cmd
}
