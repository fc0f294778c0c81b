package endpoint

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mljet.io/mljet/cmd/mljet/job"
	"mljet.io/mljet/cmd/mljet/platform"
	"mljet.io/mljet/pkg/dataset"
)

const DefaultInvokeBatch = 100

func NewInvokeCmd() *cobra.Command {
	var (
		platformName string
		datafile     string
		outfile      string
		batch        int
		hasHeader    bool
		dropFirst    bool
	)
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Send test rows through a hosted endpoint",
		Example: `
	# Predict the test partition, one prediction per output line
	mljet invoke abalone-ep --data splits/test/test.csv --out predictions.csv
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("invoke requires the endpoint name argument")
			}
			ctx, cancel := platform.BaseContext()
			defer cancel()

			c, err := job.PlatformClient(platformName)
			if err != nil {
				return err
			}

			tbl, err := dataset.LoadFile(datafile, hasHeader)
			if err != nil {
				return err
			}
			if batch <= 0 {
				batch = DefaultInvokeBatch
			}

			predictions := []string{}
			for start := 0; start < len(tbl.Rows); start += batch {
				end := start + batch
				if end > len(tbl.Rows) {
					end = len(tbl.Rows)
				}
				payload := &strings.Builder{}
				for _, row := range tbl.Rows[start:end] {
					if dropFirst {
						row = row[1:]
					}
					payload.WriteString(strings.Join(row, ","))
					payload.WriteByte('\n')
				}
				out, err := c.Remote.Invoke(ctx, args[0], "text/csv", strings.NewReader(payload.String()))
				if err != nil {
					return fmt.Errorf("invoke rows %d-%d: %w", start, end, err)
				}
				for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
					if line = strings.TrimSpace(line); line != "" {
						predictions = append(predictions, line)
					}
				}
			}

			if err := os.WriteFile(outfile, []byte(strings.Join(predictions, "\n")+"\n"), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d predictions to %s\n", len(predictions), outfile)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&datafile, "data", "", "csv file with test rows")
	flags.StringVar(&outfile, "out", "predictions.csv", "file the predictions are written to")
	flags.IntVar(&batch, "batch", DefaultInvokeBatch, "rows per invocation request")
	flags.BoolVar(&hasHeader, "header", false, "data file has a header row")
	flags.BoolVar(&dropFirst, "drop-label", true, "drop the first (label) column before sending")
	cmd.MarkFlagRequired("data")
	job.AddPlatformFlag(cmd, &platformName)
	return cmd
}
