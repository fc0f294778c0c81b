package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"mljet.io/mljet/pkg/dataset"
)

func NewDatasetSplitCmd() *cobra.Command {
	var (
		outdir      string
		labelColumn string
		hasHeader   bool
		keepHeader  bool
		seed        int64
		fractions   = dataset.DefaultSplitFractions()
	)
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a CSV dataset into train/validation/test partitions",
		Example: `
	# Split abalone.csv 70/20/10 with the label moved to the first column
	mljet dataset split abalone.csv --label-column rings -o ./splits
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("dataset split requires one csv file argument")
			}
			tbl, err := dataset.LoadFile(args[0], hasHeader)
			if err != nil {
				return err
			}
			if labelColumn != "" {
				if err := tbl.MoveColumnFirst(labelColumn); err != nil {
					return err
				}
			}
			train, validation, test, err := tbl.Split(fractions, seed)
			if err != nil {
				return err
			}

			partitions := map[string]*dataset.Table{
				"train":      train,
				"validation": validation,
				"test":       test,
			}
			for name, part := range partitions {
				dir := filepath.Join(outdir, name)
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
				if err := part.WriteFile(filepath.Join(dir, name+".csv"), keepHeader); err != nil {
					return err
				}
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Partition", "Rows", "Columns", "File"})
			for _, name := range []string{"train", "validation", "test"} {
				part := partitions[name]
				t.AppendRow(table.Row{name, len(part.Rows), len(part.Columns), filepath.Join(outdir, name, name+".csv")})
			}
			t.Render()
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&outdir, "output", "o", "splits", "output directory, one subdirectory per partition")
	flags.StringVar(&labelColumn, "label-column", "", "move this column first (label-first csv layout)")
	flags.BoolVar(&hasHeader, "header", true, "input csv has a header row")
	flags.BoolVar(&keepHeader, "keep-header", false, "write header rows into the partition files")
	flags.Int64Var(&seed, "seed", 0, "shuffle seed")
	flags.Float64Var(&fractions.Train, "train-fraction", fractions.Train, "train fraction")
	flags.Float64Var(&fractions.Validation, "validation-fraction", fractions.Validation, "validation fraction")
	flags.Float64Var(&fractions.Test, "test-fraction", fractions.Test, "test fraction")
	return cmd
}
