package endpoint

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"mljet.io/mljet/pkg/dataset"
)

func NewEvaluateCmd() *cobra.Command {
	var (
		predictionsFile string
		actualsFile     string
		labelColumn     string
		hasHeader       bool
		classification  bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compare predictions against actual values",
		Example: `
	# Regression metrics for the test partition
	mljet evaluate --predictions predictions.csv --actuals splits/test/test.csv
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(predictionsFile)
			if err != nil {
				return err
			}
			predictions := []string{}
			for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
				if line = strings.TrimSpace(line); line != "" {
					predictions = append(predictions, line)
				}
			}

			tbl, err := dataset.LoadFile(actualsFile, hasHeader)
			if err != nil {
				return err
			}
			var actuals []string
			if labelColumn != "" {
				if actuals, err = tbl.Column(labelColumn); err != nil {
					return err
				}
			} else {
				// label-first layout
				for _, row := range tbl.Rows {
					actuals = append(actuals, row[0])
				}
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			if classification {
				report, err := dataset.EvaluateClassification(predictions, actuals)
				if err != nil {
					return err
				}
				t.AppendHeader(table.Row{"Samples", "Correct", "Accuracy"})
				t.AppendRow(table.Row{report.Count, report.Correct, fmt.Sprintf("%.4f", report.Accuracy)})
			} else {
				report, err := dataset.EvaluateRegression(predictions, actuals)
				if err != nil {
					return err
				}
				t.AppendHeader(table.Row{"Samples", "MSE", "RMSE", "MAE"})
				t.AppendRow(table.Row{report.Count, fmt.Sprintf("%.4f", report.MSE), fmt.Sprintf("%.4f", report.RMSE), fmt.Sprintf("%.4f", report.MAE)})
			}
			t.Render()
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&predictionsFile, "predictions", "predictions.csv", "file with one prediction per line")
	flags.StringVar(&actualsFile, "actuals", "", "csv file with the actual values")
	flags.StringVar(&labelColumn, "label-column", "", "label column in the actuals file, first column when empty")
	flags.BoolVar(&hasHeader, "header", false, "actuals file has a header row")
	flags.BoolVar(&classification, "classification", false, "report accuracy instead of regression error")
	cmd.MarkFlagRequired("actuals")
	return cmd
}
