package job

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"mljet.io/mljet/cmd/mljet/platform"
	"mljet.io/mljet/pkg/types"
)

func NewTuneCmd() *cobra.Command {
	var (
		platformName string
		specfile     string
		wait         bool
		interval     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Submit a hyperparameter tuning job",
		Example: `
	# Run a tuning job and print the leaderboard
	mljet tune abalone-search -f tuning.yaml --wait
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("tune requires the tuning job name argument")
			}
			ctx, cancel := platform.BaseContext()
			defer cancel()

			c, err := PlatformClient(platformName)
			if err != nil {
				return err
			}
			spec := types.TuningJobSpec{}
			raw, err := os.ReadFile(specfile)
			if err != nil {
				return err
			}
			if err := yaml.Unmarshal(raw, &spec); err != nil {
				return fmt.Errorf("parse %s: %w", specfile, err)
			}

			job := &types.TuningJob{Name: args[0], Spec: spec}
			if err := c.Tune(ctx, job); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tuning job %s submitted\n", job.Name)
			if !wait {
				return nil
			}
			final, err := waitTuningJob(ctx, cmd, c, job.Name, interval)
			if err != nil {
				return err
			}
			printLeaderboard(cmd, final)
			if final.Status.State != types.JobStateCompleted {
				return fmt.Errorf("tuning job %s %s: %s", final.Name, final.Status.State, final.Status.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&specfile, "filename", "f", "tuning.yaml", "tuning job spec file")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until the tuning job is terminal")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval while waiting")
	AddPlatformFlag(cmd, &platformName)
	return cmd
}

func printLeaderboard(cmd *cobra.Command, job *types.TuningJob) {
	summaries := append([]types.TrainingJobSummary{}, job.Status.TrainingJobs...)
	goal := job.Spec.Objective.Goal
	sort.SliceStable(summaries, func(i, j int) bool {
		vi, vj := summaries[i].ObjectiveValue, summaries[j].ObjectiveValue
		switch {
		case vi == nil:
			return false
		case vj == nil:
			return true
		case goal == types.ObjectiveMaximize:
			return *vi > *vj
		default:
			return *vi < *vj
		}
	})

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Job", "State", job.Spec.Objective.MetricName, "Hyperparameters"})
	for _, summary := range summaries {
		objective := ""
		if summary.ObjectiveValue != nil {
			objective = fmt.Sprintf("%g", *summary.ObjectiveValue)
		}
		t.AppendRow(table.Row{summary.Name, summary.State, objective, fmt.Sprintf("%v", summary.Hyperparameters)})
	}
	t.Render()
	if best := job.Status.BestTrainingJob; best != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "best: %s (%s=%g)\n", best.Name, job.Spec.Objective.MetricName, *best.ObjectiveValue)
	}
}
