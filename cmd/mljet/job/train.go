package job

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"mljet.io/mljet/cmd/mljet/platform"
	"mljet.io/mljet/pkg/types"
)

func NewTrainCmd() *cobra.Command {
	var (
		platformName string
		specfile     string
		wait         bool
		interval     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Submit a training job",
		Example: `
	# Submit a training job and wait for it to finish
	mljet train abalone-1 -f job.yaml --wait
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("train requires the job name argument")
			}
			ctx, cancel := platform.BaseContext()
			defer cancel()

			c, err := PlatformClient(platformName)
			if err != nil {
				return err
			}
			spec := types.TrainingJobSpec{}
			raw, err := os.ReadFile(specfile)
			if err != nil {
				return err
			}
			if err := yaml.Unmarshal(raw, &spec); err != nil {
				return fmt.Errorf("parse %s: %w", specfile, err)
			}

			job := &types.TrainingJob{Name: args[0], Spec: spec}
			if err := c.Train(ctx, job); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "training job %s submitted\n", job.Name)
			if !wait {
				return nil
			}
			final, err := waitTrainingJob(ctx, cmd, c, job.Name, interval)
			if err != nil {
				return err
			}
			if final.Status.State != types.JobStateCompleted {
				return fmt.Errorf("job %s %s: %s", final.Name, final.Status.State, final.Status.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&specfile, "filename", "f", "job.yaml", "training job spec file")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until the job is terminal")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval while waiting")
	AddPlatformFlag(cmd, &platformName)
	return cmd
}
