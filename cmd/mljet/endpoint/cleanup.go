package endpoint

import (
	"fmt"

	"github.com/spf13/cobra"

	"mljet.io/mljet/cmd/mljet/job"
	"mljet.io/mljet/cmd/mljet/platform"
	"mljet.io/mljet/pkg/errors"
)

// NewCleanupCmd tears down what an experiment left behind: endpoints,
// terminal jobs with their artifacts, and transform outputs.
func NewCleanupCmd() *cobra.Command {
	var (
		platformName   string
		endpoints      []string
		jobs           []string
		tuningJobs     []string
		transforms     []string
		keepArtifacts  bool
		keepTransforms bool
	)
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete endpoints, jobs and staged artifacts",
		Example: `
	# Tear down an experiment's resources
	mljet cleanup --endpoint abalone-ep --job abalone-1 --tuning abalone-search
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := platform.BaseContext()
			defer cancel()

			c, err := job.PlatformClient(platformName)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			for _, name := range endpoints {
				if err := c.Remote.DeleteEndpoint(ctx, name); err != nil && !errors.IsErrCode(err, errors.ErrCodeEndpointUnknown) {
					return fmt.Errorf("delete endpoint %s: %w", name, err)
				}
				fmt.Fprintf(out, "endpoint %s deleted\n", name)
			}
			for _, name := range tuningJobs {
				if err := c.Remote.DeleteTuningJob(ctx, name); err != nil && !errors.IsErrCode(err, errors.ErrCodeTuningUnknown) {
					return fmt.Errorf("delete tuning job %s: %w", name, err)
				}
				fmt.Fprintf(out, "tuning job %s deleted\n", name)
			}
			for _, name := range jobs {
				if err := c.Remote.DeleteTrainingJob(ctx, name, !keepArtifacts); err != nil && !errors.IsErrCode(err, errors.ErrCodeJobUnknown) {
					return fmt.Errorf("delete job %s: %w", name, err)
				}
				fmt.Fprintf(out, "job %s deleted\n", name)
			}
			for _, name := range transforms {
				if err := c.Remote.DeleteTransformJob(ctx, name, !keepTransforms); err != nil && !errors.IsErrCode(err, errors.ErrCodeJobUnknown) {
					return fmt.Errorf("delete transform job %s: %w", name, err)
				}
				fmt.Fprintf(out, "transform job %s deleted\n", name)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVar(&endpoints, "endpoint", nil, "endpoints to delete")
	flags.StringSliceVar(&jobs, "job", nil, "training jobs to delete")
	flags.StringSliceVar(&tuningJobs, "tuning", nil, "tuning jobs to delete (children included)")
	flags.StringSliceVar(&transforms, "transform", nil, "transform jobs to delete")
	flags.BoolVar(&keepArtifacts, "keep-artifacts", false, "keep model artifacts in storage")
	flags.BoolVar(&keepTransforms, "keep-outputs", false, "keep transform outputs in storage")
	job.AddPlatformFlag(cmd, &platformName)
	return cmd
}
