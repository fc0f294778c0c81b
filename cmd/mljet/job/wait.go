package job

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mljet.io/mljet/pkg/client"
	"mljet.io/mljet/pkg/types"
)

// waitTrainingJob polls the job and prints every state transition until it
// is terminal.
func waitTrainingJob(ctx context.Context, cmd *cobra.Command, c *client.Client, name string, interval time.Duration) (*types.TrainingJob, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	last := types.JobState("")
	for {
		job, err := c.Remote.GetTrainingJob(ctx, name)
		if err != nil {
			return nil, err
		}
		if job.Status.State != last {
			last = job.Status.State
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", time.Now().Format(time.RFC3339), last)
		}
		if job.Status.State.Terminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func waitTuningJob(ctx context.Context, cmd *cobra.Command, c *client.Client, name string, interval time.Duration) (*types.TuningJob, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	last := types.JobState("")
	for {
		job, err := c.Remote.GetTuningJob(ctx, name)
		if err != nil {
			return nil, err
		}
		if job.Status.State != last {
			last = job.Status.State
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%d completed, %d failed)\n",
				time.Now().Format(time.RFC3339), last, job.Status.CompletedCount, job.Status.FailedCount)
		}
		if job.Status.State.Terminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-time.After(interval):
		}
	}
}
