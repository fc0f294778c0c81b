package endpoint

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mljet.io/mljet/cmd/mljet/job"
	"mljet.io/mljet/cmd/mljet/platform"
	"mljet.io/mljet/pkg/types"
)

func NewDeployCmd() *cobra.Command {
	var (
		platformName  string
		endpointName  string
		backendURL    string
		instanceType  string
		instanceCount int
		wait          bool
		interval      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a trained model behind a hosted endpoint",
		Example: `
	# Deploy the model of a completed training job
	mljet deploy abalone-1 --endpoint abalone-ep --wait
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("deploy requires the training job name argument")
			}
			jobName := args[0]
			if endpointName == "" {
				endpointName = jobName + "-ep"
			}
			ctx, cancel := platform.BaseContext()
			defer cancel()

			c, err := job.PlatformClient(platformName)
			if err != nil {
				return err
			}

			trained, err := c.Remote.GetTrainingJob(ctx, jobName)
			if err != nil {
				return err
			}
			if trained.Status.State != types.JobStateCompleted {
				return fmt.Errorf("job %s is %s, deploy needs a completed job", jobName, trained.Status.State)
			}

			ep := &types.Endpoint{
				Name: endpointName,
				Spec: types.EndpointSpec{
					ModelName:     jobName,
					BackendURL:    backendURL,
					InstanceType:  instanceType,
					InstanceCount: instanceCount,
				},
			}
			if err := c.Deploy(ctx, ep); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "endpoint %s is %s\n", ep.Name, ep.Status.State)
			if !wait {
				return nil
			}
			final, err := c.WaitForEndpointInService(ctx, ep.Name, interval)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "endpoint %s is %s\n", final.Name, final.Status.State)
			if final.Status.State != types.EndpointStateInService {
				return fmt.Errorf("endpoint %s %s: %s", final.Name, final.Status.State, final.Status.Reason)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&endpointName, "endpoint", "", "endpoint name, defaults to <job>-ep")
	flags.StringVar(&backendURL, "backend-url", "", "serving backend url, defaults to the platform's configured backend")
	flags.StringVar(&instanceType, "instance-type", "", "instance type hint recorded on the endpoint")
	flags.IntVar(&instanceCount, "instance-count", 1, "instance count hint recorded on the endpoint")
	flags.BoolVar(&wait, "wait", false, "wait until the endpoint is in service")
	flags.DurationVar(&interval, "interval", 2*time.Second, "poll interval while waiting")
	job.AddPlatformFlag(cmd, &platformName)
	return cmd
}
