package endpoint

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"mljet.io/mljet/cmd/mljet/job"
	"mljet.io/mljet/cmd/mljet/platform"
	"mljet.io/mljet/pkg/types"
)

func NewTransformCmd() *cobra.Command {
	var (
		platformName string
		modelName    string
		backendURL   string
		inputPrefix  string
		outputPrefix string
		contentType  string
		wait         bool
		interval     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Run a batch transform over staged objects",
		Example: `
	# Transform everything under batch/in into batch/out
	mljet transform abalone-batch --model abalone-1 --input batch/in --output batch/out --wait
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("transform requires the transform job name argument")
			}
			ctx, cancel := platform.BaseContext()
			defer cancel()

			c, err := job.PlatformClient(platformName)
			if err != nil {
				return err
			}
			transform := &types.TransformJob{
				Name: args[0],
				Spec: types.TransformJobSpec{
					ModelName:    modelName,
					BackendURL:   backendURL,
					InputPrefix:  inputPrefix,
					OutputPrefix: outputPrefix,
					ContentType:  contentType,
				},
			}
			if err := c.Transform(ctx, transform); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "transform job %s submitted\n", transform.Name)
			if !wait {
				return nil
			}
			final, err := c.WaitForTransformJob(ctx, transform.Name, interval)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Input", "Output", "Error"})
			for _, obj := range final.Status.Objects {
				t.AppendRow(table.Row{obj.Input, obj.Output, obj.Error})
			}
			t.Render()
			if final.Status.State != types.JobStateCompleted {
				return fmt.Errorf("transform job %s %s: %s", final.Name, final.Status.State, final.Status.Reason)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&modelName, "model", "", "training job whose model serves the transform")
	flags.StringVar(&backendURL, "backend-url", "", "serving backend url, defaults to the platform's configured backend")
	flags.StringVar(&inputPrefix, "input", "", "storage prefix with the input objects")
	flags.StringVar(&outputPrefix, "output", "", "storage prefix the results are written to")
	flags.StringVar(&contentType, "content-type", "text/csv", "content type sent to the backend")
	flags.BoolVar(&wait, "wait", false, "wait until the transform job is terminal")
	flags.DurationVar(&interval, "interval", 2*time.Second, "poll interval while waiting")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")
	job.AddPlatformFlag(cmd, &platformName)
	return cmd
}
