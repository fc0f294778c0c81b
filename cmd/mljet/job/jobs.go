package job

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"mljet.io/mljet/cmd/mljet/platform"
)

func NewJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Training job management",
		Long:  "Training job management",
	}
	cmd.AddCommand(NewJobsListCmd())
	cmd.AddCommand(NewJobsGetCmd())
	cmd.AddCommand(NewJobsStopCmd())
	cmd.AddCommand(NewJobsDownloadCmd())
	cmd.AddCommand(NewJobsGCCmd())
	return cmd
}

func NewJobsGCCmd() *cobra.Command {
	var (
		platformName string
		outputPath   string
	)
	cmd := &cobra.Command{
		Use:          "gc",
		Short:        "Remove model artifacts no stored job references",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := platform.BaseContext()
			defer cancel()

			c, err := PlatformClient(platformName)
			if err != nil {
				return err
			}
			removed, err := c.Remote.GCModelArtifacts(ctx, outputPath)
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Artifact", "Status"})
			for key, status := range removed {
				t.AppendRow(table.Row{key, status})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&outputPath, "path", "", "only collect under this output path")
	AddPlatformFlag(cmd, &platformName)
	return cmd
}

func NewJobsListCmd() *cobra.Command {
	var platformName string
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List training jobs",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := platform.BaseContext()
			defer cancel()

			c, err := PlatformClient(platformName)
			if err != nil {
				return err
			}
			list, err := c.Remote.ListTrainingJobs(ctx)
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Name", "State", "Submitted", "Duration", "Artifact"})
			for _, job := range list.Items {
				duration := ""
				if job.Status.StartTime != nil {
					end := time.Now()
					if job.Status.EndTime != nil {
						end = *job.Status.EndTime
					}
					duration = end.Sub(*job.Status.StartTime).Round(time.Second).String()
				}
				artifact := ""
				if job.Status.Artifact != nil {
					artifact = job.Status.Artifact.URI
				}
				t.AppendRow(table.Row{job.Name, job.Status.State, job.Status.SubmitTime.Format(time.RFC3339), duration, artifact})
			}
			t.Render()
			return nil
		},
	}
	AddPlatformFlag(cmd, &platformName)
	return cmd
}

func NewJobsGetCmd() *cobra.Command {
	var platformName string
	cmd := &cobra.Command{
		Use:          "get",
		Short:        "Show a training job",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("jobs get requires the job name argument")
			}
			ctx, cancel := platform.BaseContext()
			defer cancel()

			c, err := PlatformClient(platformName)
			if err != nil {
				return err
			}
			job, err := c.Remote.GetTrainingJob(ctx, args[0])
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(job)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	AddPlatformFlag(cmd, &platformName)
	return cmd
}

func NewJobsStopCmd() *cobra.Command {
	var platformName string
	cmd := &cobra.Command{
		Use:          "stop",
		Short:        "Stop a running training job",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("jobs stop requires the job name argument")
			}
			ctx, cancel := platform.BaseContext()
			defer cancel()

			c, err := PlatformClient(platformName)
			if err != nil {
				return err
			}
			job, err := c.Remote.StopTrainingJob(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s is %s\n", job.Name, job.Status.State)
			return nil
		},
	}
	AddPlatformFlag(cmd, &platformName)
	return cmd
}

func NewJobsDownloadCmd() *cobra.Command {
	var (
		platformName string
		outdir       string
	)
	cmd := &cobra.Command{
		Use:          "download",
		Short:        "Download and unpack a job's model artifact",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("jobs download requires the job name argument")
			}
			ctx, cancel := platform.BaseContext()
			defer cancel()

			c, err := PlatformClient(platformName)
			if err != nil {
				return err
			}
			return c.DownloadModelArtifact(ctx, args[0], outdir)
		},
	}
	cmd.Flags().StringVarP(&outdir, "output", "o", "model", "directory the artifact is unpacked into")
	AddPlatformFlag(cmd, &platformName)
	return cmd
}
