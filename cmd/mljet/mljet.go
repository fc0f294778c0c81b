package main

import (
	"crypto/tls"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"mljet.io/mljet/cmd/mljet/dataset"
	"mljet.io/mljet/cmd/mljet/endpoint"
	"mljet.io/mljet/cmd/mljet/job"
	"mljet.io/mljet/cmd/mljet/platform"
	"mljet.io/mljet/pkg/version"
)

const ErrExitCode = 1

func main() {
	if err := NewMljetCmd().Execute(); err != nil {
		os.Exit(ErrExitCode)
	}
}

func NewMljetCmd() *cobra.Command {
	insecureSkipVerify := false
	cmd := &cobra.Command{
		Use:     "mljet",
		Short:   "mljet",
		Version: version.Get().String(),
	}
	cmd.AddCommand(
		platform.NewPlatformCmd(),
		dataset.NewDatasetCmd(),
		job.NewTrainCmd(),
		job.NewTuneCmd(),
		job.NewJobsCmd(),
		endpoint.NewDeployCmd(),
		endpoint.NewInvokeCmd(),
		endpoint.NewEvaluateCmd(),
		endpoint.NewTransformCmd(),
		endpoint.NewCleanupCmd(),
	)
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if insecureSkipVerify {
			http.DefaultTransport.(*http.Transport).TLSClientConfig = &tls.Config{
				InsecureSkipVerify: true,
			}
		}
	}
	cmd.PersistentFlags().BoolVarP(&insecureSkipVerify, "insecure", "", insecureSkipVerify, "tls insecure skip verify")
	return cmd
}
