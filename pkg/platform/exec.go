package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// ExecRunner launches the configured algorithm command with the staged
// directories exposed through the environment, in the manner of a training
// container entrypoint.
type ExecRunner struct {
	Command []string
}

func NewExecRunner(command []string) (*ExecRunner, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("runner command is empty")
	}
	return &ExecRunner{Command: command}, nil
}

func (r *ExecRunner) Run(ctx context.Context, in RunInput) error {
	args := append([]string{}, r.Command[1:]...)
	if len(in.Job.Spec.Algorithm.Command) > 0 {
		args = append(args, in.Job.Spec.Algorithm.Command...)
	}
	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		"MLJET_JOB_NAME="+in.Job.Name,
		"MLJET_ALGORITHM_IMAGE="+in.Job.Spec.Algorithm.Image,
		"MLJET_INPUT_DIR="+in.InputDir,
		"MLJET_MODEL_DIR="+in.ModelDir,
		"MLJET_METRICS_FILE="+in.MetricsFile,
	)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("algorithm exited: %w", err)
	}
	return nil
}
