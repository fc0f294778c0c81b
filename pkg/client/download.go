package client

import (
	"context"
	"fmt"
	"os"

	"mljet.io/mljet/pkg/archive"
	"mljet.io/mljet/pkg/client/progress"
	"mljet.io/mljet/pkg/types"
)

// DownloadModelArtifact fetches the model archive of a completed training
// job and unpacks it into intodir.
func (c *Client) DownloadModelArtifact(ctx context.Context, jobName, intodir string) error {
	job, err := c.Remote.GetTrainingJob(ctx, jobName)
	if err != nil {
		return err
	}
	if job.Status.State != types.JobStateCompleted || job.Status.Artifact == nil {
		return fmt.Errorf("job %s has no model artifact (state %s)", jobName, job.Status.State)
	}

	body, length, err := c.Remote.GetModelArtifact(ctx, jobName)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := os.MkdirAll(intodir, 0o755); err != nil {
		return err
	}

	p := progress.NewMultiBar(os.Stdout, 40, 1)
	go p.Run(ctx)
	p.Go(jobName, "downloading", func(b *progress.Bar) error {
		rc := b.WrapReader(body, jobName, length, "downloading", "done", "failed")
		return archive.UnTGZ(ctx, intodir, rc)
	})
	return p.Wait()
}
