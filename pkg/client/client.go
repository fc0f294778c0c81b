package client

import (
	"context"
	"net/http"

	"mljet.io/mljet/pkg/types"
)

type Client struct {
	Remote PlatformClient
}

func NewClient(addr string, auth string) *Client {
	return &Client{
		Remote: PlatformClient{Client: http.DefaultClient, Addr: addr, Authorization: auth},
	}
}

func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.Remote.ListTrainingJobs(ctx); err != nil {
		return err
	}
	return nil
}

func (c *Client) Train(ctx context.Context, job *types.TrainingJob) error {
	return c.Remote.CreateTrainingJob(ctx, job)
}

func (c *Client) Tune(ctx context.Context, job *types.TuningJob) error {
	return c.Remote.CreateTuningJob(ctx, job)
}

func (c *Client) Deploy(ctx context.Context, ep *types.Endpoint) error {
	return c.Remote.CreateEndpoint(ctx, ep)
}

func (c *Client) Transform(ctx context.Context, job *types.TransformJob) error {
	return c.Remote.CreateTransformJob(ctx, job)
}

// BestTrainingJob returns the winning trial of a finished tuning job.
func (c *Client) BestTrainingJob(ctx context.Context, tuningName string) (*types.TrainingJob, error) {
	tuning, err := c.Remote.GetTuningJob(ctx, tuningName)
	if err != nil {
		return nil, err
	}
	if tuning.Status.BestTrainingJob == nil {
		return nil, nil
	}
	return c.Remote.GetTrainingJob(ctx, tuning.Status.BestTrainingJob.Name)
}
