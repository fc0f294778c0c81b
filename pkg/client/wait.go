package client

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"mljet.io/mljet/pkg/types"
)

const DefaultPollInterval = 5 * time.Second

// WaitForTrainingJob polls until the job reaches a terminal state and
// returns it. The context bounds the wait.
func (c *Client) WaitForTrainingJob(ctx context.Context, name string, interval time.Duration) (*types.TrainingJob, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	var job *types.TrainingJob
	err := wait.PollImmediateUntilWithContext(ctx, interval, func(ctx context.Context) (bool, error) {
		got, err := c.Remote.GetTrainingJob(ctx, name)
		if err != nil {
			return false, err
		}
		job = got
		return got.Status.State.Terminal(), nil
	})
	return job, err
}

func (c *Client) WaitForTuningJob(ctx context.Context, name string, interval time.Duration) (*types.TuningJob, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	var job *types.TuningJob
	err := wait.PollImmediateUntilWithContext(ctx, interval, func(ctx context.Context) (bool, error) {
		got, err := c.Remote.GetTuningJob(ctx, name)
		if err != nil {
			return false, err
		}
		job = got
		return got.Status.State.Terminal(), nil
	})
	return job, err
}

func (c *Client) WaitForTransformJob(ctx context.Context, name string, interval time.Duration) (*types.TransformJob, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	var job *types.TransformJob
	err := wait.PollImmediateUntilWithContext(ctx, interval, func(ctx context.Context) (bool, error) {
		got, err := c.Remote.GetTransformJob(ctx, name)
		if err != nil {
			return false, err
		}
		job = got
		return got.Status.State.Terminal(), nil
	})
	return job, err
}

// WaitForEndpointInService polls until the endpoint leaves Creating. A
// Failed endpoint is returned alongside a nil error; callers check state.
func (c *Client) WaitForEndpointInService(ctx context.Context, name string, interval time.Duration) (*types.Endpoint, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	var ep *types.Endpoint
	err := wait.PollImmediateUntilWithContext(ctx, interval, func(ctx context.Context) (bool, error) {
		got, err := c.Remote.GetEndpoint(ctx, name)
		if err != nil {
			return false, err
		}
		ep = got
		return got.Status.State != types.EndpointStateCreating, nil
	})
	return ep, err
}
