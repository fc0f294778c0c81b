package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"mljet.io/mljet/pkg/errors"
	"mljet.io/mljet/pkg/types"
)

// PlatformClient speaks the platform HTTP API. Error responses decode into
// errors.ErrorInfo so callers can match on codes.
type PlatformClient struct {
	Client        *http.Client
	Addr          string
	Authorization string
}

func (t *PlatformClient) CreateTrainingJob(ctx context.Context, job *types.TrainingJob) error {
	_, err := t.request(ctx, "POST", "/jobs", job, job)
	return err
}

func (t *PlatformClient) GetTrainingJob(ctx context.Context, name string) (*types.TrainingJob, error) {
	job := &types.TrainingJob{}
	if _, err := t.request(ctx, "GET", "/jobs/"+name, nil, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (t *PlatformClient) ListTrainingJobs(ctx context.Context) (*types.TrainingJobList, error) {
	list := &types.TrainingJobList{}
	if _, err := t.request(ctx, "GET", "/jobs", nil, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (t *PlatformClient) StopTrainingJob(ctx context.Context, name string) (*types.TrainingJob, error) {
	job := &types.TrainingJob{}
	if _, err := t.request(ctx, "POST", "/jobs/"+name+"/stop", nil, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (t *PlatformClient) DeleteTrainingJob(ctx context.Context, name string, removeArtifact bool) error {
	path := "/jobs/" + name
	if removeArtifact {
		path += "?artifact=true"
	}
	_, err := t.request(ctx, "DELETE", path, nil, nil)
	return err
}

func (t *PlatformClient) CreateTuningJob(ctx context.Context, job *types.TuningJob) error {
	_, err := t.request(ctx, "POST", "/tuningjobs", job, job)
	return err
}

func (t *PlatformClient) GetTuningJob(ctx context.Context, name string) (*types.TuningJob, error) {
	job := &types.TuningJob{}
	if _, err := t.request(ctx, "GET", "/tuningjobs/"+name, nil, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (t *PlatformClient) ListTuningJobs(ctx context.Context) (*types.TuningJobList, error) {
	list := &types.TuningJobList{}
	if _, err := t.request(ctx, "GET", "/tuningjobs", nil, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (t *PlatformClient) StopTuningJob(ctx context.Context, name string) (*types.TuningJob, error) {
	job := &types.TuningJob{}
	if _, err := t.request(ctx, "POST", "/tuningjobs/"+name+"/stop", nil, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (t *PlatformClient) DeleteTuningJob(ctx context.Context, name string) error {
	_, err := t.request(ctx, "DELETE", "/tuningjobs/"+name, nil, nil)
	return err
}

func (t *PlatformClient) CreateEndpoint(ctx context.Context, ep *types.Endpoint) error {
	_, err := t.request(ctx, "POST", "/endpoints", ep, ep)
	return err
}

func (t *PlatformClient) GetEndpoint(ctx context.Context, name string) (*types.Endpoint, error) {
	ep := &types.Endpoint{}
	if _, err := t.request(ctx, "GET", "/endpoints/"+name, nil, ep); err != nil {
		return nil, err
	}
	return ep, nil
}

func (t *PlatformClient) ListEndpoints(ctx context.Context) (*types.EndpointList, error) {
	list := &types.EndpointList{}
	if _, err := t.request(ctx, "GET", "/endpoints", nil, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (t *PlatformClient) DeleteEndpoint(ctx context.Context, name string) error {
	_, err := t.request(ctx, "DELETE", "/endpoints/"+name, nil, nil)
	return err
}

// Invoke posts body to the endpoint and returns the raw prediction bytes.
func (t *PlatformClient) Invoke(ctx context.Context, name, contentType string, body io.Reader) ([]byte, error) {
	header := map[string]string{}
	if contentType != "" {
		header["Content-Type"] = contentType
	}
	resp, err := t.requestWithHeader(ctx, "POST", "/endpoints/"+name+"/invocations", header, body, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (t *PlatformClient) CreateTransformJob(ctx context.Context, job *types.TransformJob) error {
	_, err := t.request(ctx, "POST", "/transformjobs", job, job)
	return err
}

func (t *PlatformClient) GetTransformJob(ctx context.Context, name string) (*types.TransformJob, error) {
	job := &types.TransformJob{}
	if _, err := t.request(ctx, "GET", "/transformjobs/"+name, nil, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (t *PlatformClient) ListTransformJobs(ctx context.Context) (*types.TransformJobList, error) {
	list := &types.TransformJobList{}
	if _, err := t.request(ctx, "GET", "/transformjobs", nil, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (t *PlatformClient) DeleteTransformJob(ctx context.Context, name string, removeOutput bool) error {
	path := "/transformjobs/" + name
	if removeOutput {
		path += "?output=true"
	}
	_, err := t.request(ctx, "DELETE", path, nil, nil)
	return err
}

// GetModelArtifact streams the model archive of a completed training job.
func (t *PlatformClient) GetModelArtifact(ctx context.Context, jobName string) (io.ReadCloser, int64, error) {
	resp, err := t.request(ctx, "GET", "/models/"+jobName+"/artifact", nil, nil)
	if err != nil {
		return nil, -1, err
	}
	return resp.Body, resp.ContentLength, nil
}

// GCModelArtifacts triggers artifact garbage collection, for outputPath only
// when given. Returns the removed keys with their removal status.
func (t *PlatformClient) GCModelArtifacts(ctx context.Context, outputPath string) (map[string]string, error) {
	path := "/gc"
	if outputPath != "" {
		path += "?path=" + url.QueryEscape(outputPath)
	}
	removed := map[string]string{}
	if _, err := t.request(ctx, "POST", path, nil, &removed); err != nil {
		return nil, err
	}
	return removed, nil
}

func (t *PlatformClient) request(ctx context.Context, method, url string, body any, into any) (*http.Response, error) {
	return t.requestWithHeader(ctx, method, url, nil, body, into)
}

func (t *PlatformClient) requestWithHeader(ctx context.Context, method, url string, header map[string]string, body any, into any) (*http.Response, error) {
	url = t.Addr + url

	var reqbody io.Reader
	switch val := body.(type) {
	case io.Reader:
		reqbody = val
	case nil:
		reqbody = nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		reqbody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqbody)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" && reqbody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.Authorization != "" {
		req.Header.Set("Authorization", t.Authorization)
	}
	httpclient := t.Client
	if httpclient == nil {
		httpclient = http.DefaultClient
	}
	resp, err := httpclient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		var apierr errors.ErrorInfo
		if resp.Header.Get("Content-Type") == "application/json" {
			if err := json.NewDecoder(resp.Body).Decode(&apierr); err != nil {
				return nil, err
			}
		} else {
			bodystr, _ := io.ReadAll(resp.Body)
			apierr.Message = string(bodystr)
		}
		apierr.HttpStatus = resp.StatusCode
		return nil, apierr
	}
	if into != nil {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			return nil, err
		}
	}
	return resp, nil
}
