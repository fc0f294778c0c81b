package platform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"mljet.io/mljet/pkg/errors"
	"mljet.io/mljet/pkg/storage"
	"mljet.io/mljet/pkg/types"
)

// TransformManager runs batch transform jobs: every object under the input
// prefix is posted to the serving backend and the response is written next
// to the input key under the output prefix.
type TransformManager struct {
	Store   *Store
	Storage storage.Provider
	Client  *http.Client
	Logger  logr.Logger

	mu sync.Mutex
}

func NewTransformManager(store *Store, provider storage.Provider, log logr.Logger) *TransformManager {
	return &TransformManager{
		Store:   store,
		Storage: provider,
		Client:  &http.Client{Timeout: 60 * time.Second},
		Logger:  log,
	}
}

func (m *TransformManager) Submit(ctx context.Context, job *types.TransformJob) error {
	if job.Name == "" {
		return errors.NewParameterInvalidError("transform job name is required")
	}
	if err := job.Spec.Validate(); err != nil {
		return errors.NewSpecInvalidError(err)
	}
	if _, err := m.Store.GetTransformJob(job.Name); err == nil {
		return errors.NewJobExistsError(job.Name)
	}
	job.Status = types.TransformJobStatus{
		State:      types.JobStatePending,
		SubmitTime: time.Now(),
	}
	if err := m.Store.PutTransformJob(job); err != nil {
		return err
	}
	go m.runDetached(job.Name)
	return nil
}

func (m *TransformManager) runDetached(name string) {
	ctx := logr.NewContext(context.Background(), m.Logger.WithValues("transformjob", name))
	if err := m.run(ctx, name); err != nil {
		m.Logger.Error(err, "transform job did not complete", "transformjob", name)
	}
}

func (m *TransformManager) run(ctx context.Context, name string) error {
	job, err := m.Store.GetTransformJob(name)
	if err != nil {
		return err
	}

	metas, err := m.Storage.List(ctx, job.Spec.InputPrefix, true)
	if err != nil {
		return m.finish(name, types.JobStateFailed, "ListInputFailed", err.Error())
	}
	if err := m.update(name, func(status *types.TransformJobStatus) {
		status.State = types.JobStateTraining
		status.Total = len(metas)
	}); err != nil {
		return err
	}

	failed := 0
	for _, meta := range metas {
		result := m.transformObject(ctx, job, meta.Key)
		if result.Error != "" {
			failed++
		}
		if err := m.update(name, func(status *types.TransformJobStatus) {
			status.Processed++
			status.Failed = failed
			status.Objects = append(status.Objects, result)
		}); err != nil {
			return err
		}
	}
	state := types.JobStateCompleted
	reason := ""
	if failed > 0 {
		state, reason = types.JobStateFailed, fmt.Sprintf("%d of %d objects failed", failed, len(metas))
	}
	return m.finish(name, state, reason, "")
}

func (m *TransformManager) transformObject(ctx context.Context, job *types.TransformJob, key string) types.TransformObjectResult {
	result := types.TransformObjectResult{Input: path.Join(job.Spec.InputPrefix, key)}

	content, err := m.Storage.Get(ctx, result.Input)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	raw, err := io.ReadAll(content)
	content.Close()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	target := strings.TrimSuffix(job.Spec.BackendURL, "/") + "/invocations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(raw))
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if job.Spec.ContentType != "" {
		req.Header.Set("Content-Type", job.Spec.ContentType)
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if resp.StatusCode >= http.StatusBadRequest {
		result.Error = fmt.Sprintf("backend returned %d", resp.StatusCode)
		return result
	}

	outKey := path.Join(job.Spec.OutputPrefix, key+".out")
	if err := m.Storage.Put(ctx, outKey, storage.ObjectContent{
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: int64(len(out)),
		Content:       io.NopCloser(bytes.NewReader(out)),
	}); err != nil {
		result.Error = err.Error()
		return result
	}
	result.Output = outKey
	return result
}

func (m *TransformManager) finish(name string, state types.JobState, reason, message string) error {
	return m.update(name, func(status *types.TransformJobStatus) {
		now := time.Now()
		status.State = state
		status.Reason = reason
		status.Message = message
		status.EndTime = &now
	})
}

func (m *TransformManager) Delete(ctx context.Context, name string, removeOutput bool) error {
	job, err := m.Store.GetTransformJob(name)
	if err != nil {
		return err
	}
	if !job.Status.State.Terminal() {
		return errors.NewJobNotTerminalError(name)
	}
	if removeOutput {
		if err := m.Storage.Remove(ctx, job.Spec.OutputPrefix, true); err != nil {
			return err
		}
	}
	return m.Store.DeleteTransformJob(name)
}

func (m *TransformManager) update(name string, mutate func(*types.TransformJobStatus)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, err := m.Store.GetTransformJob(name)
	if err != nil {
		return err
	}
	mutate(&job.Status)
	return m.Store.PutTransformJob(job)
}
