package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"mljet.io/mljet/pkg/archive"
	"mljet.io/mljet/pkg/errors"
	"mljet.io/mljet/pkg/storage"
	"mljet.io/mljet/pkg/types"
)

const (
	ModelArchiveName     = "model.tar.gz"
	MetricsFileName      = "metrics.json"
	HyperparametersFile  = "config/hyperparameters.json"
	ReasonStopped        = "JobStopped"
	ReasonMaxRuntime     = "MaxRuntimeExceeded"
	ReasonAlgorithmError = "AlgorithmError"
	ReasonStageError     = "StagingError"
)

// terminal states never transition again
var errTerminalState = fmt.Errorf("job is in a terminal state")

// RunInput is what a Runner gets: channels staged under InputDir (one subdir
// per channel, hyperparameters at config/hyperparameters.json), model files
// expected under ModelDir, final metrics at MetricsFile.
type RunInput struct {
	Job         *types.TrainingJob
	InputDir    string
	ModelDir    string
	MetricsFile string
}

// Runner launches the external training algorithm. The platform never
// implements the algorithm itself.
type Runner interface {
	Run(ctx context.Context, in RunInput) error
}

// JobManager drives training jobs through their state machine.
type JobManager struct {
	Store   *Store
	Storage storage.Provider
	Runner  Runner
	Logger  logr.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewJobManager(store *Store, provider storage.Provider, runner Runner, log logr.Logger) *JobManager {
	return &JobManager{
		Store:   store,
		Storage: provider,
		Runner:  runner,
		Logger:  log,
		cancels: map[string]context.CancelFunc{},
	}
}

func (m *JobManager) Submit(ctx context.Context, job *types.TrainingJob) error {
	if job.Name == "" {
		return errors.NewParameterInvalidError("job name is required")
	}
	if err := job.Spec.Validate(); err != nil {
		return errors.NewSpecInvalidError(err)
	}
	if _, err := m.Store.GetTrainingJob(job.Name); err == nil {
		return errors.NewJobExistsError(job.Name)
	}
	job.Status = types.TrainingJobStatus{
		State:        types.JobStatePending,
		SubmitTime:   time.Now(),
		TransitionAt: time.Now(),
	}
	if err := m.Store.PutTrainingJob(job); err != nil {
		return err
	}
	// register the cancel before returning so a Stop arriving right after
	// Submit cancels the run instead of racing the detached goroutine
	runctx, cancel := context.WithCancel(context.Background())
	m.registerCancel(job.Name, cancel)
	go m.runDetached(runctx, cancel, job.Name)
	return nil
}

// runDetached drives a job outside the request context. A stop request or
// the stopping condition cancels it.
func (m *JobManager) runDetached(ctx context.Context, cancel context.CancelFunc, name string) {
	defer func() {
		cancel()
		m.unregisterCancel(name)
	}()
	ctx = logr.NewContext(ctx, m.Logger.WithValues("trainingjob", name))
	if err := m.RunJob(ctx, name); err != nil {
		m.Logger.Error(err, "training job did not complete", "trainingjob", name)
	}
}

// RunJob runs the named job to a terminal state. It is synchronous; Submit
// wraps it in a goroutine, the tuning engine calls it directly.
func (m *JobManager) RunJob(ctx context.Context, name string) error {
	job, err := m.Store.GetTrainingJob(name)
	if err != nil {
		return err
	}
	if job.Status.State.Terminal() {
		// stopped before this runner picked it up
		return nil
	}
	if job.Status.State == types.JobStateStopping {
		if terr := m.transition(name, types.JobStateStopped, ReasonStopped, "stopped by request"); terr != nil && terr != errTerminalState {
			return terr
		}
		return nil
	}
	if job.Status.State != types.JobStatePending {
		return fmt.Errorf("job %s is already running in state %s", name, job.Status.State)
	}

	if max := job.Spec.Stopping.MaxRuntimeSeconds; max > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(max)*time.Second)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	m.registerCancel(name, cancel)
	defer m.unregisterCancel(name)

	err = m.stages(ctx, job)
	if err == nil || err == errTerminalState {
		return nil
	}

	reason := ReasonStageError
	switch {
	case ctx.Err() == context.Canceled:
		if terr := m.transition(name, types.JobStateStopped, ReasonStopped, "stopped by request"); terr != nil && terr != errTerminalState {
			return terr
		}
		return nil
	case ctx.Err() == context.DeadlineExceeded:
		reason = ReasonMaxRuntime
	case errors.IsErrCode(err, errors.ErrCodeInternal):
		reason = ReasonAlgorithmError
	}
	if terr := m.transition(name, types.JobStateFailed, reason, err.Error()); terr != nil && terr != errTerminalState {
		return terr
	}
	return err
}

func (m *JobManager) stages(ctx context.Context, job *types.TrainingJob) error {
	log := logr.FromContextOrDiscard(ctx)

	workdir, err := os.MkdirTemp("", "mljet-job-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workdir)

	inputdir := filepath.Join(workdir, "input")
	modeldir := filepath.Join(workdir, "model")
	metricsfile := filepath.Join(workdir, MetricsFileName)
	for _, dir := range []string{inputdir, modeldir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if err := m.transition(job.Name, types.JobStateDownloading, "", ""); err != nil {
		return err
	}
	for _, channel := range job.Spec.InputChannels {
		if err := m.downloadChannel(ctx, channel, filepath.Join(inputdir, channel.Name)); err != nil {
			return fmt.Errorf("stage channel %s: %w", channel.Name, err)
		}
	}
	if err := writeHyperparameters(inputdir, job.Spec.Algorithm.Hyperparameters); err != nil {
		return err
	}

	if err := m.transition(job.Name, types.JobStateTraining, "", ""); err != nil {
		return err
	}
	log.Info("invoking algorithm", "image", job.Spec.Algorithm.Image)
	if err := m.Runner.Run(ctx, RunInput{
		Job:         job,
		InputDir:    inputdir,
		ModelDir:    modeldir,
		MetricsFile: metricsfile,
	}); err != nil {
		return errors.NewInternalError(err)
	}

	if err := m.transition(job.Name, types.JobStateUploading, "", ""); err != nil {
		return err
	}
	artifact, err := m.uploadArtifact(ctx, job, modeldir, workdir)
	if err != nil {
		return fmt.Errorf("upload artifact: %w", err)
	}
	metrics, err := readMetrics(metricsfile)
	if err != nil {
		return err
	}

	return m.update(job.Name, func(status *types.TrainingJobStatus) {
		now := time.Now()
		status.State = types.JobStateCompleted
		status.TransitionAt = now
		status.EndTime = &now
		status.Artifact = artifact
		status.FinalMetrics = metrics
	})
}

func (m *JobManager) downloadChannel(ctx context.Context, channel types.DataChannel, intodir string) error {
	metas, err := m.Storage.List(ctx, channel.URI, true)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		return fmt.Errorf("no objects under %s", channel.URI)
	}
	for _, meta := range metas {
		content, err := m.Storage.Get(ctx, path.Join(channel.URI, meta.Key))
		if err != nil {
			return err
		}
		local := filepath.Join(intodir, filepath.FromSlash(meta.Key))
		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			content.Close()
			return err
		}
		f, err := os.Create(local)
		if err != nil {
			content.Close()
			return err
		}
		_, err = io.Copy(f, content)
		f.Close()
		content.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *JobManager) uploadArtifact(ctx context.Context, job *types.TrainingJob, modeldir, workdir string) (*types.ModelArtifact, error) {
	archivefile := filepath.Join(workdir, ModelArchiveName)
	dgst, err := archive.TGZ(ctx, modeldir, archivefile)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(archivefile)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(archivefile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	key := ArtifactKey(job.Spec.OutputPath, job.Name)
	if err := m.Storage.Put(ctx, key, storage.ObjectContent{
		ContentType:   "application/x-tar+gzip",
		ContentLength: fi.Size(),
		Content:       f,
	}); err != nil {
		return nil, err
	}
	return &types.ModelArtifact{URI: key, Digest: dgst, Size: fi.Size()}, nil
}

func ArtifactKey(outputPath, jobName string) string {
	return path.Join(outputPath, jobName, ModelArchiveName)
}

func writeHyperparameters(inputdir string, params map[string]string) error {
	if params == nil {
		params = map[string]string{}
	}
	raw, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return err
	}
	file := filepath.Join(inputdir, filepath.FromSlash(HyperparametersFile))
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	return os.WriteFile(file, raw, 0o644)
}

func readMetrics(metricsfile string) (map[string]float64, error) {
	raw, err := os.ReadFile(metricsfile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	metrics := map[string]float64{}
	if err := json.Unmarshal(raw, &metrics); err != nil {
		return nil, fmt.Errorf("parse %s: %w", MetricsFileName, err)
	}
	return metrics, nil
}

func (m *JobManager) Stop(name string) error {
	job, err := m.Store.GetTrainingJob(name)
	if err != nil {
		return err
	}
	if job.Status.State.Terminal() {
		return nil
	}
	m.mu.Lock()
	cancel, running := m.cancels[name]
	m.mu.Unlock()
	if running {
		if err := m.transition(name, types.JobStateStopping, "", ""); err != nil {
			return err
		}
		cancel()
		return nil
	}
	// not driven by this process anymore, e.g. after a restart
	return m.transition(name, types.JobStateStopped, ReasonStopped, "orphaned on restart")
}

func (m *JobManager) Delete(ctx context.Context, name string, removeArtifact bool) error {
	job, err := m.Store.GetTrainingJob(name)
	if err != nil {
		return err
	}
	if !job.Status.State.Terminal() {
		return errors.NewJobNotTerminalError(name)
	}
	if removeArtifact && job.Status.Artifact != nil {
		if err := m.Storage.Remove(ctx, path.Join(job.Spec.OutputPath, job.Name), true); err != nil {
			return err
		}
	}
	return m.Store.DeleteTrainingJob(name)
}

func (m *JobManager) transition(name string, state types.JobState, reason, message string) error {
	return m.update(name, func(status *types.TrainingJobStatus) {
		now := time.Now()
		status.State = state
		status.TransitionAt = now
		status.Reason = reason
		status.Message = message
		if state == types.JobStateDownloading && status.StartTime == nil {
			status.StartTime = &now
		}
		if state.Terminal() && status.EndTime == nil {
			status.EndTime = &now
		}
	})
}

func (m *JobManager) update(name string, mutate func(*types.TrainingJobStatus)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, err := m.Store.GetTrainingJob(name)
	if err != nil {
		return err
	}
	if job.Status.State.Terminal() {
		return errTerminalState
	}
	mutate(&job.Status)
	return m.Store.PutTrainingJob(job)
}

func (m *JobManager) registerCancel(name string, cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels[name] = cancel
}

func (m *JobManager) unregisterCancel(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cancels, name)
}
