package platform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"mljet.io/mljet/pkg/errors"
	"mljet.io/mljet/pkg/storage"
	"mljet.io/mljet/pkg/types"
)

// fakeRunner behaves like a well behaved algorithm: reads the staged input,
// writes a model file and a metrics file.
type fakeRunner struct {
	fail  bool
	block chan struct{}
}

func (r *fakeRunner) Run(ctx context.Context, in RunInput) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if r.fail {
		return fmt.Errorf("boosting diverged")
	}
	if _, err := os.Stat(filepath.Join(in.InputDir, "config", "hyperparameters.json")); err != nil {
		return fmt.Errorf("hyperparameters not staged: %w", err)
	}
	if _, err := os.Stat(filepath.Join(in.InputDir, "train", "part-0.csv")); err != nil {
		return fmt.Errorf("train channel not staged: %w", err)
	}
	if err := os.WriteFile(filepath.Join(in.ModelDir, "model.bin"), []byte("weights"), 0o644); err != nil {
		return err
	}
	return os.WriteFile(in.MetricsFile, []byte(`{"validation:rmse": 2.31}`), 0o644)
}

func newTestManager(t *testing.T, runner Runner) (*JobManager, storage.Provider) {
	t.Helper()
	provider, err := storage.NewLocalProvider(&storage.LocalOptions{Basepath: t.TempDir()})
	if err != nil {
		t.Fatalf("local provider: %v", err)
	}
	return NewJobManager(newTestStore(t), provider, runner, logr.Discard()), provider
}

func putObject(t *testing.T, provider storage.Provider, key, body string) {
	t.Helper()
	err := provider.Put(context.Background(), key, storage.ObjectContent{
		ContentType:   "text/csv",
		ContentLength: int64(len(body)),
		Content:       io.NopCloser(strings.NewReader(body)),
	})
	if err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
}

func storePending(t *testing.T, m *JobManager, name string, spec types.TrainingJobSpec) {
	t.Helper()
	err := m.Store.PutTrainingJob(&types.TrainingJob{
		Name:   name,
		Spec:   spec,
		Status: types.TrainingJobStatus{State: types.JobStatePending, SubmitTime: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRunJobCompletes(t *testing.T) {
	m, provider := newTestManager(t, &fakeRunner{})
	putObject(t, provider, "datasets/abalone/train/part-0.csv", "8,0.455,0.365\n")
	storePending(t, m, "abalone-1", testJobSpec())

	if err := m.RunJob(context.Background(), "abalone-1"); err != nil {
		t.Fatalf("run: %v", err)
	}
	job, err := m.Store.GetTrainingJob("abalone-1")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status.State != types.JobStateCompleted {
		t.Fatalf("state = %s (%s: %s)", job.Status.State, job.Status.Reason, job.Status.Message)
	}
	if job.Status.Artifact == nil {
		t.Fatal("no artifact recorded")
	}
	wantKey := "output/abalone-1/" + ModelArchiveName
	if job.Status.Artifact.URI != wantKey {
		t.Fatalf("artifact uri = %s, want %s", job.Status.Artifact.URI, wantKey)
	}
	if got := job.Status.FinalMetrics["validation:rmse"]; got != 2.31 {
		t.Fatalf("metrics = %v", job.Status.FinalMetrics)
	}
	exists, err := provider.Exists(context.Background(), wantKey)
	if err != nil || !exists {
		t.Fatalf("artifact object missing: exists=%v err=%v", exists, err)
	}
	if job.Status.StartTime == nil || job.Status.EndTime == nil {
		t.Fatal("start/end times not recorded")
	}
}

func TestRunJobAlgorithmFailure(t *testing.T) {
	m, provider := newTestManager(t, &fakeRunner{fail: true})
	putObject(t, provider, "datasets/abalone/train/part-0.csv", "8,0.455,0.365\n")
	storePending(t, m, "abalone-fail", testJobSpec())

	if err := m.RunJob(context.Background(), "abalone-fail"); err == nil {
		t.Fatal("expected error")
	}
	job, _ := m.Store.GetTrainingJob("abalone-fail")
	if job.Status.State != types.JobStateFailed {
		t.Fatalf("state = %s", job.Status.State)
	}
	if job.Status.Reason != ReasonAlgorithmError {
		t.Fatalf("reason = %s", job.Status.Reason)
	}
}

func TestRunJobMissingChannel(t *testing.T) {
	m, _ := newTestManager(t, &fakeRunner{})
	storePending(t, m, "no-data", testJobSpec())

	if err := m.RunJob(context.Background(), "no-data"); err == nil {
		t.Fatal("expected error")
	}
	job, _ := m.Store.GetTrainingJob("no-data")
	if job.Status.State != types.JobStateFailed {
		t.Fatalf("state = %s", job.Status.State)
	}
}

func TestRunJobMaxRuntime(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	m, provider := newTestManager(t, runner)
	putObject(t, provider, "datasets/abalone/train/part-0.csv", "8,0.455,0.365\n")

	spec := testJobSpec()
	spec.Stopping.MaxRuntimeSeconds = 1
	storePending(t, m, "slow", spec)

	if err := m.RunJob(context.Background(), "slow"); err == nil {
		t.Fatal("expected error")
	}
	job, _ := m.Store.GetTrainingJob("slow")
	if job.Status.State != types.JobStateFailed {
		t.Fatalf("state = %s", job.Status.State)
	}
	if job.Status.Reason != ReasonMaxRuntime {
		t.Fatalf("reason = %s", job.Status.Reason)
	}
}

func TestStopRunningJob(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	m, provider := newTestManager(t, runner)
	putObject(t, provider, "datasets/abalone/train/part-0.csv", "8,0.455,0.365\n")
	storePending(t, m, "stoppable", testJobSpec())

	done := make(chan error, 1)
	go func() { done <- m.RunJob(context.Background(), "stoppable") }()

	deadline := time.After(5 * time.Second)
	for {
		job, err := m.Store.GetTrainingJob("stoppable")
		if err != nil {
			t.Fatal(err)
		}
		if job.Status.State == types.JobStateTraining {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job never reached training, state=%s", job.Status.State)
		case <-time.After(10 * time.Millisecond):
		}
	}
	if err := m.Stop("stoppable"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("run returned %v", err)
	}
	job, _ := m.Store.GetTrainingJob("stoppable")
	if job.Status.State != types.JobStateStopped {
		t.Fatalf("state = %s", job.Status.State)
	}
}

func TestDeleteRequiresTerminal(t *testing.T) {
	m, _ := newTestManager(t, &fakeRunner{})
	storePending(t, m, "pending", testJobSpec())

	err := m.Delete(context.Background(), "pending", false)
	if !errors.IsErrCode(err, errors.ErrCodeJobNotTerminal) {
		t.Fatalf("expected job not terminal, got %v", err)
	}
}

func TestDeleteRemovesArtifact(t *testing.T) {
	m, provider := newTestManager(t, &fakeRunner{})
	putObject(t, provider, "datasets/abalone/train/part-0.csv", "8,0.455,0.365\n")
	storePending(t, m, "done", testJobSpec())
	if err := m.RunJob(context.Background(), "done"); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(context.Background(), "done", true); err != nil {
		t.Fatalf("delete: %v", err)
	}
	exists, err := provider.Exists(context.Background(), "output/done/"+ModelArchiveName)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("artifact still present")
	}
}

func TestSubmitRejectsDuplicateAndInvalid(t *testing.T) {
	m, provider := newTestManager(t, &fakeRunner{})
	putObject(t, provider, "datasets/abalone/train/part-0.csv", "8,0.455,0.365\n")

	storePending(t, m, "taken", testJobSpec())
	err := m.Submit(context.Background(), &types.TrainingJob{Name: "taken", Spec: testJobSpec()})
	if !errors.IsErrCode(err, errors.ErrCodeJobExists) {
		t.Fatalf("expected job exists, got %v", err)
	}

	bad := testJobSpec()
	bad.InputChannels = nil
	err = m.Submit(context.Background(), &types.TrainingJob{Name: "bad", Spec: bad})
	if !errors.IsErrCode(err, errors.ErrCodeSpecInvalid) {
		t.Fatalf("expected spec invalid, got %v", err)
	}
}

func TestArtifactArchiveContainsModel(t *testing.T) {
	m, provider := newTestManager(t, &fakeRunner{})
	putObject(t, provider, "datasets/abalone/train/part-0.csv", "8,0.455,0.365\n")
	storePending(t, m, "archived", testJobSpec())
	if err := m.RunJob(context.Background(), "archived"); err != nil {
		t.Fatal(err)
	}
	content, err := provider.Get(context.Background(), "output/archived/"+ModelArchiveName)
	if err != nil {
		t.Fatal(err)
	}
	defer content.Close()
	raw, err := io.ReadAll(content)
	if err != nil {
		t.Fatal(err)
	}
	// gzip magic
	if !bytes.HasPrefix(raw, []byte{0x1f, 0x8b}) {
		t.Fatalf("artifact is not gzip, starts with % x", raw[:2])
	}
}

func TestStoppedJobStaysStopped(t *testing.T) {
	m, provider := newTestManager(t, &fakeRunner{})
	putObject(t, provider, "datasets/abalone/train/part-0.csv", "8,0.455,0.365\n")
	storePending(t, m, "abalone-halt", testJobSpec())

	// stop before any runner picked the job up
	if err := m.Stop("abalone-halt"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	job, err := m.Store.GetTrainingJob("abalone-halt")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status.State != types.JobStateStopped {
		t.Fatalf("state after stop = %s", job.Status.State)
	}

	// a run arriving late must not revive the job
	if err := m.RunJob(context.Background(), "abalone-halt"); err != nil {
		t.Fatalf("run on stopped job: %v", err)
	}
	job, err = m.Store.GetTrainingJob("abalone-halt")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status.State != types.JobStateStopped {
		t.Fatalf("state = %s, want %s", job.Status.State, types.JobStateStopped)
	}
	if job.Status.Artifact != nil {
		t.Fatal("stopped job must not record an artifact")
	}
}

func TestRunJobRequiresPending(t *testing.T) {
	m, _ := newTestManager(t, &fakeRunner{})
	err := m.Store.PutTrainingJob(&types.TrainingJob{
		Name:   "abalone-busy",
		Spec:   testJobSpec(),
		Status: types.TrainingJobStatus{State: types.JobStateTraining, SubmitTime: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.RunJob(context.Background(), "abalone-busy"); err == nil {
		t.Fatal("expected error running a job that is not pending")
	}
}
