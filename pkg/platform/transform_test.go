package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"mljet.io/mljet/pkg/errors"
	"mljet.io/mljet/pkg/storage"
	"mljet.io/mljet/pkg/types"
)

func newTestTransformManager(t *testing.T) (*TransformManager, storage.Provider) {
	t.Helper()
	provider, err := storage.NewLocalProvider(&storage.LocalOptions{Basepath: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	return NewTransformManager(newTestStore(t), provider, logr.Discard()), provider
}

func waitTransformTerminal(t *testing.T, m *TransformManager, name string) *types.TransformJob {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		job, err := m.Store.GetTransformJob(name)
		if err != nil {
			t.Fatal(err)
		}
		if job.Status.State.Terminal() {
			return job
		}
		select {
		case <-deadline:
			t.Fatalf("transform job stuck in %s", job.Status.State)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestTransformJob(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/invocations" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Write([]byte("pred:" + strings.TrimSpace(string(body))))
	}))
	defer backend.Close()

	m, provider := newTestTransformManager(t)
	putObject(t, provider, "batch/in/a.csv", "1,2,3\n")
	putObject(t, provider, "batch/in/b.csv", "4,5,6\n")

	job := &types.TransformJob{
		Name: "batch-1",
		Spec: types.TransformJobSpec{
			ModelName:    "abalone-1",
			BackendURL:   backend.URL,
			InputPrefix:  "batch/in",
			OutputPrefix: "batch/out",
			ContentType:  "text/csv",
		},
	}
	if err := m.Submit(context.Background(), job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	got := waitTransformTerminal(t, m, "batch-1")
	if got.Status.State != types.JobStateCompleted {
		t.Fatalf("state = %s (%s)", got.Status.State, got.Status.Reason)
	}
	if got.Status.Total != 2 || got.Status.Processed != 2 || got.Status.Failed != 0 {
		t.Fatalf("counts = %d/%d/%d", got.Status.Total, got.Status.Processed, got.Status.Failed)
	}

	content, err := provider.Get(context.Background(), "batch/out/a.csv.out")
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	defer content.Close()
	raw, _ := io.ReadAll(content)
	if string(raw) != "pred:1,2,3" {
		t.Fatalf("output = %q", raw)
	}
}

func TestTransformJobBackendErrors(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer backend.Close()

	m, provider := newTestTransformManager(t)
	putObject(t, provider, "batch/in/a.csv", "1,2,3\n")

	job := &types.TransformJob{
		Name: "batch-err",
		Spec: types.TransformJobSpec{
			ModelName:    "abalone-1",
			BackendURL:   backend.URL,
			InputPrefix:  "batch/in",
			OutputPrefix: "batch/out",
		},
	}
	if err := m.Submit(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	got := waitTransformTerminal(t, m, "batch-err")
	if got.Status.State != types.JobStateFailed {
		t.Fatalf("state = %s", got.Status.State)
	}
	if got.Status.Failed != 1 {
		t.Fatalf("failed = %d", got.Status.Failed)
	}
	if len(got.Status.Objects) != 1 || got.Status.Objects[0].Error == "" {
		t.Fatalf("objects = %+v", got.Status.Objects)
	}
}

func TestTransformSpecRejected(t *testing.T) {
	m, _ := newTestTransformManager(t)
	job := &types.TransformJob{
		Name: "nested",
		Spec: types.TransformJobSpec{
			ModelName:    "m",
			BackendURL:   "http://backend",
			InputPrefix:  "batch/in",
			OutputPrefix: "batch/in/out",
		},
	}
	err := m.Submit(context.Background(), job)
	if !errors.IsErrCode(err, errors.ErrCodeSpecInvalid) {
		t.Fatalf("expected spec invalid, got %v", err)
	}
}

type listFailProvider struct {
	storage.Provider
}

func (listFailProvider) List(ctx context.Context, prefix string, recursive bool) ([]storage.ObjectMeta, error) {
	return nil, fmt.Errorf("bucket unavailable")
}

func TestTransformListFailureRecordsCause(t *testing.T) {
	m, provider := newTestTransformManager(t)
	m.Storage = listFailProvider{provider}

	job := &types.TransformJob{
		Name: "batch-broken",
		Spec: types.TransformJobSpec{
			ModelName:    "abalone-1",
			BackendURL:   "http://127.0.0.1:9",
			InputPrefix:  "batch/in",
			OutputPrefix: "batch/out",
		},
	}
	if err := m.Submit(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	got := waitTransformTerminal(t, m, "batch-broken")
	if got.Status.State != types.JobStateFailed || got.Status.Reason != "ListInputFailed" {
		t.Fatalf("state = %s (%s)", got.Status.State, got.Status.Reason)
	}
	if !strings.Contains(got.Status.Message, "bucket unavailable") {
		t.Fatalf("message = %q, want the listing error recorded", got.Status.Message)
	}
}
