package platform

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"mljet.io/mljet/pkg/storage"
	"mljet.io/mljet/pkg/types"
)

func newTestServer(t *testing.T, runner Runner) (*Server, *httptest.Server) {
	t.Helper()
	provider, err := storage.NewLocalProvider(&storage.LocalOptions{Basepath: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	store, err := NewStore(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	jobs := NewJobManager(store, provider, runner, logr.Discard())
	server := &Server{
		Options:    DefaultOptions(),
		Store:      store,
		Storage:    provider,
		Jobs:       jobs,
		Tuning:     NewTuningManager(store, jobs, logr.Discard()),
		Endpoints:  NewEndpointManager(store, logr.Discard()),
		Transforms: NewTransformManager(store, provider, logr.Discard()),
	}
	ts := httptest.NewServer(server.route())
	t.Cleanup(ts.Close)
	return server, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestAPITrainingJobFlow(t *testing.T) {
	server, ts := newTestServer(t, &fakeRunner{})
	putObject(t, server.Storage, "datasets/abalone/train/part-0.csv", "8,0.455,0.365\n")

	resp := postJSON(t, ts.URL+"/jobs", types.TrainingJob{Name: "api-job", Spec: testJobSpec()})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	deadline := time.After(10 * time.Second)
	for {
		resp, err := http.Get(ts.URL + "/jobs/api-job")
		if err != nil {
			t.Fatal(err)
		}
		job := types.TrainingJob{}
		if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if job.Status.State.Terminal() {
			if job.Status.State != types.JobStateCompleted {
				t.Fatalf("state = %s (%s)", job.Status.State, job.Status.Message)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job stuck in %s", job.Status.State)
		case <-time.After(20 * time.Millisecond):
		}
	}

	resp, err := http.Get(ts.URL + "/jobs")
	if err != nil {
		t.Fatal(err)
	}
	list := types.TrainingJobList{}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(list.Items) != 1 || list.Items[0].Name != "api-job" {
		t.Fatalf("list = %+v", list.Items)
	}

	// artifact download streams the archive for the local backend
	resp, err = http.Get(ts.URL + "/models/api-job/artifact")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("artifact status = %d", resp.StatusCode)
	}
}

func TestAPIErrorShape(t *testing.T) {
	_, ts := newTestServer(t, &fakeRunner{})

	resp, err := http.Get(ts.URL + "/jobs/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var info struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Code != "JOB_UNKNOWN" {
		t.Fatalf("code = %s", info.Code)
	}
}

func TestAPIDeleteNonTerminal(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	server, ts := newTestServer(t, &fakeRunner{block: block})
	putObject(t, server.Storage, "datasets/abalone/train/part-0.csv", "8,0.455,0.365\n")

	resp := postJSON(t, ts.URL+"/jobs", types.TrainingJob{Name: "busy", Spec: testJobSpec()})
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/jobs/busy", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode == http.StatusOK {
		t.Fatal("delete of running job succeeded")
	}
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, &fakeRunner{})
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
