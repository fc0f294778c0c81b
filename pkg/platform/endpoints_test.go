package platform

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"mljet.io/mljet/pkg/errors"
	"mljet.io/mljet/pkg/types"
)

func waitEndpointState(t *testing.T, m *EndpointManager, name string, want types.EndpointState) *types.Endpoint {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		ep, err := m.Store.GetEndpoint(name)
		if err != nil {
			t.Fatal(err)
		}
		if ep.Status.State == want {
			return ep
		}
		if ep.Status.State != types.EndpointStateCreating {
			t.Fatalf("endpoint reached %s, want %s", ep.Status.State, want)
		}
		select {
		case <-deadline:
			t.Fatalf("endpoint stuck in %s", ep.Status.State)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestEndpointLifecycle(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/invocations" {
			body, _ := io.ReadAll(r.Body)
			w.Write([]byte("pred:" + strings.TrimSpace(string(body))))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	m := NewEndpointManager(newTestStore(t), logr.Discard())
	ep := &types.Endpoint{
		Name: "abalone-ep",
		Spec: types.EndpointSpec{ModelName: "abalone-1", BackendURL: backend.URL},
	}
	if err := m.Create(context.Background(), ep); err != nil {
		t.Fatalf("create: %v", err)
	}
	waitEndpointState(t, m, "abalone-ep", types.EndpointStateInService)

	resp, err := m.Invoke(context.Background(), "abalone-ep", "text/csv", strings.NewReader("1,2,3"))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if string(raw) != "pred:1,2,3" {
		t.Fatalf("response = %q", raw)
	}

	if err := m.Delete("abalone-ep"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Store.GetEndpoint("abalone-ep"); !errors.IsErrCode(err, errors.ErrCodeEndpointUnknown) {
		t.Fatalf("expected endpoint unknown, got %v", err)
	}
}

func TestEndpointDuplicate(t *testing.T) {
	m := NewEndpointManager(newTestStore(t), logr.Discard())
	ep := &types.Endpoint{
		Name: "dup",
		Spec: types.EndpointSpec{ModelName: "m", BackendURL: "http://127.0.0.1:1"},
	}
	if err := m.Create(context.Background(), ep); err != nil {
		t.Fatal(err)
	}
	err := m.Create(context.Background(), &types.Endpoint{
		Name: "dup",
		Spec: types.EndpointSpec{ModelName: "m", BackendURL: "http://127.0.0.1:1"},
	})
	if !errors.IsErrCode(err, errors.ErrCodeEndpointExists) {
		t.Fatalf("expected endpoint exists, got %v", err)
	}
}

func TestInvokeRequiresInService(t *testing.T) {
	m := NewEndpointManager(newTestStore(t), logr.Discard())
	ep := &types.Endpoint{
		Name: "cold",
		Spec: types.EndpointSpec{ModelName: "m", BackendURL: "http://127.0.0.1:1"},
	}
	if err := m.Create(context.Background(), ep); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Invoke(context.Background(), "cold", "", strings.NewReader("x")); err == nil {
		t.Fatal("expected error while creating")
	}
}
