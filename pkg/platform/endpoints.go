package platform

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/wait"

	"mljet.io/mljet/pkg/errors"
	"mljet.io/mljet/pkg/types"
)

const (
	endpointReadyInterval = 2 * time.Second
	endpointReadyTimeout  = 2 * time.Minute
)

// EndpointManager registers hosted endpoints and forwards invocations to
// their serving backends. The platform proxies; it does not serve models.
type EndpointManager struct {
	Store  *Store
	Client *http.Client
	Logger logr.Logger

	mu sync.Mutex
}

func NewEndpointManager(store *Store, log logr.Logger) *EndpointManager {
	return &EndpointManager{
		Store:  store,
		Client: &http.Client{Timeout: 30 * time.Second},
		Logger: log,
	}
}

func (m *EndpointManager) Create(ctx context.Context, ep *types.Endpoint) error {
	if ep.Name == "" {
		return errors.NewParameterInvalidError("endpoint name is required")
	}
	if ep.Spec.ModelName == "" {
		return errors.NewParameterInvalidError("model name is required")
	}
	if _, err := url.ParseRequestURI(ep.Spec.BackendURL); err != nil {
		return errors.NewParameterInvalidError("backend url is invalid")
	}
	if _, err := m.Store.GetEndpoint(ep.Name); err == nil {
		return errors.NewEndpointExistsError(ep.Name)
	}
	ep.Status = types.EndpointStatus{
		State:        types.EndpointStateCreating,
		CreatedAt:    time.Now(),
		TransitionAt: time.Now(),
	}
	if err := m.Store.PutEndpoint(ep); err != nil {
		return err
	}
	go m.waitReady(ep.Name, ep.Spec.BackendURL)
	return nil
}

// waitReady polls the backend until it answers, then marks the endpoint
// in service.
func (m *EndpointManager) waitReady(name, backend string) {
	ctx, cancel := context.WithTimeout(context.Background(), endpointReadyTimeout)
	defer cancel()
	err := wait.PollUntilWithContext(ctx, endpointReadyInterval, func(ctx context.Context) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, backend, nil)
		if err != nil {
			return false, err
		}
		resp, err := m.Client.Do(req)
		if err != nil {
			return false, nil
		}
		resp.Body.Close()
		return resp.StatusCode < http.StatusInternalServerError, nil
	})
	state, reason := types.EndpointStateInService, ""
	if err != nil {
		state, reason = types.EndpointStateFailed, "BackendUnreachable"
	}
	if uerr := m.update(name, func(status *types.EndpointStatus) {
		if status.State != types.EndpointStateCreating {
			return
		}
		status.State = state
		status.Reason = reason
		status.TransitionAt = time.Now()
	}); uerr != nil {
		m.Logger.Error(uerr, "update endpoint state", "endpoint", name)
	}
}

// Invoke forwards the request body to the endpoint backend and returns the
// backend response.
func (m *EndpointManager) Invoke(ctx context.Context, name, contentType string, body io.Reader) (*http.Response, error) {
	ep, err := m.Store.GetEndpoint(name)
	if err != nil {
		return nil, err
	}
	if ep.Status.State != types.EndpointStateInService {
		return nil, errors.NewParameterInvalidError("endpoint " + name + " is not in service")
	}
	target := strings.TrimSuffix(ep.Spec.BackendURL, "/") + "/invocations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return resp, nil
}

func (m *EndpointManager) Delete(name string) error {
	if _, err := m.Store.GetEndpoint(name); err != nil {
		return err
	}
	if err := m.update(name, func(status *types.EndpointStatus) {
		status.State = types.EndpointStateDeleting
		status.TransitionAt = time.Now()
	}); err != nil {
		return err
	}
	return m.Store.DeleteEndpoint(name)
}

func (m *EndpointManager) update(name string, mutate func(*types.EndpointStatus)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ep, err := m.Store.GetEndpoint(name)
	if err != nil {
		return err
	}
	mutate(&ep.Status)
	return m.Store.PutEndpoint(ep)
}
