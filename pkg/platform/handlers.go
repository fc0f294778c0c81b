package platform

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"mljet.io/mljet/pkg/errors"
	"mljet.io/mljet/pkg/types"
)

func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) CreateTrainingJob(w http.ResponseWriter, r *http.Request) {
	job := &types.TrainingJob{}
	if err := json.NewDecoder(r.Body).Decode(job); err != nil {
		ResponseError(w, errors.NewParameterInvalidError("decode training job: "+err.Error()))
		return
	}
	if err := s.Jobs.Submit(r.Context(), job); err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, job)
}

func (s *Server) GetTrainingJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.Store.GetTrainingJob(mux.Vars(r)["name"])
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, job)
}

func (s *Server) ListTrainingJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.Store.ListTrainingJobs()
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, types.TrainingJobList{Items: jobs})
}

func (s *Server) StopTrainingJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.Jobs.Stop(name); err != nil {
		ResponseError(w, err)
		return
	}
	job, err := s.Store.GetTrainingJob(name)
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, job)
}

func (s *Server) DeleteTrainingJob(w http.ResponseWriter, r *http.Request) {
	removeArtifact, _ := strconv.ParseBool(r.URL.Query().Get("artifact"))
	if err := s.Jobs.Delete(r.Context(), mux.Vars(r)["name"], removeArtifact); err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, "ok")
}

func (s *Server) CreateTuningJob(w http.ResponseWriter, r *http.Request) {
	job := &types.TuningJob{}
	if err := json.NewDecoder(r.Body).Decode(job); err != nil {
		ResponseError(w, errors.NewParameterInvalidError("decode tuning job: "+err.Error()))
		return
	}
	if err := s.Tuning.Submit(r.Context(), job); err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, job)
}

func (s *Server) GetTuningJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.Store.GetTuningJob(mux.Vars(r)["name"])
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, job)
}

func (s *Server) ListTuningJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.Store.ListTuningJobs()
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, types.TuningJobList{Items: jobs})
}

func (s *Server) StopTuningJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.Tuning.Stop(name); err != nil {
		ResponseError(w, err)
		return
	}
	job, err := s.Store.GetTuningJob(name)
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, job)
}

func (s *Server) DeleteTuningJob(w http.ResponseWriter, r *http.Request) {
	if err := s.Tuning.Delete(r.Context(), mux.Vars(r)["name"]); err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, "ok")
}

func (s *Server) CreateEndpoint(w http.ResponseWriter, r *http.Request) {
	ep := &types.Endpoint{}
	if err := json.NewDecoder(r.Body).Decode(ep); err != nil {
		ResponseError(w, errors.NewParameterInvalidError("decode endpoint: "+err.Error()))
		return
	}
	if ep.Spec.BackendURL == "" {
		ep.Spec.BackendURL = s.Options.Runner.BackendURL
	}
	if err := s.Endpoints.Create(r.Context(), ep); err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, ep)
}

func (s *Server) GetEndpoint(w http.ResponseWriter, r *http.Request) {
	ep, err := s.Store.GetEndpoint(mux.Vars(r)["name"])
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, ep)
}

func (s *Server) ListEndpoints(w http.ResponseWriter, r *http.Request) {
	eps, err := s.Store.ListEndpoints()
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, types.EndpointList{Items: eps})
}

func (s *Server) DeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	if err := s.Endpoints.Delete(mux.Vars(r)["name"]); err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, "ok")
}

func (s *Server) InvokeEndpoint(w http.ResponseWriter, r *http.Request) {
	resp, err := s.Endpoints.Invoke(r.Context(), mux.Vars(r)["name"], r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		ResponseError(w, err)
		return
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

func (s *Server) CreateTransformJob(w http.ResponseWriter, r *http.Request) {
	job := &types.TransformJob{}
	if err := json.NewDecoder(r.Body).Decode(job); err != nil {
		ResponseError(w, errors.NewParameterInvalidError("decode transform job: "+err.Error()))
		return
	}
	if job.Spec.BackendURL == "" {
		job.Spec.BackendURL = s.Options.Runner.BackendURL
	}
	if err := s.Transforms.Submit(r.Context(), job); err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, job)
}

func (s *Server) GetTransformJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.Store.GetTransformJob(mux.Vars(r)["name"])
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, job)
}

func (s *Server) ListTransformJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.Store.ListTransformJobs()
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, types.TransformJobList{Items: jobs})
}

func (s *Server) DeleteTransformJob(w http.ResponseWriter, r *http.Request) {
	removeOutput, _ := strconv.ParseBool(r.URL.Query().Get("output"))
	if err := s.Transforms.Delete(r.Context(), mux.Vars(r)["name"], removeOutput); err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, "ok")
}

// GetModelArtifact streams the model archive of a completed job, or redirects
// to a presigned location when the storage backend supports one.
func (s *Server) GetModelArtifact(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	job, err := s.Store.GetTrainingJob(name)
	if err != nil {
		ResponseError(w, err)
		return
	}
	if job.Status.Artifact == nil {
		ResponseError(w, errors.NewModelUnknownError(name))
		return
	}
	if location, err := s.Storage.GetLocation(r.Context(), job.Status.Artifact.URI); err == nil {
		http.Redirect(w, r, location, http.StatusTemporaryRedirect)
		return
	}
	content, err := s.Storage.Get(r.Context(), job.Status.Artifact.URI)
	if err != nil {
		ResponseError(w, err)
		return
	}
	defer content.Close()
	w.Header().Set("Content-Type", content.ContentType)
	if content.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(content.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	io.Copy(w, content)
}

// GCModelArtifacts removes unreferenced model archives, either under the
// requested path or under every output path known to the store.
func (s *Server) GCModelArtifacts(w http.ResponseWriter, r *http.Request) {
	var removed map[string]string
	var err error
	if outputPath := r.URL.Query().Get("path"); outputPath != "" {
		removed, err = GCArtifacts(r.Context(), s.Store, s.Storage, outputPath)
	} else {
		removed, err = GCArtifactsAll(r.Context(), s.Store, s.Storage)
	}
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, removed)
}
