package platform

import (
	"net/http"

	"github.com/gorilla/mux"
)

const NameRegexp = `[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}`

func (s *Server) route() http.Handler {
	mux := mux.NewRouter()
	mux = mux.StrictSlash(true)
	// healthy
	mux.Methods("GET").Path("/healthz").HandlerFunc(s.Healthz)

	// training jobs
	jobs := mux.PathPrefix("/jobs").Subrouter()
	jobs.Methods("GET").Path("").HandlerFunc(s.ListTrainingJobs)
	jobs.Methods("POST").Path("").HandlerFunc(MaxBytesReadHandler(s.CreateTrainingJob, MaxBytesRead))
	jobs.Methods("GET").Path("/{name:" + NameRegexp + "}").HandlerFunc(s.GetTrainingJob)
	jobs.Methods("POST").Path("/{name:" + NameRegexp + "}/stop").HandlerFunc(s.StopTrainingJob)
	jobs.Methods("DELETE").Path("/{name:" + NameRegexp + "}").HandlerFunc(s.DeleteTrainingJob)

	// tuning jobs
	tuning := mux.PathPrefix("/tuningjobs").Subrouter()
	tuning.Methods("GET").Path("").HandlerFunc(s.ListTuningJobs)
	tuning.Methods("POST").Path("").HandlerFunc(MaxBytesReadHandler(s.CreateTuningJob, MaxBytesRead))
	tuning.Methods("GET").Path("/{name:" + NameRegexp + "}").HandlerFunc(s.GetTuningJob)
	tuning.Methods("POST").Path("/{name:" + NameRegexp + "}/stop").HandlerFunc(s.StopTuningJob)
	tuning.Methods("DELETE").Path("/{name:" + NameRegexp + "}").HandlerFunc(s.DeleteTuningJob)

	// endpoints
	endpoints := mux.PathPrefix("/endpoints").Subrouter()
	endpoints.Methods("GET").Path("").HandlerFunc(s.ListEndpoints)
	endpoints.Methods("POST").Path("").HandlerFunc(MaxBytesReadHandler(s.CreateEndpoint, MaxBytesRead))
	endpoints.Methods("GET").Path("/{name:" + NameRegexp + "}").HandlerFunc(s.GetEndpoint)
	endpoints.Methods("DELETE").Path("/{name:" + NameRegexp + "}").HandlerFunc(s.DeleteEndpoint)
	endpoints.Methods("POST").Path("/{name:" + NameRegexp + "}/invocations").HandlerFunc(s.InvokeEndpoint)

	// transform jobs
	transforms := mux.PathPrefix("/transformjobs").Subrouter()
	transforms.Methods("GET").Path("").HandlerFunc(s.ListTransformJobs)
	transforms.Methods("POST").Path("").HandlerFunc(MaxBytesReadHandler(s.CreateTransformJob, MaxBytesRead))
	transforms.Methods("GET").Path("/{name:" + NameRegexp + "}").HandlerFunc(s.GetTransformJob)
	transforms.Methods("DELETE").Path("/{name:" + NameRegexp + "}").HandlerFunc(s.DeleteTransformJob)

	// model artifacts
	mux.Methods("GET").Path("/models/{name:" + NameRegexp + "}/artifact").HandlerFunc(s.GetModelArtifact)
	mux.Methods("POST").Path("/gc").HandlerFunc(s.GCModelArtifacts)

	return mux
}
