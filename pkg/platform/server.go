package platform

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"mljet.io/mljet/pkg/storage"
)

// Server wires the stores, managers and HTTP handlers of the platform
// daemon together.
type Server struct {
	Options    *Options
	Store      *Store
	Storage    storage.Provider
	Jobs       *JobManager
	Tuning     *TuningManager
	Endpoints  *EndpointManager
	Transforms *TransformManager
}

func Run(ctx context.Context, opts *Options) error {
	log := stdr.NewWithOptions(log.Default(), stdr.Options{LogCaller: stdr.Error})
	ctx = logr.NewContext(ctx, log)
	server, err := NewServer(ctx, opts)
	if err != nil {
		return err
	}
	defer server.Store.Close()

	handler := server.route()
	handler = LoggingFilter(handler)

	if opts.OIDC.Issuer != "" {
		handler, err = NewOIDCAuthFilter(ctx, opts.OIDC.Issuer, handler)
		if err != nil {
			return err
		}
	}

	httpserver := http.Server{
		Addr:    opts.Listen,
		Handler: handler,
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}
	go func() {
		<-ctx.Done()
		httpserver.Shutdown(ctx)
	}()
	if opts.TLS.CertFile != "" && opts.TLS.KeyFile != "" {
		log.Info("platform listening", "https", opts.Listen)
		return httpserver.ListenAndServeTLS(opts.TLS.CertFile, opts.TLS.KeyFile)
	} else {
		log.Info("platform listening", "http", opts.Listen)
		return httpserver.ListenAndServe()
	}
}

func NewServer(ctx context.Context, opts *Options) (*Server, error) {
	log := logr.FromContextOrDiscard(ctx)

	var provider storage.Provider
	if opts.S3.URL != "" {
		s3provider, err := storage.NewS3Provider(ctx, opts.S3)
		if err != nil {
			return nil, err
		}
		provider = s3provider
	} else {
		localprovider, err := storage.NewLocalProvider(opts.Local)
		if err != nil {
			return nil, err
		}
		provider = localprovider
	}

	store, err := NewStore(opts.Database)
	if err != nil {
		return nil, err
	}

	var runner Runner
	if len(opts.Runner.Command) > 0 {
		execrunner, err := NewExecRunner(opts.Runner.Command)
		if err != nil {
			return nil, err
		}
		runner = execrunner
	} else {
		runner = UnconfiguredRunner{}
	}

	jobs := NewJobManager(store, provider, runner, log)
	return &Server{
		Options:    opts,
		Store:      store,
		Storage:    provider,
		Jobs:       jobs,
		Tuning:     NewTuningManager(store, jobs, log),
		Endpoints:  NewEndpointManager(store, log),
		Transforms: NewTransformManager(store, provider, log),
	}, nil
}

// UnconfiguredRunner rejects every job. Used when the daemon starts without
// an algorithm command.
type UnconfiguredRunner struct{}

func (UnconfiguredRunner) Run(ctx context.Context, in RunInput) error {
	return fmt.Errorf("no algorithm runner configured")
}
