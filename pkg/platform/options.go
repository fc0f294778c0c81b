package platform

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"mljet.io/mljet/pkg/storage"
)

type Options struct {
	Listen   string
	TLS      *TLSOptions
	S3       *storage.S3Options
	Local    *storage.LocalOptions
	OIDC     *OIDCOptions
	Database string
	Runner   *RunnerOptions
}

type OIDCOptions struct {
	Issuer string
}

type RunnerOptions struct {
	// Command launched for each training job. Empty means jobs must carry
	// their own algorithm command.
	Command []string
	// BackendURL is the serving backend endpoints forward invocations to.
	BackendURL string
}

func DefaultOptions() *Options {
	return &Options{
		Listen:   ":8080",
		TLS:      &TLSOptions{},
		S3:       storage.NewDefaultS3Options(),
		Local:    storage.NewDefaultLocalOptions(),
		OIDC:     &OIDCOptions{},
		Database: "data/mljet-db",
		Runner:   &RunnerOptions{},
	}
}

type TLSOptions struct {
	CertFile string
	KeyFile  string
	CAFile   string
}

func (t *TLSOptions) ToTLSConfig() (*tls.Config, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return nil, err
	}
	config := &tls.Config{ClientCAs: pool}
	if t.CAFile != "" {
		capem, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, err
		}
		config.ClientCAs.AppendCertsFromPEM(capem)
	}
	certificate, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
	if err != nil {
		return nil, err
	}
	config.Certificates = append(config.Certificates, certificate)
	return config, nil
}
