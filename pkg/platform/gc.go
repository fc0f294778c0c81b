package platform

import (
	"context"
	"path"
	"strings"

	"github.com/go-logr/logr"

	"mljet.io/mljet/pkg/storage"
)

// GCArtifactsAll garbage collects every output path referenced by a stored
// training job.
func GCArtifactsAll(ctx context.Context, store *Store, provider storage.Provider) (map[string]string, error) {
	jobs, err := store.ListTrainingJobs()
	if err != nil {
		return nil, err
	}
	paths := map[string]struct{}{}
	for _, job := range jobs {
		paths[job.Spec.OutputPath] = struct{}{}
	}
	removed := map[string]string{}
	for outputPath := range paths {
		result, err := GCArtifacts(ctx, store, provider, outputPath)
		for key, status := range result {
			removed[key] = status
		}
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// GCArtifacts removes model archives under outputPath whose training job no
// longer exists. Returns the removed keys and why, keyed by artifact key.
func GCArtifacts(ctx context.Context, store *Store, provider storage.Provider, outputPath string) (map[string]string, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("outputPath", outputPath)

	log.Info("start artifact garbage collect")
	defer log.Info("stop artifact garbage collect")

	jobs, err := store.ListTrainingJobs()
	if err != nil {
		return nil, err
	}
	inuse := map[string]struct{}{}
	for _, job := range jobs {
		if job.Status.Artifact != nil {
			inuse[job.Status.Artifact.URI] = struct{}{}
		}
	}

	metas, err := provider.List(ctx, outputPath, true)
	if err != nil {
		return nil, err
	}
	removed := map[string]string{}
	for _, meta := range metas {
		if !strings.HasSuffix(meta.Key, ModelArchiveName) {
			continue
		}
		key := path.Join(outputPath, meta.Key)
		if _, ok := inuse[key]; ok {
			continue
		}
		log.WithValues("key", key).Info("mark artifact unused")
		if err := provider.Remove(ctx, key, false); err != nil {
			log.WithValues("key", key).Error(err, "remove unused artifact")
			removed[key] = err.Error()
			return removed, err
		}
		log.WithValues("key", key).Info("removed unused artifact")
		removed[key] = "removed"
	}
	return removed, nil
}
