package platform

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"golang.org/x/exp/slices"

	"mljet.io/mljet/pkg/errors"
	"mljet.io/mljet/pkg/types"
)

const (
	trainingJobPrefix  = "trainingjobs/"
	tuningJobPrefix    = "tuningjobs/"
	endpointPrefix     = "endpoints/"
	transformJobPrefix = "transformjobs/"
)

// Store keeps job, endpoint and transform records in a local leveldb.
type Store struct {
	db *leveldb.DB
}

func NewStore(path string) (*Store, error) {
	if basepath := filepath.Dir(path); basepath != "" {
		os.MkdirAll(basepath, os.ModePerm)
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string, into any) (bool, error) {
	val, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(val, into); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) put(key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return s.db.Put([]byte(key), raw, nil)
}

func (s *Store) delete(key string) error {
	return s.db.Delete([]byte(key), nil)
}

func (s *Store) list(prefix string, fn func(val []byte) error) error {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (s *Store) GetTrainingJob(name string) (*types.TrainingJob, error) {
	job := &types.TrainingJob{}
	ok, err := s.get(trainingJobPrefix+name, job)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewJobUnknownError(name)
	}
	return job, nil
}

func (s *Store) PutTrainingJob(job *types.TrainingJob) error {
	return s.put(trainingJobPrefix+job.Name, job)
}

func (s *Store) DeleteTrainingJob(name string) error {
	return s.delete(trainingJobPrefix + name)
}

func (s *Store) ListTrainingJobs() ([]types.TrainingJob, error) {
	jobs := []types.TrainingJob{}
	err := s.list(trainingJobPrefix, func(val []byte) error {
		var job types.TrainingJob
		if err := json.Unmarshal(val, &job); err != nil {
			return err
		}
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(jobs, func(a, b types.TrainingJob) bool { return a.Name < b.Name })
	return jobs, nil
}

func (s *Store) GetTuningJob(name string) (*types.TuningJob, error) {
	job := &types.TuningJob{}
	ok, err := s.get(tuningJobPrefix+name, job)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewTuningUnknownError(name)
	}
	return job, nil
}

func (s *Store) PutTuningJob(job *types.TuningJob) error {
	return s.put(tuningJobPrefix+job.Name, job)
}

func (s *Store) DeleteTuningJob(name string) error {
	return s.delete(tuningJobPrefix + name)
}

func (s *Store) ListTuningJobs() ([]types.TuningJob, error) {
	jobs := []types.TuningJob{}
	err := s.list(tuningJobPrefix, func(val []byte) error {
		var job types.TuningJob
		if err := json.Unmarshal(val, &job); err != nil {
			return err
		}
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(jobs, func(a, b types.TuningJob) bool { return a.Name < b.Name })
	return jobs, nil
}

func (s *Store) GetEndpoint(name string) (*types.Endpoint, error) {
	ep := &types.Endpoint{}
	ok, err := s.get(endpointPrefix+name, ep)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewEndpointUnknownError(name)
	}
	return ep, nil
}

func (s *Store) PutEndpoint(ep *types.Endpoint) error {
	return s.put(endpointPrefix+ep.Name, ep)
}

func (s *Store) DeleteEndpoint(name string) error {
	return s.delete(endpointPrefix + name)
}

func (s *Store) ListEndpoints() ([]types.Endpoint, error) {
	eps := []types.Endpoint{}
	err := s.list(endpointPrefix, func(val []byte) error {
		var ep types.Endpoint
		if err := json.Unmarshal(val, &ep); err != nil {
			return err
		}
		eps = append(eps, ep)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(eps, func(a, b types.Endpoint) bool { return a.Name < b.Name })
	return eps, nil
}

func (s *Store) GetTransformJob(name string) (*types.TransformJob, error) {
	job := &types.TransformJob{}
	ok, err := s.get(transformJobPrefix+name, job)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewJobUnknownError(name)
	}
	return job, nil
}

func (s *Store) PutTransformJob(job *types.TransformJob) error {
	return s.put(transformJobPrefix+job.Name, job)
}

func (s *Store) DeleteTransformJob(name string) error {
	return s.delete(transformJobPrefix + name)
}

func (s *Store) ListTransformJobs() ([]types.TransformJob, error) {
	jobs := []types.TransformJob{}
	err := s.list(transformJobPrefix, func(val []byte) error {
		var job types.TransformJob
		if err := json.Unmarshal(val, &job); err != nil {
			return err
		}
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(jobs, func(a, b types.TransformJob) bool { return a.Name < b.Name })
	return jobs, nil
}
