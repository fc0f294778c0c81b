package platform

import (
	"path/filepath"
	"reflect"
	"testing"

	"mljet.io/mljet/pkg/errors"
	"mljet.io/mljet/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testJobSpec() types.TrainingJobSpec {
	return types.TrainingJobSpec{
		Algorithm: types.AlgorithmSpec{
			Image:           "gbt:latest",
			Hyperparameters: map[string]string{"num_round": "50"},
		},
		InputChannels: []types.DataChannel{
			{Name: "train", URI: "datasets/abalone/train", ContentType: "text/csv"},
		},
		OutputPath: "output",
	}
}

func TestStoreTrainingJobCRUD(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetTrainingJob("missing"); !errors.IsErrCode(err, errors.ErrCodeJobUnknown) {
		t.Fatalf("expected job unknown, got %v", err)
	}

	job := &types.TrainingJob{Name: "abalone-1", Spec: testJobSpec()}
	if err := store.PutTrainingJob(job); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.GetTrainingJob("abalone-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got.Spec, job.Spec) {
		t.Fatalf("spec mismatch: %+v", got.Spec)
	}

	if err := store.DeleteTrainingJob("abalone-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetTrainingJob("abalone-1"); !errors.IsErrCode(err, errors.ErrCodeJobUnknown) {
		t.Fatalf("expected job unknown after delete, got %v", err)
	}
}

func TestStoreListSorted(t *testing.T) {
	store := newTestStore(t)
	for _, name := range []string{"c-job", "a-job", "b-job"} {
		if err := store.PutTrainingJob(&types.TrainingJob{Name: name, Spec: testJobSpec()}); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}
	jobs, err := store.ListTrainingJobs()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	names := []string{}
	for _, job := range jobs {
		names = append(names, job.Name)
	}
	want := []string{"a-job", "b-job", "c-job"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestStoreKindsDoNotCollide(t *testing.T) {
	store := newTestStore(t)
	if err := store.PutTrainingJob(&types.TrainingJob{Name: "same", Spec: testJobSpec()}); err != nil {
		t.Fatal(err)
	}
	if err := store.PutEndpoint(&types.Endpoint{Name: "same", Spec: types.EndpointSpec{ModelName: "m", BackendURL: "http://backend"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteEndpoint("same"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetTrainingJob("same"); err != nil {
		t.Fatalf("training job gone after endpoint delete: %v", err)
	}
}
