package types

import (
	"testing"
)

func validJobSpec() TrainingJobSpec {
	return TrainingJobSpec{
		Algorithm: AlgorithmSpec{
			Image: "gbt:1.5",
			Hyperparameters: map[string]string{
				"objective": "reg:squarederror",
				"num_round": "50",
				"max_depth": "5",
				"eta":       "0.2",
			},
		},
		InputChannels: []DataChannel{
			{Name: "train", URI: "data/abalone/train", ContentType: "text/csv"},
			{Name: "validation", URI: "data/abalone/validation", ContentType: "text/csv"},
		},
		OutputPath: "output/abalone",
	}
}

func TestTrainingJobSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TrainingJobSpec)
		wantErr bool
	}{
		{name: "valid", mutate: func(s *TrainingJobSpec) {}},
		{
			name:    "no channels",
			mutate:  func(s *TrainingJobSpec) { s.InputChannels = nil },
			wantErr: true,
		},
		{
			name: "duplicate channel",
			mutate: func(s *TrainingJobSpec) {
				s.InputChannels = append(s.InputChannels, DataChannel{Name: "train", URI: "other"})
			},
			wantErr: true,
		},
		{
			name:    "missing output path",
			mutate:  func(s *TrainingJobSpec) { s.OutputPath = "" },
			wantErr: true,
		},
		{
			name: "bad objective",
			mutate: func(s *TrainingJobSpec) {
				s.Algorithm.Hyperparameters["objective"] = "reg:doesnotexist"
			},
			wantErr: true,
		},
		{
			name: "eta out of range",
			mutate: func(s *TrainingJobSpec) {
				s.Algorithm.Hyperparameters["eta"] = "1.5"
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validJobSpec()
			tt.mutate(&spec)
			if err := spec.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateHyperparameters(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]string
		wantErr bool
	}{
		{name: "empty", params: nil},
		{name: "unknown keys pass", params: map[string]string{"colsample_bytree": "0.8"}},
		{name: "softmax requires num_class", params: map[string]string{"objective": "multi:softmax"}, wantErr: true},
		{name: "softmax with num_class", params: map[string]string{"objective": "multi:softmax", "num_class": "3"}},
		{name: "non integer rounds", params: map[string]string{"num_round": "fifty"}, wantErr: true},
		{name: "negative gamma", params: map[string]string{"gamma": "-1"}, wantErr: true},
		{name: "zero subsample", params: map[string]string{"subsample": "0"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateHyperparameters(tt.params); (err != nil) != tt.wantErr {
				t.Errorf("ValidateHyperparameters() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJobStateTerminal(t *testing.T) {
	terminal := []JobState{JobStateCompleted, JobStateFailed, JobStateStopped}
	running := []JobState{JobStatePending, JobStateDownloading, JobStateTraining, JobStateUploading, JobStateStopping}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range running {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestTuningJobSpecValidate(t *testing.T) {
	valid := TuningJobSpec{
		Strategy:  TuningStrategyRandom,
		Objective: TuningObjective{MetricName: "validation:rmse", Goal: ObjectiveMinimize},
		Ranges: ParameterRanges{
			Continuous: []ContinuousParameterRange{{Name: "eta", Min: 0.05, Max: 0.5}},
			Integer:    []IntegerParameterRange{{Name: "max_depth", Min: 3, Max: 9}},
		},
		Limits:      TuningResourceLimits{MaxTotalJobs: 9, MaxParallelJobs: 3},
		JobTemplate: validJobSpec(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*TuningJobSpec)
	}{
		{name: "bad strategy", mutate: func(s *TuningJobSpec) { s.Strategy = "Bayesian" }},
		{name: "bad goal", mutate: func(s *TuningJobSpec) { s.Objective.Goal = "Best" }},
		{name: "no metric", mutate: func(s *TuningJobSpec) { s.Objective.MetricName = "" }},
		{name: "no ranges", mutate: func(s *TuningJobSpec) { s.Ranges = ParameterRanges{} }},
		{name: "inverted range", mutate: func(s *TuningJobSpec) { s.Ranges.Continuous[0].Min = 1.0 }},
		{name: "zero total", mutate: func(s *TuningJobSpec) { s.Limits.MaxTotalJobs = 0 }},
		{name: "zero parallel", mutate: func(s *TuningJobSpec) { s.Limits.MaxParallelJobs = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := valid
			spec.Ranges = ParameterRanges{
				Continuous: []ContinuousParameterRange{{Name: "eta", Min: 0.05, Max: 0.5}},
			}
			tt.mutate(&spec)
			if err := spec.Validate(); err == nil {
				t.Errorf("Validate() expected error")
			}
		})
	}
}

func TestTransformJobSpecValidate(t *testing.T) {
	valid := TransformJobSpec{
		ModelName:    "abalone-gbt",
		BackendURL:   "http://localhost:9090/invocations",
		InputPrefix:  "transform/in",
		OutputPrefix: "transform/out",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	nested := valid
	nested.OutputPrefix = "transform/in/out"
	if err := nested.Validate(); err == nil {
		t.Errorf("Validate() expected error for nested output prefix")
	}
}
