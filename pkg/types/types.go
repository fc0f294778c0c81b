package types

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
)

type JobState string

const (
	JobStatePending     JobState = "Pending"
	JobStateDownloading JobState = "Downloading"
	JobStateTraining    JobState = "Training"
	JobStateUploading   JobState = "Uploading"
	JobStateCompleted   JobState = "Completed"
	JobStateFailed      JobState = "Failed"
	JobStateStopping    JobState = "Stopping"
	JobStateStopped     JobState = "Stopped"
)

func (s JobState) Terminal() bool {
	switch s {
	case JobStateCompleted, JobStateFailed, JobStateStopped:
		return true
	}
	return false
}

type DataChannel struct {
	Name        string `json:"name"`
	URI         string `json:"uri"`
	ContentType string `json:"contentType,omitempty"`
}

type AlgorithmSpec struct {
	Image           string            `json:"image,omitempty"`
	Command         []string          `json:"command,omitempty"`
	Hyperparameters map[string]string `json:"hyperparameters,omitempty"`
}

type ResourceConfig struct {
	InstanceType  string `json:"instanceType,omitempty"`
	InstanceCount int    `json:"instanceCount,omitempty"`
	VolumeSizeGB  int    `json:"volumeSizeGB,omitempty"`
}

type StoppingCondition struct {
	MaxRuntimeSeconds int64 `json:"maxRuntimeSeconds,omitempty"`
}

type TrainingJobSpec struct {
	Algorithm     AlgorithmSpec     `json:"algorithm"`
	InputChannels []DataChannel     `json:"inputChannels"`
	OutputPath    string            `json:"outputPath"`
	Resources     ResourceConfig    `json:"resources,omitempty"`
	Stopping      StoppingCondition `json:"stopping,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
}

func (s TrainingJobSpec) Validate() error {
	if len(s.InputChannels) == 0 {
		return fmt.Errorf("at least one input channel is required")
	}
	seen := map[string]struct{}{}
	for _, ch := range s.InputChannels {
		if ch.Name == "" || ch.URI == "" {
			return fmt.Errorf("input channel name and uri are required")
		}
		if _, ok := seen[ch.Name]; ok {
			return fmt.Errorf("duplicate input channel: %s", ch.Name)
		}
		seen[ch.Name] = struct{}{}
	}
	if s.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	return ValidateHyperparameters(s.Algorithm.Hyperparameters)
}

type ModelArtifact struct {
	URI    string        `json:"uri"`
	Digest digest.Digest `json:"digest,omitempty"`
	Size   int64         `json:"size,omitempty"`
}

type TrainingJobStatus struct {
	State        JobState           `json:"state"`
	Reason       string             `json:"reason,omitempty"`
	Message      string             `json:"message,omitempty"`
	SubmitTime   time.Time          `json:"submitTime"`
	StartTime    *time.Time         `json:"startTime,omitempty"`
	EndTime      *time.Time         `json:"endTime,omitempty"`
	TransitionAt time.Time          `json:"transitionAt,omitempty"`
	FinalMetrics map[string]float64 `json:"finalMetrics,omitempty"`
	Artifact     *ModelArtifact     `json:"artifact,omitempty"`
	TuningParent string             `json:"tuningParent,omitempty"`
}

type TrainingJob struct {
	Name   string            `json:"name"`
	Spec   TrainingJobSpec   `json:"spec"`
	Status TrainingJobStatus `json:"status"`
}

type TrainingJobList struct {
	Items []TrainingJob `json:"items"`
}

type TuningStrategy string

const (
	TuningStrategyGrid   TuningStrategy = "Grid"
	TuningStrategyRandom TuningStrategy = "Random"
)

type ObjectiveGoal string

const (
	ObjectiveMaximize ObjectiveGoal = "Maximize"
	ObjectiveMinimize ObjectiveGoal = "Minimize"
)

type TuningObjective struct {
	MetricName string        `json:"metricName"`
	Goal       ObjectiveGoal `json:"goal"`
}

type ContinuousParameterRange struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

type IntegerParameterRange struct {
	Name string `json:"name"`
	Min  int64  `json:"min"`
	Max  int64  `json:"max"`
}

type CategoricalParameterRange struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type ParameterRanges struct {
	Continuous  []ContinuousParameterRange  `json:"continuous,omitempty"`
	Integer     []IntegerParameterRange     `json:"integer,omitempty"`
	Categorical []CategoricalParameterRange `json:"categorical,omitempty"`
}

func (r ParameterRanges) Empty() bool {
	return len(r.Continuous) == 0 && len(r.Integer) == 0 && len(r.Categorical) == 0
}

type TuningResourceLimits struct {
	MaxTotalJobs    int `json:"maxTotalJobs"`
	MaxParallelJobs int `json:"maxParallelJobs"`
}

type TuningJobSpec struct {
	Strategy    TuningStrategy       `json:"strategy"`
	Objective   TuningObjective      `json:"objective"`
	Ranges      ParameterRanges      `json:"ranges"`
	Limits      TuningResourceLimits `json:"limits"`
	JobTemplate TrainingJobSpec      `json:"jobTemplate"`
	Seed        int64                `json:"seed,omitempty"`
}

func (s TuningJobSpec) Validate() error {
	switch s.Strategy {
	case TuningStrategyGrid, TuningStrategyRandom:
	default:
		return fmt.Errorf("unknown tuning strategy: %s", s.Strategy)
	}
	switch s.Objective.Goal {
	case ObjectiveMaximize, ObjectiveMinimize:
	default:
		return fmt.Errorf("unknown objective goal: %s", s.Objective.Goal)
	}
	if s.Objective.MetricName == "" {
		return fmt.Errorf("objective metric name is required")
	}
	if s.Ranges.Empty() {
		return fmt.Errorf("at least one parameter range is required")
	}
	for _, r := range s.Ranges.Continuous {
		if r.Min > r.Max {
			return fmt.Errorf("parameter %s: min > max", r.Name)
		}
	}
	for _, r := range s.Ranges.Integer {
		if r.Min > r.Max {
			return fmt.Errorf("parameter %s: min > max", r.Name)
		}
		// max-min+1 must stay representable in an int64
		if width := r.Max - r.Min; width < 0 || width == math.MaxInt64 {
			return fmt.Errorf("parameter %s: range is too wide", r.Name)
		}
	}
	for _, r := range s.Ranges.Categorical {
		if len(r.Values) == 0 {
			return fmt.Errorf("parameter %s: no values", r.Name)
		}
	}
	if s.Limits.MaxTotalJobs <= 0 {
		return fmt.Errorf("max total jobs must be positive")
	}
	if s.Limits.MaxParallelJobs <= 0 {
		return fmt.Errorf("max parallel jobs must be positive")
	}
	return s.JobTemplate.Validate()
}

type TrainingJobSummary struct {
	Name            string            `json:"name"`
	State           JobState          `json:"state"`
	Hyperparameters map[string]string `json:"hyperparameters,omitempty"`
	ObjectiveValue  *float64          `json:"objectiveValue,omitempty"`
}

type TuningJobStatus struct {
	State           JobState             `json:"state"`
	Reason          string               `json:"reason,omitempty"`
	SubmitTime      time.Time            `json:"submitTime"`
	EndTime         *time.Time           `json:"endTime,omitempty"`
	TrainingJobs    []TrainingJobSummary `json:"trainingJobs,omitempty"`
	BestTrainingJob *TrainingJobSummary  `json:"bestTrainingJob,omitempty"`
	CompletedCount  int                  `json:"completedCount"`
	FailedCount     int                  `json:"failedCount"`
}

type TuningJob struct {
	Name   string          `json:"name"`
	Spec   TuningJobSpec   `json:"spec"`
	Status TuningJobStatus `json:"status"`
}

type TuningJobList struct {
	Items []TuningJob `json:"items"`
}

type EndpointState string

const (
	EndpointStateCreating  EndpointState = "Creating"
	EndpointStateInService EndpointState = "InService"
	EndpointStateDeleting  EndpointState = "Deleting"
	EndpointStateFailed    EndpointState = "Failed"
)

type EndpointSpec struct {
	ModelName     string `json:"modelName"`
	BackendURL    string `json:"backendURL"`
	InstanceType  string `json:"instanceType,omitempty"`
	InstanceCount int    `json:"instanceCount,omitempty"`
}

type EndpointStatus struct {
	State        EndpointState `json:"state"`
	Reason       string        `json:"reason,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	TransitionAt time.Time     `json:"transitionAt,omitempty"`
}

type Endpoint struct {
	Name   string         `json:"name"`
	Spec   EndpointSpec   `json:"spec"`
	Status EndpointStatus `json:"status"`
}

type EndpointList struct {
	Items []Endpoint `json:"items"`
}

type TransformJobSpec struct {
	ModelName    string `json:"modelName"`
	BackendURL   string `json:"backendURL"`
	InputPrefix  string `json:"inputPrefix"`
	OutputPrefix string `json:"outputPrefix"`
	ContentType  string `json:"contentType,omitempty"`
}

func (s TransformJobSpec) Validate() error {
	if s.BackendURL == "" {
		return fmt.Errorf("backend url is required")
	}
	if s.InputPrefix == "" || s.OutputPrefix == "" {
		return fmt.Errorf("input and output prefixes are required")
	}
	if strings.HasPrefix(s.OutputPrefix, s.InputPrefix) {
		return fmt.Errorf("output prefix must not nest under input prefix")
	}
	return nil
}

type TransformObjectResult struct {
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

type TransformJobStatus struct {
	State      JobState                `json:"state"`
	Reason     string                  `json:"reason,omitempty"`
	Message    string                  `json:"message,omitempty"`
	SubmitTime time.Time               `json:"submitTime"`
	EndTime    *time.Time              `json:"endTime,omitempty"`
	Total      int                     `json:"total"`
	Processed  int                     `json:"processed"`
	Failed     int                     `json:"failed"`
	Objects    []TransformObjectResult `json:"objects,omitempty"`
}

type TransformJob struct {
	Name   string             `json:"name"`
	Spec   TransformJobSpec   `json:"spec"`
	Status TransformJobStatus `json:"status"`
}

type TransformJobList struct {
	Items []TransformJob `json:"items"`
}
