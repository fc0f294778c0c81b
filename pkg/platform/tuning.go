package platform

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"mljet.io/mljet/pkg/errors"
	"mljet.io/mljet/pkg/types"
)

// TuningManager fans a tuning job out into training jobs over the declared
// parameter ranges. It only enumerates combinations; each trial is an
// ordinary training job run by the JobManager.
type TuningManager struct {
	Store  *Store
	Jobs   *JobManager
	Logger logr.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewTuningManager(store *Store, jobs *JobManager, log logr.Logger) *TuningManager {
	return &TuningManager{
		Store:   store,
		Jobs:    jobs,
		Logger:  log,
		cancels: map[string]context.CancelFunc{},
	}
}

func (m *TuningManager) Submit(ctx context.Context, job *types.TuningJob) error {
	if job.Name == "" {
		return errors.NewParameterInvalidError("tuning job name is required")
	}
	if err := job.Spec.Validate(); err != nil {
		return errors.NewSpecInvalidError(err)
	}
	if job.Spec.Strategy == types.TuningStrategyGrid && len(job.Spec.Ranges.Continuous) > 0 {
		return errors.NewSpecInvalidError(fmt.Errorf("grid strategy cannot enumerate continuous ranges"))
	}
	if _, err := m.Store.GetTuningJob(job.Name); err == nil {
		return errors.NewJobExistsError(job.Name)
	}
	candidates, err := ExpandRanges(job.Spec)
	if err != nil {
		return errors.NewSpecInvalidError(err)
	}
	job.Status = types.TuningJobStatus{
		State:      types.JobStatePending,
		SubmitTime: time.Now(),
	}
	if err := m.Store.PutTuningJob(job); err != nil {
		return err
	}
	go m.runDetached(job.Name, candidates)
	return nil
}

// ExpandRanges turns the declared ranges into the concrete hyperparameter
// sets to try, capped at MaxTotalJobs.
func ExpandRanges(spec types.TuningJobSpec) ([]map[string]string, error) {
	switch spec.Strategy {
	case types.TuningStrategyGrid:
		return expandGrid(spec)
	case types.TuningStrategyRandom:
		return expandRandom(spec)
	default:
		return nil, fmt.Errorf("unknown tuning strategy: %s", spec.Strategy)
	}
}

func expandGrid(spec types.TuningJobSpec) ([]map[string]string, error) {
	type axis struct {
		name   string
		values []string
	}
	axes := []axis{}
	for _, r := range spec.Ranges.Categorical {
		axes = append(axes, axis{name: r.Name, values: r.Values})
	}
	for _, r := range spec.Ranges.Integer {
		// combos are truncated to MaxTotalJobs below, so a single axis
		// never needs more values than that
		limit := spec.Limits.MaxTotalJobs
		values := make([]string, 0, limit)
		for v := r.Min; ; v++ {
			values = append(values, strconv.FormatInt(v, 10))
			if v == r.Max || len(values) >= limit {
				break
			}
		}
		axes = append(axes, axis{name: r.Name, values: values})
	}
	sort.Slice(axes, func(i, j int) bool { return axes[i].name < axes[j].name })

	combos := []map[string]string{{}}
	for _, ax := range axes {
		next := make([]map[string]string, 0, len(combos)*len(ax.values))
		for _, combo := range combos {
			for _, v := range ax.values {
				extended := make(map[string]string, len(combo)+1)
				for k, cv := range combo {
					extended[k] = cv
				}
				extended[ax.name] = v
				next = append(next, extended)
			}
		}
		combos = next
		if len(combos) > spec.Limits.MaxTotalJobs {
			combos = combos[:spec.Limits.MaxTotalJobs]
		}
	}
	return combos, nil
}

func expandRandom(spec types.TuningJobSpec) ([]map[string]string, error) {
	for _, r := range spec.Ranges.Integer {
		if r.Max-r.Min+1 <= 0 {
			return nil, fmt.Errorf("parameter %s: range is too wide", r.Name)
		}
	}
	rng := rand.New(rand.NewSource(spec.Seed))
	combos := make([]map[string]string, 0, spec.Limits.MaxTotalJobs)
	for i := 0; i < spec.Limits.MaxTotalJobs; i++ {
		combo := map[string]string{}
		for _, r := range spec.Ranges.Continuous {
			v := r.Min + rng.Float64()*(r.Max-r.Min)
			combo[r.Name] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		for _, r := range spec.Ranges.Integer {
			v := r.Min + rng.Int63n(r.Max-r.Min+1)
			combo[r.Name] = strconv.FormatInt(v, 10)
		}
		for _, r := range spec.Ranges.Categorical {
			combo[r.Name] = r.Values[rng.Intn(len(r.Values))]
		}
		combos = append(combos, combo)
	}
	return combos, nil
}

func (m *TuningManager) runDetached(name string, candidates []map[string]string) {
	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.cancels[name] = cancel
	m.mu.Unlock()
	defer func() {
		cancel()
		m.mu.Lock()
		delete(m.cancels, name)
		m.mu.Unlock()
	}()
	ctx = logr.NewContext(ctx, m.Logger.WithValues("tuningjob", name))
	if err := m.run(ctx, name, candidates); err != nil {
		m.Logger.Error(err, "tuning job did not complete", "tuningjob", name)
	}
}

func (m *TuningManager) run(ctx context.Context, name string, candidates []map[string]string) error {
	tuning, err := m.Store.GetTuningJob(name)
	if err != nil {
		return err
	}
	if err := m.update(name, func(status *types.TuningJobStatus) {
		status.State = types.JobStateTraining
	}); err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(tuning.Spec.Limits.MaxParallelJobs)
	for i, params := range candidates {
		i, params := i, params
		childName := fmt.Sprintf("%s-%03d", name, i)
		eg.Go(func() error {
			if egctx.Err() != nil {
				return egctx.Err()
			}
			// a failed trial does not cancel its siblings
			if err := m.runChild(egctx, tuning, childName, params); err != nil && egctx.Err() != nil {
				return egctx.Err()
			}
			return nil
		})
	}
	_ = eg.Wait()

	return m.update(name, func(status *types.TuningJobStatus) {
		m.summarize(tuning, status)
		now := time.Now()
		status.EndTime = &now
		switch {
		case ctx.Err() == context.Canceled:
			status.State = types.JobStateStopped
			status.Reason = ReasonStopped
		case status.CompletedCount == 0:
			status.State = types.JobStateFailed
			status.Reason = "AllTrialsFailed"
		default:
			status.State = types.JobStateCompleted
		}
	})
}

func (m *TuningManager) runChild(ctx context.Context, tuning *types.TuningJob, childName string, params map[string]string) error {
	spec := tuning.Spec.JobTemplate
	merged := make(map[string]string, len(spec.Algorithm.Hyperparameters)+len(params))
	for k, v := range spec.Algorithm.Hyperparameters {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	spec.Algorithm.Hyperparameters = merged

	child := &types.TrainingJob{
		Name: childName,
		Spec: spec,
		Status: types.TrainingJobStatus{
			State:        types.JobStatePending,
			SubmitTime:   time.Now(),
			TransitionAt: time.Now(),
			TuningParent: tuning.Name,
		},
	}
	if err := m.Store.PutTrainingJob(child); err != nil {
		return err
	}
	return m.Jobs.RunJob(ctx, childName)
}

// summarize recomputes the trial summaries and the best trial from the
// stored child jobs.
func (m *TuningManager) summarize(tuning *types.TuningJob, status *types.TuningJobStatus) {
	children, err := m.Store.ListTrainingJobs()
	if err != nil {
		return
	}
	status.TrainingJobs = status.TrainingJobs[:0]
	status.CompletedCount, status.FailedCount = 0, 0
	status.BestTrainingJob = nil
	for i := range children {
		child := children[i]
		if child.Status.TuningParent != tuning.Name {
			continue
		}
		summary := types.TrainingJobSummary{
			Name:            child.Name,
			State:           child.Status.State,
			Hyperparameters: child.Spec.Algorithm.Hyperparameters,
		}
		if v, ok := child.Status.FinalMetrics[tuning.Spec.Objective.MetricName]; ok {
			value := v
			summary.ObjectiveValue = &value
		}
		switch child.Status.State {
		case types.JobStateCompleted:
			status.CompletedCount++
		case types.JobStateFailed, types.JobStateStopped:
			status.FailedCount++
		}
		if summary.ObjectiveValue != nil && betterThan(summary, status.BestTrainingJob, tuning.Spec.Objective.Goal) {
			best := summary
			status.BestTrainingJob = &best
		}
		status.TrainingJobs = append(status.TrainingJobs, summary)
	}
}

func betterThan(candidate types.TrainingJobSummary, current *types.TrainingJobSummary, goal types.ObjectiveGoal) bool {
	if current == nil || current.ObjectiveValue == nil {
		return true
	}
	if goal == types.ObjectiveMaximize {
		return *candidate.ObjectiveValue > *current.ObjectiveValue
	}
	return *candidate.ObjectiveValue < *current.ObjectiveValue
}

func (m *TuningManager) Stop(name string) error {
	tuning, err := m.Store.GetTuningJob(name)
	if err != nil {
		return err
	}
	if tuning.Status.State.Terminal() {
		return nil
	}
	m.mu.Lock()
	cancel, running := m.cancels[name]
	m.mu.Unlock()
	if running {
		cancel()
		return nil
	}
	// not driven by this process anymore, e.g. after a restart
	return m.update(name, func(status *types.TuningJobStatus) {
		now := time.Now()
		status.State = types.JobStateStopped
		status.Reason = ReasonStopped
		if status.EndTime == nil {
			status.EndTime = &now
		}
	})
}

func (m *TuningManager) Delete(ctx context.Context, name string) error {
	tuning, err := m.Store.GetTuningJob(name)
	if err != nil {
		return err
	}
	if !tuning.Status.State.Terminal() {
		return errors.NewJobNotTerminalError(name)
	}
	for _, summary := range tuning.Status.TrainingJobs {
		if err := m.Jobs.Delete(ctx, summary.Name, false); err != nil && !errors.IsErrCode(err, errors.ErrCodeJobUnknown) {
			return err
		}
	}
	return m.Store.DeleteTuningJob(name)
}

func (m *TuningManager) update(name string, mutate func(*types.TuningJobStatus)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tuning, err := m.Store.GetTuningJob(name)
	if err != nil {
		return err
	}
	if tuning.Status.State.Terminal() {
		return errTerminalState
	}
	mutate(&tuning.Status)
	return m.Store.PutTuningJob(tuning)
}
