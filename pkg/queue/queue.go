// Package queue provides the bounded-concurrency generation orchestrator
package queue

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/storyboard/storyboard/pkg/cache"
	"github.com/storyboard/storyboard/pkg/interfaces"
	"github.com/storyboard/storyboard/pkg/logger"
	"github.com/storyboard/storyboard/pkg/provider"
	"github.com/storyboard/storyboard/pkg/types"
)

// Task is one unit of generation work: a rendered request with its cache key
// and owning frame/asset coordinates for reporting.
type Task struct {
	ID        string
	SceneID   string
	FrameID   string
	AssetType types.AssetType
	Request   types.Request
	Key       cache.Key
	// Force marks a task for cache bypass and overwrite (forced update)
	Force bool

	mu     sync.Mutex
	status types.TaskStatus
}

// Status reports the task's current state
func (t *Task) Status() types.TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == "" {
		return types.TaskStatusPending
	}
	return t.status
}

func (t *Task) setStatus(s types.TaskStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Coordinates renders the task's scene.frame.asset address
func (t *Task) Coordinates() string {
	return fmt.Sprintf("%s.%s.%s", t.SceneID, t.FrameID, t.AssetType)
}

// Result is the outcome of one task
type Result struct {
	Task     *Task
	Status   types.TaskStatus
	Entry    *cache.Entry
	Attempts int
	Err      error
	Duration time.Duration
}

// Report collects every task result in submission order
type Report struct {
	Results []Result
	Elapsed time.Duration
}

// Failed returns the failed results, preserving submission order
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == types.TaskStatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Succeeded reports whether every task completed
func (r *Report) Succeeded() bool { return len(r.Failed()) == 0 }

// Options bound a run
type Options struct {
	Concurrency int
	Timeout     time.Duration
	Retry       types.RetryConfig
}

// Orchestrator dispatches generation tasks through the cache stores with a
// bounded worker pool, per-attempt timeouts, and fixed-delay retries.
// Failures are isolated per task; the report preserves submission order.
type Orchestrator struct {
	provider interfaces.Provider
	images   interfaces.ArtifactStore
	audio    interfaces.ArtifactStore
	clock    interfaces.Clock
	logger   logger.Logger
	opts     Options
}

// New creates an orchestrator
func New(
	p interfaces.Provider,
	images, audio interfaces.ArtifactStore,
	clock interfaces.Clock,
	log logger.Logger,
	opts Options,
) *Orchestrator {
	if clock == nil {
		clock = SystemClock()
	}
	return &Orchestrator{
		provider: p,
		images:   images,
		audio:    audio,
		clock:    clock,
		logger:   log,
		opts:     opts,
	}
}

// Run executes all tasks and returns the full report. Configuration errors
// fail fast before any task is dispatched; task-level failures never abort
// siblings. At most Concurrency tasks execute at once, admitted in
// submission order.
func (o *Orchestrator) Run(ctx context.Context, tasks []*Task) (*Report, error) {
	if o.opts.Concurrency < 1 {
		return nil, fmt.Errorf("invalid concurrency limit: %d", o.opts.Concurrency)
	}
	if o.opts.Timeout <= 0 {
		return nil, fmt.Errorf("invalid attempt timeout: %s", o.opts.Timeout)
	}
	if o.opts.Retry.Enabled && o.opts.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("invalid retry attempts: %d", o.opts.Retry.MaxAttempts)
	}

	start := o.clock.Now()
	results := make([]Result, len(tasks))

	g := new(errgroup.Group)
	g.SetLimit(o.opts.Concurrency)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					if o.logger != nil {
						o.logger.Error("Task panic recovered",
							logger.WithField("task", task.Coordinates()),
							logger.WithField("panic", r),
							logger.WithField("stack_trace", string(debug.Stack())))
					}
					task.setStatus(types.TaskStatusFailed)
					results[i] = Result{Task: task, Status: types.TaskStatusFailed, Err: fmt.Errorf("task panic: %v", r)}
				}
			}()
			results[i] = o.runTask(ctx, task)
			return nil
		})
	}

	g.Wait()

	return &Report{Results: results, Elapsed: o.clock.Now().Sub(start)}, nil
}

// runTask drives one task through the store. The store coalesces concurrent
// identical keys, so the retry loop below runs at most once per key per run.
func (o *Orchestrator) runTask(ctx context.Context, task *Task) Result {
	store := o.storeFor(task.AssetType)
	taskStart := o.clock.Now()

	attempts := 0
	entry, cached, err := store.GetOrGenerate(ctx, task.Key, task.Force, func(ctx context.Context) ([]byte, error) {
		data, n, genErr := o.generate(ctx, task)
		attempts = n
		return data, genErr
	})

	res := Result{
		Task:     task,
		Entry:    entry,
		Attempts: attempts,
		Duration: o.clock.Now().Sub(taskStart),
	}

	switch {
	case err != nil:
		task.setStatus(types.TaskStatusFailed)
		res.Status = types.TaskStatusFailed
		res.Err = err
		if o.logger != nil {
			o.logger.Error("Asset generation failed",
				logger.WithField("task", task.Coordinates()),
				logger.WithField("error", err))
		}
	case cached:
		task.setStatus(types.TaskStatusCached)
		res.Status = types.TaskStatusCached
	default:
		task.setStatus(types.TaskStatusComplete)
		res.Status = types.TaskStatusComplete
		if o.logger != nil {
			o.logger.Success("Asset generated",
				logger.WithField("task", task.Coordinates()),
				logger.WithField("key", task.Key))
		}
	}

	return res
}

// generate runs the retry state machine:
// Pending -> Attempting -> (done | RetryWait -> Attempting | Failed).
// Attempts are capped at MaxAttempts with a fixed delay between them.
func (o *Orchestrator) generate(ctx context.Context, task *Task) ([]byte, int, error) {
	maxAttempts := 1
	if o.opts.Retry.Enabled {
		maxAttempts = o.opts.Retry.MaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		task.setStatus(types.TaskStatusAttempting)

		data, err := o.attempt(ctx, task)
		if err == nil {
			return data, attempt, nil
		}
		lastErr = err

		if !provider.IsRetryable(err) {
			return nil, attempt, err
		}
		if attempt == maxAttempts {
			break
		}

		if o.logger != nil {
			o.logger.Warn("Attempt failed, retrying",
				logger.WithField("task", task.Coordinates()),
				logger.WithField("attempt", fmt.Sprintf("%d/%d", attempt, maxAttempts)),
				logger.WithField("error", err))
		}
		task.setStatus(types.TaskStatusRetryWait)
		if err := o.clock.Sleep(ctx, o.opts.Retry.Delay()); err != nil {
			return nil, attempt, err
		}
	}

	return nil, maxAttempts, lastErr
}

// attempt performs a single provider call under the per-attempt timeout
func (o *Orchestrator) attempt(ctx context.Context, task *Task) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	artifact, err := o.provider.Generate(attemptCtx, task.Request)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			return nil, &provider.TimeoutError{Err: err}
		}
		return nil, err
	}
	if artifact == nil || len(artifact.Data) == 0 {
		return nil, provider.Fatal(fmt.Errorf("provider returned an empty artifact"))
	}
	return artifact.Data, nil
}

func (o *Orchestrator) storeFor(t types.AssetType) interfaces.ArtifactStore {
	if t == types.AssetTypeAudio {
		return o.audio
	}
	return o.images
}
