package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rapidride/prediction-service/pkg/logger"
)

// ErrQueueFull is returned when the work queue cannot accept another job.
var ErrQueueFull = errors.New("job queue full")

// Task produces the result of an async job. Exactly one worker runs each
// task; there is no cancellation and no automatic retry.
type Task func(ctx context.Context) (interface{}, error)

// Hooks are optional callbacks fired after a job reaches a terminal state.
// They run on the worker goroutine, so they must not block.
type Hooks struct {
	OnCompleted func(job *Job)
	OnFailed    func(job *Job)
}

type work struct {
	id   string
	task Task
}

// Tracker accepts async jobs, persists their lifecycle through the store,
// and runs them on a fixed worker pool decoupled from HTTP goroutines.
type Tracker struct {
	store   Store
	queue   chan work
	workers int
	hooks   Hooks
	wg      sync.WaitGroup
}

func NewTracker(store Store, workers, queueSize int, hooks Hooks) *Tracker {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Tracker{
		store:   store,
		queue:   make(chan work, queueSize),
		workers: workers,
		hooks:   hooks,
	}
}

// Start launches the worker pool. Workers drain the queue until Stop
// closes it; ctx bounds the work they run, not their lifetime.
func (t *Tracker) Start(ctx context.Context) {
	for i := 0; i < t.workers; i++ {
		t.wg.Add(1)
		go t.worker(ctx, i)
	}
	logger.Info("job workers started", zap.Int("workers", t.workers))
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (t *Tracker) Stop() {
	close(t.queue)
	t.wg.Wait()
	logger.Info("job workers stopped")
}

// Submit records a pending job and enqueues its task. It returns as soon
// as the job is queued; results arrive through Status polling.
func (t *Tracker) Submit(ctx context.Context, task Task) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	job := &Job{
		ID:        id,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.store.Save(ctx, job); err != nil {
		return "", fmt.Errorf("persist pending job: %w", err)
	}

	select {
	case t.queue <- work{id: id, task: task}:
		return id, nil
	default:
		job.State = StateFailed
		job.Error = "queue full"
		job.UpdatedAt = time.Now().UTC()
		if err := t.store.Save(ctx, job); err != nil {
			logger.Warn("failed to record queue-full job", zap.String("job_id", id), zap.Error(err))
		}
		return "", ErrQueueFull
	}
}

// Status returns the current record of a job. Unknown IDs yield
// ErrJobNotFound.
func (t *Tracker) Status(ctx context.Context, id string) (*Job, error) {
	return t.store.Get(ctx, id)
}

func (t *Tracker) worker(ctx context.Context, n int) {
	defer t.wg.Done()

	for w := range t.queue {
		t.run(ctx, w)
	}
	logger.Debug("job worker exiting", zap.Int("worker", n))
}

func (t *Tracker) run(ctx context.Context, w work) {
	t.transition(ctx, w.id, func(job *Job) {
		job.State = StateProcessing
	})

	result, err := t.execute(ctx, w.task)
	if err != nil {
		job := t.transition(ctx, w.id, func(job *Job) {
			job.State = StateFailed
			job.Error = err.Error()
		})
		if job != nil && t.hooks.OnFailed != nil {
			t.hooks.OnFailed(job)
		}
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		job := t.transition(ctx, w.id, func(job *Job) {
			job.State = StateFailed
			job.Error = fmt.Sprintf("encode result: %v", err)
		})
		if job != nil && t.hooks.OnFailed != nil {
			t.hooks.OnFailed(job)
		}
		return
	}

	job := t.transition(ctx, w.id, func(job *Job) {
		job.State = StateCompleted
		job.Result = payload
	})
	if job != nil && t.hooks.OnCompleted != nil {
		t.hooks.OnCompleted(job)
	}
}

// execute runs a task, converting panics into job failures so one bad job
// cannot take down the pool.
func (t *Tracker) execute(ctx context.Context, task Task) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return task(ctx)
}

// transition loads, mutates, and saves a job record, returning the updated
// record. Store failures are logged; the worker presses on.
func (t *Tracker) transition(ctx context.Context, id string, mutate func(*Job)) *Job {
	job, err := t.store.Get(ctx, id)
	if err != nil {
		logger.Warn("job record unavailable during transition", zap.String("job_id", id), zap.Error(err))
		return nil
	}

	mutate(job)
	job.UpdatedAt = time.Now().UTC()

	if err := t.store.Save(ctx, job); err != nil {
		logger.Warn("failed to persist job transition",
			zap.String("job_id", id),
			zap.String("state", string(job.State)),
			zap.Error(err),
		)
	}
	return job
}
