package pipeline

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Task is one resumable unit of batch work. When OutputPath is set and the
// file already exists, a skip-existing runner will not re-run it.
type Task struct {
	ID         string
	OutputPath string
	Run        func(ctx context.Context) error
}

// Tally counts task outcomes for a run.
type Tally struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Runner executes batch tasks with optional concurrency, skip-existing
// resumption, and a shared rate limiter for tasks that call external
// services. A failed task is logged and counted; it never aborts the batch.
type Runner struct {
	skipExisting bool
	workers      int
	limiter      *rate.Limiter
	logger       *zap.Logger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithSkipExisting makes the runner skip tasks whose output file exists.
func WithSkipExisting(skip bool) Option {
	return func(r *Runner) { r.skipExisting = skip }
}

// WithWorkers sets the number of concurrent workers.
func WithWorkers(workers int) Option {
	return func(r *Runner) {
		if workers > 0 {
			r.workers = workers
		}
	}
}

// WithRateLimit inserts a minimum delay between task starts. Zero disables
// throttling.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(r *Runner) { r.limiter = limiter }
}

// NewRunner creates a sequential runner by default.
func NewRunner(logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		workers: 1,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes all tasks and returns the tally. Context cancellation stops
// dispatching new tasks; in-flight tasks observe ctx themselves.
func (r *Runner) Run(ctx context.Context, tasks []Task) Tally {
	var tally Tally
	var mu sync.Mutex

	jobs := make(chan Task)
	var wg sync.WaitGroup

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range jobs {
				r.runOne(ctx, task, &tally, &mu)
			}
		}()
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		if r.skipExisting && task.OutputPath != "" {
			if _, err := os.Stat(task.OutputPath); err == nil {
				r.logger.Debug("skipping existing output", zap.String("task", task.ID))
				mu.Lock()
				tally.Skipped++
				mu.Unlock()
				continue
			}
		}
		jobs <- task
	}
	close(jobs)
	wg.Wait()

	return tally
}

func (r *Runner) runOne(ctx context.Context, task Task, tally *Tally, mu *sync.Mutex) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			mu.Lock()
			tally.Failed++
			mu.Unlock()
			return
		}
	}

	if err := task.Run(ctx); err != nil {
		r.logger.Error("task failed", zap.String("task", task.ID), zap.Error(err))
		mu.Lock()
		tally.Failed++
		mu.Unlock()
		return
	}

	mu.Lock()
	tally.Processed++
	mu.Unlock()
}
