// Package worker polls the job queue and dispatches jobs to per-type handlers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/infra"
	"github.com/MJbae/novel-craft/internal/metrics"
)

const (
	DefaultPollInterval  = 2 * time.Second
	DefaultRepollDelay   = 100 * time.Millisecond
	DefaultMaxConcurrent = 2
)

// Handler fulfils one job type. The returned string becomes the job output.
type Handler interface {
	Handle(ctx context.Context, job *domain.Job) (string, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job *domain.Job) (string, error)

func (f HandlerFunc) Handle(ctx context.Context, job *domain.Job) (string, error) {
	return f(ctx, job)
}

// Registry maps each job type to its handler. It is built once at startup.
type Registry map[domain.JobType]Handler

// JobQueue is the subset of the queue the worker drives.
type JobQueue interface {
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	NextQueued(ctx context.Context) (*domain.Job, error)
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus, update domain.StatusUpdate) error
	IncrementRetry(ctx context.Context, id string) (int, error)
	RunningCount(ctx context.Context) (int, error)
}

type Options struct {
	Logger        *infra.Logger
	PollInterval  time.Duration
	RepollDelay   time.Duration
	MaxConcurrent int
}

// Worker runs at most one handler at a time in this process and refuses to
// dequeue while MaxConcurrent jobs are running queue-wide.
type Worker struct {
	queue    JobQueue
	handlers Registry
	logger   *infra.Logger

	pollInterval  time.Duration
	repollDelay   time.Duration
	maxConcurrent int

	busy atomic.Bool
	wg   sync.WaitGroup
}

func New(queue JobQueue, handlers Registry, opts Options) *Worker {
	logger := opts.Logger
	if logger == nil {
		l := zerolog.New(io.Discard)
		logger = &l
	}
	w := &Worker{
		queue:         queue,
		handlers:      handlers,
		logger:        logger,
		pollInterval:  opts.PollInterval,
		repollDelay:   opts.RepollDelay,
		maxConcurrent: opts.MaxConcurrent,
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}
	if w.repollDelay <= 0 {
		w.repollDelay = DefaultRepollDelay
	}
	if w.maxConcurrent <= 0 {
		w.maxConcurrent = DefaultMaxConcurrent
	}
	return w
}

// Run polls until ctx is cancelled, then waits for the in-flight job.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().
		Dur("poll_interval", w.pollInterval).
		Int("max_concurrent", w.maxConcurrent).
		Msg("worker: started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	repoll := make(chan struct{}, 1)

	spawn := func() {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if w.Poll(ctx) && ctx.Err() == nil {
				time.AfterFunc(w.repollDelay, func() {
					select {
					case repoll <- struct{}{}:
					default:
					}
				})
			}
		}()
	}

	spawn()
	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			w.logger.Info().Msg("worker: stopped")
			return ctx.Err()
		case <-ticker.C:
			spawn()
		case <-repoll:
			spawn()
		}
	}
}

// Poll dequeues and processes at most one job. It reports whether a job was
// picked up. Overlapping calls return false immediately.
func (w *Worker) Poll(ctx context.Context) bool {
	if !w.busy.CompareAndSwap(false, true) {
		return false
	}
	defer w.busy.Store(false)

	running, err := w.queue.RunningCount(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: count running jobs failed")
		return false
	}
	if running >= w.maxConcurrent {
		return false
	}
	job, err := w.queue.NextQueued(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: fetch next job failed")
		return false
	}
	if job == nil {
		return false
	}
	w.process(ctx, job)
	return true
}

func (w *Worker) process(ctx context.Context, job *domain.Job) {
	log := w.logger.With().Str("job_id", job.ID).Str("job_type", string(job.Type)).Logger()
	// Bookkeeping must land even when shutdown cancels ctx mid-job.
	bctx := context.WithoutCancel(ctx)

	handler, ok := w.handlers[job.Type]
	if !ok {
		msg := fmt.Sprintf("No handler registered for job type: %s", job.Type)
		if err := w.queue.UpdateStatus(bctx, job.ID, domain.JobStatusFailed, domain.StatusUpdate{Error: &msg}); err != nil {
			log.Error().Err(err).Msg("worker: update status failed")
		}
		metrics.IncreaseJobsTotal(string(job.Type), metrics.OutcomeFailed)
		log.Error().Msg("worker: no handler registered")
		return
	}

	if err := w.queue.UpdateStatus(bctx, job.ID, domain.JobStatusRunning, domain.StatusUpdate{}); err != nil {
		if errors.Is(err, domain.ErrJobTerminal) {
			log.Info().Msg("worker: job finished before start, skipping")
			return
		}
		log.Error().Err(err).Msg("worker: mark running failed")
		return
	}
	log.Info().Int("retry_count", job.RetryCount).Msg("worker: picked job")

	metrics.JobStarted()
	started := time.Now()
	output, err := w.invoke(ctx, handler, job)
	metrics.JobFinished()

	if err == nil {
		update := domain.StatusUpdate{Output: &output, Progress: domain.IntPtr(100)}
		if uerr := w.queue.UpdateStatus(bctx, job.ID, domain.JobStatusCompleted, update); uerr != nil {
			if errors.Is(uerr, domain.ErrJobTerminal) {
				log.Warn().Msg("worker: job was cancelled while running, result dropped")
				return
			}
			log.Error().Err(uerr).Msg("worker: mark completed failed")
			return
		}
		metrics.IncreaseJobsTotal(string(job.Type), metrics.OutcomeCompleted)
		log.Info().Dur("elapsed", time.Since(started)).Msg("worker: job completed")
		return
	}

	w.fail(bctx, log, job, err)
}

// fail re-queues the job while retries remain, otherwise fails it for good.
// Either way the error names the step the job was in.
func (w *Worker) fail(ctx context.Context, log zerolog.Logger, job *domain.Job, cause error) {
	if errors.Is(cause, domain.ErrJobTerminal) {
		log.Info().Msg("worker: job was cancelled while running, handler stopped")
		return
	}
	step := job.StepLabel()
	if current, err := w.queue.GetByID(ctx, job.ID); err == nil {
		step = current.StepLabel()
	}
	count, err := w.queue.IncrementRetry(ctx, job.ID)
	if err != nil {
		log.Error().Err(err).Msg("worker: increment retry failed")
		count = job.MaxRetries
	}

	if count < job.MaxRetries {
		msg := fmt.Sprintf("Retry %d/%d (step: %s): %s", count, job.MaxRetries, step, cause.Error())
		update := domain.StatusUpdate{ClearStep: true, Progress: domain.IntPtr(0), Error: &msg}
		if err := w.queue.UpdateStatus(ctx, job.ID, domain.JobStatusQueued, update); err != nil && !errors.Is(err, domain.ErrJobTerminal) {
			log.Error().Err(err).Msg("worker: requeue failed")
		}
		metrics.IncreaseJobsTotal(string(job.Type), metrics.OutcomeRetried)
		log.Warn().Err(cause).Str("step", step).Int("retry_count", count).Msg("worker: job failed, re-queued")
		return
	}

	msg := fmt.Sprintf("[step: %s] %s", step, cause.Error())
	if err := w.queue.UpdateStatus(ctx, job.ID, domain.JobStatusFailed, domain.StatusUpdate{Error: &msg}); err != nil && !errors.Is(err, domain.ErrJobTerminal) {
		log.Error().Err(err).Msg("worker: persist failure failed")
	}
	metrics.IncreaseJobsTotal(string(job.Type), metrics.OutcomeFailed)
	log.Error().Err(cause).Str("step", step).Int("retry_count", count).Msg("worker: job failed permanently")
}

func (w *Worker) invoke(ctx context.Context, h Handler, job *domain.Job) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, job)
}
