package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/sjperalta/expenseflow-api/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

const queueCapacity = 100

// Worker runs background jobs: a fixed pool draining a buffered queue, plus
// ticker-driven scheduled jobs.
type Worker struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	queue  chan Job

	mu       sync.RWMutex
	active   int
	finished int64
	failed   int64
}

// WorkerStats holds a snapshot of worker activity
type WorkerStats struct {
	ActiveJobs   int   `json:"active_jobs"`
	FinishedJobs int64 `json:"finished_jobs"`
	FailedJobs   int64 `json:"failed_jobs"`
	QueueLength  int   `json:"queue_length"`
}

// NewWorker creates a worker with numWorkers queue processors
func NewWorker(numWorkers int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan Job, queueCapacity),
	}

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.drain()
	}

	return w
}

// Enqueue adds a job to the pool's queue. A full queue degrades to running
// the job inline rather than dropping it.
func (w *Worker) Enqueue(job Job) {
	select {
	case w.queue <- job:
	default:
		logger.Warn("job queue full, running inline")
		w.run("inline", job)
	}
}

// ScheduleEvery runs a job at fixed intervals. The first run happens after
// the interval, not at startup.
func (w *Worker) ScheduleEvery(interval time.Duration, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run("scheduled", job)
			}
		}
	}()
}

// drain consumes the queue until Shutdown closes it. The closed queue, not
// context cancellation, is the stop signal: jobs accepted before shutdown
// still run.
func (w *Worker) drain() {
	defer w.wg.Done()
	for job := range w.queue {
		w.run("queued", job)
	}
}

// run executes one job with panic isolation and stats accounting
func (w *Worker) run(kind string, job Job) {
	w.mu.Lock()
	w.active++
	w.mu.Unlock()

	start := time.Now()
	var failed bool

	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panic", "kind", kind, "panic", r)
			failed = true
		}
		w.mu.Lock()
		w.active--
		w.finished++
		if failed {
			w.failed++
		}
		w.mu.Unlock()
	}()

	if err := job(w.ctx); err != nil {
		logger.Error("job failed", "kind", kind, "elapsed", time.Since(start), "error", err)
		failed = true
		return
	}
	logger.Debug("job finished", "kind", kind, "elapsed", time.Since(start))
}

// Shutdown stops the scheduled loops, closes the queue and waits for the
// pool to finish every job it already accepted
func (w *Worker) Shutdown() {
	w.cancel()
	close(w.queue)
	w.wg.Wait()
}

// GetStats returns a snapshot of worker activity
func (w *Worker) GetStats() WorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerStats{
		ActiveJobs:   w.active,
		FinishedJobs: w.finished,
		FailedJobs:   w.failed,
		QueueLength:  len(w.queue),
	}
}
