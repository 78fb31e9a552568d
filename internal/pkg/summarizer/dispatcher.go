package summarizer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/yigit/campusblog/internal/pkg/metrics"
)

// ErrDispatcherClosed is returned by Dispatch after Shutdown has begun
var ErrDispatcherClosed = errors.New("summary dispatcher is shut down")

// Job is one summary request for a post
type Job struct {
	PostID  int64
	Title   string
	Content string
}

// StoreFunc receives a finished summary together with the job it was made
// for. It reports false when the summary was discarded because the post was
// deleted or edited in the meantime.
type StoreFunc func(ctx context.Context, job Job, summary string) (bool, error)

// Dispatcher runs summary jobs in the background, at most maxConcurrent at a
// time. Jobs are detached from the request that created them.
type Dispatcher struct {
	summarizer Summarizer
	store      StoreFunc
	timeout    time.Duration
	sem        *semaphore.Weighted
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	// base is cancelled when Shutdown gives up waiting
	base   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. store is usually set later with SetStore
// because the post service that stores summaries also dispatches them.
func NewDispatcher(s Summarizer, maxConcurrent int, timeout time.Duration, m *metrics.Metrics, lgr zerolog.Logger) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	base, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		summarizer: s,
		timeout:    timeout,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		metrics:    m,
		logger:     lgr.With().Str("component", "summary_dispatcher").Logger(),
		base:       base,
		cancel:     cancel,
	}
}

// SetStore sets the function receiving finished summaries
func (d *Dispatcher) SetStore(store StoreFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.store = store
}

// Summarizer returns the underlying summarizer for synchronous use
func (d *Dispatcher) Summarizer() Summarizer {
	return d.summarizer
}

// Dispatch queues job and returns immediately. Failures are logged, never returned.
func (d *Dispatcher) Dispatch(job Job) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.metrics.RecordSummaryOutcome(metrics.OutcomeRejected)
		d.logger.Warn().Int64("postID", job.PostID).Msg("Summary job rejected, dispatcher is shutting down")
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	store := d.store
	d.mu.Unlock()

	go d.run(job, store)
	return nil
}

func (d *Dispatcher) run(job Job, store StoreFunc) {
	defer d.wg.Done()

	if err := d.sem.Acquire(d.base, 1); err != nil {
		d.metrics.RecordSummaryOutcome(metrics.OutcomeRejected)
		d.logger.Warn().Int64("postID", job.PostID).Msg("Summary job abandoned before start")
		return
	}
	defer d.sem.Release(1)

	ctx, cancel := context.WithTimeout(d.base, d.timeout)
	defer cancel()

	done := d.metrics.TrackSummary()
	summary, err := d.summarizer.Summarize(ctx, job.Title, job.Content)
	if err != nil {
		done(metrics.OutcomeFailed)
		d.logger.Error().Err(err).Int64("postID", job.PostID).Msg("Failed to generate summary")
		return
	}

	if store == nil {
		done(metrics.OutcomeDiscard)
		return
	}

	found, err := store(ctx, job, summary)
	switch {
	case err != nil:
		done(metrics.OutcomeFailed)
		d.logger.Error().Err(err).Int64("postID", job.PostID).Msg("Failed to store summary")
	case !found:
		done(metrics.OutcomeDiscard)
		d.logger.Info().Int64("postID", job.PostID).Msg("Post deleted or edited before its summary was ready, summary discarded")
	default:
		done(metrics.OutcomeStored)
		d.logger.Debug().Int64("postID", job.PostID).Msg("Summary stored")
	}
}

// Wait blocks until every dispatched job has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Shutdown stops accepting jobs and waits for running ones until ctx is done,
// after which the remaining jobs are cancelled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-finished
		return ctx.Err()
	}
}
