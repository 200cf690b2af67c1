package queue

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/Mailfleet/mailfleet/pkg/clock"
	"github.com/Mailfleet/mailfleet/pkg/logger"
	"github.com/Mailfleet/mailfleet/pkg/tracing"
)

// Handler processes one job. Returned errors are classified through
// domain.KindOf to pick between retry, deferral, drop and halt.
type Handler func(ctx context.Context, job *domain.Job) error

// Config holds the per-type policies of the job queues.
type Config struct {
	// MaxRetries is how many retries a transient failure gets. The
	// attempt after the last retry is final.
	MaxRetries int
	// RetryDelays is the fixed backoff per job type.
	RetryDelays map[domain.JobType]time.Duration
	// Concurrency caps parallel handlers per job type.
	Concurrency map[domain.JobType]int
	// Deadlines bounds a single handler run per job type.
	Deadlines map[domain.JobType]time.Duration
	// PollInterval is how often the dispatchers look for due jobs.
	PollInterval time.Duration
}

// DefaultConfig returns the stock queue policies: health jobs retried
// immediately with five workers, tests every fifteen minutes with
// three, warmups hourly with two, rotations every five minutes with a
// single serialized worker.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelays: map[domain.JobType]time.Duration{
			domain.JobTypeHealth:   0,
			domain.JobTypeTest:     15 * time.Minute,
			domain.JobTypeWarmup:   time.Hour,
			domain.JobTypeRotation: 5 * time.Minute,
		},
		Concurrency: map[domain.JobType]int{
			domain.JobTypeHealth:   5,
			domain.JobTypeTest:     3,
			domain.JobTypeWarmup:   2,
			domain.JobTypeRotation: 1,
		},
		Deadlines: map[domain.JobType]time.Duration{
			domain.JobTypeHealth:   30 * time.Second,
			domain.JobTypeTest:     5 * time.Minute,
			domain.JobTypeWarmup:   5 * time.Minute,
			domain.JobTypeRotation: 5 * time.Minute,
		},
		PollInterval: time.Second,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryDelays == nil {
		c.RetryDelays = def.RetryDelays
	}
	if c.Concurrency == nil {
		c.Concurrency = def.Concurrency
	}
	if c.Deadlines == nil {
		c.Deadlines = def.Deadlines
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	return c
}

func (c Config) retryDelay(t domain.JobType) time.Duration {
	if d, ok := c.RetryDelays[t]; ok {
		return d
	}
	return 0
}

func (c Config) concurrency(t domain.JobType) int {
	if n, ok := c.Concurrency[t]; ok && n > 0 {
		return n
	}
	return 1
}

func (c Config) deadline(t domain.JobType) time.Duration {
	if d, ok := c.Deadlines[t]; ok && d > 0 {
		return d
	}
	return 5 * time.Minute
}

// JobQueue runs four in-memory typed queues with independent worker
// pools. Jobs are delivered in priority-then-arrival order once their
// not-before time has passed. The rotation queue holds a process-global
// exclusive lock around every handler run, so at most one rotation
// executes anywhere in the process.
//
// Per-domain ordering: a keyed advisory lock is held for the duration
// of a job's handler, so two jobs targeting the same domain never run
// concurrently even across queues.
type JobQueue struct {
	cfg          Config
	clock        clock.Clock
	log          logger.Logger
	jobLog       domain.JobLogRepository
	notifier     domain.NotificationService
	rotationGate *sync.Mutex
	domainLocks  *keyedMutex

	handlersMu sync.RWMutex
	handlers   map[domain.JobType]Handler

	queues map[domain.JobType]*typedQueue

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewJobQueue assembles the queues. The rotation gate may be shared
// with other components that must exclude concurrent rotations; when
// nil a private lock is used. A nil job log or notifier disables the
// corresponding side channel.
func NewJobQueue(cfg Config, clk clock.Clock, log logger.Logger, jobLog domain.JobLogRepository, notifier domain.NotificationService, rotationGate *sync.Mutex) *JobQueue {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	if rotationGate == nil {
		rotationGate = &sync.Mutex{}
	}
	cfg = cfg.normalized()

	q := &JobQueue{
		cfg:          cfg,
		clock:        clk,
		log:          log,
		jobLog:       jobLog,
		notifier:     notifier,
		rotationGate: rotationGate,
		domainLocks:  newKeyedMutex(),
		handlers:     make(map[domain.JobType]Handler),
		queues:       make(map[domain.JobType]*typedQueue),
	}
	for _, t := range domain.JobTypes {
		q.queues[t] = &typedQueue{
			jobType: t,
			sem:     semaphore.NewWeighted(int64(cfg.concurrency(t))),
			wake:    make(chan struct{}, 1),
		}
	}
	return q
}

// RegisterHandler binds the handler run for every job of the type.
// Registering twice replaces the previous handler.
func (q *JobQueue) RegisterHandler(jobType domain.JobType, h Handler) {
	q.handlersMu.Lock()
	defer q.handlersMu.Unlock()
	q.handlers[jobType] = h
}

// Enqueue accepts a job onto its typed queue. The job id and enqueue
// time are filled in when missing. Jobs with a future RunAt stay
// invisible until due.
func (q *JobQueue) Enqueue(ctx context.Context, job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	now := q.clock.Now()
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = now
	}
	if job.RunAt.IsZero() {
		job.RunAt = now
	}

	tq := q.queues[job.Type]
	tq.push(job, now)
	tracing.RecordJobEnqueued(ctx, string(job.Type))
	tq.notify()
	return nil
}

// Start launches one dispatcher per queue. Idempotent.
func (q *JobQueue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.stopCh = make(chan struct{})
	q.mu.Unlock()

	q.log.WithField("poll_interval", q.cfg.PollInterval.String()).Info("Starting job queues")
	for _, t := range domain.JobTypes {
		q.wg.Add(1)
		go q.dispatch(ctx, q.queues[t])
	}
}

// Stop halts dequeue and waits for in-flight jobs until the drain
// context expires; jobs still running after that are abandoned to
// their own deadlines.
func (q *JobQueue) Stop(drainCtx context.Context) {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stopCh)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.log.Info("Job queues drained")
	case <-drainCtx.Done():
		q.log.Warn("Job queue drain deadline exceeded, abandoning in-flight jobs")
	}
}

// Stats snapshots the counters of every queue.
func (q *JobQueue) Stats() domain.QueueStats {
	stats := make(domain.QueueStats, len(q.queues))
	for t, tq := range q.queues {
		stats[t] = tq.counters()
	}
	return stats
}

// dispatch is the per-queue loop: promote due jobs, hand them to
// workers while capacity remains, sleep until woken or the next poll.
func (q *JobQueue) dispatch(ctx context.Context, tq *typedQueue) {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		for {
			job := tq.popDue(q.clock.Now())
			if job == nil {
				break
			}
			if err := tq.sem.Acquire(ctx, 1); err != nil {
				return
			}
			tq.markActive(1)
			q.wg.Add(1)
			go func(job *domain.Job) {
				defer q.wg.Done()
				defer tq.sem.Release(1)
				defer tq.markActive(-1)
				q.run(ctx, tq, job)
			}(job)
		}

		select {
		case <-q.stopCh:
			return
		case <-ctx.Done():
			return
		case <-tq.wake:
		case <-q.clock.After(q.cfg.PollInterval):
		}
	}
}

// run executes one job attempt under its deadline, the per-domain lock
// and, for rotations, the process-global rotation gate.
func (q *JobQueue) run(ctx context.Context, tq *typedQueue, job *domain.Job) {
	q.handlersMu.RLock()
	handler := q.handlers[job.Type]
	q.handlersMu.RUnlock()

	if handler == nil {
		q.fail(ctx, tq, job, 0, domain.NewFatalError(
			fmt.Sprintf("no handler registered for job type %q", job.Type), nil))
		return
	}

	if job.Type == domain.JobTypeRotation {
		q.rotationGate.Lock()
		defer q.rotationGate.Unlock()
	}
	if job.DomainID != "" {
		unlock := q.domainLocks.lock(job.DomainID)
		defer unlock()
	}

	runCtx, cancel := context.WithTimeout(ctx, q.cfg.deadline(job.Type))
	defer cancel()

	job.Attempts++
	start := q.clock.Now()
	err := handler(runCtx, job)
	elapsed := q.clock.Now().Sub(start)

	if err == nil {
		tq.markCompleted()
		tracing.RecordJobCompleted(ctx, string(job.Type), elapsed)
		q.appendLog(ctx, job, domain.JobLogSuccess, elapsed, "")
		return
	}

	switch domain.KindOf(err) {
	case domain.ErrKindRateLimited:
		// Deferral, not a failure: the attempt is not counted.
		job.Attempts--
		wait := domain.RetryAfterHint(err)
		if wait <= 0 {
			wait = q.cfg.PollInterval
		}
		tq.markDeferred()
		tracing.RecordJobDeferred(ctx, string(job.Type))
		q.reschedule(tq, job, wait)

	case domain.ErrKindTransient:
		if job.Attempts <= q.cfg.MaxRetries {
			q.appendLog(ctx, job, domain.JobLogRetry, elapsed, err.Error())
			q.reschedule(tq, job, q.cfg.retryDelay(job.Type))
			return
		}
		q.fail(ctx, tq, job, elapsed, fmt.Errorf("max retries exceeded: %w", err))

	case domain.ErrKindConflict:
		// One extra attempt with a refreshed snapshot, immediately.
		if job.Attempts <= q.cfg.MaxRetries {
			q.appendLog(ctx, job, domain.JobLogRetry, elapsed, err.Error())
			q.reschedule(tq, job, 0)
			return
		}
		q.fail(ctx, tq, job, elapsed, err)

	case domain.ErrKindNotFound:
		// The target is gone; drop without notifying.
		tq.markFailed()
		tracing.RecordJobFailed(ctx, string(job.Type), elapsed)
		q.appendLog(ctx, job, domain.JobLogFailed, elapsed, err.Error())
		q.log.WithFields(map[string]interface{}{
			"job_id":    job.ID,
			"job_type":  string(job.Type),
			"domain_id": job.DomainID,
			"error":     err.Error(),
		}).Warn("Job target not found, dropping")

	case domain.ErrKindFatal:
		q.fail(ctx, tq, job, elapsed, err)
		q.log.WithFields(map[string]interface{}{
			"job_id":   job.ID,
			"job_type": string(job.Type),
			"error":    err.Error(),
		}).Error("Fatal job failure")

	default:
		q.fail(ctx, tq, job, elapsed, err)
	}
}

// reschedule puts the job back on its queue after the given delay.
func (q *JobQueue) reschedule(tq *typedQueue, job *domain.Job, delay time.Duration) {
	now := q.clock.Now()
	job.RunAt = now.Add(delay)
	tq.push(job, now)
	tq.notify()
}

// fail records a final failure and raises the critical notification.
func (q *JobQueue) fail(ctx context.Context, tq *typedQueue, job *domain.Job, elapsed time.Duration, err error) {
	tq.markFailed()
	tracing.RecordJobFailed(ctx, string(job.Type), elapsed)
	q.appendLog(ctx, job, domain.JobLogFailed, elapsed, err.Error())

	q.log.WithFields(map[string]interface{}{
		"job_id":    job.ID,
		"job_type":  string(job.Type),
		"domain_id": job.DomainID,
		"attempts":  job.Attempts,
		"error":     err.Error(),
	}).Error("Job failed permanently")

	if q.notifier == nil {
		return
	}
	target := job.DomainID
	if target == "" {
		target = string(job.Payload.Pool)
	}
	title := fmt.Sprintf("%s job failed", job.Type)
	message := fmt.Sprintf("Job %s for %s failed permanently: %s", job.ID, target, err.Error())
	if nerr := q.notifier.Notify(ctx, domain.NotificationCritical, title, message, job.DomainID); nerr != nil {
		q.log.WithField("error", nerr.Error()).Error("Failed to create job failure notification")
	}
}

func (q *JobQueue) appendLog(ctx context.Context, job *domain.Job, status domain.JobLogStatus, elapsed time.Duration, errText string) {
	if q.jobLog == nil {
		return
	}
	entry := &domain.JobLogEntry{
		ID:         uuid.New().String(),
		JobID:      job.ID,
		Type:       job.Type,
		DomainID:   job.DomainID,
		Status:     status,
		DurationMS: elapsed.Milliseconds(),
		Error:      errText,
		CreatedAt:  q.clock.Now(),
	}
	if err := q.jobLog.Append(ctx, entry); err != nil {
		q.log.WithFields(map[string]interface{}{
			"job_id": job.ID,
			"error":  err.Error(),
		}).Warn("Failed to append job log entry")
	}
}

// typedQueue is one named queue: a heap of delayed jobs keyed by RunAt
// feeding a ready heap ordered by priority then arrival.
type typedQueue struct {
	jobType domain.JobType

	mu      sync.Mutex
	seq     uint64
	delayed delayedHeap
	ready   readyHeap
	stats   domain.QueueCounters

	sem  *semaphore.Weighted
	wake chan struct{}
}

func (tq *typedQueue) push(job *domain.Job, now time.Time) {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	tq.seq++
	it := &item{job: job, seq: tq.seq}
	if job.RunAt.After(now) {
		heap.Push(&tq.delayed, it)
	} else {
		heap.Push(&tq.ready, it)
	}
}

// popDue promotes delayed jobs that have come due and returns the next
// ready job, or nil when none is runnable yet.
func (tq *typedQueue) popDue(now time.Time) *domain.Job {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	for tq.delayed.Len() > 0 && !tq.delayed[0].job.RunAt.After(now) {
		heap.Push(&tq.ready, heap.Pop(&tq.delayed))
	}
	if tq.ready.Len() == 0 {
		return nil
	}
	return heap.Pop(&tq.ready).(*item).job
}

func (tq *typedQueue) notify() {
	select {
	case tq.wake <- struct{}{}:
	default:
	}
}

func (tq *typedQueue) counters() domain.QueueCounters {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	c := tq.stats
	c.Waiting = tq.delayed.Len() + tq.ready.Len()
	return c
}

func (tq *typedQueue) markActive(delta int) {
	tq.mu.Lock()
	tq.stats.Active += delta
	tq.mu.Unlock()
}

func (tq *typedQueue) markCompleted() {
	tq.mu.Lock()
	tq.stats.Completed++
	tq.mu.Unlock()
}

func (tq *typedQueue) markFailed() {
	tq.mu.Lock()
	tq.stats.Failed++
	tq.mu.Unlock()
}

func (tq *typedQueue) markDeferred() {
	tq.mu.Lock()
	tq.stats.Deferred++
	tq.mu.Unlock()
}

type item struct {
	job *domain.Job
	seq uint64
}

// delayedHeap orders items by their not-before time, soonest first.
type delayedHeap []*item

func (h delayedHeap) Len() int { return len(h) }
func (h delayedHeap) Less(i, j int) bool {
	return h[i].job.RunAt.Before(h[j].job.RunAt)
}
func (h delayedHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *delayedHeap) Push(x interface{}) {
	*h = append(*h, x.(*item))
}
func (h *delayedHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// readyHeap orders runnable items by priority, then arrival.
type readyHeap []*item

func (h readyHeap) Len() int { return len(h) }
func (h readyHeap) Less(i, j int) bool {
	if h[i].job.Priority != h[j].job.Priority {
		return h[i].job.Priority < h[j].job.Priority
	}
	return h[i].seq < h[j].seq
}
func (h readyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *readyHeap) Push(x interface{}) {
	*h = append(*h, x.(*item))
}
func (h *readyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// keyedMutex serializes work per key without retaining a mutex per key
// forever: entries are dropped once the last holder releases.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	l := k.locks[key]
	if l == nil {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
