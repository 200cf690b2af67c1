package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/Mailfleet/mailfleet/pkg/clock"
	"github.com/Mailfleet/mailfleet/pkg/logger"
)

// EngineScheduler is the narrow slice of the automation engine the
// sweep driver needs for planning work inline (everything else goes
// through the job queues).
type EngineScheduler interface {
	ScheduleNextTest(ctx context.Context, d *domain.SendingDomain) error
}

// SchedulerConfig carries the sweep cadences. Daily sweeps run at a
// fixed UTC hour; the others on an interval.
type SchedulerConfig struct {
	HealthInterval   time.Duration // default 6h
	RotationInterval time.Duration // default 12h
	TestSweepHourUTC int           // default 0 (midnight)
	WarmupHourUTC    int           // default 6
	DueTestBatch     int           // default 200
}

// DefaultSchedulerConfig returns the stock sweep cadences.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		HealthInterval:   6 * time.Hour,
		RotationInterval: 12 * time.Hour,
		TestSweepHourUTC: 0,
		WarmupHourUTC:    6,
		DueTestBatch:     200,
	}
}

func (c SchedulerConfig) normalized() SchedulerConfig {
	def := DefaultSchedulerConfig()
	if c.HealthInterval <= 0 {
		c.HealthInterval = def.HealthInterval
	}
	if c.RotationInterval <= 0 {
		c.RotationInterval = def.RotationInterval
	}
	if c.DueTestBatch <= 0 {
		c.DueTestBatch = def.DueTestBatch
	}
	return c
}

// Scheduler drives the recurring sweeps. Every sweep turns fleet state
// into per-domain jobs; the queues do the actual work. The in-memory
// queue forgets delayed jobs on restart, so the daily test sweep (and
// one sweep at startup) re-enqueues anything whose persisted next test
// time has come due.
type Scheduler struct {
	cfg        SchedulerConfig
	domainRepo domain.DomainRepository
	poolRepo   domain.PoolRepository
	engine     EngineScheduler
	jobs       domain.JobEnqueuer
	jobLog     domain.JobLogRepository
	notifier   domain.NotificationService
	clock      clock.Clock
	logger     logger.Logger

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	stopped  chan struct{}
	sweepsWG sync.WaitGroup
}

// NewScheduler creates the sweep driver.
func NewScheduler(
	cfg SchedulerConfig,
	domainRepo domain.DomainRepository,
	poolRepo domain.PoolRepository,
	eng EngineScheduler,
	jobs domain.JobEnqueuer,
	jobLog domain.JobLogRepository,
	notifier domain.NotificationService,
	clk clock.Clock,
	log logger.Logger,
) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{
		cfg:        cfg.normalized(),
		domainRepo: domainRepo,
		poolRepo:   poolRepo,
		engine:     eng,
		jobs:       jobs,
		jobLog:     jobLog,
		notifier:   notifier,
		clock:      clk,
		logger:     log,
	}
}

// Start launches the sweep loops. The test sweep also runs once
// immediately to recover jobs lost to a restart.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.stopped = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("Starting sweep scheduler")
	s.sweepsWG.Add(4)
	go s.intervalLoop(ctx, "health", s.cfg.HealthInterval, s.healthSweep)
	go s.intervalLoop(ctx, "rotation", s.cfg.RotationInterval, s.rotationSweep)
	go s.dailyLoop(ctx, "test", s.cfg.TestSweepHourUTC, s.testSweep)
	go s.dailyLoop(ctx, "warmup", s.cfg.WarmupHourUTC, func(ctx context.Context) {
		s.warmupSweep(ctx)
		s.purgeJobLog(ctx)
	})

	// Startup recovery before the first scheduled sweep fires.
	s.testSweep(ctx)

	go func() {
		s.sweepsWG.Wait()
		close(s.stopped)
	}()
}

// Stop halts the sweep loops. In-flight sweeps finish; the jobs they
// enqueued drain with the queues.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.logger.Info("Stopping sweep scheduler...")
	select {
	case <-s.stopped:
		s.logger.Info("Sweep scheduler stopped")
	case <-time.After(10 * time.Second):
		s.logger.Warn("Sweep scheduler stop timeout exceeded")
	}
}

// IsRunning reports whether the sweep loops are active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) intervalLoop(ctx context.Context, name string, interval time.Duration, sweep func(context.Context)) {
	defer s.sweepsWG.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-s.clock.After(interval):
			s.runSweep(ctx, name, sweep)
		}
	}
}

// dailyLoop fires the sweep at the given UTC hour every day.
func (s *Scheduler) dailyLoop(ctx context.Context, name string, hourUTC int, sweep func(context.Context)) {
	defer s.sweepsWG.Done()
	for {
		now := s.clock.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-s.clock.After(next.Sub(now)):
			s.runSweep(ctx, name, sweep)
		}
	}
}

func (s *Scheduler) runSweep(ctx context.Context, name string, sweep func(context.Context)) {
	start := s.clock.Now()
	sweep(ctx)
	s.logger.WithFields(map[string]interface{}{
		"sweep":   name,
		"elapsed": s.clock.Now().Sub(start).String(),
	}).Debug("Sweep finished")
}

// healthSweep enqueues a health job for every active domain and a
// pool-level health check per pool.
func (s *Scheduler) healthSweep(ctx context.Context) {
	status := domain.DomainStatusActive
	domains, err := s.domainRepo.List(ctx, domain.DomainFilter{Status: &status})
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Health sweep failed to list domains")
		return
	}
	for _, d := range domains {
		s.enqueue(ctx, &domain.Job{
			Type:     domain.JobTypeHealth,
			DomainID: d.ID,
			Priority: domain.PriorityNormal,
			Payload:  domain.JobPayload{Reason: "health sweep"},
		})
	}
	for _, pool := range domain.PoolTypes {
		s.enqueue(ctx, &domain.Job{
			Type:     domain.JobTypeHealth,
			Priority: domain.PriorityLow,
			Payload:  domain.JobPayload{Pool: pool, Reason: "pool health sweep"},
		})
	}
}

// testSweep enqueues test jobs for every domain whose persisted next
// test time has come due, and plans a first test for domains that have
// none scheduled yet.
func (s *Scheduler) testSweep(ctx context.Context) {
	now := s.clock.Now()
	due, err := s.domainRepo.ListDueForTest(ctx, now, s.cfg.DueTestBatch)
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Test sweep failed to list due domains")
		return
	}
	for _, d := range due {
		s.enqueue(ctx, &domain.Job{
			Type:     domain.JobTypeTest,
			DomainID: d.ID,
			Priority: domain.PriorityNormal,
			Payload:  domain.JobPayload{Reason: "due placement test"},
		})
	}

	status := domain.DomainStatusActive
	domains, err := s.domainRepo.List(ctx, domain.DomainFilter{Status: &status})
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Test sweep failed to list domains")
		return
	}
	planned := 0
	for _, d := range domains {
		if d.Schedule.NextTestAt != nil {
			continue
		}
		if err := s.engine.ScheduleNextTest(ctx, d); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"domain_id": d.ID,
				"error":     err.Error(),
			}).Warn("Failed to plan first placement test")
			continue
		}
		planned++
	}
	if len(due) > 0 || planned > 0 {
		s.logger.WithFields(map[string]interface{}{
			"due":     len(due),
			"planned": planned,
		}).Info("Test sweep enqueued work")
	}
}

// warmupSweep enqueues a warmup push for every active domain.
func (s *Scheduler) warmupSweep(ctx context.Context) {
	status := domain.DomainStatusActive
	domains, err := s.domainRepo.List(ctx, domain.DomainFilter{Status: &status})
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Warmup sweep failed to list domains")
		return
	}
	for _, d := range domains {
		s.enqueue(ctx, &domain.Job{
			Type:     domain.JobTypeWarmup,
			DomainID: d.ID,
			Priority: domain.PriorityNormal,
			Payload:  domain.JobPayload{Reason: "warmup sweep"},
		})
	}
}

// rotationSweep enqueues rotations for active domains over the low
// score streak limit and reports replacement availability.
func (s *Scheduler) rotationSweep(ctx context.Context) {
	rules := domain.DefaultAutomationRules(domain.PoolActive)
	if pool, err := s.poolRepo.GetByType(ctx, domain.PoolActive); err == nil {
		rules = pool.Rules
	}

	active := domain.PoolActive
	status := domain.DomainStatusActive
	domains, err := s.domainRepo.List(ctx, domain.DomainFilter{Pool: &active, Status: &status})
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Rotation sweep failed to list active domains")
		return
	}
	for _, d := range domains {
		if d.ConsecutiveLowScores < rules.MaxConsecutiveLowScores {
			continue
		}
		s.enqueue(ctx, &domain.Job{
			Type:     domain.JobTypeRotation,
			DomainID: d.ID,
			Priority: domain.PriorityHigh,
			Payload:  domain.JobPayload{Reason: "rotation sweep: consecutive low scores"},
		})
	}

	s.reportReplacementAvailability(ctx)
}

// reportReplacementAvailability counts rotation-ready domains in the
// ready_waiting pool and notifies when the bench is short.
func (s *Scheduler) reportReplacementAvailability(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	ready := domain.PoolReadyWaiting
	status := domain.DomainStatusActive
	minScore := 85.0
	candidates, err := s.domainRepo.List(ctx, domain.DomainFilter{
		Pool:            &ready,
		Status:          &status,
		MinAverageScore: &minScore,
	})
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Rotation sweep failed to count replacements")
		return
	}
	if err := s.notifier.NotifyPoolStatus(ctx, domain.PoolReadyWaiting, len(candidates)); err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to report replacement availability")
	}
}

// purgeJobLog drops audit entries past their retention.
func (s *Scheduler) purgeJobLog(ctx context.Context) {
	if s.jobLog == nil {
		return
	}
	cutoff := s.clock.Now().Add(-domain.JobLogTTL)
	purged, err := s.jobLog.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Job log purge failed")
		return
	}
	if purged > 0 {
		s.logger.WithField("purged", purged).Info("Purged expired job log entries")
	}
}

func (s *Scheduler) enqueue(ctx context.Context, job *domain.Job) {
	job.ID = uuid.New().String()
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"job_type":  string(job.Type),
			"domain_id": job.DomainID,
			"error":     err.Error(),
		}).Error("Failed to enqueue sweep job")
	}
}
