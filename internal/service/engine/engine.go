package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/Mailfleet/mailfleet/pkg/clock"
	"github.com/Mailfleet/mailfleet/pkg/logger"
	"github.com/Mailfleet/mailfleet/pkg/ratelimiter"
)

// Engine is the automation core: it plans placement tests, ingests
// their results, watches health and swaps unhealthy domains out of
// their campaigns. Engine methods are invoked from job handlers, which
// hold a per-domain lock, so a single domain is never mutated from two
// goroutines at once.
type Engine struct {
	cfg         Config
	domainRepo  domain.DomainRepository
	poolRepo    domain.PoolRepository
	testRepo    domain.PlacementTestRepository
	placement   domain.PlacementProvider
	platform    domain.CampaignPlatform
	pools       domain.PoolService
	notifier    domain.NotificationService
	eventBus    domain.EventBus
	jobs        domain.JobEnqueuer
	rateLimiter *ratelimiter.RateLimiter
	clock       clock.Clock
	logger      logger.Logger
}

// New wires the engine. All collaborators are required except the rate
// limiter, which may be nil to disable gating (tests).
func New(
	cfg Config,
	domainRepo domain.DomainRepository,
	poolRepo domain.PoolRepository,
	testRepo domain.PlacementTestRepository,
	placement domain.PlacementProvider,
	platform domain.CampaignPlatform,
	pools domain.PoolService,
	notifier domain.NotificationService,
	eventBus domain.EventBus,
	jobs domain.JobEnqueuer,
	limiter *ratelimiter.RateLimiter,
	clk clock.Clock,
	log logger.Logger,
) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	return &Engine{
		cfg:         cfg.normalized(),
		domainRepo:  domainRepo,
		poolRepo:    poolRepo,
		testRepo:    testRepo,
		placement:   placement,
		platform:    platform,
		pools:       pools,
		notifier:    notifier,
		eventBus:    eventBus,
		jobs:        jobs,
		rateLimiter: limiter,
		clock:       clk,
		logger:      log,
	}
}

// SchedulePoolTests plans the next placement test for every active
// member of the pool and enqueues the test jobs.
func (e *Engine) SchedulePoolTests(ctx context.Context, pool domain.PoolType) error {
	if err := pool.Validate(); err != nil {
		return err
	}
	rules, err := e.poolRules(ctx, pool)
	if err != nil {
		return err
	}
	status := domain.DomainStatusActive
	members, err := e.domainRepo.List(ctx, domain.DomainFilter{Pool: &pool, Status: &status})
	if err != nil {
		return err
	}

	var firstErr error
	for _, member := range members {
		if err := e.scheduleNextTest(ctx, member, rules); err != nil {
			e.logger.WithFields(map[string]interface{}{
				"domain_id": member.ID,
				"pool":      string(pool),
				"error":     err.Error(),
			}).Warn("Failed to schedule placement test")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ScheduleNextTest plans and enqueues the next placement test for one
// domain, using its pool's test cadence.
func (e *Engine) ScheduleNextTest(ctx context.Context, d *domain.SendingDomain) error {
	rules, err := e.poolRules(ctx, d.Pool)
	if err != nil {
		return err
	}
	return e.scheduleNextTest(ctx, d, rules)
}

func (e *Engine) scheduleNextTest(ctx context.Context, d *domain.SendingDomain, rules domain.AutomationRules) error {
	if !d.IsActive() {
		return nil
	}
	now := e.clock.Now()
	next := now.Add(rules.TestFrequency)
	d.Schedule.NextTestAt = &next
	d.RefreshHealthMetrics(now)
	d.UpdatedAt = now

	if err := e.updateDomain(ctx, d); err != nil {
		return err
	}

	job := &domain.Job{
		ID:       uuid.New().String(),
		Type:     domain.JobTypeTest,
		DomainID: d.ID,
		Priority: domain.PriorityNormal,
		RunAt:    next,
		Payload:  domain.JobPayload{Reason: "scheduled placement test"},
	}
	if err := e.jobs.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue test job: %w", err)
	}

	e.eventBus.Publish(ctx, domain.EventPayload{
		Type:     domain.EventTestScheduled,
		DomainID: d.ID,
		Time:     now,
		Reason:   "scheduled placement test",
		Metadata: map[string]string{"next_test_at": next.UTC().Format("2006-01-02T15:04:05Z07:00")},
	})
	return nil
}

// ExecuteTest starts a placement test at the provider and records the
// returned test id on the domain. A domain with a test already in
// flight is left alone.
func (e *Engine) ExecuteTest(ctx context.Context, domainID string) error {
	d, err := e.domainRepo.GetByID(ctx, domainID)
	if err != nil {
		return err
	}
	if !d.IsActive() {
		e.logger.WithField("domain_id", domainID).Debug("Skipping test for deactivated domain")
		return nil
	}
	if d.Schedule.ActiveTestID != nil {
		e.logger.WithFields(map[string]interface{}{
			"domain_id": domainID,
			"test_id":   *d.Schedule.ActiveTestID,
		}).Debug("Placement test already in flight, not starting another")
		return nil
	}

	descriptor, err := e.placement.CreateTest(ctx, d.Name)
	if err != nil {
		if domain.KindOf(err) == domain.ErrKindTransient {
			return domain.NewTransientError("failed to create placement test", domainID, err)
		}
		return err
	}

	now := e.clock.Now()
	test := &domain.PlacementTest{
		ID:           descriptor.ID,
		DomainID:     d.ID,
		FilterPhrase: descriptor.FilterPhrase,
		Status:       domain.TestStatusCreated,
		SeedEmails:   descriptor.SeedEmails,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.testRepo.Create(ctx, test); err != nil {
		return err
	}

	d.Schedule.ActiveTestID = &test.ID
	d.UpdatedAt = now
	if err := e.updateDomain(ctx, d); err != nil {
		return err
	}

	// Fallback result polling: the provider webhook normally ingests
	// the result first, and HandleTestResults is a no-op the second
	// time around.
	poll := &domain.Job{
		ID:       uuid.New().String(),
		Type:     domain.JobTypeTest,
		DomainID: d.ID,
		Priority: domain.PriorityLow,
		RunAt:    now.Add(resultPollDelay),
		Payload:  domain.JobPayload{TestID: test.ID, Reason: "poll placement test result"},
	}
	if err := e.jobs.Enqueue(ctx, poll); err != nil {
		e.logger.WithFields(map[string]interface{}{
			"domain_id": d.ID,
			"test_id":   test.ID,
			"error":     err.Error(),
		}).Warn("Failed to enqueue result poll job, relying on the provider webhook")
	}

	e.logger.WithFields(map[string]interface{}{
		"domain_id": d.ID,
		"test_id":   test.ID,
	}).Info("Placement test started")
	return nil
}

// resultPollDelay is how long after starting a test the fallback
// result poll first fires.
const resultPollDelay = 30 * time.Minute

// HandleTestResults ingests a finished placement test: it appends the
// score to the domain's history, refreshes the health score and the
// consecutive-low counter, evaluates the pool transition and always
// plans the next test. Re-ingesting a completed test is a no-op.
func (e *Engine) HandleTestResults(ctx context.Context, testID string) error {
	test, err := e.testRepo.GetByID(ctx, testID)
	if err != nil {
		return err
	}
	if test.IsCompleted() {
		e.logger.WithField("test_id", testID).Debug("Test already ingested, nothing to do")
		return nil
	}

	result, err := e.placement.GetTest(ctx, testID)
	if err != nil {
		if domain.KindOf(err) == domain.ErrKindTransient {
			return domain.NewTransientError("failed to fetch placement test result", test.DomainID, err)
		}
		return err
	}
	if result.Status != domain.TestStatusCompleted {
		// The provider has not finished scoring; the retry backoff of
		// the test queue doubles as the polling interval.
		return domain.NewTransientError(
			fmt.Sprintf("placement test not completed yet (status %s)", result.Status),
			test.DomainID, nil)
	}
	if result.OverallScore == nil || result.CompletedAt == nil {
		return domain.NewFatalError(
			fmt.Sprintf("completed placement test %s is missing its score or completion time", testID), nil)
	}

	now := e.clock.Now()
	test.Status = domain.TestStatusCompleted
	test.SeedEmails = result.SeedEmails
	test.OverallScore = *result.OverallScore
	test.CompletedAt = result.CompletedAt
	test.ComputeSplits()
	if test.InboxPercent+test.SpamPercent != 100 {
		// No seed folders reported; derive the split from the score.
		test.InboxPercent = test.OverallScore
		test.SpamPercent = 100 - test.OverallScore
	}
	test.UpdatedAt = now
	if err := e.testRepo.Update(ctx, test); err != nil {
		return err
	}

	d, err := e.domainRepo.GetByID(ctx, test.DomainID)
	if err != nil {
		return err
	}

	rec, err := test.Record()
	if err != nil {
		return err
	}
	alreadyIngested := false
	for _, prev := range d.TestHistory {
		if prev.TestID == rec.TestID {
			alreadyIngested = true
			break
		}
	}
	if !alreadyIngested {
		if err := d.ApplyTestResult(rec); err != nil {
			return err
		}
		d.RefreshHealthMetrics(now)
		d.UpdatedAt = now
		if err := e.updateDomain(ctx, d); err != nil {
			return err
		}
	}

	score := rec.Score
	e.eventBus.Publish(ctx, domain.EventPayload{
		Type:     domain.EventScoreUpdated,
		DomainID: d.ID,
		Time:     now,
		Score:    &score,
		Reason:   fmt.Sprintf("placement test %s completed", test.ID),
	})

	rules, err := e.poolRules(ctx, d.Pool)
	if err != nil {
		return err
	}
	decision := domain.EvaluateTransition(d, rules, now)
	if decision.ShouldTransition {
		if err := e.pools.TransitionDomain(ctx, d.ID, decision.TargetPool, decision.Reason); err != nil {
			return err
		}
		// The move rewrote pool, entry date and counters; plan the next
		// test from the fresh row.
		d, err = e.domainRepo.GetByID(ctx, d.ID)
		if err != nil {
			return err
		}
	}

	return e.ScheduleNextTest(ctx, d)
}

// poolRules loads the automation rules for a pool, falling back to the
// stock rules when the pool row is missing.
func (e *Engine) poolRules(ctx context.Context, pool domain.PoolType) (domain.AutomationRules, error) {
	row, err := e.poolRepo.GetByType(ctx, pool)
	if err != nil {
		if domain.KindOf(err) == domain.ErrKindNotFound {
			return domain.DefaultAutomationRules(pool), nil
		}
		return domain.AutomationRules{}, err
	}
	return row.Rules, nil
}

// updateDomain persists a domain, absorbing one optimistic concurrency
// loss. The retry reapplies only the fields the engine writes (the
// test schedule, history, derived health numbers and campaign refs)
// onto the fresh snapshot, so a concurrently committed pool move keeps
// its pool, entry date and rotation log.
func (e *Engine) updateDomain(ctx context.Context, d *domain.SendingDomain) error {
	err := e.domainRepo.Update(ctx, d)
	if domain.KindOf(err) != domain.ErrKindConflict {
		return err
	}
	fresh, gerr := e.domainRepo.GetByID(ctx, d.ID)
	if gerr != nil {
		return gerr
	}
	fresh.Schedule = d.Schedule
	fresh.TestHistory = d.TestHistory
	fresh.HealthScore = d.HealthScore
	fresh.HealthMetrics = d.HealthMetrics
	fresh.Campaigns = d.Campaigns
	if fresh.Pool == d.Pool {
		// A pool move resets the low-score counter; only carry ours
		// over when no move landed in between.
		fresh.ConsecutiveLowScores = d.ConsecutiveLowScores
	}
	fresh.UpdatedAt = d.UpdatedAt
	if uerr := e.domainRepo.Update(ctx, fresh); uerr != nil {
		return uerr
	}
	*d = *fresh
	return nil
}
