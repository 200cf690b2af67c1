package domain

import "context"

//go:generate mockgen -destination mocks/mock_engine_service.go -package mocks github.com/Mailfleet/mailfleet/internal/domain EngineService

// EngineService is the automation engine: it schedules placement tests,
// ingests their results, watches domain and pool health and performs
// rotations. Job handlers call into it; it never blocks on the queue.
type EngineService interface {
	// SchedulePoolTests plans the next placement test for every active
	// member of the pool and enqueues the test jobs.
	SchedulePoolTests(ctx context.Context, pool PoolType) error
	// ScheduleNextTest plans and enqueues the next test for one domain.
	ScheduleNextTest(ctx context.Context, domain *SendingDomain) error
	// ExecuteTest starts a placement test at the provider and records
	// the returned test id on the domain.
	ExecuteTest(ctx context.Context, domainID string) error
	// HandleTestResults ingests a finished test: history, health score,
	// low-score counter, transition evaluation, next test.
	HandleTestResults(ctx context.Context, testID string) error
	// MonitorDomainHealth refreshes the rolling health metrics and
	// flags domains that need rotating.
	MonitorDomainHealth(ctx context.Context, domainID string) error
	// CheckPoolHealth aggregates member health and raises an urgent
	// event when the pool average drops below the critical line. A
	// non-nil overrideScore replaces the computed average.
	CheckPoolHealth(ctx context.Context, pool PoolType, overrideScore *float64) error
	// ExecuteRotation swaps an unhealthy active domain for the best
	// ready replacement, moving campaigns across. Either both pool
	// changes land or neither does.
	ExecuteRotation(ctx context.Context, domainID string) error
	// ApplyWarmupSettings pushes the day's warmup volume for a domain
	// to the campaign platform.
	ApplyWarmupSettings(ctx context.Context, domainID string) error
}
