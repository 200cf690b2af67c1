package engine

import (
	"context"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/Mailfleet/mailfleet/internal/service/queue"
)

// RegisterHandlers binds the engine's operations to the four job
// queues. The queue holds the per-domain lock while a handler runs, so
// every engine mutation of a given domain is serialized.
func (e *Engine) RegisterHandlers(q *queue.JobQueue) {
	q.RegisterHandler(domain.JobTypeHealth, func(ctx context.Context, job *domain.Job) error {
		if job.Payload.Pool != "" {
			return e.CheckPoolHealth(ctx, job.Payload.Pool, nil)
		}
		return e.MonitorDomainHealth(ctx, job.DomainID)
	})

	q.RegisterHandler(domain.JobTypeTest, func(ctx context.Context, job *domain.Job) error {
		if job.Payload.TestID != "" {
			return e.HandleTestResults(ctx, job.Payload.TestID)
		}
		return e.ExecuteTest(ctx, job.DomainID)
	})

	q.RegisterHandler(domain.JobTypeWarmup, func(ctx context.Context, job *domain.Job) error {
		return e.ApplyWarmupSettings(ctx, job.DomainID)
	})

	q.RegisterHandler(domain.JobTypeRotation, func(ctx context.Context, job *domain.Job) error {
		return e.ExecuteRotation(ctx, job.DomainID)
	})
}
