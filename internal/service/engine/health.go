package engine

import (
	"context"
	"fmt"

	"github.com/Mailfleet/mailfleet/internal/domain"
)

// MonitorDomainHealth refreshes the domain's rolling health metrics
// and raises a rotation alert when it has slipped: either too many low
// scores in a row or a rolling average under the monitor floor. The
// alert is informational; the rotation sweep decides whether to act.
func (e *Engine) MonitorDomainHealth(ctx context.Context, domainID string) error {
	d, err := e.domainRepo.GetByID(ctx, domainID)
	if err != nil {
		return err
	}
	if !d.IsActive() {
		return nil
	}

	now := e.clock.Now()
	d.RefreshHealthMetrics(now)
	d.UpdatedAt = now
	if err := e.updateDomain(ctx, d); err != nil {
		return err
	}

	rules, err := e.poolRules(ctx, d.Pool)
	if err != nil {
		return err
	}

	lowStreak := d.ConsecutiveLowScores >= rules.MaxConsecutiveLowScores
	lowAverage := d.HealthMetrics.TestCount > 0 && d.HealthMetrics.AverageScore < e.cfg.MonitorMinAverage
	if !lowStreak && !lowAverage {
		return nil
	}

	e.logger.WithFields(map[string]interface{}{
		"domain_id":              domainID,
		"pool":                   string(d.Pool),
		"average_score":          d.HealthMetrics.AverageScore,
		"consecutive_low_scores": d.ConsecutiveLowScores,
	}).Warn("Domain health degraded")

	e.eventBus.Publish(ctx, domain.EventPayload{
		Type:     domain.EventRotationTriggered,
		DomainID: domainID,
		Time:     now,
		Reason:   "Health check triggered rotation",
		Metadata: map[string]string{
			"pool":          string(d.Pool),
			"average_score": fmt.Sprintf("%.1f", d.HealthMetrics.AverageScore),
		},
	})
	return nil
}

// CheckPoolHealth aggregates the average health score across the
// members of a pool and publishes an urgent health event when it falls
// under the critical line. A non-nil overrideScore replaces the
// computed average.
func (e *Engine) CheckPoolHealth(ctx context.Context, pool domain.PoolType, overrideScore *float64) error {
	if err := pool.Validate(); err != nil {
		return err
	}

	var average float64
	if overrideScore != nil {
		average = *overrideScore
	} else {
		members, err := e.domainRepo.List(ctx, domain.DomainFilter{Pool: &pool})
		if err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		sum := 0
		for _, member := range members {
			sum += member.HealthScore
		}
		average = float64(sum) / float64(len(members))
	}

	if average >= e.cfg.PoolCriticalAverage {
		return nil
	}

	message := fmt.Sprintf("Pool %s health critical: average score %.0f is below %.0f",
		pool.Label(), average, e.cfg.PoolCriticalAverage)
	e.logger.WithFields(map[string]interface{}{
		"pool":          string(pool),
		"average_score": average,
	}).Warn(message)

	e.eventBus.Publish(ctx, domain.EventPayload{
		Type:   domain.EventHealthCheckNeeded,
		Time:   e.clock.Now(),
		Urgent: true,
		Reason: message,
		Metadata: map[string]string{
			"pool":          string(pool),
			"average_score": fmt.Sprintf("%.0f", average),
		},
	})
	return nil
}
