package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Mailfleet/mailfleet/internal/domain"
)

var transitionNow = time.Date(2024, 6, 22, 12, 0, 0, 0, time.UTC)

// fleetDomain builds a domain in the given pool with one completed test
// per score, most recent last.
func fleetDomain(pool domain.PoolType, enteredDaysAgo int, scores ...int) *domain.SendingDomain {
	d := &domain.SendingDomain{
		ID:            "4fa6b3f1-58bb-4a66-b9f3-7e6c11b2a001",
		Name:          "mail.acme.com",
		TenantID:      "tenant-1",
		ExternalID:    "ext-1",
		Pool:          pool,
		Class:         domain.MailboxStandardMS,
		Status:        domain.DomainStatusActive,
		PoolEnteredAt: transitionNow.Add(-time.Duration(enteredDaysAgo) * 24 * time.Hour),
	}
	for i, score := range scores {
		completed := transitionNow.Add(-time.Duration(len(scores)-i) * 24 * time.Hour)
		d.TestHistory = append(d.TestHistory, domain.TestRecord{
			TestID:       "test-" + string(rune('a'+i)),
			Score:        score,
			InboxPercent: score,
			SpamPercent:  100 - score,
			CompletedAt:  completed,
		})
	}
	return d
}

func rules() domain.AutomationRules {
	return domain.DefaultAutomationRules(domain.PoolInitialWarming)
}

func TestEvaluateTransition_InitialWarming(t *testing.T) {
	t.Run("graduates after 21 days with three passing scores", func(t *testing.T) {
		d := fleetDomain(domain.PoolInitialWarming, 21, 80, 78, 82)
		decision := domain.EvaluateTransition(d, rules(), transitionNow)

		assert.True(t, decision.ShouldTransition)
		assert.Equal(t, domain.PoolReadyWaiting, decision.TargetPool)
		assert.Contains(t, decision.Reason, "Graduated")
	})

	t.Run("too few days in pool", func(t *testing.T) {
		d := fleetDomain(domain.PoolInitialWarming, 20, 80, 78, 82)
		decision := domain.EvaluateTransition(d, rules(), transitionNow)

		assert.False(t, decision.ShouldTransition)
		assert.Contains(t, decision.Reason, "20 days in pool")
		assert.Contains(t, decision.Reason, "21")
	})

	t.Run("a partial day does not count", func(t *testing.T) {
		d := fleetDomain(domain.PoolInitialWarming, 21, 80, 78, 82)
		// 20 days and 23 hours in pool
		d.PoolEnteredAt = transitionNow.Add(-(20*24 + 23) * time.Hour)
		decision := domain.EvaluateTransition(d, rules(), transitionNow)

		assert.False(t, decision.ShouldTransition)
	})

	t.Run("too few tests", func(t *testing.T) {
		d := fleetDomain(domain.PoolInitialWarming, 25, 80, 82)
		decision := domain.EvaluateTransition(d, rules(), transitionNow)

		assert.False(t, decision.ShouldTransition)
		assert.Contains(t, decision.Reason, "2 test results")
	})

	t.Run("mean below threshold", func(t *testing.T) {
		d := fleetDomain(domain.PoolInitialWarming, 25, 75, 75, 74)
		decision := domain.EvaluateTransition(d, rules(), transitionNow)

		assert.False(t, decision.ShouldTransition)
		assert.Contains(t, decision.Reason, "74.7")
	})

	t.Run("mean of exactly 75 passes", func(t *testing.T) {
		d := fleetDomain(domain.PoolInitialWarming, 25, 74, 75, 76)
		decision := domain.EvaluateTransition(d, rules(), transitionNow)

		assert.True(t, decision.ShouldTransition)
		assert.Equal(t, domain.PoolReadyWaiting, decision.TargetPool)
	})

	t.Run("only the last three scores count", func(t *testing.T) {
		// Old failures do not matter once recent scores pass
		d := fleetDomain(domain.PoolInitialWarming, 25, 10, 20, 80, 78, 82)
		decision := domain.EvaluateTransition(d, rules(), transitionNow)

		assert.True(t, decision.ShouldTransition)
	})
}

func TestEvaluateTransition_ReadyWaiting(t *testing.T) {
	readyRules := domain.DefaultAutomationRules(domain.PoolReadyWaiting)

	t.Run("promotes with active campaign", func(t *testing.T) {
		d := fleetDomain(domain.PoolReadyWaiting, 5, 80, 78, 82)
		d.Campaigns = domain.CampaignRefs{
			{ID: "camp-1", Status: domain.CampaignStatusActive},
		}
		decision := domain.EvaluateTransition(d, readyRules, transitionNow)

		assert.True(t, decision.ShouldTransition)
		assert.Equal(t, domain.PoolActive, decision.TargetPool)
	})

	t.Run("stays without an active campaign", func(t *testing.T) {
		d := fleetDomain(domain.PoolReadyWaiting, 5, 80, 78, 82)
		d.Campaigns = domain.CampaignRefs{
			{ID: "camp-1", Status: domain.CampaignStatusPaused},
		}
		decision := domain.EvaluateTransition(d, readyRules, transitionNow)

		assert.False(t, decision.ShouldTransition)
		assert.Equal(t, "no active campaign", decision.Reason)
	})

	t.Run("no minimum stay requirement", func(t *testing.T) {
		d := fleetDomain(domain.PoolReadyWaiting, 0, 80, 78, 82)
		d.Campaigns = domain.CampaignRefs{
			{ID: "camp-1", Status: domain.CampaignStatusActive},
		}
		decision := domain.EvaluateTransition(d, readyRules, transitionNow)

		assert.True(t, decision.ShouldTransition)
	})

	t.Run("score slipped below threshold", func(t *testing.T) {
		d := fleetDomain(domain.PoolReadyWaiting, 5, 70, 72, 68)
		d.Campaigns = domain.CampaignRefs{
			{ID: "camp-1", Status: domain.CampaignStatusActive},
		}
		decision := domain.EvaluateTransition(d, readyRules, transitionNow)

		assert.False(t, decision.ShouldTransition)
	})
}

func TestEvaluateTransition_Active(t *testing.T) {
	activeRules := domain.DefaultAutomationRules(domain.PoolActive)

	t.Run("moves to recovery after two consecutive low scores", func(t *testing.T) {
		d := fleetDomain(domain.PoolActive, 40, 80, 70, 65)
		d.ConsecutiveLowScores = 2
		decision := domain.EvaluateTransition(d, activeRules, transitionNow)

		assert.True(t, decision.ShouldTransition)
		assert.Equal(t, domain.PoolRecovery, decision.TargetPool)
		assert.Contains(t, decision.Reason, "2 consecutive scores below 75")
	})

	t.Run("one low score is not enough", func(t *testing.T) {
		d := fleetDomain(domain.PoolActive, 40, 80, 82, 65)
		d.ConsecutiveLowScores = 1
		decision := domain.EvaluateTransition(d, activeRules, transitionNow)

		assert.False(t, decision.ShouldTransition)
		assert.Contains(t, decision.Reason, "1 consecutive low scores")
	})
}

func TestEvaluateTransition_Recovery(t *testing.T) {
	recoveryRules := domain.DefaultAutomationRules(domain.PoolRecovery)

	t.Run("returns to ready after recovery period with all scores passing", func(t *testing.T) {
		d := fleetDomain(domain.PoolRecovery, 21, 75, 80, 78)
		decision := domain.EvaluateTransition(d, recoveryRules, transitionNow)

		assert.True(t, decision.ShouldTransition)
		assert.Equal(t, domain.PoolReadyWaiting, decision.TargetPool)
		assert.Contains(t, decision.Reason, "Recovered")
	})

	t.Run("every score must pass, not just the mean", func(t *testing.T) {
		// Mean is 81 but one score is below 75
		d := fleetDomain(domain.PoolRecovery, 25, 74, 84, 85)
		decision := domain.EvaluateTransition(d, recoveryRules, transitionNow)

		assert.False(t, decision.ShouldTransition)
		assert.Contains(t, decision.Reason, "74")
	})

	t.Run("still inside the recovery period", func(t *testing.T) {
		d := fleetDomain(domain.PoolRecovery, 10, 80, 82, 85)
		decision := domain.EvaluateTransition(d, recoveryRules, transitionNow)

		assert.False(t, decision.ShouldTransition)
		assert.Contains(t, decision.Reason, "10 days in recovery")
	})
}

func TestEvaluateTransition_DeactivatedDomainNeverMoves(t *testing.T) {
	d := fleetDomain(domain.PoolInitialWarming, 30, 90, 92, 95)
	d.Status = domain.DomainStatusDeactivated

	decision := domain.EvaluateTransition(d, rules(), transitionNow)

	assert.False(t, decision.ShouldTransition)
	assert.Equal(t, "domain is deactivated", decision.Reason)
}
