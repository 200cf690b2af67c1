package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mailfleet/mailfleet/internal/domain"
)

func completedRecord(id string, score int, at time.Time) domain.TestRecord {
	return domain.TestRecord{
		TestID:       id,
		Score:        score,
		InboxPercent: score,
		SpamPercent:  100 - score,
		CompletedAt:  at,
	}
}

func TestNewSendingDomain(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("starts warming with class presets", func(t *testing.T) {
		d, err := domain.NewSendingDomain(
			"4fa6b3f1-58bb-4a66-b9f3-7e6c11b2a001",
			"mail.acme.com", "tenant-1", "ext-9",
			domain.MailboxStandardMS, now)
		require.NoError(t, err)

		assert.Equal(t, domain.PoolInitialWarming, d.Pool)
		assert.Equal(t, domain.DomainStatusActive, d.Status)
		assert.Equal(t, now, d.PoolEnteredAt)
		assert.Equal(t, 1, d.Sending.DailyLimit)
		assert.Equal(t, 600, d.Sending.MinTimeGap)
		assert.True(t, d.Warmup.RampUp)
		assert.Equal(t, 40, d.Warmup.DailyEmails)
		assert.True(t, d.Warmup.WeekdaysOnly)
	})

	t.Run("rejects a name that is not a dns name", func(t *testing.T) {
		_, err := domain.NewSendingDomain(
			"4fa6b3f1-58bb-4a66-b9f3-7e6c11b2a001",
			"not a domain!", "tenant-1", "ext-9",
			domain.MailboxStandardMS, now)
		require.Error(t, err)
		assert.Equal(t, domain.ErrKindInvalidSettings, domain.KindOf(err))
	})

	t.Run("rejects a non-uuid id", func(t *testing.T) {
		_, err := domain.NewSendingDomain(
			"dom-1", "mail.acme.com", "tenant-1", "ext-9",
			domain.MailboxStandardMS, now)
		require.Error(t, err)
	})

	t.Run("rejects an unknown class", func(t *testing.T) {
		_, err := domain.NewSendingDomain(
			"4fa6b3f1-58bb-4a66-b9f3-7e6c11b2a001",
			"mail.acme.com", "tenant-1", "ext-9",
			domain.MailboxClass("exotic"), now)
		require.Error(t, err)
	})

	t.Run("custom mailboxes need explicit settings", func(t *testing.T) {
		_, err := domain.NewSendingDomain(
			"4fa6b3f1-58bb-4a66-b9f3-7e6c11b2a001",
			"mail.acme.com", "tenant-1", "ext-9",
			domain.MailboxCustom, now)
		require.Error(t, err)
		assert.Equal(t, domain.ErrKindNotFound, domain.KindOf(err))

		d, err := domain.NewCustomSendingDomain(
			"4fa6b3f1-58bb-4a66-b9f3-7e6c11b2a001",
			"mail.acme.com", "tenant-1", "ext-9",
			domain.SendingSettings{DailyLimit: 55, MinTimeGap: 17},
			domain.WarmupSettings{DailyEmails: 40, Randomize: domain.RandomizeRange{Min: 25, Max: 40}},
			now)
		require.NoError(t, err)
		assert.Equal(t, domain.MailboxCustom, d.Class)
		assert.Equal(t, 55, d.Sending.DailyLimit)
	})
}

func TestSendingDomain_ApplyTestResult(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("health score is the rounded mean of the last three", func(t *testing.T) {
		d := fleetDomain(domain.PoolActive, 10)
		require.NoError(t, d.ApplyTestResult(completedRecord("t1", 80, base)))
		require.NoError(t, d.ApplyTestResult(completedRecord("t2", 75, base.Add(24*time.Hour))))
		require.NoError(t, d.ApplyTestResult(completedRecord("t3", 77, base.Add(48*time.Hour))))

		// (80+75+77)/3 = 77.33 -> 77
		assert.Equal(t, 77, d.HealthScore)

		require.NoError(t, d.ApplyTestResult(completedRecord("t4", 90, base.Add(72*time.Hour))))
		// (75+77+90)/3 = 80.67 -> 81
		assert.Equal(t, 81, d.HealthScore)
	})

	t.Run("history is capped at ten, oldest dropped", func(t *testing.T) {
		d := fleetDomain(domain.PoolActive, 10)
		for i := 0; i < 12; i++ {
			rec := completedRecord("t", 80, base.Add(time.Duration(i)*24*time.Hour))
			rec.TestID = rec.TestID + string(rune('a'+i))
			require.NoError(t, d.ApplyTestResult(rec))
		}

		require.Len(t, d.TestHistory, domain.MaxTestHistory)
		assert.Equal(t, "tc", d.TestHistory[0].TestID, "the two oldest entries should be gone")
		assert.Equal(t, "tl", d.TestHistory[len(d.TestHistory)-1].TestID)
	})

	t.Run("history stays ordered by completion time", func(t *testing.T) {
		d := fleetDomain(domain.PoolActive, 10)
		// Results can arrive out of order
		require.NoError(t, d.ApplyTestResult(completedRecord("t2", 70, base.Add(24*time.Hour))))
		require.NoError(t, d.ApplyTestResult(completedRecord("t1", 90, base)))

		assert.Equal(t, "t1", d.TestHistory[0].TestID)
		assert.Equal(t, "t2", d.TestHistory[1].TestID)
	})

	t.Run("low scores increment the counter, a pass resets it", func(t *testing.T) {
		d := fleetDomain(domain.PoolActive, 10)

		require.NoError(t, d.ApplyTestResult(completedRecord("t1", 74, base)))
		assert.Equal(t, 1, d.ConsecutiveLowScores)

		require.NoError(t, d.ApplyTestResult(completedRecord("t2", 60, base.Add(24*time.Hour))))
		assert.Equal(t, 2, d.ConsecutiveLowScores)

		// 75 is not low
		require.NoError(t, d.ApplyTestResult(completedRecord("t3", 75, base.Add(48*time.Hour))))
		assert.Equal(t, 0, d.ConsecutiveLowScores)
	})

	t.Run("clears the active test marker", func(t *testing.T) {
		d := fleetDomain(domain.PoolActive, 10)
		testID := "t1"
		d.Schedule.ActiveTestID = &testID

		require.NoError(t, d.ApplyTestResult(completedRecord("t1", 80, base)))
		assert.Nil(t, d.Schedule.ActiveTestID)
	})

	t.Run("rejects an invalid record", func(t *testing.T) {
		d := fleetDomain(domain.PoolActive, 10)
		bad := completedRecord("t1", 80, base)
		bad.InboxPercent = 50 // 50+20 != 100
		bad.SpamPercent = 20

		err := d.ApplyTestResult(bad)
		require.Error(t, err)
		assert.Empty(t, d.TestHistory)
	})
}

func TestSendingDomain_LastScores(t *testing.T) {
	d := fleetDomain(domain.PoolActive, 10, 60, 70, 80, 90)

	assert.Equal(t, []int{80, 90}, d.LastScores(2))
	assert.Equal(t, []int{60, 70, 80, 90}, d.LastScores(10))
	assert.Nil(t, d.LastScores(0))

	empty := fleetDomain(domain.PoolActive, 10)
	assert.Nil(t, empty.LastScores(3))
}

func TestSendingDomain_DaysInPool(t *testing.T) {
	now := time.Date(2024, 6, 22, 12, 0, 0, 0, time.UTC)
	d := fleetDomain(domain.PoolRecovery, 0)

	d.PoolEnteredAt = now.Add(-36 * time.Hour)
	assert.Equal(t, 1, d.DaysInPool(now), "36 hours is one whole day")

	d.PoolEnteredAt = now.Add(-24 * time.Hour)
	assert.Equal(t, 1, d.DaysInPool(now))

	d.PoolEnteredAt = now.Add(-23 * time.Hour)
	assert.Equal(t, 0, d.DaysInPool(now))

	d.PoolEnteredAt = now.Add(time.Hour)
	assert.Equal(t, 0, d.DaysInPool(now), "a future entry date counts as zero")
}

func TestSendingDomain_RefreshHealthMetrics(t *testing.T) {
	now := time.Date(2024, 6, 22, 12, 0, 0, 0, time.UTC)
	d := fleetDomain(domain.PoolActive, 10, 50, 60, 70, 80, 90, 100)

	d.RefreshHealthMetrics(now)

	// Last five: 60,70,80,90,100
	assert.Equal(t, 80.0, d.HealthMetrics.AverageScore)
	assert.Equal(t, 5, d.HealthMetrics.TestCount)
	assert.Equal(t, now, d.HealthMetrics.LastUpdated)

	fresh := fleetDomain(domain.PoolActive, 10)
	fresh.RefreshHealthMetrics(now)
	assert.Zero(t, fresh.HealthMetrics.AverageScore)
	assert.Zero(t, fresh.HealthMetrics.TestCount)
}

func TestSendingDomain_Campaigns(t *testing.T) {
	d := fleetDomain(domain.PoolActive, 10)
	d.Campaigns = domain.CampaignRefs{
		{ID: "camp-1", Status: domain.CampaignStatusActive},
		{ID: "camp-2", Status: domain.CampaignStatusPaused},
		{ID: "camp-3", Status: domain.CampaignStatusActive},
	}

	assert.True(t, d.HasActiveCampaign())
	assert.Equal(t, []string{"camp-1", "camp-3"}, d.ActiveCampaignIDs())

	d.Campaigns = domain.CampaignRefs{{ID: "camp-1", Status: domain.CampaignStatusStopped}}
	assert.False(t, d.HasActiveCampaign())
	assert.Nil(t, d.ActiveCampaignIDs())
}

func TestSendingDomain_EnterPool(t *testing.T) {
	now := time.Date(2024, 6, 22, 12, 0, 0, 0, time.UTC)
	d := fleetDomain(domain.PoolActive, 40)
	d.ConsecutiveLowScores = 2

	d.EnterPool(domain.PoolRecovery, now)

	assert.Equal(t, domain.PoolRecovery, d.Pool)
	assert.Equal(t, now, d.PoolEnteredAt)
	assert.Zero(t, d.ConsecutiveLowScores, "pool changes reset the low-score counter")
}

func TestSendingDomain_AppendRotationEvent(t *testing.T) {
	now := time.Date(2024, 6, 22, 12, 0, 0, 0, time.UTC)
	d := fleetDomain(domain.PoolActive, 40)

	d.AppendRotationEvent(domain.RotationEvent{
		At:     now,
		From:   domain.PoolActive,
		To:     domain.PoolRecovery,
		Reason: "2 consecutive scores below 75",
	})

	require.Len(t, d.RotationLog, 1)
	assert.Equal(t, domain.RotationActionMoved, d.RotationLog[0].Action, "action defaults to moved")

	d.AppendRotationEvent(domain.RotationEvent{
		At:     now,
		From:   domain.PoolActive,
		To:     domain.PoolRecovery,
		Action: domain.RotationActionRotatedOut,
	})
	assert.Equal(t, domain.RotationActionRotatedOut, d.RotationLog[1].Action)
}

func TestSendingDomain_Deactivate(t *testing.T) {
	now := time.Date(2024, 6, 22, 12, 0, 0, 0, time.UTC)
	d := fleetDomain(domain.PoolActive, 40)
	next := now.Add(84 * time.Hour)
	d.Schedule.NextTestAt = &next

	d.Deactivate(now)

	assert.Equal(t, domain.DomainStatusDeactivated, d.Status)
	assert.False(t, d.IsActive())
	assert.Nil(t, d.Schedule.NextTestAt, "deactivated domains are never tested")
}

func TestWarmupSettings_EffectiveDailyEmails(t *testing.T) {
	w := domain.WarmupSettings{
		DailyEmails: 40,
		RampUp:      true,
		RampUpValue: 3,
		Randomize:   domain.RandomizeRange{Min: 25, Max: 40},
		ReplyRate:   80,
	}

	assert.Equal(t, 3, w.EffectiveDailyEmails(0))
	assert.Equal(t, 6, w.EffectiveDailyEmails(1))
	assert.Equal(t, 30, w.EffectiveDailyEmails(9))
	assert.Equal(t, 40, w.EffectiveDailyEmails(13), "ramp caps at the daily target")
	assert.Equal(t, 40, w.EffectiveDailyEmails(100))
	assert.Equal(t, 3, w.EffectiveDailyEmails(-1))

	flat := domain.WarmupSettings{DailyEmails: 20}
	assert.Equal(t, 20, flat.EffectiveDailyEmails(0), "no ramp means the target applies at once")
}
