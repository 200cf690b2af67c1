package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mailfleet/mailfleet/internal/domain"
)

func TestPresetFor(t *testing.T) {
	t.Run("standard mailboxes warm slowly", func(t *testing.T) {
		for _, pool := range []domain.PoolType{
			domain.PoolInitialWarming, domain.PoolReadyWaiting, domain.PoolRecovery,
		} {
			p, err := domain.PresetFor(domain.MailboxStandardMS, pool)
			require.NoError(t, err)

			assert.Equal(t, 1, p.Sending.DailyLimit, pool)
			assert.Equal(t, 600, p.Sending.MinTimeGap, pool)
			assert.Equal(t, 40, p.Warmup.DailyEmails, pool)
			assert.True(t, p.Warmup.RampUp, pool)
			assert.Equal(t, 3, p.Warmup.RampUpValue, pool)
			assert.Equal(t, 25, p.Warmup.Randomize.Min, pool)
			assert.Equal(t, 40, p.Warmup.Randomize.Max, pool)
			assert.Equal(t, 80, p.Warmup.ReplyRate, pool)
			assert.True(t, p.Warmup.WeekdaysOnly, pool)
		}
	})

	t.Run("standard active", func(t *testing.T) {
		p, err := domain.PresetFor(domain.MailboxStandardMS, domain.PoolActive)
		require.NoError(t, err)

		assert.Equal(t, 20, p.Sending.DailyLimit)
		assert.Equal(t, 15, p.Sending.MinTimeGap)
		assert.Equal(t, 20, p.Warmup.DailyEmails)
		assert.False(t, p.Warmup.RampUp)
	})

	t.Run("special active", func(t *testing.T) {
		p, err := domain.PresetFor(domain.MailboxSpecialMS, domain.PoolActive)
		require.NoError(t, err)

		assert.Equal(t, 8, p.Sending.DailyLimit)
		assert.Equal(t, 60, p.Sending.MinTimeGap)
		assert.Equal(t, 40, p.Warmup.DailyEmails)
	})

	t.Run("every preset validates", func(t *testing.T) {
		classes := []domain.MailboxClass{
			domain.MailboxStandardMS, domain.MailboxSpecialMS,
		}
		for _, class := range classes {
			for _, pool := range domain.PoolTypes {
				p, err := domain.PresetFor(class, pool)
				require.NoError(t, err)
				assert.NoError(t, p.Sending.Validate(), "%s/%s sending", class, pool)
				assert.NoError(t, p.Warmup.Validate(), "%s/%s warmup", class, pool)
			}
		}
	})

	t.Run("custom mailboxes have no preset", func(t *testing.T) {
		for _, pool := range domain.PoolTypes {
			_, err := domain.PresetFor(domain.MailboxCustom, pool)
			require.Error(t, err, pool)
			assert.Equal(t, domain.ErrKindNotFound, domain.KindOf(err), pool)
		}
	})

	t.Run("unknown class fails", func(t *testing.T) {
		_, err := domain.PresetFor(domain.MailboxClass("exotic"), domain.PoolActive)
		require.Error(t, err)
		assert.Equal(t, domain.ErrKindInvalidSettings, domain.KindOf(err))
	})
}

func TestValidateSettingsForClass(t *testing.T) {
	t.Run("inside the cap", func(t *testing.T) {
		err := domain.ValidateSettingsForClass(
			domain.MailboxStandardMS, domain.PoolActive,
			domain.SendingSettings{DailyLimit: 15, MinTimeGap: 30})
		assert.NoError(t, err)
	})

	t.Run("daily limit above the class cap", func(t *testing.T) {
		err := domain.ValidateSettingsForClass(
			domain.MailboxSpecialMS, domain.PoolActive,
			domain.SendingSettings{DailyLimit: 20, MinTimeGap: 60})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds")
	})

	t.Run("gap under the class floor", func(t *testing.T) {
		err := domain.ValidateSettingsForClass(
			domain.MailboxStandardMS, domain.PoolInitialWarming,
			domain.SendingSettings{DailyLimit: 1, MinTimeGap: 300})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "floor")
	})

	t.Run("base validation still applies", func(t *testing.T) {
		err := domain.ValidateSettingsForClass(
			domain.MailboxStandardMS, domain.PoolActive,
			domain.SendingSettings{DailyLimit: 0, MinTimeGap: 30})
		require.Error(t, err)
	})

	t.Run("custom skips the caps", func(t *testing.T) {
		err := domain.ValidateSettingsForClass(
			domain.MailboxCustom, domain.PoolInitialWarming,
			domain.SendingSettings{DailyLimit: 100, MinTimeGap: 15})
		assert.NoError(t, err)
	})

	t.Run("custom still passes base validation", func(t *testing.T) {
		err := domain.ValidateSettingsForClass(
			domain.MailboxCustom, domain.PoolActive,
			domain.SendingSettings{DailyLimit: 10, MinTimeGap: 5})
		require.Error(t, err)
		assert.Equal(t, domain.ErrKindInvalidSettings, domain.KindOf(err))
	})
}

func TestSettingsValidation(t *testing.T) {
	tests := []struct {
		name    string
		sending domain.SendingSettings
		wantErr string
	}{
		{"valid", domain.SendingSettings{DailyLimit: 10, MinTimeGap: 15}, ""},
		{"zero daily limit", domain.SendingSettings{DailyLimit: 0, MinTimeGap: 30}, "daily limit"},
		{"gap under fifteen", domain.SendingSettings{DailyLimit: 10, MinTimeGap: 14}, "min time gap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sending.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}

	warmupTests := []struct {
		name    string
		warmup  domain.WarmupSettings
		wantErr string
	}{
		{"valid ramp", domain.WarmupSettings{
			DailyEmails: 40, RampUp: true, RampUpValue: 3,
			Randomize: domain.RandomizeRange{Min: 25, Max: 40}, ReplyRate: 80,
		}, ""},
		{"randomize inverted", domain.WarmupSettings{
			DailyEmails: 40, Randomize: domain.RandomizeRange{Min: 40, Max: 25},
		}, "randomize"},
		{"randomize equal is invalid", domain.WarmupSettings{
			DailyEmails: 40, Randomize: domain.RandomizeRange{Min: 30, Max: 30},
		}, "randomize"},
		{"ramp step too small", domain.WarmupSettings{
			DailyEmails: 40, RampUp: true, RampUpValue: 2,
			Randomize: domain.RandomizeRange{Min: 25, Max: 40},
		}, "ramp up value"},
		{"ramp step too large", domain.WarmupSettings{
			DailyEmails: 40, RampUp: true, RampUpValue: 41,
			Randomize: domain.RandomizeRange{Min: 25, Max: 40},
		}, "ramp up value"},
		{"reply rate out of range", domain.WarmupSettings{
			DailyEmails: 40, Randomize: domain.RandomizeRange{Min: 25, Max: 40}, ReplyRate: 101,
		}, "reply rate"},
	}
	for _, tt := range warmupTests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.warmup.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, domain.ErrKindInvalidSettings, domain.KindOf(err))
			}
		})
	}
}

func TestTestFrequencyFor(t *testing.T) {
	assert.Equal(t, 84*time.Hour, domain.TestFrequencyFor(domain.PoolActive),
		"active domains are tested twice a week")
	assert.Equal(t, 504*time.Hour, domain.TestFrequencyFor(domain.PoolInitialWarming))
	assert.Equal(t, 504*time.Hour, domain.TestFrequencyFor(domain.PoolReadyWaiting))
	assert.Equal(t, 504*time.Hour, domain.TestFrequencyFor(domain.PoolRecovery))
}

func TestDefaultAutomationRules(t *testing.T) {
	rules := domain.DefaultAutomationRules(domain.PoolInitialWarming)
	assert.Equal(t, 75, rules.MinScore)
	assert.Equal(t, 3, rules.MinTests)
	assert.Equal(t, 21, rules.GraduationDays)
	assert.Equal(t, 21, rules.RecoveryDays)
	assert.Equal(t, 2, rules.MaxConsecutiveLowScores)
	assert.Nil(t, rules.NotifyBelowScore)
	assert.NoError(t, rules.Validate())

	active := domain.DefaultAutomationRules(domain.PoolActive)
	require.NotNil(t, active.NotifyBelowScore)
	assert.Equal(t, 60, *active.NotifyBelowScore)
}

func TestDefaultPool(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, poolType := range domain.PoolTypes {
		pool, err := domain.DefaultPool(poolType, now)
		require.NoError(t, err)
		assert.Equal(t, poolType, pool.Type)
		assert.NoError(t, pool.Validate(), poolType)
	}

	warming, err := domain.DefaultPool(domain.PoolInitialWarming, now)
	require.NoError(t, err)
	assert.True(t, warming.Campaign.SendAsPlainText)

	active, err := domain.DefaultPool(domain.PoolActive, now)
	require.NoError(t, err)
	assert.False(t, active.Campaign.SendAsPlainText)
}
