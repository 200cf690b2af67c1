package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mailfleet/mailfleet/internal/domain"
)

func TestEngine_ApplyWarmupSettings_PushesRampedVolume(t *testing.T) {
	f := newEngineFixture(t, nil)
	d := fixtureDomain(domain.PoolInitialWarming)
	d.PoolEnteredAt = fixtureStart.Add(-3 * 24 * time.Hour)
	d.Warmup = domain.WarmupSettings{
		DailyEmails: 50,
		RampUp:      true,
		RampUpValue: 5,
		Randomize:   domain.RandomizeRange{Min: 10, Max: 50},
		ReplyRate:   30,
	}

	f.domains.EXPECT().GetByID(gomock.Any(), d.ID).Return(d, nil)

	var pushed domain.EmailAccountUpdate
	f.platform.EXPECT().UpdateEmailAccount(gomock.Any(), d.ExternalID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, update domain.EmailAccountUpdate) error {
			pushed = update
			return nil
		})

	require.NoError(t, f.engine.ApplyWarmupSettings(context.Background(), d.ID))

	require.NotNil(t, pushed.Warmup)
	// Day 3 of ramp-up at 5/day: (3+1)*5 = 20.
	assert.Equal(t, 20, pushed.Warmup.TotalWarmupPerDay)
	assert.Equal(t, 5, pushed.Warmup.DailyRampup)
	assert.Equal(t, 30, pushed.Warmup.ReplyRatePercentage)
	assert.Equal(t, d.Sending.DailyLimit, pushed.MessagePerDay)
	assert.Equal(t, domain.AccountTypeOutlook, pushed.Type)

	updates := f.eventsOfType(domain.EventWarmupUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, "20", updates[0].Metadata["daily_emails"])
}

func TestEngine_ApplyWarmupSettings_RampCapsAtTarget(t *testing.T) {
	f := newEngineFixture(t, nil)
	d := fixtureDomain(domain.PoolInitialWarming)
	d.PoolEnteredAt = fixtureStart.Add(-40 * 24 * time.Hour)
	d.Warmup = domain.WarmupSettings{
		DailyEmails: 50,
		RampUp:      true,
		RampUpValue: 5,
		Randomize:   domain.RandomizeRange{Min: 10, Max: 50},
	}

	f.domains.EXPECT().GetByID(gomock.Any(), d.ID).Return(d, nil)
	f.platform.EXPECT().UpdateEmailAccount(gomock.Any(), d.ExternalID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, update domain.EmailAccountUpdate) error {
			assert.Equal(t, 50, update.Warmup.TotalWarmupPerDay)
			return nil
		})

	require.NoError(t, f.engine.ApplyWarmupSettings(context.Background(), d.ID))
}

func TestEngine_ApplyWarmupSettings_SkipsWeekends(t *testing.T) {
	f := newEngineFixture(t, nil)
	// 2025-03-15 is a Saturday.
	f.clock.Set(time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC))
	d := fixtureDomain(domain.PoolInitialWarming)
	d.Warmup.WeekdaysOnly = true

	f.domains.EXPECT().GetByID(gomock.Any(), d.ID).Return(d, nil)

	require.NoError(t, f.engine.ApplyWarmupSettings(context.Background(), d.ID))
	assert.Empty(t, f.events)
}

func TestEngine_ApplyWarmupSettings_MissingAccountIsInvalid(t *testing.T) {
	f := newEngineFixture(t, nil)
	d := fixtureDomain(domain.PoolInitialWarming)
	d.ExternalID = ""

	f.domains.EXPECT().GetByID(gomock.Any(), d.ID).Return(d, nil)

	err := f.engine.ApplyWarmupSettings(context.Background(), d.ID)
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindInvalidSettings, domain.KindOf(err))
}

func TestEngine_ApplyWarmupSettings_PlatformFailureIsTransient(t *testing.T) {
	f := newEngineFixture(t, nil)
	d := fixtureDomain(domain.PoolInitialWarming)

	f.domains.EXPECT().GetByID(gomock.Any(), d.ID).Return(d, nil)
	f.platform.EXPECT().UpdateEmailAccount(gomock.Any(), d.ExternalID, gomock.Any()).
		Return(errors.New("timeout"))

	err := f.engine.ApplyWarmupSettings(context.Background(), d.ID)
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindTransient, domain.KindOf(err))
}
