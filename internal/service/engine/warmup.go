package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Mailfleet/mailfleet/internal/domain"
)

// ApplyWarmupSettings computes the day's warmup volume for a domain
// and pushes it to the campaign platform. Ramp-up grows the volume by
// the ramp step per day in pool until the target; weekdays-only
// domains skip weekend pushes.
func (e *Engine) ApplyWarmupSettings(ctx context.Context, domainID string) error {
	d, err := e.domainRepo.GetByID(ctx, domainID)
	if err != nil {
		return err
	}
	if !d.IsActive() {
		return nil
	}
	if d.ExternalID == "" {
		return domain.NewValidationError(fmt.Sprintf("domain %s has no campaign platform account", domainID))
	}

	now := e.clock.Now()
	if d.Warmup.WeekdaysOnly {
		weekday := now.UTC().Weekday()
		if weekday == time.Saturday || weekday == time.Sunday {
			e.logger.WithField("domain_id", domainID).Debug("Weekdays-only warmup, skipping weekend push")
			return nil
		}
	}

	volume := d.Warmup.EffectiveDailyEmails(d.DaysInPool(now))
	update := domain.EmailAccountUpdate{
		MessagePerDay: d.Sending.DailyLimit,
		Type:          d.Class.AccountType(),
		Warmup: &domain.WarmupDetails{
			TotalWarmupPerDay:   volume,
			ReplyRatePercentage: d.Warmup.ReplyRate,
			RandomizeMin:        d.Warmup.Randomize.Min,
			RandomizeMax:        d.Warmup.Randomize.Max,
			WeekdaysOnly:        d.Warmup.WeekdaysOnly,
		},
	}
	if d.Warmup.RampUp {
		update.Warmup.DailyRampup = d.Warmup.RampUpValue
	}

	if err := e.platform.UpdateEmailAccount(ctx, d.ExternalID, update); err != nil {
		if domain.KindOf(err) == domain.ErrKindTransient {
			return domain.NewTransientError("failed to push warmup settings", domainID, err)
		}
		return err
	}

	e.logger.WithFields(map[string]interface{}{
		"domain_id": domainID,
		"volume":    volume,
	}).Debug("Warmup settings pushed")

	e.eventBus.Publish(ctx, domain.EventPayload{
		Type:     domain.EventWarmupUpdate,
		DomainID: domainID,
		Time:     now,
		Metadata: map[string]string{
			"daily_emails": fmt.Sprintf("%d", volume),
			"pool":         string(d.Pool),
		},
	})
	return nil
}
