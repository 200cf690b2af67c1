package engine

import (
	"context"
	"fmt"

	"github.com/Mailfleet/mailfleet/internal/domain"
)

// ExecuteRotation swaps an unhealthy active domain out of its
// campaigns: the best ready_waiting replacement takes over every
// ACTIVE campaign, the source moves to recovery and the replacement to
// active. Both pool moves land or neither does. Campaign platform
// failures are recorded on the rotation events but do not veto the
// moves.
func (e *Engine) ExecuteRotation(ctx context.Context, domainID string) error {
	source, err := e.domainRepo.GetByID(ctx, domainID)
	if err != nil {
		return err
	}
	if source.Pool == domain.PoolRecovery {
		e.logger.WithField("domain_id", domainID).Debug("Domain already in recovery, rotation not needed")
		return nil
	}

	replacement, err := e.findReplacementDomain(ctx, source.ID)
	if err != nil {
		return err
	}
	if replacement == nil {
		e.logger.WithField("domain_id", domainID).Warn("No replacement domain available for rotation")
		if e.notifier != nil {
			if nerr := e.notifier.NotifyFailedRotation(ctx, domainID, "no replacement domain available"); nerr != nil {
				e.logger.WithField("error", nerr.Error()).Error("Failed to create rotation failure notification")
			}
		}
		// A handled outcome, not a job failure: retrying will not mint
		// a replacement, and the pool status sweep reports the shortage.
		return nil
	}

	// Both moves need a permit before anything mutates, so the pair
	// cannot stall halfway through.
	if e.rateLimiter != nil {
		if !e.rateLimiter.TryAcquire(source.ID) {
			return domain.NewRateLimitedError(source.ID, e.rateLimiter.RetryAfter(source.ID))
		}
		if !e.rateLimiter.TryAcquire(replacement.ID) {
			return domain.NewRateLimitedError(replacement.ID, e.rateLimiter.RetryAfter(replacement.ID))
		}
	}

	campaignIDs := source.ActiveCampaignIDs()
	var failedCampaigns []string
	for _, campaignID := range campaignIDs {
		if err := e.platform.UpdateCampaignDomain(ctx, campaignID, source.ExternalID, replacement.ExternalID); err != nil {
			failedCampaigns = append(failedCampaigns, campaignID)
			e.logger.WithFields(map[string]interface{}{
				"campaign_id": campaignID,
				"from":        source.ExternalID,
				"to":          replacement.ExternalID,
				"error":       err.Error(),
			}).Error("Failed to repoint campaign during rotation")
		}
	}

	outOpts := []domain.TransitionOption{
		domain.WithRotationAction(domain.RotationActionRotatedOut),
		domain.WithCampaignIDs(campaignIDs),
		domain.WithPreauthorized(),
	}
	inOpts := []domain.TransitionOption{
		domain.WithRotationAction(domain.RotationActionRotatedIn),
		domain.WithCampaignIDs(campaignIDs),
		domain.WithPreauthorized(),
	}
	if len(failedCampaigns) > 0 {
		outOpts = append(outOpts, domain.WithErrorsNoted())
		inOpts = append(inOpts, domain.WithErrorsNoted())
	}

	outReason := fmt.Sprintf("Rotated out of active pool, replaced by %s", replacement.Name)
	if err := e.pools.TransitionDomain(ctx, source.ID, domain.PoolRecovery, outReason, outOpts...); err != nil {
		return err
	}

	inReason := fmt.Sprintf("Rotated in as replacement for %s", source.Name)
	if err := e.pools.TransitionDomain(ctx, replacement.ID, domain.PoolActive, inReason, inOpts...); err != nil {
		// Compensate: pull the source back so the fleet is not left a
		// domain short in the active pool.
		rollbackReason := fmt.Sprintf("Rotation rollback: replacement %s failed to activate", replacement.Name)
		if rerr := e.pools.TransitionDomain(ctx, source.ID, domain.PoolActive, rollbackReason,
			domain.WithRotationAction(domain.RotationActionRotatedIn), domain.WithPreauthorized()); rerr != nil {
			e.logger.WithFields(map[string]interface{}{
				"domain_id": source.ID,
				"error":     rerr.Error(),
			}).Error("Rotation rollback failed, pools are inconsistent")
			return domain.NewFatalError("rotation rollback failed", rerr)
		}
		return err
	}

	if err := e.reassignCampaigns(ctx, source.ID, replacement.ID, campaignIDs); err != nil {
		e.logger.WithFields(map[string]interface{}{
			"source_id":      source.ID,
			"replacement_id": replacement.ID,
			"error":          err.Error(),
		}).Warn("Pool moves committed but campaign reassignment on the domain rows failed")
	}

	e.logger.WithFields(map[string]interface{}{
		"source_id":        source.ID,
		"replacement_id":   replacement.ID,
		"campaigns":        len(campaignIDs),
		"failed_campaigns": len(failedCampaigns),
	}).Info("Rotation completed")

	if len(failedCampaigns) > 0 && e.notifier != nil {
		message := fmt.Sprintf("Rotation of %s completed with errors: campaigns %v could not be repointed", source.Name, failedCampaigns)
		if nerr := e.notifier.Notify(ctx, domain.NotificationWarning, "Rotation completed with errors", message, source.ID); nerr != nil {
			e.logger.WithField("error", nerr.Error()).Error("Failed to create rotation warning notification")
		}
	}
	return nil
}

// findReplacementDomain returns the healthiest ready_waiting domain at
// or above the replacement floor, or nil when none qualifies.
func (e *Engine) findReplacementDomain(ctx context.Context, excludeID string) (*domain.SendingDomain, error) {
	pool := domain.PoolReadyWaiting
	status := domain.DomainStatusActive
	minScore := e.cfg.ReplacementMinScore
	candidates, err := e.domainRepo.List(ctx, domain.DomainFilter{
		Pool:            &pool,
		Status:          &status,
		MinAverageScore: &minScore,
	})
	if err != nil {
		return nil, err
	}

	var best *domain.SendingDomain
	for _, candidate := range candidates {
		if candidate.ID == excludeID {
			continue
		}
		if best == nil || candidate.HealthMetrics.AverageScore > best.HealthMetrics.AverageScore {
			best = candidate
		}
	}
	return best, nil
}

// reassignCampaigns moves the rotated campaign refs from the source
// row to the replacement row so the fleet's view matches the platform.
func (e *Engine) reassignCampaigns(ctx context.Context, sourceID, replacementID string, campaignIDs []string) error {
	if len(campaignIDs) == 0 {
		return nil
	}
	moved := make(map[string]bool, len(campaignIDs))
	for _, id := range campaignIDs {
		moved[id] = true
	}

	source, err := e.domainRepo.GetByID(ctx, sourceID)
	if err != nil {
		return err
	}
	var kept domain.CampaignRefs
	var transferred domain.CampaignRefs
	for _, ref := range source.Campaigns {
		if moved[ref.ID] {
			transferred = append(transferred, ref)
		} else {
			kept = append(kept, ref)
		}
	}
	source.Campaigns = kept
	source.UpdatedAt = e.clock.Now()
	if err := e.updateDomain(ctx, source); err != nil {
		return err
	}

	replacement, err := e.domainRepo.GetByID(ctx, replacementID)
	if err != nil {
		return err
	}
	replacement.Campaigns = append(replacement.Campaigns, transferred...)
	replacement.UpdatedAt = e.clock.Now()
	return e.updateDomain(ctx, replacement)
}
