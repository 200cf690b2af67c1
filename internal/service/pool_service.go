package service

import (
	"context"
	"fmt"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/Mailfleet/mailfleet/pkg/clock"
	"github.com/Mailfleet/mailfleet/pkg/logger"
	"github.com/Mailfleet/mailfleet/pkg/ratelimiter"
	"github.com/Mailfleet/mailfleet/pkg/tracing"
)

// PoolService owns pool membership: it seeds the four pools, moves
// domains between them and aggregates member health. Every committed
// move publishes a rotation.triggered event after the write lands.
type PoolService struct {
	domainRepo  domain.DomainRepository
	poolRepo    domain.PoolRepository
	platform    domain.CampaignPlatform
	eventBus    domain.EventBus
	rateLimiter *ratelimiter.RateLimiter
	clock       clock.Clock
	logger      logger.Logger

	// minHealthScore is the health score at or above which a member
	// counts as healthy in pool metrics.
	minHealthScore int
}

// NewPoolService creates a pool service.
func NewPoolService(
	domainRepo domain.DomainRepository,
	poolRepo domain.PoolRepository,
	platform domain.CampaignPlatform,
	eventBus domain.EventBus,
	rateLimiter *ratelimiter.RateLimiter,
	clk clock.Clock,
	log logger.Logger,
	minHealthScore int,
) *PoolService {
	if clk == nil {
		clk = clock.New()
	}
	if minHealthScore <= 0 {
		minHealthScore = domain.LowScoreThreshold
	}
	return &PoolService{
		domainRepo:     domainRepo,
		poolRepo:       poolRepo,
		platform:       platform,
		eventBus:       eventBus,
		rateLimiter:    rateLimiter,
		clock:          clk,
		logger:         log,
		minHealthScore: minHealthScore,
	}
}

// InitializePools seeds any missing pool row with its stock settings
// and automation rules. Existing pools are left untouched.
func (s *PoolService) InitializePools(ctx context.Context) error {
	now := s.clock.Now()
	for _, poolType := range domain.PoolTypes {
		_, err := s.poolRepo.GetByType(ctx, poolType)
		if err == nil {
			continue
		}
		if domain.KindOf(err) != domain.ErrKindNotFound {
			return fmt.Errorf("failed to load pool %s: %w", poolType, err)
		}

		pool, err := domain.DefaultPool(poolType, now)
		if err != nil {
			return err
		}
		if err := s.poolRepo.Upsert(ctx, pool); err != nil {
			return fmt.Errorf("failed to seed pool %s: %w", poolType, err)
		}
		s.logger.WithField("pool", string(poolType)).Info("Seeded pool with default settings")
	}
	return nil
}

// TransitionDomain moves a domain into the target pool. The move is
// rate-limit gated, atomic with its rotation log entry, resets the
// consecutive-low counter and stamps the pool entry date. Moving a
// domain into the pool it already occupies succeeds without writing.
func (s *PoolService) TransitionDomain(ctx context.Context, domainID string, target domain.PoolType, reason string, opts ...domain.TransitionOption) error {
	if err := target.Validate(); err != nil {
		return err
	}

	d, err := s.domainRepo.GetByID(ctx, domainID)
	if err != nil {
		return err
	}
	if d.Pool == target {
		s.logger.WithFields(map[string]interface{}{
			"domain_id": domainID,
			"pool":      string(target),
		}).Debug("Domain already in target pool, nothing to do")
		return nil
	}

	options := domain.TransitionOptions{Action: domain.RotationActionRotatedOut}
	for _, opt := range opts {
		opt(&options)
	}

	if !options.Preauthorized && s.rateLimiter != nil && !s.rateLimiter.TryAcquire(domainID) {
		return domain.NewRateLimitedError(domainID, s.rateLimiter.RetryAfter(domainID))
	}

	event := domain.RotationEvent{
		At:          s.clock.Now(),
		From:        d.Pool,
		To:          target,
		Action:      options.Action,
		Reason:      reason,
		CampaignIDs: options.CampaignIDs,
		WithErrors:  options.ErrorsNoted,
	}

	updated, err := s.domainRepo.TransitionPool(ctx, domainID, target, event)
	if domain.KindOf(err) == domain.ErrKindConflict {
		// One retry with a refreshed snapshot; a second loss surfaces.
		updated, err = s.domainRepo.TransitionPool(ctx, domainID, target, event)
	}
	if err != nil {
		return err
	}

	if err := s.applyPresetSettings(ctx, updated, target); err != nil {
		// The move itself is committed; a failed settings refresh only
		// leaves the domain on its previous limits until the next sweep.
		s.logger.WithFields(map[string]interface{}{
			"domain_id": domainID,
			"pool":      string(target),
			"error":     err.Error(),
		}).Warn("Pool move committed but settings refresh failed")
	}

	tracing.RecordPoolTransition(ctx, string(target))
	s.logger.WithFields(map[string]interface{}{
		"domain_id": domainID,
		"from":      string(event.From),
		"to":        string(target),
		"reason":    reason,
	}).Info("Domain moved between pools")

	s.eventBus.Publish(ctx, domain.EventPayload{
		Type:       domain.EventRotationTriggered,
		DomainID:   domainID,
		Time:       event.At,
		TargetPool: target,
		Reason:     reason,
		Metadata:   map[string]string{"from": string(event.From)},
	})
	return nil
}

// applyPresetSettings refreshes the domain's sending and warmup
// settings to the class preset of its new pool. Custom mailboxes have
// no preset; their explicit settings ride along through the move and
// are only re-pushed to the platform.
func (s *PoolService) applyPresetSettings(ctx context.Context, d *domain.SendingDomain, target domain.PoolType) error {
	if d.Class != domain.MailboxCustom {
		preset, err := domain.PresetFor(d.Class, target)
		if err != nil {
			return err
		}
		d.Sending = preset.Sending
		d.Warmup = preset.Warmup
		d.UpdatedAt = s.clock.Now()
		if err := s.domainRepo.Update(ctx, d); err != nil {
			if domain.KindOf(err) != domain.ErrKindConflict {
				return err
			}
			fresh, gerr := s.domainRepo.GetByID(ctx, d.ID)
			if gerr != nil {
				return gerr
			}
			fresh.Sending = preset.Sending
			fresh.Warmup = preset.Warmup
			fresh.UpdatedAt = s.clock.Now()
			if err := s.domainRepo.Update(ctx, fresh); err != nil {
				return err
			}
			*d = *fresh
		}
	}

	if s.platform == nil || d.ExternalID == "" {
		return nil
	}
	update := domain.EmailAccountUpdate{
		MessagePerDay: d.Sending.DailyLimit,
		Type:          d.Class.AccountType(),
		Warmup: &domain.WarmupDetails{
			TotalWarmupPerDay:   d.Warmup.DailyEmails,
			ReplyRatePercentage: d.Warmup.ReplyRate,
			RandomizeMin:        d.Warmup.Randomize.Min,
			RandomizeMax:        d.Warmup.Randomize.Max,
			WeekdaysOnly:        d.Warmup.WeekdaysOnly,
		},
	}
	if d.Warmup.RampUp {
		update.Warmup.DailyRampup = d.Warmup.RampUpValue
	}
	return s.platform.UpdateEmailAccount(ctx, d.ExternalID, update)
}

// ApplyPoolSettings merges a settings patch into the pool row and
// cascades the result to every member domain.
func (s *PoolService) ApplyPoolSettings(ctx context.Context, poolType domain.PoolType, patch domain.PoolSettingsPatch) error {
	if patch.Empty() {
		return domain.NewValidationError("pool settings patch is empty")
	}

	pool, err := s.poolRepo.GetByType(ctx, poolType)
	if err != nil {
		return err
	}
	if patch.Sending != nil {
		pool.Sending = *patch.Sending
	}
	if patch.Warmup != nil {
		pool.Warmup = *patch.Warmup
	}
	if patch.Campaign != nil {
		pool.Campaign = *patch.Campaign
	}
	if patch.Rules != nil {
		pool.Rules = *patch.Rules
	}
	pool.UpdatedAt = s.clock.Now()
	if err := pool.Validate(); err != nil {
		return err
	}
	if err := s.poolRepo.Upsert(ctx, pool); err != nil {
		return err
	}

	members, err := s.domainRepo.List(ctx, domain.DomainFilter{Pool: &poolType})
	if err != nil {
		return err
	}
	for _, member := range members {
		if patch.Sending != nil {
			member.Sending = *patch.Sending
		}
		if patch.Warmup != nil {
			member.Warmup = *patch.Warmup
		}
		member.UpdatedAt = s.clock.Now()
		if err := s.domainRepo.Update(ctx, member); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"domain_id": member.ID,
				"pool":      string(poolType),
				"error":     err.Error(),
			}).Warn("Failed to cascade pool settings to member")
			continue
		}
		if s.platform != nil && member.ExternalID != "" && patch.Sending != nil {
			if err := s.platform.UpdateEmailAccount(ctx, member.ExternalID, domain.EmailAccountUpdate{
				MessagePerDay: member.Sending.DailyLimit,
				Type:          member.Class.AccountType(),
			}); err != nil {
				s.logger.WithFields(map[string]interface{}{
					"domain_id": member.ID,
					"error":     err.Error(),
				}).Warn("Failed to push pool settings to campaign platform")
			}
		}
	}
	return nil
}

// CheckGraduation evaluates the domain against its pool's transition
// rules without moving it.
func (s *PoolService) CheckGraduation(ctx context.Context, domainID string) (*domain.TransitionDecision, error) {
	d, err := s.domainRepo.GetByID(ctx, domainID)
	if err != nil {
		return nil, err
	}
	pool, err := s.poolRepo.GetByType(ctx, d.Pool)
	if err != nil {
		return nil, err
	}
	decision := domain.EvaluateTransition(d, pool.Rules, s.clock.Now())
	return &decision, nil
}

// GetPoolMetrics aggregates member counts, health and risk factors for
// one pool.
func (s *PoolService) GetPoolMetrics(ctx context.Context, poolType domain.PoolType) (*domain.PoolMetrics, error) {
	if err := poolType.Validate(); err != nil {
		return nil, err
	}
	members, err := s.domainRepo.List(ctx, domain.DomainFilter{Pool: &poolType})
	if err != nil {
		return nil, err
	}

	metrics := &domain.PoolMetrics{
		Pool:         poolType,
		TotalDomains: len(members),
		ComputedAt:   s.clock.Now(),
	}
	if len(members) == 0 {
		return metrics, nil
	}

	sum := 0
	for _, member := range members {
		sum += member.HealthScore
		if member.HealthScore >= s.minHealthScore {
			metrics.HealthyDomains++
		}
	}
	metrics.AverageScore = float64(sum) / float64(len(members))

	if metrics.AverageScore < float64(s.minHealthScore) {
		metrics.RiskFactors = append(metrics.RiskFactors, "Low average health score")
	}
	unhealthy := metrics.TotalDomains - metrics.HealthyDomains
	if float64(unhealthy)/float64(metrics.TotalDomains) > 0.2 {
		metrics.RiskFactors = append(metrics.RiskFactors, "High proportion of unhealthy domains")
	}
	return metrics, nil
}
