package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/Mailfleet/mailfleet/pkg/clock"
	"github.com/Mailfleet/mailfleet/pkg/logger"
	"github.com/Mailfleet/mailfleet/pkg/mailer"
)

// NotificationService turns engine findings into human-facing
// notifications. Every notification lands in the UI feed; critical
// ones are additionally emailed to the operator address. A failed
// email never fails the UI path.
type NotificationService struct {
	repo       domain.NotificationRepository
	mailer     mailer.Mailer
	alertEmail string
	clock      clock.Clock
	logger     logger.Logger

	// criticalScore and warningScore split low-score notifications
	// into critical (below criticalScore) and warning.
	criticalScore int
	warningScore  int
}

// NewNotificationService creates a notification service. A nil mailer
// or empty alert address disables the email channel.
func NewNotificationService(
	repo domain.NotificationRepository,
	m mailer.Mailer,
	alertEmail string,
	clk clock.Clock,
	log logger.Logger,
	criticalScore, warningScore int,
) *NotificationService {
	if clk == nil {
		clk = clock.New()
	}
	if criticalScore <= 0 {
		criticalScore = 60
	}
	if warningScore <= 0 {
		warningScore = domain.LowScoreThreshold
	}
	return &NotificationService{
		repo:          repo,
		mailer:        m,
		alertEmail:    alertEmail,
		clock:         clk,
		logger:        log,
		criticalScore: criticalScore,
		warningScore:  warningScore,
	}
}

// Notify persists a notification and, for critical ones, emails the
// operator.
func (s *NotificationService) Notify(ctx context.Context, kind domain.NotificationKind, title, message, domainID string) error {
	if err := kind.Validate(); err != nil {
		return err
	}

	notification := &domain.Notification{
		ID:        uuid.New().String(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		DomainID:  domainID,
		Channels:  domain.NotificationChannels{UI: true},
		CreatedAt: s.clock.Now(),
	}

	emailWanted := kind == domain.NotificationCritical && s.mailer != nil && s.alertEmail != ""
	if emailWanted {
		alert := mailer.Alert{
			Severity: string(kind),
			Title:    title,
			Message:  message,
			DomainID: domainID,
		}
		if err := s.mailer.SendAlert(s.alertEmail, alert); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"title": title,
				"error": err.Error(),
			}).Error("Failed to email alert, UI notification still created")
		} else {
			notification.Channels.Email = true
		}
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to persist notification: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"kind":      string(kind),
		"title":     title,
		"domain_id": domainID,
		"emailed":   notification.Channels.Email,
	}).Info("Notification created")
	return nil
}

// NotifyLowDomainScore reports a low placement score: critical below
// the critical line, warning otherwise.
func (s *NotificationService) NotifyLowDomainScore(ctx context.Context, domainID string, score int) error {
	kind := domain.NotificationWarning
	if score < s.criticalScore {
		kind = domain.NotificationCritical
	}
	title := "Low placement score"
	message := fmt.Sprintf("Domain %s scored %d on its latest placement test", domainID, score)
	return s.Notify(ctx, kind, title, message, domainID)
}

// NotifyFailedRotation reports a rotation that could not be performed.
func (s *NotificationService) NotifyFailedRotation(ctx context.Context, domainID, reason string) error {
	title := "Rotation failed"
	message := fmt.Sprintf("Domain %s could not be rotated: %s", domainID, reason)
	return s.Notify(ctx, domain.NotificationCritical, title, message, domainID)
}

// NotifyPoolStatus reports replacement availability: critical at zero,
// warning under three, silent otherwise.
func (s *NotificationService) NotifyPoolStatus(ctx context.Context, pool domain.PoolType, available int) error {
	var kind domain.NotificationKind
	switch {
	case available == 0:
		kind = domain.NotificationCritical
	case available < 3:
		kind = domain.NotificationWarning
	default:
		return nil
	}
	title := fmt.Sprintf("%s pool running low", pool.Label())
	message := fmt.Sprintf("Pool %s has %d replacement-ready domains", pool.Label(), available)
	return s.Notify(ctx, kind, title, message, "")
}

// NotifyTestCompleted reports the outcome of a placement test run.
func (s *NotificationService) NotifyTestCompleted(ctx context.Context, domainID string, success bool, details string) error {
	kind := domain.NotificationInfo
	title := "Placement test completed"
	if !success {
		kind = domain.NotificationWarning
		title = "Placement test failed"
	}
	return s.Notify(ctx, kind, title, details, domainID)
}

// RegisterWithEventBus wires the notification side effects of engine
// events: low scores raise score notifications, urgent pool health
// events raise critical alerts.
func (s *NotificationService) RegisterWithEventBus(bus domain.EventBus) {
	bus.Subscribe(domain.EventScoreUpdated, func(ctx context.Context, event domain.EventPayload) {
		if event.Score == nil || *event.Score >= s.warningScore {
			return
		}
		if err := s.NotifyLowDomainScore(ctx, event.DomainID, *event.Score); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"domain_id": event.DomainID,
				"error":     err.Error(),
			}).Error("Failed to create low score notification")
		}
	})

	bus.Subscribe(domain.EventHealthCheckNeeded, func(ctx context.Context, event domain.EventPayload) {
		if !event.Urgent {
			return
		}
		if err := s.Notify(ctx, domain.NotificationCritical, "Pool health alert", event.Reason, event.DomainID); err != nil {
			s.logger.WithField("error", err.Error()).Error("Failed to create pool health notification")
		}
	})
}
