package domain

import (
	"context"
	"fmt"
	"time"
)

//go:generate mockgen -destination mocks/mock_notification_repository.go -package mocks github.com/Mailfleet/mailfleet/internal/domain NotificationRepository
//go:generate mockgen -destination mocks/mock_notification_service.go -package mocks github.com/Mailfleet/mailfleet/internal/domain NotificationService

// NotificationKind classifies how loudly a notification is delivered.
type NotificationKind string

const (
	NotificationCritical NotificationKind = "critical"
	NotificationWarning  NotificationKind = "warning"
	NotificationInfo     NotificationKind = "info"
)

func (k NotificationKind) Validate() error {
	switch k {
	case NotificationCritical, NotificationWarning, NotificationInfo:
		return nil
	default:
		return NewValidationError(fmt.Sprintf("invalid notification kind: %s", string(k)))
	}
}

// NotificationChannels flags where a notification was delivered.
type NotificationChannels struct {
	UI    bool `json:"ui"`
	Email bool `json:"email"`
}

// Notification is a human-facing message raised by the engine.
type Notification struct {
	ID        string               `json:"id"`
	Kind      NotificationKind     `json:"kind"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	DomainID  string               `json:"domain_id,omitempty"`
	Channels  NotificationChannels `json:"channels"`
	Read      bool                 `json:"read"`
	CreatedAt time.Time            `json:"created_at"`
}

func (n *Notification) Validate() error {
	if n.ID == "" {
		return NewValidationError("notification: id is required")
	}
	if err := n.Kind.Validate(); err != nil {
		return err
	}
	if n.Title == "" {
		return NewValidationError("notification: title is required")
	}
	return nil
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	MarkRead(ctx context.Context, id string) error
	// ListUnread returns unread notifications, optionally narrowed to
	// one kind, newest first.
	ListUnread(ctx context.Context, kind *NotificationKind) ([]*Notification, error)
}

// NotificationService classifies engine findings and fans them out to
// the UI feed (always) and email (critical only, by default). A failed
// email send never fails the UI path.
type NotificationService interface {
	// Notify persists and delivers a notification of the given kind.
	Notify(ctx context.Context, kind NotificationKind, title, message, domainID string) error
	// NotifyLowDomainScore raises a critical notification under 60 and
	// a warning otherwise.
	NotifyLowDomainScore(ctx context.Context, domainID string, score int) error
	NotifyFailedRotation(ctx context.Context, domainID, reason string) error
	// NotifyPoolStatus reports replacement availability: critical at
	// zero, warning under three.
	NotifyPoolStatus(ctx context.Context, pool PoolType, available int) error
	NotifyTestCompleted(ctx context.Context, domainID string, success bool, details string) error
}
