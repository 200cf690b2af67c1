package domain

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

//go:generate mockgen -destination mocks/mock_pool_repository.go -package mocks github.com/Mailfleet/mailfleet/internal/domain PoolRepository
//go:generate mockgen -destination mocks/mock_pool_service.go -package mocks github.com/Mailfleet/mailfleet/internal/domain PoolService

// PoolType identifies one of the four lifecycle pools a sending domain
// moves through.
type PoolType string

const (
	PoolInitialWarming PoolType = "initial_warming"
	PoolReadyWaiting   PoolType = "ready_waiting"
	PoolActive         PoolType = "active"
	PoolRecovery       PoolType = "recovery"
)

// PoolTypes lists every pool in lifecycle order.
var PoolTypes = []PoolType{PoolInitialWarming, PoolReadyWaiting, PoolActive, PoolRecovery}

func (p PoolType) Validate() error {
	switch p {
	case PoolInitialWarming, PoolReadyWaiting, PoolActive, PoolRecovery:
		return nil
	default:
		return fmt.Errorf("invalid pool type: %s", string(p))
	}
}

// Label returns the human readable pool name used in notifications.
func (p PoolType) Label() string {
	switch p {
	case PoolInitialWarming:
		return "Initial Warming"
	case PoolReadyWaiting:
		return "Ready & Waiting"
	case PoolActive:
		return "Active"
	case PoolRecovery:
		return "Recovery"
	default:
		return string(p)
	}
}

// AutomationRules are the per-pool knobs the engine reads when scheduling
// tests and evaluating transitions.
type AutomationRules struct {
	// TestFrequency is the interval between placement tests for members
	// of the pool.
	TestFrequency time.Duration `json:"test_frequency"`
	// MinScore is the inbox placement score a domain must sustain.
	MinScore int `json:"min_score"`
	// MinTests is how many tests a domain needs before it can graduate.
	MinTests int `json:"min_tests"`
	// GraduationDays is the minimum stay, in whole days, before a
	// warming domain can move to ready_waiting.
	GraduationDays int `json:"graduation_days"`
	// RecoveryDays is the minimum stay in recovery before re-warming.
	RecoveryDays int `json:"recovery_days"`
	// MaxConsecutiveLowScores is how many low results in a row trigger
	// removal from the pool.
	MaxConsecutiveLowScores int `json:"max_consecutive_low_scores"`
	// NotifyBelowScore, when set, raises a critical notification as soon
	// as a single test lands under the value.
	NotifyBelowScore *int `json:"notify_below_score,omitempty"`
}

func (r *AutomationRules) Validate() error {
	if r.TestFrequency <= 0 {
		return fmt.Errorf("invalid automation rules: test frequency must be positive")
	}
	if r.MinScore < 0 || r.MinScore > 100 {
		return fmt.Errorf("invalid automation rules: min score must be between 0 and 100")
	}
	if r.MinTests < 0 {
		return fmt.Errorf("invalid automation rules: min tests must not be negative")
	}
	if r.GraduationDays < 0 {
		return fmt.Errorf("invalid automation rules: graduation days must not be negative")
	}
	if r.RecoveryDays < 0 {
		return fmt.Errorf("invalid automation rules: recovery days must not be negative")
	}
	if r.MaxConsecutiveLowScores < 1 {
		return fmt.Errorf("invalid automation rules: max consecutive low scores must be at least 1")
	}
	if r.NotifyBelowScore != nil && (*r.NotifyBelowScore < 0 || *r.NotifyBelowScore > 100) {
		return fmt.Errorf("invalid automation rules: notify below score must be between 0 and 100")
	}
	return nil
}

func (r *AutomationRules) Scan(val interface{}) error {
	var data []byte
	if b, ok := val.([]byte); ok {
		data = bytes.Clone(b)
	} else if str, ok := val.(string); ok {
		data = []byte(str)
	} else if val == nil {
		return nil
	}
	return json.Unmarshal(data, r)
}

func (r AutomationRules) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Pool holds the settings template and automation rules shared by every
// domain assigned to it. Pools are fixed; only their settings change.
type Pool struct {
	Type      PoolType         `json:"type"`
	Sending   SendingSettings  `json:"sending"`
	Warmup    WarmupSettings   `json:"warmup"`
	Campaign  CampaignSettings `json:"campaign"`
	Rules     AutomationRules  `json:"rules"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (p *Pool) Validate() error {
	if err := p.Type.Validate(); err != nil {
		return err
	}
	if err := p.Sending.Validate(); err != nil {
		return fmt.Errorf("pool %s: %w", p.Type, err)
	}
	if err := p.Warmup.Validate(); err != nil {
		return fmt.Errorf("pool %s: %w", p.Type, err)
	}
	if err := p.Campaign.Validate(); err != nil {
		return fmt.Errorf("pool %s: %w", p.Type, err)
	}
	if err := p.Rules.Validate(); err != nil {
		return fmt.Errorf("pool %s: %w", p.Type, err)
	}
	return nil
}

// PoolMetrics is a point-in-time aggregate over the members of a pool.
type PoolMetrics struct {
	Pool           PoolType  `json:"pool"`
	TotalDomains   int       `json:"total_domains"`
	HealthyDomains int       `json:"healthy_domains"`
	AverageScore   float64   `json:"average_score"`
	RiskFactors    []string  `json:"risk_factors,omitempty"`
	ComputedAt     time.Time `json:"computed_at"`
}

// PoolSettingsPatch is a partial update to a pool. Nil sections are left
// untouched.
type PoolSettingsPatch struct {
	Sending  *SendingSettings  `json:"sending,omitempty"`
	Warmup   *WarmupSettings   `json:"warmup,omitempty"`
	Campaign *CampaignSettings `json:"campaign,omitempty"`
	Rules    *AutomationRules  `json:"rules,omitempty"`
}

func (p *PoolSettingsPatch) Empty() bool {
	return p.Sending == nil && p.Warmup == nil && p.Campaign == nil && p.Rules == nil
}

type PoolRepository interface {
	Upsert(ctx context.Context, pool *Pool) error
	GetByType(ctx context.Context, poolType PoolType) (*Pool, error)
	List(ctx context.Context) ([]*Pool, error)
}

// TransitionOptions carries the optional context of a pool move: which
// rotation action it records and which campaigns were touched on the way.
type TransitionOptions struct {
	Action      RotationAction
	CampaignIDs []string
	ErrorsNoted bool
	// Preauthorized marks moves whose rate-limit permits the caller
	// already acquired, so the transition must not acquire again.
	Preauthorized bool
}

type TransitionOption func(*TransitionOptions)

// WithRotationAction overrides the action recorded in the rotation log.
func WithRotationAction(action RotationAction) TransitionOption {
	return func(o *TransitionOptions) { o.Action = action }
}

// WithCampaignIDs records the campaigns reassigned as part of the move.
func WithCampaignIDs(ids []string) TransitionOption {
	return func(o *TransitionOptions) { o.CampaignIDs = ids }
}

// WithErrorsNoted marks the rotation log entry as partially failed so
// operators know to double check the campaign platform.
func WithErrorsNoted() TransitionOption {
	return func(o *TransitionOptions) { o.ErrorsNoted = true }
}

// WithPreauthorized skips the transition's rate-limit gate. Used by
// rotations, which acquire permits for both endpoints up front so the
// pair of moves cannot stall halfway.
func WithPreauthorized() TransitionOption {
	return func(o *TransitionOptions) { o.Preauthorized = true }
}

// PoolService manages pool settings and executes domain moves between
// pools, keeping settings, rotation history and events consistent.
type PoolService interface {
	// InitializePools seeds the four pools with class presets when they
	// do not exist yet. Existing pools are left untouched.
	InitializePools(ctx context.Context) error
	// TransitionDomain moves a domain to the target pool, applies the
	// target pool settings, appends the rotation log entry and publishes
	// the move. Moving a domain to the pool it is already in is a no-op.
	TransitionDomain(ctx context.Context, domainID string, target PoolType, reason string, opts ...TransitionOption) error
	// ApplyPoolSettings patches a pool and cascades the new settings to
	// every member domain.
	ApplyPoolSettings(ctx context.Context, poolType PoolType, patch PoolSettingsPatch) error
	// CheckGraduation evaluates whether a warming domain is ready for
	// ready_waiting without performing the move.
	CheckGraduation(ctx context.Context, domainID string) (*TransitionDecision, error)
	// GetPoolMetrics aggregates member health for one pool.
	GetPoolMetrics(ctx context.Context, poolType PoolType) (*PoolMetrics, error)
}
