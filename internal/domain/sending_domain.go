package domain

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_domain_repository.go -package mocks github.com/Mailfleet/mailfleet/internal/domain DomainRepository

// MaxTestHistory bounds the per-domain test history.
const MaxTestHistory = 10

// LowScoreThreshold is the inbox placement score under which a test
// result counts as low and increments the consecutive-low counter.
const LowScoreThreshold = 75

// MailboxClass groups domains by the kind of mailbox behind them. The
// class picks which preset row applies.
type MailboxClass string

const (
	MailboxStandardMS MailboxClass = "standard_ms"
	MailboxSpecialMS  MailboxClass = "special_ms"
	MailboxCustom     MailboxClass = "custom"
)

func (c MailboxClass) Validate() error {
	switch c {
	case MailboxStandardMS, MailboxSpecialMS, MailboxCustom:
		return nil
	default:
		return NewValidationError(fmt.Sprintf("invalid mailbox class: %s", string(c)))
	}
}

// DomainStatus marks whether the fleet still manages a domain. Domains
// are never deleted, only deactivated.
type DomainStatus string

const (
	DomainStatusActive      DomainStatus = "active"
	DomainStatusDeactivated DomainStatus = "deactivated"
)

// CampaignStatus mirrors the campaign platform's status values.
type CampaignStatus string

const (
	CampaignStatusDrafted   CampaignStatus = "DRAFTED"
	CampaignStatusActive    CampaignStatus = "ACTIVE"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
	CampaignStatusStopped   CampaignStatus = "STOPPED"
	CampaignStatusPaused    CampaignStatus = "PAUSED"
)

// CampaignRef links a domain to a campaign running on it.
type CampaignRef struct {
	ID     string         `json:"id"`
	Name   string         `json:"name,omitempty"`
	Status CampaignStatus `json:"status"`
}

type CampaignRefs []CampaignRef

func (c *CampaignRefs) Scan(val interface{}) error {
	var data []byte
	if b, ok := val.([]byte); ok {
		data = bytes.Clone(b)
	} else if str, ok := val.(string); ok {
		data = []byte(str)
	} else if val == nil {
		return nil
	}
	return json.Unmarshal(data, c)
}

func (c CampaignRefs) Value() (driver.Value, error) {
	if c == nil {
		c = CampaignRefs{}
	}
	return json.Marshal(c)
}

// TestRecord is one completed placement test in a domain's history.
type TestRecord struct {
	TestID       string    `json:"test_id"`
	Score        int       `json:"score"`
	InboxPercent int       `json:"inbox_percent"`
	SpamPercent  int       `json:"spam_percent"`
	CompletedAt  time.Time `json:"completed_at"`
}

func (r *TestRecord) Validate() error {
	if r.TestID == "" {
		return NewValidationError("test record: test id is required")
	}
	if r.Score < 0 || r.Score > 100 {
		return NewValidationError(fmt.Sprintf("test record: score %d out of range", r.Score))
	}
	if r.InboxPercent+r.SpamPercent != 100 {
		return NewValidationError("test record: inbox and spam percentages must sum to 100")
	}
	if r.CompletedAt.IsZero() {
		return NewValidationError("test record: completion time is required")
	}
	return nil
}

type TestHistory []TestRecord

func (h *TestHistory) Scan(val interface{}) error {
	var data []byte
	if b, ok := val.([]byte); ok {
		data = bytes.Clone(b)
	} else if str, ok := val.(string); ok {
		data = []byte(str)
	} else if val == nil {
		return nil
	}
	return json.Unmarshal(data, h)
}

func (h TestHistory) Value() (driver.Value, error) {
	if h == nil {
		h = TestHistory{}
	}
	return json.Marshal(h)
}

// RotationAction names what a pool move meant for the domain.
type RotationAction string

const (
	// RotationActionMoved is a plain lifecycle transition.
	RotationActionMoved RotationAction = "moved"
	// RotationActionRotatedOut marks the unhealthy side of a rotation.
	RotationActionRotatedOut RotationAction = "rotated_out"
	// RotationActionRotatedIn marks the replacement side of a rotation.
	RotationActionRotatedIn RotationAction = "rotated_in"
)

// RotationEvent is one entry of a domain's rotation log. It is appended
// in the same transaction as the pool change it describes.
type RotationEvent struct {
	At          time.Time      `json:"at"`
	From        PoolType       `json:"from"`
	To          PoolType       `json:"to"`
	Action      RotationAction `json:"action"`
	Reason      string         `json:"reason"`
	CampaignIDs []string       `json:"campaign_ids,omitempty"`
	WithErrors  bool           `json:"with_errors,omitempty"`
}

type RotationLog []RotationEvent

func (l *RotationLog) Scan(val interface{}) error {
	var data []byte
	if b, ok := val.([]byte); ok {
		data = bytes.Clone(b)
	} else if str, ok := val.(string); ok {
		data = []byte(str)
	} else if val == nil {
		return nil
	}
	return json.Unmarshal(data, l)
}

func (l RotationLog) Value() (driver.Value, error) {
	if l == nil {
		l = RotationLog{}
	}
	return json.Marshal(l)
}

// TestSchedule tracks the next planned placement test and, while one is
// running, its provider uuid. At most one test is active per domain.
type TestSchedule struct {
	NextTestAt   *time.Time `json:"next_test_at,omitempty"`
	ActiveTestID *string    `json:"active_test_id,omitempty"`
}

func (s *TestSchedule) Scan(val interface{}) error {
	var data []byte
	if b, ok := val.([]byte); ok {
		data = bytes.Clone(b)
	} else if str, ok := val.(string); ok {
		data = []byte(str)
	} else if val == nil {
		return nil
	}
	return json.Unmarshal(data, s)
}

func (s TestSchedule) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// HealthMetrics is the rolling aggregate refreshed from the most recent
// test results (up to five).
type HealthMetrics struct {
	AverageScore float64   `json:"average_score"`
	TestCount    int       `json:"test_count"`
	LastUpdated  time.Time `json:"last_updated"`
}

func (m *HealthMetrics) Scan(val interface{}) error {
	var data []byte
	if b, ok := val.([]byte); ok {
		data = bytes.Clone(b)
	} else if str, ok := val.(string); ok {
		data = []byte(str)
	} else if val == nil {
		return nil
	}
	return json.Unmarshal(data, m)
}

func (m HealthMetrics) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// SendingDomain is a managed sending identity. Only the automation
// engine and the pool manager mutate it.
type SendingDomain struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	TenantID             string          `json:"tenant_id"`
	ExternalID           string          `json:"external_id"`
	Pool                 PoolType        `json:"pool"`
	Class                MailboxClass    `json:"class"`
	Status               DomainStatus    `json:"status"`
	Sending              SendingSettings `json:"sending"`
	Warmup               WarmupSettings  `json:"warmup"`
	HealthScore          int             `json:"health_score"`
	ConsecutiveLowScores int             `json:"consecutive_low_scores"`
	PoolEnteredAt        time.Time       `json:"pool_entered_at"`
	Schedule             TestSchedule    `json:"schedule"`
	TestHistory          TestHistory     `json:"test_history"`
	RotationLog          RotationLog     `json:"rotation_log"`
	Campaigns            CampaignRefs    `json:"campaigns"`
	HealthMetrics        HealthMetrics   `json:"health_metrics"`
	Version              int             `json:"version"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// NewSendingDomain onboards a domain into the fleet. Every new domain
// starts in the initial warming pool with its class presets applied.
// Custom mailboxes carry no preset; onboard those through
// NewCustomSendingDomain with explicit settings.
func NewSendingDomain(id, name, tenantID, externalID string, class MailboxClass, now time.Time) (*SendingDomain, error) {
	d := &SendingDomain{
		ID:            id,
		Name:          name,
		TenantID:      tenantID,
		ExternalID:    externalID,
		Pool:          PoolInitialWarming,
		Class:         class,
		Status:        DomainStatusActive,
		PoolEnteredAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	preset, err := PresetFor(class, PoolInitialWarming)
	if err != nil {
		return nil, err
	}
	d.Sending = preset.Sending
	d.Warmup = preset.Warmup
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewCustomSendingDomain onboards a custom mailbox. The caller supplies
// the sending and warmup settings; they only pass the base validation,
// never a preset cap.
func NewCustomSendingDomain(id, name, tenantID, externalID string, sending SendingSettings, warmup WarmupSettings, now time.Time) (*SendingDomain, error) {
	d := &SendingDomain{
		ID:            id,
		Name:          name,
		TenantID:      tenantID,
		ExternalID:    externalID,
		Pool:          PoolInitialWarming,
		Class:         MailboxCustom,
		Status:        DomainStatusActive,
		Sending:       sending,
		Warmup:        warmup,
		PoolEnteredAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *SendingDomain) Validate() error {
	if d.ID == "" {
		return NewValidationError("domain: id is required")
	}
	if !govalidator.IsUUID(d.ID) {
		return NewValidationError(fmt.Sprintf("domain: id %q is not a uuid", d.ID))
	}
	if d.Name == "" {
		return NewValidationError("domain: name is required")
	}
	if !govalidator.IsDNSName(d.Name) {
		return NewValidationError(fmt.Sprintf("domain: name %q is not a valid dns name", d.Name))
	}
	if d.TenantID == "" {
		return NewValidationError("domain: tenant id is required")
	}
	if err := d.Pool.Validate(); err != nil {
		return err
	}
	if err := d.Class.Validate(); err != nil {
		return err
	}
	if d.Status != DomainStatusActive && d.Status != DomainStatusDeactivated {
		return NewValidationError(fmt.Sprintf("domain: invalid status %q", string(d.Status)))
	}
	if err := d.Sending.Validate(); err != nil {
		return err
	}
	if err := d.Warmup.Validate(); err != nil {
		return err
	}
	if d.HealthScore < 0 || d.HealthScore > 100 {
		return NewValidationError(fmt.Sprintf("domain: health score %d out of range", d.HealthScore))
	}
	return nil
}

func (d *SendingDomain) IsActive() bool {
	return d.Status == DomainStatusActive
}

// Deactivate takes the domain out of fleet management without deleting
// its history.
func (d *SendingDomain) Deactivate(now time.Time) {
	d.Status = DomainStatusDeactivated
	d.Schedule.NextTestAt = nil
	d.UpdatedAt = now
}

// EnterPool moves the domain to the target pool, stamping the entry time
// and resetting the consecutive-low counter.
func (d *SendingDomain) EnterPool(target PoolType, now time.Time) {
	d.Pool = target
	d.PoolEnteredAt = now
	d.ConsecutiveLowScores = 0
	d.UpdatedAt = now
}

// AppendRotationEvent records a pool move in the rotation log. Callers
// must persist it in the same write as the pool change.
func (d *SendingDomain) AppendRotationEvent(ev RotationEvent) {
	if ev.Action == "" {
		ev.Action = RotationActionMoved
	}
	d.RotationLog = append(d.RotationLog, ev)
}

// DaysInPool returns the number of whole 24 hour periods since the
// domain entered its current pool.
func (d *SendingDomain) DaysInPool(now time.Time) int {
	if now.Before(d.PoolEnteredAt) {
		return 0
	}
	return int(now.Sub(d.PoolEnteredAt).Hours() / 24)
}

// LastScores returns up to n most recent test scores in chronological
// order, oldest first.
func (d *SendingDomain) LastScores(n int) []int {
	if n <= 0 || len(d.TestHistory) == 0 {
		return nil
	}
	start := len(d.TestHistory) - n
	if start < 0 {
		start = 0
	}
	scores := make([]int, 0, len(d.TestHistory)-start)
	for _, rec := range d.TestHistory[start:] {
		scores = append(scores, rec.Score)
	}
	return scores
}

// MeanScore averages the given scores. Returns 0 for an empty slice.
func MeanScore(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// ApplyTestResult appends a completed test to the history, truncates to
// the most recent MaxTestHistory entries, recomputes the health score
// from the last three results and updates the consecutive-low counter.
// The active test marker is cleared.
func (d *SendingDomain) ApplyTestResult(rec TestRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	d.TestHistory = append(d.TestHistory, rec)
	sort.SliceStable(d.TestHistory, func(i, j int) bool {
		return d.TestHistory[i].CompletedAt.Before(d.TestHistory[j].CompletedAt)
	})
	if len(d.TestHistory) > MaxTestHistory {
		d.TestHistory = d.TestHistory[len(d.TestHistory)-MaxTestHistory:]
	}
	d.HealthScore = int(math.Round(MeanScore(d.LastScores(3))))
	if rec.Score < LowScoreThreshold {
		d.ConsecutiveLowScores++
	} else {
		d.ConsecutiveLowScores = 0
	}
	d.Schedule.ActiveTestID = nil
	return nil
}

// RefreshHealthMetrics recomputes the rolling average over the last five
// test results.
func (d *SendingDomain) RefreshHealthMetrics(now time.Time) {
	scores := d.LastScores(5)
	d.HealthMetrics = HealthMetrics{
		AverageScore: MeanScore(scores),
		TestCount:    len(scores),
		LastUpdated:  now,
	}
}

// HasActiveCampaign reports whether at least one campaign on the domain
// is in ACTIVE status.
func (d *SendingDomain) HasActiveCampaign() bool {
	for _, c := range d.Campaigns {
		if c.Status == CampaignStatusActive {
			return true
		}
	}
	return false
}

// ActiveCampaignIDs lists the ids of campaigns in ACTIVE status.
func (d *SendingDomain) ActiveCampaignIDs() []string {
	var ids []string
	for _, c := range d.Campaigns {
		if c.Status == CampaignStatusActive {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// DomainFilter narrows List queries. Zero values mean "any".
type DomainFilter struct {
	Pool            *PoolType
	Status          *DomainStatus
	TenantID        string
	MinAverageScore *float64
	Limit           int
}

type DomainRepository interface {
	Create(ctx context.Context, domain *SendingDomain) error
	GetByID(ctx context.Context, id string) (*SendingDomain, error)
	List(ctx context.Context, filter DomainFilter) ([]*SendingDomain, error)
	// Update persists the full row guarded by the Version the caller
	// loaded. A concurrent edit surfaces as a conflict error.
	Update(ctx context.Context, domain *SendingDomain) error
	// ListDueForTest returns active domains whose next scheduled test is
	// at or before the given time, soonest first.
	ListDueForTest(ctx context.Context, before time.Time, limit int) ([]*SendingDomain, error)
	// TransitionPool atomically sets the pool, stamps the entry date,
	// resets the consecutive-low counter and appends the rotation event.
	TransitionPool(ctx context.Context, domainID string, target PoolType, event RotationEvent) (*SendingDomain, error)
	CountByPool(ctx context.Context) (map[PoolType]int, error)
}
