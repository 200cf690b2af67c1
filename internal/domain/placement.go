package domain

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

//go:generate mockgen -destination mocks/mock_placement_test_repository.go -package mocks github.com/Mailfleet/mailfleet/internal/domain PlacementTestRepository

// TestStatus is the lifecycle of a placement test at the provider.
type TestStatus string

const (
	TestStatusCreated         TestStatus = "created"
	TestStatusWaitingForEmail TestStatus = "waiting_for_email"
	TestStatusReceived        TestStatus = "received"
	TestStatusNotReceived     TestStatus = "not_received"
	TestStatusCompleted       TestStatus = "completed"
)

func (s TestStatus) Validate() error {
	switch s {
	case TestStatusCreated, TestStatusWaitingForEmail, TestStatusReceived,
		TestStatusNotReceived, TestStatusCompleted:
		return nil
	default:
		return NewValidationError(fmt.Sprintf("invalid test status: %s", string(s)))
	}
}

// SeedProvider is the mailbox provider behind a seed address.
type SeedProvider string

const (
	SeedProviderGoogle    SeedProvider = "Google"
	SeedProviderMicrosoft SeedProvider = "Microsoft"
)

// SeedFolder is where a seed mailbox filed the test email. Empty means
// the email has not arrived yet.
type SeedFolder string

const (
	SeedFolderInbox SeedFolder = "inbox"
	SeedFolderSpam  SeedFolder = "spam"
	SeedFolderOther SeedFolder = "other"
)

// SeedEmailResult is the per-seed outcome of a placement test.
type SeedEmailResult struct {
	Email    string       `json:"email"`
	Provider SeedProvider `json:"provider"`
	Folder   SeedFolder   `json:"folder,omitempty"`
	Status   string       `json:"status,omitempty"`
}

type SeedEmailResults []SeedEmailResult

func (r *SeedEmailResults) Scan(val interface{}) error {
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

func (r SeedEmailResults) Value() (driver.Value, error) {
	if r == nil {
		r = SeedEmailResults{}
	}
	return json.Marshal(r)
}

// PlacementTest is one inbox placement run for a domain. Result ingest
// is the only mutator; a completed test never changes again.
type PlacementTest struct {
	ID           string           `json:"id"`
	DomainID     string           `json:"domain_id"`
	FilterPhrase string           `json:"filter_phrase,omitempty"`
	Status       TestStatus       `json:"status"`
	SeedEmails   SeedEmailResults `json:"seed_emails"`
	OverallScore int              `json:"overall_score"`
	InboxPercent int              `json:"inbox_percent"`
	SpamPercent  int              `json:"spam_percent"`
	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (t *PlacementTest) Validate() error {
	if t.ID == "" {
		return NewValidationError("placement test: id is required")
	}
	if t.DomainID == "" {
		return NewValidationError("placement test: domain id is required")
	}
	if err := t.Status.Validate(); err != nil {
		return err
	}
	if t.OverallScore < 0 || t.OverallScore > 100 {
		return NewValidationError(fmt.Sprintf("placement test: score %d out of range", t.OverallScore))
	}
	if t.Status == TestStatusCompleted {
		if t.CompletedAt == nil {
			return NewValidationError("placement test: completed test needs a completion time")
		}
		if t.InboxPercent+t.SpamPercent != 100 {
			return NewValidationError("placement test: inbox and spam percentages must sum to 100")
		}
	}
	return nil
}

func (t *PlacementTest) IsCompleted() bool {
	return t.Status == TestStatusCompleted
}

// ComputeSplits derives the inbox/spam percentages from the seed folder
// outcomes. Folders other than inbox count against the domain. With no
// filed seeds yet the split stays untouched.
func (t *PlacementTest) ComputeSplits() {
	total := 0
	inbox := 0
	for _, seed := range t.SeedEmails {
		if seed.Folder == "" {
			continue
		}
		total++
		if seed.Folder == SeedFolderInbox {
			inbox++
		}
	}
	if total == 0 {
		return
	}
	t.InboxPercent = int(math.Round(float64(inbox) / float64(total) * 100))
	t.SpamPercent = 100 - t.InboxPercent
}

// Record converts a completed test into the history entry stored on the
// domain.
func (t *PlacementTest) Record() (TestRecord, error) {
	if !t.IsCompleted() || t.CompletedAt == nil {
		return TestRecord{}, NewValidationError("placement test: cannot record an incomplete test")
	}
	return TestRecord{
		TestID:       t.ID,
		Score:        t.OverallScore,
		InboxPercent: t.InboxPercent,
		SpamPercent:  t.SpamPercent,
		CompletedAt:  *t.CompletedAt,
	}, nil
}

type PlacementTestRepository interface {
	Create(ctx context.Context, test *PlacementTest) error
	GetByID(ctx context.Context, id string) (*PlacementTest, error)
	// GetActiveByDomain returns the domain's one non-completed test, or
	// ErrNotFound when the domain has no test in flight.
	GetActiveByDomain(ctx context.Context, domainID string) (*PlacementTest, error)
	// Update persists result ingest. Completed tests are immutable; an
	// update against one fails.
	Update(ctx context.Context, test *PlacementTest) error
	ListByDomain(ctx context.Context, domainID string, limit int) ([]*PlacementTest, error)
}
