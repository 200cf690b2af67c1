package domain

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

//go:generate mockgen -destination mocks/mock_setting_repository.go -package mocks github.com/Mailfleet/mailfleet/internal/domain SettingRepository

// SendingSettings drives how hard the campaign platform is allowed to
// push a domain. A pool carries the defaults; each domain keeps its own
// effective copy.
type SendingSettings struct {
	// DailyLimit caps campaign sends per day.
	DailyLimit int `json:"daily_limit"`
	// MinTimeGap is the minimum gap between consecutive sends, in minutes.
	MinTimeGap int `json:"min_time_gap"`
}

func (s *SendingSettings) Validate() error {
	if s.DailyLimit <= 0 {
		return NewValidationError("sending settings: daily limit must be positive")
	}
	if s.MinTimeGap < 15 {
		return NewValidationError("sending settings: min time gap must be at least 15")
	}
	return nil
}

func (s *SendingSettings) Scan(val interface{}) error {
	var data []byte
	if b, ok := val.([]byte); ok {
		// clone: the driver reuses the backing array between rows
		data = bytes.Clone(b)
	} else if str, ok := val.(string); ok {
		data = []byte(str)
	} else if val == nil {
		return nil
	}
	return json.Unmarshal(data, s)
}

func (s SendingSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// RandomizeRange bounds the number of warmup emails actually sent per
// day so volumes do not look machine generated.
type RandomizeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// WarmupSettings describes the background warmup traffic for a domain.
// When RampUp is set, daily volume grows by RampUpValue per day until it
// reaches DailyEmails.
type WarmupSettings struct {
	DailyEmails  int            `json:"daily_emails"`
	RampUp       bool           `json:"ramp_up"`
	RampUpValue  int            `json:"ramp_up_value"`
	Randomize    RandomizeRange `json:"randomize"`
	ReplyRate    int            `json:"reply_rate"`
	WeekdaysOnly bool           `json:"weekdays_only"`
}

func (w *WarmupSettings) Validate() error {
	if w.DailyEmails <= 0 {
		return NewValidationError("warmup settings: daily emails must be positive")
	}
	if w.Randomize.Max <= w.Randomize.Min {
		return NewValidationError("warmup settings: randomize max must be greater than min")
	}
	if w.Randomize.Min < 0 {
		return NewValidationError("warmup settings: randomize min must not be negative")
	}
	if w.RampUp && (w.RampUpValue < 3 || w.RampUpValue > 40) {
		return NewValidationError("warmup settings: ramp up value must be between 3 and 40")
	}
	if w.ReplyRate < 0 || w.ReplyRate > 100 {
		return NewValidationError("warmup settings: reply rate must be between 0 and 100")
	}
	return nil
}

// EffectiveDailyEmails returns the warmup volume for a domain that has
// spent daysInPool whole days in its pool. Without ramp-up the target is
// flat; with ramp-up it starts at RampUpValue and grows by RampUpValue
// per day until DailyEmails.
func (w *WarmupSettings) EffectiveDailyEmails(daysInPool int) int {
	if !w.RampUp {
		return w.DailyEmails
	}
	if daysInPool < 0 {
		daysInPool = 0
	}
	ramped := w.RampUpValue * (daysInPool + 1)
	if ramped > w.DailyEmails {
		return w.DailyEmails
	}
	return ramped
}

func (w *WarmupSettings) Scan(val interface{}) error {
	var data []byte
	if b, ok := val.([]byte); ok {
		data = bytes.Clone(b)
	} else if str, ok := val.(string); ok {
		data = []byte(str)
	} else if val == nil {
		return nil
	}
	return json.Unmarshal(data, w)
}

func (w WarmupSettings) Value() (driver.Value, error) {
	return json.Marshal(w)
}

// CampaignSettings are the campaign-platform defaults a pool pushes to
// its members' active campaigns.
type CampaignSettings struct {
	FollowUpPercentage int      `json:"follow_up_percentage"`
	TrackSettings      []string `json:"track_settings"`
	StopLeadSettings   string   `json:"stop_lead_settings"`
	EnableAIESPMatch   bool     `json:"enable_ai_esp_matching"`
	SendAsPlainText    bool     `json:"send_as_plain_text"`
}

func (c *CampaignSettings) Validate() error {
	if c.FollowUpPercentage < 0 || c.FollowUpPercentage > 100 {
		return NewValidationError("campaign settings: follow up percentage must be between 0 and 100")
	}
	return nil
}

func (c *CampaignSettings) Scan(val interface{}) error {
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

func (c CampaignSettings) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Setting is a single key/value row used for engine state that does not
// deserve its own table: provider credentials, sweep checkpoints.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Setting) Validate() error {
	if s.Key == "" {
		return NewValidationError("setting: key is required")
	}
	if len(s.Key) > 255 {
		return NewValidationError(fmt.Sprintf("setting: key %q exceeds 255 characters", s.Key))
	}
	return nil
}

type SettingRepository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]*Setting, error)
}
