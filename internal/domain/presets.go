package domain

import (
	"fmt"
	"time"
)

// Preset is the per-(mailbox class, pool) default settings pair applied
// when a domain enters a pool.
type Preset struct {
	Sending SendingSettings
	Warmup  WarmupSettings
}

// warmupRamp is the shared warming profile: one campaign email per day,
// ten minute gaps, ramped warmup traffic on weekdays.
var warmupRamp = Preset{
	Sending: SendingSettings{DailyLimit: 1, MinTimeGap: 600},
	Warmup: WarmupSettings{
		DailyEmails:  40,
		RampUp:       true,
		RampUpValue:  3,
		Randomize:    RandomizeRange{Min: 25, Max: 40},
		ReplyRate:    80,
		WeekdaysOnly: true,
	},
}

var presets = map[MailboxClass]map[PoolType]Preset{
	MailboxStandardMS: {
		PoolInitialWarming: warmupRamp,
		PoolReadyWaiting:   warmupRamp,
		PoolRecovery:       warmupRamp,
		PoolActive: {
			Sending: SendingSettings{DailyLimit: 20, MinTimeGap: 15},
			Warmup: WarmupSettings{
				DailyEmails: 20,
				Randomize:   RandomizeRange{Min: 15, Max: 20},
				ReplyRate:   80,
			},
		},
	},
	MailboxSpecialMS: {
		PoolInitialWarming: warmupRamp,
		PoolReadyWaiting:   warmupRamp,
		PoolRecovery:       warmupRamp,
		PoolActive: {
			Sending: SendingSettings{DailyLimit: 8, MinTimeGap: 60},
			Warmup: WarmupSettings{
				DailyEmails: 40,
				Randomize:   RandomizeRange{Min: 25, Max: 40},
				ReplyRate:   80,
			},
		},
	},
}

// PresetFor returns the default settings for a mailbox class in a pool.
// Custom mailboxes carry no preset and come back not-found: their
// settings are always explicit.
func PresetFor(class MailboxClass, pool PoolType) (*Preset, error) {
	if err := class.Validate(); err != nil {
		return nil, err
	}
	if err := pool.Validate(); err != nil {
		return nil, err
	}
	p, ok := presets[class][pool]
	if !ok {
		return nil, &ErrNotFound{Entity: "preset", ID: fmt.Sprintf("%s/%s", class, pool)}
	}
	return &p, nil
}

// ValidateSettingsForClass checks that sending settings stay inside the
// caps the class preset allows in the given pool: the daily limit must
// not exceed the preset's and the send gap must not undercut it.
// Custom mailboxes have no caps; only the base validation applies.
func ValidateSettingsForClass(class MailboxClass, pool PoolType, s SendingSettings) error {
	if err := class.Validate(); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if class == MailboxCustom {
		return pool.Validate()
	}
	preset, err := PresetFor(class, pool)
	if err != nil {
		return err
	}
	if s.DailyLimit > preset.Sending.DailyLimit {
		return NewValidationError(fmt.Sprintf(
			"sending settings: daily limit %d exceeds the %s cap of %d in pool %s",
			s.DailyLimit, class, preset.Sending.DailyLimit, pool))
	}
	if s.MinTimeGap < preset.Sending.MinTimeGap {
		return NewValidationError(fmt.Sprintf(
			"sending settings: min time gap %d is under the %s floor of %d in pool %s",
			s.MinTimeGap, class, preset.Sending.MinTimeGap, pool))
	}
	return nil
}

// Test cadence per pool: active domains are tested twice a week, every
// other pool every three weeks.
const (
	ActiveTestFrequency  = 84 * time.Hour
	DefaultTestFrequency = 504 * time.Hour
)

// TestFrequencyFor returns the placement test interval for a pool.
func TestFrequencyFor(pool PoolType) time.Duration {
	if pool == PoolActive {
		return ActiveTestFrequency
	}
	return DefaultTestFrequency
}

// DefaultAutomationRules returns the stock automation rules for a pool.
func DefaultAutomationRules(pool PoolType) AutomationRules {
	rules := AutomationRules{
		TestFrequency:           TestFrequencyFor(pool),
		MinScore:                75,
		MinTests:                3,
		GraduationDays:          21,
		RecoveryDays:            21,
		MaxConsecutiveLowScores: 2,
	}
	if pool == PoolActive {
		notify := 60
		rules.NotifyBelowScore = &notify
	}
	return rules
}

// DefaultPool assembles the stock pool row for a type, seeded from the
// standard mailbox preset.
func DefaultPool(pool PoolType, now time.Time) (*Pool, error) {
	preset, err := PresetFor(MailboxStandardMS, pool)
	if err != nil {
		return nil, err
	}
	campaign := CampaignSettings{
		FollowUpPercentage: 40,
		TrackSettings:      []string{"DONT_TRACK_EMAIL_OPEN"},
		StopLeadSettings:   "REPLY_TO_AN_EMAIL",
		SendAsPlainText:    pool != PoolActive,
	}
	return &Pool{
		Type:      pool,
		Sending:   preset.Sending,
		Warmup:    preset.Warmup,
		Campaign:  campaign,
		Rules:     DefaultAutomationRules(pool),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
