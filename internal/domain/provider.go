package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Mailfleet/mailfleet/pkg/crypto"
)

//go:generate mockgen -destination mocks/mock_placement_provider.go -package mocks github.com/Mailfleet/mailfleet/internal/domain PlacementProvider
//go:generate mockgen -destination mocks/mock_campaign_platform.go -package mocks github.com/Mailfleet/mailfleet/internal/domain CampaignPlatform

// TestDescriptor is what the placement provider returns when a test is
// created: the test id, the phrase to put in the email so seeds can
// find it, and the seed addresses to send to.
type TestDescriptor struct {
	ID           string            `json:"id"`
	FilterPhrase string            `json:"filter_phrase"`
	SeedEmails   []SeedEmailResult `json:"seed_emails"`
}

// TestResult is the provider's view of a test when polled.
type TestResult struct {
	ID           string            `json:"id"`
	Status       TestStatus        `json:"status"`
	OverallScore *int              `json:"overall_score,omitempty"`
	SeedEmails   []SeedEmailResult `json:"seed_emails"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// PlacementProvider runs inbox placement tests. Both calls may fail
// transiently; callers route failures to the retry path.
type PlacementProvider interface {
	CreateTest(ctx context.Context, domainName string) (*TestDescriptor, error)
	GetTest(ctx context.Context, testID string) (*TestResult, error)
}

// EmailAccountType is the campaign platform's account taxonomy.
type EmailAccountType string

const (
	AccountTypeSMTP    EmailAccountType = "SMTP"
	AccountTypeGmail   EmailAccountType = "GMAIL"
	AccountTypeZoho    EmailAccountType = "ZOHO"
	AccountTypeOutlook EmailAccountType = "OUTLOOK"
)

// AccountType maps a mailbox class to the platform account type it is
// provisioned as.
func (c MailboxClass) AccountType() EmailAccountType {
	switch c {
	case MailboxStandardMS, MailboxSpecialMS:
		return AccountTypeOutlook
	default:
		return AccountTypeSMTP
	}
}

// WarmupDetails is the warmup block pushed with an account update.
type WarmupDetails struct {
	TotalWarmupPerDay   int  `json:"total_warmup_per_day"`
	DailyRampup         int  `json:"daily_rampup,omitempty"`
	ReplyRatePercentage int  `json:"reply_rate_percentage"`
	RandomizeMin        int  `json:"randomize_min"`
	RandomizeMax        int  `json:"randomize_max"`
	WeekdaysOnly        bool `json:"weekdays_only"`
}

// EmailAccountUpdate is the settings push for one provisioned account.
type EmailAccountUpdate struct {
	MessagePerDay int              `json:"message_per_day"`
	Type          EmailAccountType `json:"type"`
	Warmup        *WarmupDetails   `json:"warmup_details,omitempty"`
}

// CampaignPlatform mutates sending infrastructure on the campaign side.
// Every call is idempotent for a given (campaign, target) pair.
type CampaignPlatform interface {
	UpdateEmailAccount(ctx context.Context, externalAccountID string, update EmailAccountUpdate) error
	UpdateCampaignSettings(ctx context.Context, campaignID string, settings CampaignSettings) error
	UpdateCampaignStatus(ctx context.Context, campaignID string, status CampaignStatus) error
	// UpdateCampaignDomain repoints a campaign from one sending account
	// to another. Safe to repeat.
	UpdateCampaignDomain(ctx context.Context, campaignID, fromExternalID, toExternalID string) error
}

// SettingKeyProviderCredentials is the settings row holding the
// encrypted provider credentials.
const SettingKeyProviderCredentials = "provider_credentials"

// ProviderCredentials carries the API endpoints and keys for both
// external providers. Keys are stored encrypted; the decoded values are
// populated in memory only.
type ProviderCredentials struct {
	PlacementAPIURL          string `json:"placement_api_url"`
	EncryptedPlacementAPIKey string `json:"encrypted_placement_api_key,omitempty"`
	CampaignAPIURL           string `json:"campaign_api_url"`
	EncryptedCampaignAPIKey  string `json:"encrypted_campaign_api_key,omitempty"`
	EncryptedWebhookSecret   string `json:"encrypted_webhook_secret,omitempty"`

	// decoded keys, not stored in the database
	PlacementAPIKey string `json:"placement_api_key,omitempty"`
	CampaignAPIKey  string `json:"campaign_api_key,omitempty"`
	WebhookSecret   string `json:"webhook_secret,omitempty"`
}

func (p *ProviderCredentials) EncryptKeys(passphrase string) error {
	encryptedPlacement, err := crypto.EncryptString(p.PlacementAPIKey, passphrase)
	if err != nil {
		return fmt.Errorf("failed to encrypt placement API key: %w", err)
	}
	encryptedCampaign, err := crypto.EncryptString(p.CampaignAPIKey, passphrase)
	if err != nil {
		return fmt.Errorf("failed to encrypt campaign API key: %w", err)
	}
	encryptedSecret, err := crypto.EncryptString(p.WebhookSecret, passphrase)
	if err != nil {
		return fmt.Errorf("failed to encrypt webhook secret: %w", err)
	}
	p.EncryptedPlacementAPIKey = encryptedPlacement
	p.EncryptedCampaignAPIKey = encryptedCampaign
	p.EncryptedWebhookSecret = encryptedSecret
	return nil
}

func (p *ProviderCredentials) DecryptKeys(passphrase string) error {
	placementKey, err := crypto.DecryptFromHexString(p.EncryptedPlacementAPIKey, passphrase)
	if err != nil {
		return fmt.Errorf("failed to decrypt placement API key: %w", err)
	}
	campaignKey, err := crypto.DecryptFromHexString(p.EncryptedCampaignAPIKey, passphrase)
	if err != nil {
		return fmt.Errorf("failed to decrypt campaign API key: %w", err)
	}
	webhookSecret, err := crypto.DecryptFromHexString(p.EncryptedWebhookSecret, passphrase)
	if err != nil {
		return fmt.Errorf("failed to decrypt webhook secret: %w", err)
	}
	p.PlacementAPIKey = placementKey
	p.CampaignAPIKey = campaignKey
	p.WebhookSecret = webhookSecret
	return nil
}

// MarshalForStorage strips the decoded keys and serializes the rest.
func (p ProviderCredentials) MarshalForStorage() (string, error) {
	p.PlacementAPIKey = ""
	p.CampaignAPIKey = ""
	p.WebhookSecret = ""
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal provider credentials: %w", err)
	}
	return string(data), nil
}
