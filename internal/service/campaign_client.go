package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/Mailfleet/mailfleet/pkg/logger"
)

// CampaignClient talks to the campaign platform's REST API. It
// implements domain.CampaignPlatform; every call is idempotent for a
// given target, so retried jobs can safely repeat them.
type CampaignClient struct {
	baseURL    string
	apiKey     string
	logger     logger.Logger
	httpClient *http.Client
}

// NewCampaignClient creates a campaign platform client.
func NewCampaignClient(baseURL, apiKey string, log logger.Logger) *CampaignClient {
	return &CampaignClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  log,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// UpdateEmailAccount pushes sending and warmup settings to one
// provisioned account.
func (c *CampaignClient) UpdateEmailAccount(ctx context.Context, externalAccountID string, update domain.EmailAccountUpdate) error {
	path := fmt.Sprintf("/api/v1/email-accounts/%s", externalAccountID)
	return c.post(ctx, "update email account", path, update)
}

// UpdateCampaignSettings pushes campaign-level defaults.
func (c *CampaignClient) UpdateCampaignSettings(ctx context.Context, campaignID string, settings domain.CampaignSettings) error {
	path := fmt.Sprintf("/api/v1/campaigns/%s/settings", campaignID)
	return c.post(ctx, "update campaign settings", path, settings)
}

type campaignStatusRequest struct {
	Status domain.CampaignStatus `json:"status"`
}

// UpdateCampaignStatus changes a campaign's run state.
func (c *CampaignClient) UpdateCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus) error {
	path := fmt.Sprintf("/api/v1/campaigns/%s/status", campaignID)
	return c.post(ctx, "update campaign status", path, campaignStatusRequest{Status: status})
}

type campaignDomainRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
}

// UpdateCampaignDomain repoints a campaign from one sending account to
// another.
func (c *CampaignClient) UpdateCampaignDomain(ctx context.Context, campaignID, fromExternalID, toExternalID string) error {
	path := fmt.Sprintf("/api/v1/campaigns/%s/domain", campaignID)
	return c.post(ctx, "repoint campaign domain", path, campaignDomainRequest{
		FromAccountID: fromExternalID,
		ToAccountID:   toExternalID,
	})
}

func (c *CampaignClient) post(ctx context.Context, op, path string, payload interface{}) error {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(bodyBytes)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewTransientError(fmt.Sprintf("%s request failed", op), "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return &domain.ErrNotFound{Entity: "campaign platform resource", ID: path}
	}
	return classifyProviderStatus(op, resp, body)
}
