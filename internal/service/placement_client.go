package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/Mailfleet/mailfleet/pkg/logger"
)

// PlacementClient talks to the inbox placement provider's REST API. It
// implements domain.PlacementProvider.
type PlacementClient struct {
	baseURL    string
	apiKey     string
	logger     logger.Logger
	httpClient *http.Client
}

// NewPlacementClient creates a placement provider client.
func NewPlacementClient(baseURL, apiKey string, log logger.Logger) *PlacementClient {
	return &PlacementClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  log,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type createTestRequest struct {
	Domain string `json:"domain"`
}

// CreateTest starts a placement test for the domain and returns the
// provider's test descriptor.
func (c *PlacementClient) CreateTest(ctx context.Context, domainName string) (*domain.TestDescriptor, error) {
	bodyBytes, err := json.Marshal(createTestRequest{Domain: domainName})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/tests", strings.NewReader(string(bodyBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewTransientError("placement test creation request failed", "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTransientError("failed to read placement provider response", "", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, classifyProviderStatus("create placement test", resp, body)
	}

	result := gjson.ParseBytes(body)
	descriptor := &domain.TestDescriptor{
		ID:           result.Get("uuid").String(),
		FilterPhrase: result.Get("filter_phrase").String(),
		SeedEmails:   parseSeedEmails(result.Get("test_emails")),
	}
	if descriptor.ID == "" {
		return nil, domain.NewFatalError(
			fmt.Sprintf("placement provider returned a test without a uuid: %s", string(body)), nil)
	}
	return descriptor, nil
}

// GetTest fetches the current state of a placement test.
func (c *PlacementClient) GetTest(ctx context.Context, testID string) (*domain.TestResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/tests/"+testID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewTransientError("placement test fetch request failed", "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTransientError("failed to read placement provider response", "", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &domain.ErrNotFound{Entity: "placement test", ID: testID}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyProviderStatus("fetch placement test", resp, body)
	}

	parsed := gjson.ParseBytes(body)
	result := &domain.TestResult{
		ID:         parsed.Get("uuid").String(),
		Status:     domain.TestStatus(parsed.Get("status").String()),
		SeedEmails: parseSeedEmails(parsed.Get("test_emails")),
	}
	if score := parsed.Get("overall_score"); score.Exists() {
		s := int(score.Int())
		result.OverallScore = &s
	}
	if completed := parsed.Get("completed_at"); completed.Exists() && completed.String() != "" {
		at, err := time.Parse(time.RFC3339, completed.String())
		if err != nil {
			return nil, domain.NewFatalError(
				fmt.Sprintf("placement provider returned an unparseable completion time %q", completed.String()), err)
		}
		result.CompletedAt = &at
	}
	return result, nil
}

// parseSeedEmails reads the provider's per-seed outcomes. Unknown
// folder values are kept verbatim; the split computation treats
// anything but inbox as a miss.
func parseSeedEmails(list gjson.Result) []domain.SeedEmailResult {
	if !list.IsArray() {
		return nil
	}
	var seeds []domain.SeedEmailResult
	list.ForEach(func(_, seed gjson.Result) bool {
		seeds = append(seeds, domain.SeedEmailResult{
			Email:    seed.Get("email").String(),
			Provider: domain.SeedProvider(seed.Get("provider").String()),
			Folder:   domain.SeedFolder(seed.Get("folder").String()),
			Status:   seed.Get("status").String(),
		})
		return true
	})
	return seeds
}

// classifyProviderStatus turns a non-success HTTP status into the
// retry decision the queue understands: 429 is a deferral that costs
// no attempt, 5xx gets a counted retry, the rest never come back.
func classifyProviderStatus(op string, resp *http.Response, body []byte) error {
	message := fmt.Sprintf("%s returned status %d: %s", op, resp.StatusCode, string(body))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &domain.AutomationError{
			Kind:       domain.ErrKindRateLimited,
			Message:    message,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= http.StatusInternalServerError:
		return domain.NewTransientError(message, "", nil)
	}
	return domain.NewAutomationError(domain.ErrKindFatal, message, nil)
}

// parseRetryAfter reads the delay-seconds form of the Retry-After
// header. The HTTP-date form and junk come back as zero, which the
// queue replaces with its own deferral window.
func parseRetryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
