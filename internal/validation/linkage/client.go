// Package linkage checks Aadhaar-PAN linkage against the government
// verification endpoint. Lookups happen before rule evaluation so the
// evaluators themselves never perform I/O.
package linkage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
	"github.com/complyflow/complyflow-backend/pkg/config"
	"github.com/complyflow/complyflow-backend/pkg/logger"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

// Client queries the linkage endpoint with bounded retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	log        *logger.Logger
}

// New builds a client from the linkage configuration.
func New(cfg *config.LinkageConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return &Client{
		baseURL:    cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: retries,
		retryDelay: delay,
		log:        log,
	}
}

type statusRequest struct {
	AadhaarNumber string `json:"aadhar_number"`
	PAN           string `json:"pan"`
}

type statusResponse struct {
	IsLinked bool   `json:"is_linked"`
	Message  string `json:"message"`
}

// Check returns a linkage fact for the Aadhaar/PAN pair. The fact is
// always usable: endpoint failures and rate limiting are recorded on
// the fact rather than returned as errors, so a flaky upstream can
// only ever soften the rule to a warning.
func (c *Client) Check(ctx context.Context, aadhaarNumber, pan string) domain.LinkageFact {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		fact, retryable, err := c.check(ctx, aadhaarNumber, pan)
		if err == nil {
			return fact
		}
		lastErr = err
		if !retryable {
			break
		}

		c.log.Warn().Err(err).Int("attempt", attempt).Msg("linkage check failed")
		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return domain.LinkageFact{Message: ctx.Err().Error()}
			case <-time.After(c.retryDelay):
			}
		}
	}

	// Checked stays false: the rule downgrades to a warning.
	return domain.LinkageFact{Message: lastErr.Error()}
}

func (c *Client) check(ctx context.Context, aadhaarNumber, pan string) (fact domain.LinkageFact, retryable bool, err error) {
	body, err := json.Marshal(statusRequest{AadhaarNumber: aadhaarNumber, PAN: pan})
	if err != nil {
		return domain.LinkageFact{}, false, fmt.Errorf("marshaling linkage request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/linkage/status", bytes.NewReader(body))
	if err != nil {
		return domain.LinkageFact{}, false, fmt.Errorf("building linkage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.LinkageFact{}, true, fmt.Errorf("calling linkage endpoint: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.LinkageFact{
			Checked:     true,
			RateLimited: true,
			Message:     "linkage endpoint rate limited",
		}, false, nil
	case resp.StatusCode >= 500:
		return domain.LinkageFact{}, true, fmt.Errorf("linkage endpoint returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return domain.LinkageFact{}, false, fmt.Errorf("linkage endpoint returned status %d", resp.StatusCode)
	}

	var result statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.LinkageFact{}, false, fmt.Errorf("decoding linkage response: %w", err)
	}

	return domain.LinkageFact{
		Checked:  true,
		IsLinked: result.IsLinked,
		Message:  result.Message,
	}, false, nil
}
