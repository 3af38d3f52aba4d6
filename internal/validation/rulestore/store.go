// Package rulestore loads versioned rule sets from the central rule
// index, falling back to the built-in defaults when the index has no
// entry for a service or is unreachable.
package rulestore

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

const defaultTimeout = 5 * time.Second

// Store queries the rule index over HTTP.
type Store struct {
	baseURL    string
	index      string
	httpClient *http.Client
	log        *logger.Logger
}

// New builds a store from the rule store configuration.
func New(cfg *config.RuleStoreConfig, log *logger.Logger) *Store {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{
		baseURL:    cfg.URL,
		index:      cfg.Index,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type searchRequest struct {
	Query searchQuery `json:"query"`
	Sort  []any       `json:"sort"`
	Size  int         `json:"size"`
}

type searchQuery struct {
	Term map[string]string `json:"term"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source storedRuleSet `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type storedRuleSet struct {
	ServiceID string                  `json:"service_id"`
	Version   string                  `json:"version"`
	Rules     []domain.RuleDefinition `json:"rules"`
}

// GetRuleSet returns the highest-version rule set stored for the
// service. When the index is unreachable or holds nothing for the
// service, the built-in defaults are returned and fallback is true.
// The returned set always carries the requested service id.
func (s *Store) GetRuleSet(ctx context.Context, serviceID string) (rs *domain.RuleSet, fallback bool) {
	stored, err := s.search(ctx, serviceID)
	if err != nil {
		s.log.Warn().Err(err).Str("service_id", serviceID).Msg("rule store lookup failed, using default rule set")
		return DefaultRuleSet(serviceID), true
	}
	if stored == nil || len(stored.Rules) == 0 {
		s.log.Info().Str("service_id", serviceID).Msg("no stored rule set, using default rule set")
		return DefaultRuleSet(serviceID), true
	}

	return &domain.RuleSet{
		ServiceID: serviceID,
		Version:   stored.Version,
		Rules:     stored.Rules,
	}, false
}

func (s *Store) search(ctx context.Context, serviceID string) (*storedRuleSet, error) {
	body, err := json.Marshal(searchRequest{
		Query: searchQuery{Term: map[string]string{"service_id": serviceID}},
		Sort:  []any{map[string]string{"version": "desc"}},
		Size:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling rule query: %w", err)
	}

	url := fmt.Sprintf("%s/%s/_search", s.baseURL, s.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building rule store request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying rule store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rule store returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding rule store response: %w", err)
	}
	if len(result.Hits.Hits) == 0 {
		return nil, nil
	}

	return &result.Hits.Hits[0].Source, nil
}
