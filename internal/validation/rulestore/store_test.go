package rulestore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
	"github.com/complyflow/complyflow-backend/pkg/config"
	"github.com/complyflow/complyflow-backend/pkg/logger"
)

func newTestStore(url string) *Store {
	return New(&config.RuleStoreConfig{
		URL:     url,
		Index:   "compliance_rules",
		Timeout: 2 * time.Second,
	}, logger.New("rulestore-test", "test"))
}

func searchResult(rs storedRuleSet) map[string]any {
	return map[string]any{
		"hits": map[string]any{
			"hits": []map[string]any{{"_source": rs}},
		},
	}
}

func TestGetRuleSetFromStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/compliance_rules/_search", r.URL.Path)

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "3", req.Query.Term["service_id"])

		json.NewEncoder(w).Encode(searchResult(storedRuleSet{
			ServiceID: "3",
			Version:   "v7",
			Rules: []domain.RuleDefinition{
				{RuleID: domain.RuleDirectorCount, IsActive: true},
			},
		}))
	}))
	defer srv.Close()

	rs, fallback := newTestStore(srv.URL).GetRuleSet(context.Background(), "3")

	assert.False(t, fallback)
	assert.Equal(t, "3", rs.ServiceID)
	assert.Equal(t, "v7", rs.Version)
	require.Len(t, rs.Rules, 1)
}

func TestGetRuleSetForcesRequestedServiceID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A stale document indexed under the wrong service id.
		json.NewEncoder(w).Encode(searchResult(storedRuleSet{
			ServiceID: "999",
			Version:   "v1",
			Rules:     []domain.RuleDefinition{{RuleID: domain.RuleSignature, IsActive: true}},
		}))
	}))
	defer srv.Close()

	rs, fallback := newTestStore(srv.URL).GetRuleSet(context.Background(), "3")

	assert.False(t, fallback)
	assert.Equal(t, "3", rs.ServiceID)
}

func TestGetRuleSetFallsBackOnMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"hits": map[string]any{"hits": []any{}}})
	}))
	defer srv.Close()

	rs, fallback := newTestStore(srv.URL).GetRuleSet(context.Background(), "1")

	assert.True(t, fallback)
	assert.Equal(t, "1", rs.ServiceID)
	assert.True(t, rs.HasActive(domain.RuleDirectorCount))
}

func TestGetRuleSetFallsBackWhenUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rs, fallback := newTestStore(srv.URL).GetRuleSet(context.Background(), "1")

	assert.True(t, fallback)
	require.NotNil(t, rs)
	assert.NotEmpty(t, rs.Rules)

	// Unreachable host behaves the same.
	rs, fallback = newTestStore("http://127.0.0.1:1").GetRuleSet(context.Background(), "1")
	assert.True(t, fallback)
	require.NotNil(t, rs)
}

func TestDefaultRuleSetVariants(t *testing.T) {
	base := DefaultRuleSet("1")
	assert.True(t, base.HasActive(domain.RuleDirectorCount))
	assert.True(t, base.HasActive(domain.RuleIndianDirectorAadhaar))
	assert.False(t, base.HasActive(domain.RuleConsentLetter))
	assert.False(t, base.HasActive(domain.RuleTenantEBNameMatch))

	consent := DefaultRuleSet(serviceConsentLetter)
	assert.True(t, consent.HasActive(domain.RuleConsentLetter))

	board := DefaultRuleSet(serviceBoardResolution)
	assert.True(t, board.HasActive(domain.RuleBoardResolution))
	assert.False(t, board.HasActive(domain.RuleConsentLetter))

	tm := DefaultRuleSet(serviceTrademark)
	assert.True(t, tm.HasActive(domain.RuleTrademarkApplicant))
	assert.True(t, tm.HasActive(domain.RuleTrademarkVerification))
	assert.False(t, tm.HasActive(domain.RuleDirectorCount))
}
