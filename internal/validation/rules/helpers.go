package rules

import (
	"fmt"
	"time"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
	"github.com/complyflow/complyflow-backend/internal/validation/match"
)

func passed(ruleID, subject string) domain.RuleOutcome {
	return domain.RuleOutcome{RuleID: ruleID, Subject: subject, Status: domain.OutcomePassed}
}

func failed(ruleID, subject, msg string) domain.RuleOutcome {
	return domain.RuleOutcome{RuleID: ruleID, Subject: subject, Status: domain.OutcomeFailed, Message: msg}
}

func warning(ruleID, subject, msg string) domain.RuleOutcome {
	return domain.RuleOutcome{RuleID: ruleID, Subject: subject, Status: domain.OutcomeWarning, Message: msg}
}

// requireDoc fetches a document slot that the rule depends on. When the
// document was not supplied or its extraction failed, it returns the
// failing outcome to emit instead.
func requireDoc(ruleID, subject string, docs map[string]domain.ExtractionResult, slot string) (*domain.ExtractionResult, *domain.RuleOutcome) {
	res, ok := docs[slot]
	if !ok || res.Status == domain.ExtractionMissing {
		out := failed(ruleID, subject, fmt.Sprintf("%s not uploaded", slot))
		return nil, &out
	}
	if res.Status == domain.ExtractionFailed {
		out := failed(ruleID, subject, fmt.Sprintf("%s: %s", slot, res.Error))
		return nil, &out
	}
	return &res, nil
}

// parseExpiry parses an expiry date. Unlike issue dates, expiry dates
// legitimately lie in the future, so the misparse guard is lifted.
func parseExpiry(s string, ec *EvalContext) (time.Time, bool) {
	return match.ParseDate(s, ec.Now.AddDate(100, 0, 0))
}

// firstField returns the first non-empty value among the given field keys.
func firstField(res *domain.ExtractionResult, keys ...string) string {
	for _, k := range keys {
		if v := res.Field(k); v != "" {
			return v
		}
	}
	return ""
}
