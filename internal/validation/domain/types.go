package domain

import (
	"encoding/json"
	"strings"
)

// Severity classifies how serious a rule failure is
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Well-known report subjects. Entity-scoped outcomes use the entity key.
const (
	SubjectAll     = "all"
	SubjectCompany = "company"
)

// RuleDefinition is one configurable compliance rule as stored in the
// rule repository. Conditions hold rule-specific thresholds and flags.
type RuleDefinition struct {
	RuleID      string         `json:"rule_id"`
	RuleName    string         `json:"rule_name"`
	Description string         `json:"description"`
	Severity    Severity       `json:"severity"`
	IsActive    bool           `json:"is_active"`
	Conditions  map[string]any `json:"conditions"`
}

// IntCondition returns the named condition as an int, or def when absent
// or not numeric. JSON numbers decode as float64.
func (r *RuleDefinition) IntCondition(key string, def int) int {
	switch v := r.Conditions[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// FloatCondition returns the named condition as a float64, or def.
func (r *RuleDefinition) FloatCondition(key string, def float64) float64 {
	switch v := r.Conditions[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

// BoolCondition returns the named condition as a bool, or def.
func (r *RuleDefinition) BoolCondition(key string, def bool) bool {
	if v, ok := r.Conditions[key].(bool); ok {
		return v
	}
	return def
}

// StringCondition returns the named condition as a string, or def.
func (r *RuleDefinition) StringCondition(key string, def string) string {
	if v, ok := r.Conditions[key].(string); ok {
		return v
	}
	return def
}

// RuleSet is the ordered collection of rules applied for one service type.
type RuleSet struct {
	ServiceID string           `json:"service_id"`
	Version   string           `json:"version"`
	Rules     []RuleDefinition `json:"rules"`
}

// Find returns the rule with the given ID, or nil.
func (rs *RuleSet) Find(ruleID string) *RuleDefinition {
	for i := range rs.Rules {
		if strings.EqualFold(rs.Rules[i].RuleID, ruleID) {
			return &rs.Rules[i]
		}
	}
	return nil
}

// HasActive reports whether the rule exists and is active.
func (rs *RuleSet) HasActive(ruleID string) bool {
	r := rs.Find(ruleID)
	return r != nil && r.IsActive
}

// DocumentInput is one document reference supplied by the caller.
// It accepts either a bare URL string or an object with url/data keys,
// so older callers that send plain URL maps keep working.
type DocumentInput struct {
	URL  string `json:"url,omitempty"`
	Data string `json:"data,omitempty"` // base64-encoded raw bytes
}

func (d *DocumentInput) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var url string
		if err := json.Unmarshal(b, &url); err != nil {
			return err
		}
		d.URL = url
		d.Data = ""
		return nil
	}
	type alias DocumentInput
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = DocumentInput(a)
	return nil
}

// IsZero reports whether no document was actually supplied.
func (d DocumentInput) IsZero() bool {
	return d.URL == "" && d.Data == ""
}

// Nationality values recognized for role-filtered rules
const (
	NationalityIndian  = "indian"
	NationalityForeign = "foreign"
)

// EntityInput is one director (or applicant) with their uploaded documents,
// keyed by document slot (e.g. "pan", "aadharFront", "passportPhoto").
type EntityInput struct {
	Nationality string                   `json:"nationality"`
	Documents   map[string]DocumentInput `json:"documents"`
}

// IsIndian reports whether the entity declared Indian nationality.
func (e *EntityInput) IsIndian() bool {
	return strings.EqualFold(strings.TrimSpace(e.Nationality), NationalityIndian)
}

// TrademarkInput is one trademark application with its verification documents.
type TrademarkInput struct {
	BrandName string                   `json:"brand_name"`
	Documents map[string]DocumentInput `json:"documents"`
}

// ValidationRequest is the full input to a validation run.
type ValidationRequest struct {
	ServiceID     string                   `json:"service_id" validate:"required"`
	RequestID     string                   `json:"request_id"`
	Directors     map[string]EntityInput   `json:"directors"`
	CompanyDocs   map[string]DocumentInput `json:"companyDocuments"`
	Applicant     *EntityInput             `json:"applicant,omitempty"`
	Trademarks    []TrademarkInput         `json:"trademarks,omitempty"`
	Preconditions map[string]string        `json:"preconditions,omitempty"`
}

// ExtractionStatus is the terminal state of one document resolution task
type ExtractionStatus string

const (
	ExtractionOK      ExtractionStatus = "extracted"
	ExtractionFailed  ExtractionStatus = "failed"
	ExtractionMissing ExtractionStatus = "missing"
)

// Extraction methods recorded on results
const (
	MethodPrimary       = "primary_extraction"
	MethodPhotoFallback = "photo_fallback"
)

// ExtractionResult is the outcome of resolving a single document slot.
type ExtractionResult struct {
	Slot             string            `json:"slot"`
	Status           ExtractionStatus  `json:"status"`
	Fields           map[string]string `json:"fields,omitempty"`
	ClarityScore     float64           `json:"clarity_score"`
	Method           string            `json:"extraction_method,omitempty"`
	Warnings         []string          `json:"warnings,omitempty"`
	Error            string            `json:"error,omitempty"`
	ContentHash      string            `json:"-"`
	ProcessingTimeMs int64             `json:"processing_time_ms,omitempty"`
}

// Field returns the named extracted field, or "".
func (r *ExtractionResult) Field(key string) string {
	return r.Fields[key]
}

// OK reports whether extraction produced usable fields.
func (r *ExtractionResult) OK() bool {
	return r.Status == ExtractionOK
}

// ResolvedEntity is one entity after document resolution: every supplied
// document slot mapped to its extraction result.
type ResolvedEntity struct {
	Key         string
	Nationality string
	Documents   map[string]ExtractionResult
}

// Doc returns the extraction result for a slot and whether it was supplied.
func (e *ResolvedEntity) Doc(slot string) (ExtractionResult, bool) {
	r, ok := e.Documents[slot]
	return r, ok
}

// IsIndian reports whether the entity declared Indian nationality.
func (e *ResolvedEntity) IsIndian() bool {
	return strings.EqualFold(strings.TrimSpace(e.Nationality), NationalityIndian)
}

// OutcomeStatus is the result class of one rule evaluation against one subject
type OutcomeStatus string

const (
	OutcomePassed  OutcomeStatus = "passed"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeWarning OutcomeStatus = "warning"
)

// RuleOutcome is one (rule, subject) evaluation result.
type RuleOutcome struct {
	RuleID  string
	Subject string
	Status  OutcomeStatus
	Message string
}
