package domain

// Report status strings
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

// Document status strings used in the entity sub-tree
const (
	DocValid    = "Valid"
	DocNotValid = "Not Valid"
)

// RuleResult is the compact per-rule verdict.
type RuleResult struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// CompactReport is the machine-oriented view: one entry per rule in the
// active rule set.
type CompactReport struct {
	RequestID   string                `json:"request_id"`
	ServiceID   string                `json:"service_id"`
	IsCompliant bool                  `json:"is_compliant"`
	Results     map[string]RuleResult `json:"validation_results"`
}

// RuleDetail is one per-subject evaluation inside a detailed rule entry.
type RuleDetail struct {
	Subject string `json:"subject"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// DetailedRule is the review-oriented expansion of a single rule.
type DetailedRule struct {
	RuleID       string         `json:"rule_id"`
	RuleName     string         `json:"rule_name"`
	Description  string         `json:"description"`
	Severity     Severity       `json:"severity"`
	IsActive     bool           `json:"is_active"`
	Conditions   map[string]any `json:"conditions"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Details      []RuleDetail   `json:"details,omitempty"`
}

// DocumentStatus reports one resolved document in the entity sub-tree.
type DocumentStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// EntityReport groups document statuses for one entity.
type EntityReport struct {
	Documents map[string]DocumentStatus `json:"documents"`
}

// GlobalError is attached when the run aborted with an unexpected error.
// The compact view carries only the message; the detailed view adds the
// stack trace.
type GlobalError struct {
	Message    string `json:"message"`
	Stacktrace string `json:"stacktrace,omitempty"`
}

// DetailedReport is the human-review view of a validation run. TimingMs
// records how long the run took end to end.
type DetailedReport struct {
	RequestID   string                  `json:"request_id"`
	ServiceID   string                  `json:"service_id"`
	IsCompliant bool                    `json:"is_compliant"`
	TimingMs    int64                   `json:"timing_ms"`
	Rules       []DetailedRule          `json:"validation_rules"`
	Entities    map[string]EntityReport `json:"entities"`
	GlobalError *GlobalError            `json:"global_error,omitempty"`
}
