package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventValidationCompleted = "validation.completed"
	EventValidationFailed    = "validation.failed"
	EventRuleSetFallback     = "validation.ruleset.fallback"
)

// Exchange names
const (
	ExchangeValidationEvents = "validation.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// GenerateEventID returns a new unique event identifier
func GenerateEventID() string {
	return uuid.New().String()
}

// ValidationCompletedEvent is published after a validation run finishes,
// whether compliant or not.
type ValidationCompletedEvent struct {
	RequestID    string `json:"request_id"`
	ServiceID    string `json:"service_id"`
	IsCompliant  bool   `json:"is_compliant"`
	RuleCount    int    `json:"rule_count"`
	FailedRules  int    `json:"failed_rules"`
	EntityCount  int    `json:"entity_count"`
	DurationMs   int64  `json:"duration_ms"`
	RuleSetScope string `json:"rule_set_scope"` // "remote" or "default"
}

// ValidationFailedEvent is published when a run aborts with a global error
// instead of producing a verdict.
type ValidationFailedEvent struct {
	RequestID string `json:"request_id"`
	ServiceID string `json:"service_id"`
	Error     string `json:"error"`
}

// RuleSetFallbackEvent is published when the rule repository was unavailable
// and the built-in default rule set was used.
type RuleSetFallbackEvent struct {
	RequestID string `json:"request_id"`
	ServiceID string `json:"service_id"`
	Reason    string `json:"reason"`
}
