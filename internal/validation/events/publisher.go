// Package events publishes validation lifecycle events to the message
// bus. Publishing is best-effort: a broker outage never fails a
// validation run.
package events

import (
	"context"
	"time"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
	"github.com/complyflow/complyflow-backend/pkg/logger"
	"github.com/complyflow/complyflow-backend/pkg/messaging"
)

// Source identifies this service in published events.
const Source = "validation-service"

// Publisher emits validation events on the validation exchange.
type Publisher struct {
	publisher *messaging.Publisher
	log       *logger.Logger
}

// NewPublisher declares the validation exchange and returns a publisher.
func NewPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*Publisher, error) {
	p, err := messaging.NewPublisher(rmq, messaging.ExchangeValidationEvents, Source, log)
	if err != nil {
		return nil, err
	}
	return &Publisher{publisher: p, log: log}, nil
}

// PublishValidationCompleted emits the verdict summary for a finished run.
func (p *Publisher) PublishValidationCompleted(ctx context.Context, compact *domain.CompactReport, entityCount int, usedDefault bool, duration time.Duration) {
	failed := 0
	for _, result := range compact.Results {
		if result.Status == domain.StatusFailed {
			failed++
		}
	}

	scope := "remote"
	if usedDefault {
		scope = "default"
	}

	event := messaging.ValidationCompletedEvent{
		RequestID:    compact.RequestID,
		ServiceID:    compact.ServiceID,
		IsCompliant:  compact.IsCompliant,
		RuleCount:    len(compact.Results),
		FailedRules:  failed,
		EntityCount:  entityCount,
		DurationMs:   duration.Milliseconds(),
		RuleSetScope: scope,
	}

	if err := p.publisher.Publish(ctx, messaging.EventValidationCompleted, event); err != nil {
		p.log.Error().Err(err).Str("request_id", compact.RequestID).Msg("failed to publish validation completed event")
	}
}

// PublishValidationFailed emits a failure event for a run that aborted
// with a global error.
func (p *Publisher) PublishValidationFailed(ctx context.Context, requestID, serviceID string, runErr error) {
	event := messaging.ValidationFailedEvent{
		RequestID: requestID,
		ServiceID: serviceID,
		Error:     runErr.Error(),
	}

	if err := p.publisher.Publish(ctx, messaging.EventValidationFailed, event); err != nil {
		p.log.Error().Err(err).Str("request_id", requestID).Msg("failed to publish validation failed event")
	}
}

// PublishRuleSetFallback emits an event when the built-in default rule
// set was used instead of a stored one.
func (p *Publisher) PublishRuleSetFallback(ctx context.Context, requestID, serviceID, reason string) {
	event := messaging.RuleSetFallbackEvent{
		RequestID: requestID,
		ServiceID: serviceID,
		Reason:    reason,
	}

	if err := p.publisher.Publish(ctx, messaging.EventRuleSetFallback, event); err != nil {
		p.log.Error().Err(err).Str("request_id", requestID).Msg("failed to publish rule set fallback event")
	}
}
