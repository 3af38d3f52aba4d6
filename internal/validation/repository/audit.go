// Package repository persists the audit trail of validation runs.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
	"github.com/complyflow/complyflow-backend/pkg/database"
)

// ValidationRun is a persisted record of one validation request.
type ValidationRun struct {
	ID          string          `db:"id"`
	RequestID   string          `db:"request_id"`
	ServiceID   string          `db:"service_id"`
	IsCompliant bool            `db:"is_compliant"`
	RuleCount   int             `db:"rule_count"`
	FailedRules int             `db:"failed_rules"`
	EntityCount int             `db:"entity_count"`
	UsedDefault bool            `db:"used_default_rules"`
	DurationMs  int64           `db:"duration_ms"`
	Report      json.RawMessage `db:"report"`
	CreatedAt   time.Time       `db:"created_at"`
}

// AuditRepository writes validation runs to Postgres.
type AuditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// RecordRun persists the outcome of a validation run. The detailed
// report is stored as JSONB for later review.
func (r *AuditRepository) RecordRun(ctx context.Context, compact *domain.CompactReport, detailed *domain.DetailedReport, usedDefault bool, duration time.Duration) error {
	report, err := json.Marshal(detailed)
	if err != nil {
		return fmt.Errorf("marshaling report for audit: %w", err)
	}

	failed := 0
	for _, result := range compact.Results {
		if result.Status == domain.StatusFailed {
			failed++
		}
	}

	run := ValidationRun{
		ID:          uuid.New().String(),
		RequestID:   compact.RequestID,
		ServiceID:   compact.ServiceID,
		IsCompliant: compact.IsCompliant,
		RuleCount:   len(compact.Results),
		FailedRules: failed,
		EntityCount: len(detailed.Entities),
		UsedDefault: usedDefault,
		DurationMs:  duration.Milliseconds(),
		Report:      report,
		CreatedAt:   time.Now().UTC(),
	}

	query := `
		INSERT INTO validation_runs (
			id, request_id, service_id, is_compliant, rule_count,
			failed_rules, entity_count, used_default_rules, duration_ms,
			report, created_at
		) VALUES (
			:id, :request_id, :service_id, :is_compliant, :rule_count,
			:failed_rules, :entity_count, :used_default_rules, :duration_ms,
			:report, :created_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("inserting validation run: %w", err)
	}
	return nil
}

// GetRun fetches a persisted run by request id, most recent first.
func (r *AuditRepository) GetRun(ctx context.Context, requestID string) (*ValidationRun, error) {
	var run ValidationRun
	query := `
		SELECT id, request_id, service_id, is_compliant, rule_count,
		       failed_rules, entity_count, used_default_rules, duration_ms,
		       report, created_at
		FROM validation_runs
		WHERE request_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	if err := r.db.GetContext(ctx, &run, query, requestID); err != nil {
		return nil, fmt.Errorf("fetching validation run: %w", err)
	}
	return &run, nil
}

// ListRecentRuns returns the latest runs for a service.
func (r *AuditRepository) ListRecentRuns(ctx context.Context, serviceID string, limit int) ([]ValidationRun, error) {
	if limit <= 0 {
		limit = 50
	}

	runs := []ValidationRun{}
	query := `
		SELECT id, request_id, service_id, is_compliant, rule_count,
		       failed_rules, entity_count, used_default_rules, duration_ms,
		       report, created_at
		FROM validation_runs
		WHERE service_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &runs, query, serviceID, limit); err != nil {
		return nil, fmt.Errorf("listing validation runs: %w", err)
	}
	return runs, nil
}
