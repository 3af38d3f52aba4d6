// Package service orchestrates a validation run: rule loading, document
// resolution, fact prefetching, evaluation and report aggregation.
package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
	"github.com/complyflow/complyflow-backend/internal/validation/report"
	"github.com/complyflow/complyflow-backend/internal/validation/rules"
	"github.com/complyflow/complyflow-backend/pkg/errors"
	"github.com/complyflow/complyflow-backend/pkg/logger"
)

// RuleSource loads the rule set for a service, reporting whether the
// built-in defaults were used.
type RuleSource interface {
	GetRuleSet(ctx context.Context, serviceID string) (*domain.RuleSet, bool)
}

// DocumentResolver turns raw document inputs into extraction results.
type DocumentResolver interface {
	ResolveEntity(ctx context.Context, key, nationality string, docs map[string]domain.DocumentInput) domain.ResolvedEntity
}

// LinkageChecker verifies Aadhaar-PAN linkage for one identity pair.
type LinkageChecker interface {
	Check(ctx context.Context, aadhaarNumber, pan string) domain.LinkageFact
}

// AuditStore persists the outcome of a run.
type AuditStore interface {
	RecordRun(ctx context.Context, compact *domain.CompactReport, detailed *domain.DetailedReport, usedDefault bool, duration time.Duration) error
}

// EventPublisher emits lifecycle events. Implementations must be
// best-effort and never block a run on broker failures.
type EventPublisher interface {
	PublishValidationCompleted(ctx context.Context, compact *domain.CompactReport, entityCount int, usedDefault bool, duration time.Duration)
	PublishValidationFailed(ctx context.Context, requestID, serviceID string, runErr error)
	PublishRuleSetFallback(ctx context.Context, requestID, serviceID, reason string)
}

// Service runs compliance validations.
type Service struct {
	ruleSource RuleSource
	resolver   DocumentResolver
	linkage    LinkageChecker
	audit      AuditStore
	events     EventPublisher
	log        *logger.Logger
}

// New creates a validation service. audit and events may be nil, in
// which case persistence and event publication are skipped.
func New(ruleSource RuleSource, resolver DocumentResolver, linkage LinkageChecker, audit AuditStore, events EventPublisher, log *logger.Logger) *Service {
	return &Service{
		ruleSource: ruleSource,
		resolver:   resolver,
		linkage:    linkage,
		audit:      audit,
		events:     events,
		log:        log,
	}
}

// Validate runs the full pipeline for one request. Structurally invalid
// input returns an error; everything after input validation produces a
// report, never a transport fault. Unexpected failures mid-run become a
// global-error report with the stack trace in the detailed view.
func (s *Service) Validate(ctx context.Context, req *domain.ValidationRequest) (compact *domain.CompactReport, detailed *domain.DetailedReport, err error) {
	if err := validateInput(req); err != nil {
		return nil, nil, err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	log := s.log.WithRequestID(req.RequestID)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			runErr := fmt.Errorf("validation run panicked: %v", r)
			log.Error().Interface("panic", r).Msg("validation run panicked")

			c, d := report.BuildFailure(req.RequestID, req.ServiceID, runErr, string(debug.Stack()))
			d.TimingMs = time.Since(started).Milliseconds()
			compact, detailed, err = &c, &d, nil
			s.finishFailed(ctx, req, runErr)
		}
	}()

	rs, usedDefault := s.ruleSource.GetRuleSet(ctx, req.ServiceID)
	if usedDefault {
		log.Warn().Str("service_id", req.ServiceID).Msg("using default rule set")
		if s.events != nil {
			s.events.PublishRuleSetFallback(ctx, req.RequestID, req.ServiceID, "rule store returned no rule set")
		}
	}

	ec := s.buildEvalContext(ctx, req, rs)

	engine := rules.NewEngine(rules.DefaultRegistry(), s.log)
	if err := engine.LoadRules(rs); err != nil {
		c, d := report.BuildFailure(req.RequestID, req.ServiceID, err, "")
		d.TimingMs = time.Since(started).Milliseconds()
		s.finishFailed(ctx, req, err)
		return &c, &d, nil
	}

	outcomes, err := engine.Evaluate(ec)
	if err != nil {
		c, d := report.BuildFailure(req.RequestID, req.ServiceID, err, "")
		d.TimingMs = time.Since(started).Milliseconds()
		s.finishFailed(ctx, req, err)
		return &c, &d, nil
	}

	c, d := report.Build(req.RequestID, rs, outcomes, ec.Entities, ec.Company)
	duration := time.Since(started)
	d.TimingMs = duration.Milliseconds()

	log.Info().
		Str("service_id", req.ServiceID).
		Bool("is_compliant", c.IsCompliant).
		Int("rule_count", len(rs.Rules)).
		Int("entity_count", len(ec.Entities)).
		Dur("duration", duration).
		Msg("validation completed")

	s.finishCompleted(ctx, &c, &d, len(ec.Entities), usedDefault, duration)
	return &c, &d, nil
}

// validateInput rejects structurally unusable requests before any
// document is fetched. Content problems (missing documents, bad scans)
// are rule failures, not input errors.
func validateInput(req *domain.ValidationRequest) error {
	if req == nil {
		return errors.BadRequest("request body is required")
	}
	if req.ServiceID == "" {
		return errors.Validation(map[string]string{"service_id": "service_id is required"})
	}
	for key, director := range req.Directors {
		if key == "" {
			return errors.Validation(map[string]string{"directors": "director keys must be non-empty"})
		}
		if director.Nationality == "" {
			return errors.Validation(map[string]string{
				"directors": fmt.Sprintf("nationality is required for %s", key),
			})
		}
	}
	for i, tm := range req.Trademarks {
		if tm.BrandName == "" {
			return errors.Validation(map[string]string{
				"trademarks": fmt.Sprintf("brand_name is required for trademark %d", i+1),
			})
		}
	}
	return nil
}

// buildEvalContext resolves all documents and prefetches external facts
// so that rule evaluation itself never performs I/O.
func (s *Service) buildEvalContext(ctx context.Context, req *domain.ValidationRequest, rs *domain.RuleSet) *rules.EvalContext {
	ec := &rules.EvalContext{
		ServiceID:     req.ServiceID,
		Now:           time.Now().UTC(),
		Preconditions: req.Preconditions,
	}

	for key, director := range req.Directors {
		ec.Entities = append(ec.Entities, s.resolver.ResolveEntity(ctx, key, director.Nationality, director.Documents))
	}
	rules.SortEntities(ec.Entities)

	if len(req.CompanyDocs) > 0 {
		ec.Company = s.resolver.ResolveEntity(ctx, domain.SubjectCompany, "", req.CompanyDocs)
	} else {
		ec.Company = domain.ResolvedEntity{Key: domain.SubjectCompany, Documents: map[string]domain.ExtractionResult{}}
	}

	if req.Applicant != nil {
		applicant := s.resolver.ResolveEntity(ctx, "applicant", req.Applicant.Nationality, req.Applicant.Documents)
		ec.Applicant = &applicant
	}

	for i, tm := range req.Trademarks {
		key := tm.BrandName
		if key == "" {
			key = fmt.Sprintf("trademark_%d", i+1)
		}
		resolved := s.resolver.ResolveEntity(ctx, key, "", tm.Documents)
		ec.Trademarks = append(ec.Trademarks, rules.ResolvedTrademark{
			BrandName: tm.BrandName,
			Documents: resolved.Documents,
		})
	}

	if rs.HasActive(domain.RuleAadhaarPANLinkage) && s.linkage != nil {
		ec.Linkage = s.prefetchLinkage(ctx, ec.Entities)
	}

	return ec
}

// prefetchLinkage checks Aadhaar-PAN linkage for every Indian director
// whose documents yielded both numbers.
func (s *Service) prefetchLinkage(ctx context.Context, entities []domain.ResolvedEntity) map[string]domain.LinkageFact {
	facts := make(map[string]domain.LinkageFact)

	for _, e := range entities {
		if !e.IsIndian() {
			continue
		}

		aadhaarNumber := ""
		if front, ok := e.Doc(domain.SlotAadhaarFront); ok && front.OK() {
			aadhaarNumber = front.Field("aadhar_number")
		}
		pan := ""
		if panDoc, ok := e.Doc(domain.SlotPAN); ok && panDoc.OK() {
			pan = panDoc.Field("pan_number")
			if pan == "" {
				pan = panDoc.Field("pan")
			}
		}
		if aadhaarNumber == "" || pan == "" {
			continue
		}

		facts[e.Key] = s.linkage.Check(ctx, aadhaarNumber, pan)
	}

	return facts
}

func (s *Service) finishCompleted(ctx context.Context, compact *domain.CompactReport, detailed *domain.DetailedReport, entityCount int, usedDefault bool, duration time.Duration) {
	if s.audit != nil {
		if err := s.audit.RecordRun(ctx, compact, detailed, usedDefault, duration); err != nil {
			s.log.Error().Err(err).Str("request_id", compact.RequestID).Msg("failed to record validation run")
		}
	}
	if s.events != nil {
		s.events.PublishValidationCompleted(ctx, compact, entityCount, usedDefault, duration)
	}
}

func (s *Service) finishFailed(ctx context.Context, req *domain.ValidationRequest, runErr error) {
	if s.events != nil {
		s.events.PublishValidationFailed(ctx, req.RequestID, req.ServiceID, runErr)
	}
}
