// Package report folds rule outcomes into the two client-facing views:
// the compact verdict map and the detailed review report. Both views are
// produced from a single aggregation pass so they can never disagree.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
)

// minReportClarity is the clarity floor below which a resolved document
// is reported as not valid in the entity sub-tree.
const minReportClarity = 0.7

// Build aggregates outcomes against the rule set. Every rule in the set
// appears exactly once in both views: inactive rules and rules without
// outcomes default to passed. A rule fails iff at least one of its
// outcomes failed.
func Build(requestID string, rs *domain.RuleSet, outcomes []domain.RuleOutcome, entities []domain.ResolvedEntity, company domain.ResolvedEntity) (domain.CompactReport, domain.DetailedReport) {
	// Outcomes are grouped by upper-cased rule id so a rule set authored
	// with a different casing still collects its outcomes.
	byRule := make(map[string][]domain.RuleOutcome, len(rs.Rules))
	for _, o := range outcomes {
		key := strings.ToUpper(o.RuleID)
		byRule[key] = append(byRule[key], o)
	}

	compact := domain.CompactReport{
		RequestID: requestID,
		ServiceID: rs.ServiceID,
		Results:   make(map[string]domain.RuleResult, len(rs.Rules)),
	}
	detailed := domain.DetailedReport{
		RequestID: requestID,
		ServiceID: rs.ServiceID,
		Rules:     make([]domain.DetailedRule, 0, len(rs.Rules)),
	}

	compliant := true
	for i := range rs.Rules {
		rule := &rs.Rules[i]

		entry := domain.DetailedRule{
			RuleID:      rule.RuleID,
			RuleName:    rule.RuleName,
			Description: rule.Description,
			Severity:    rule.Severity,
			IsActive:    rule.IsActive,
			Conditions:  rule.Conditions,
			Status:      domain.StatusPassed,
		}

		if rule.IsActive {
			ruleOutcomes := byRule[strings.ToUpper(rule.RuleID)]
			var failures []string
			for _, o := range ruleOutcomes {
				entry.Details = append(entry.Details, domain.RuleDetail{
					Subject: o.Subject,
					Status:  string(o.Status),
					Message: o.Message,
				})
				if o.Status == domain.OutcomeFailed {
					failures = append(failures, fmt.Sprintf("%s: %s", o.Subject, o.Message))
				}
			}
			if len(failures) > 0 {
				entry.Status = domain.StatusFailed
				entry.ErrorMessage = strings.Join(failures, "; ")
				compliant = false
			}
		}

		compact.Results[rule.RuleID] = domain.RuleResult{
			Status:       entry.Status,
			ErrorMessage: entry.ErrorMessage,
		}
		detailed.Rules = append(detailed.Rules, entry)
	}

	compact.IsCompliant = compliant
	detailed.IsCompliant = compliant
	detailed.Entities = buildEntityTree(rs, entities, company)

	return compact, detailed
}

// BuildFailure produces the global-error pair for a run that aborted
// before (or during) evaluation. The compact view carries the message;
// the stack trace only appears in the detailed view.
func BuildFailure(requestID, serviceID string, err error, stack string) (domain.CompactReport, domain.DetailedReport) {
	compact := domain.CompactReport{
		RequestID:   requestID,
		ServiceID:   serviceID,
		IsCompliant: false,
		Results:     map[string]domain.RuleResult{},
	}
	detailed := domain.DetailedReport{
		RequestID:   requestID,
		ServiceID:   serviceID,
		IsCompliant: false,
		Rules:       []domain.DetailedRule{},
		Entities:    map[string]domain.EntityReport{},
		GlobalError: &domain.GlobalError{
			Message:    err.Error(),
			Stacktrace: stack,
		},
	}
	return compact, detailed
}

// buildEntityTree reports every resolved document plus every expected
// slot that was never supplied, per entity, with sorted keys feeding a
// deterministic serialization.
func buildEntityTree(rs *domain.RuleSet, entities []domain.ResolvedEntity, company domain.ResolvedEntity) map[string]domain.EntityReport {
	tree := make(map[string]domain.EntityReport, len(entities)+1)

	for _, e := range entities {
		tree[e.Key] = entityReport(e.Documents, ExpectedEntitySlots(rs, e.IsIndian()))
	}
	// The company node only appears for incorporation-style runs: either
	// company documents were supplied, or the active rules expect some and
	// the request carried directors.
	companySlots := ExpectedCompanySlots(rs)
	if len(company.Documents) > 0 || (len(companySlots) > 0 && len(entities) > 0) {
		tree[domain.SubjectCompany] = entityReport(company.Documents, companySlots)
	}

	return tree
}

func entityReport(docs map[string]domain.ExtractionResult, expected []string) domain.EntityReport {
	report := domain.EntityReport{
		Documents: make(map[string]domain.DocumentStatus, len(docs)+len(expected)),
	}

	for slot, res := range docs {
		report.Documents[slot] = documentStatus(res)
	}
	for _, slot := range expected {
		if _, ok := report.Documents[slot]; !ok {
			report.Documents[slot] = domain.DocumentStatus{
				Status: domain.DocNotValid,
				Reason: "not uploaded",
			}
		}
	}

	return report
}

func documentStatus(res domain.ExtractionResult) domain.DocumentStatus {
	switch res.Status {
	case domain.ExtractionMissing:
		return domain.DocumentStatus{Status: domain.DocNotValid, Reason: "not uploaded"}
	case domain.ExtractionFailed:
		return domain.DocumentStatus{Status: domain.DocNotValid, Reason: res.Error}
	}
	if res.ClarityScore > 0 && res.ClarityScore < minReportClarity {
		return domain.DocumentStatus{
			Status: domain.DocNotValid,
			Reason: fmt.Sprintf("Low clarity score: %.2f", res.ClarityScore),
		}
	}
	return domain.DocumentStatus{Status: domain.DocValid}
}

// ExpectedEntitySlots lists the document slots an entity must supply
// given the active rules and the entity's nationality.
func ExpectedEntitySlots(rs *domain.RuleSet, indian bool) []string {
	var slots []string
	if rs.HasActive(domain.RulePassportPhoto) {
		slots = append(slots, domain.SlotPassportPhoto)
	}
	if rs.HasActive(domain.RuleSignature) {
		slots = append(slots, domain.SlotSignature)
	}
	if rs.HasActive(domain.RuleAddressProof) {
		slots = append(slots, domain.SlotAddressProof)
	}
	if indian {
		if rs.HasActive(domain.RuleIndianDirectorPAN) {
			slots = append(slots, domain.SlotPAN)
		}
		if rs.HasActive(domain.RuleIndianDirectorAadhaar) {
			slots = append(slots, domain.SlotAadhaarFront, domain.SlotAadhaarBack)
		}
	} else if rs.HasActive(domain.RuleForeignDirectorDocs) {
		slots = append(slots, domain.SlotPassport)
	}
	sort.Strings(slots)
	return slots
}

// ExpectedCompanySlots lists the company-level document slots required
// by the active rules.
func ExpectedCompanySlots(rs *domain.RuleSet) []string {
	var slots []string
	if rs.HasActive(domain.RuleCompanyAddressProof) {
		slots = append(slots, domain.SlotCompanyAddressProof)
	}
	if rs.HasActive(domain.RuleNOCValidation) || rs.HasActive(domain.RuleNOCOwnerValidation) ||
		rs.HasActive(domain.RuleNOCMultipleSignatures) {
		slots = append(slots, domain.SlotNOC)
	}
	if rs.HasActive(domain.RuleTenantEBNameMatch) {
		slots = append(slots, domain.SlotElectricityBill)
	}
	if rs.HasActive(domain.RuleConsentLetter) {
		slots = append(slots, domain.SlotConsentLetter)
	}
	if rs.HasActive(domain.RuleBoardResolution) {
		slots = append(slots, domain.SlotBoardResolution)
	}
	sort.Strings(slots)
	return slots
}
