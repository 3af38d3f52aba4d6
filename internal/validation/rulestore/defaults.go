package rulestore

import "github.com/complyflow/complyflow-backend/internal/validation/domain"

// Service ids with additional company-document requirements.
const (
	serviceConsentLetter   = "6"
	serviceBoardResolution = "7"
	serviceTrademark       = "8"
)

const defaultVersion = "builtin-1"

// DefaultRuleSet returns the built-in rule set for a service. Used
// whenever the rule store has nothing for the service, so callers
// always get a workable set.
func DefaultRuleSet(serviceID string) *domain.RuleSet {
	if serviceID == serviceTrademark {
		return &domain.RuleSet{
			ServiceID: serviceID,
			Version:   defaultVersion,
			Rules:     trademarkRules(),
		}
	}

	rules := incorporationRules()
	switch serviceID {
	case serviceConsentLetter:
		rules = append(rules, domain.RuleDefinition{
			RuleID:      domain.RuleConsentLetter,
			RuleName:    "Consent Letter",
			Description: "A consent letter from the property owner must be uploaded",
			Severity:    domain.SeverityHigh,
			IsActive:    true,
		})
	case serviceBoardResolution:
		rules = append(rules, domain.RuleDefinition{
			RuleID:      domain.RuleBoardResolution,
			RuleName:    "Board Resolution",
			Description: "A board resolution naming the company must be uploaded",
			Severity:    domain.SeverityHigh,
			IsActive:    true,
		})
	}

	return &domain.RuleSet{
		ServiceID: serviceID,
		Version:   defaultVersion,
		Rules:     rules,
	}
}

func incorporationRules() []domain.RuleDefinition {
	return []domain.RuleDefinition{
		{
			RuleID:      domain.RuleDirectorCount,
			RuleName:    "Director Count",
			Description: "The company must have between two and five directors",
			Severity:    domain.SeverityCritical,
			IsActive:    true,
			Conditions:  map[string]any{"min_directors": float64(2), "max_directors": float64(5)},
		},
		{
			RuleID:      domain.RulePassportPhoto,
			RuleName:    "Passport Photo",
			Description: "Every director must upload a clear passport photo",
			Severity:    domain.SeverityHigh,
			IsActive:    true,
			Conditions:  map[string]any{"min_clarity": 0.7},
		},
		{
			RuleID:      domain.RuleSignature,
			RuleName:    "Signature",
			Description: "Every director must upload a signature specimen",
			Severity:    domain.SeverityHigh,
			IsActive:    true,
		},
		{
			RuleID:      domain.RuleAddressProof,
			RuleName:    "Address Proof",
			Description: "Every director must upload a recent address proof",
			Severity:    domain.SeverityHigh,
			IsActive:    true,
			Conditions: map[string]any{
				"max_age_days":              float64(45),
				"name_match_required":       true,
				"complete_address_required": true,
			},
		},
		{
			RuleID:      domain.RuleIndianDirectorPAN,
			RuleName:    "Indian Director PAN",
			Description: "Indian directors must upload a valid PAN card",
			Severity:    domain.SeverityCritical,
			IsActive:    true,
			Conditions:  map[string]any{"min_age": float64(18)},
		},
		{
			RuleID:      domain.RuleIndianDirectorAadhaar,
			RuleName:    "Indian Director Aadhaar",
			Description: "Indian directors must upload both sides of their Aadhaar card",
			Severity:    domain.SeverityCritical,
			IsActive:    true,
			Conditions: map[string]any{
				"masked_not_allowed":        true,
				"different_images_required": true,
			},
		},
		{
			RuleID:      domain.RuleForeignDirectorDocs,
			RuleName:    "Foreign Director Documents",
			Description: "Foreign directors must upload an unexpired passport",
			Severity:    domain.SeverityCritical,
			IsActive:    true,
		},
		{
			RuleID:      domain.RuleCompanyAddressProof,
			RuleName:    "Company Address Proof",
			Description: "The company must upload a recent registered-address proof",
			Severity:    domain.SeverityHigh,
			IsActive:    true,
			Conditions:  map[string]any{"max_age_days": float64(45)},
		},
		{
			RuleID:      domain.RuleNOCValidation,
			RuleName:    "NOC",
			Description: "A no-objection certificate from the property owner must be uploaded",
			Severity:    domain.SeverityHigh,
			IsActive:    true,
		},
		{
			RuleID:      domain.RuleAadhaarPANLinkage,
			RuleName:    "Aadhaar-PAN Linkage",
			Description: "Each Indian director's Aadhaar must be linked to their PAN",
			Severity:    domain.SeverityHigh,
			IsActive:    true,
		},
		{
			RuleID:      domain.RuleAadhaarPANNameMatch,
			RuleName:    "Aadhaar-PAN Name Match",
			Description: "The name on the Aadhaar must match the name on the PAN",
			Severity:    domain.SeverityMedium,
			IsActive:    true,
			Conditions: map[string]any{
				"strict_match":   false,
				"fuzzy_matching": true,
			},
		},
		{
			RuleID:      domain.RuleNOCOwnerValidation,
			RuleName:    "NOC Owner",
			Description: "The NOC must name the registered property owner",
			Severity:    domain.SeverityMedium,
			IsActive:    false,
		},
		{
			RuleID:      domain.RuleNOCMultipleSignatures,
			RuleName:    "NOC Signatures",
			Description: "Jointly owned properties require signatures from all owners",
			Severity:    domain.SeverityMedium,
			IsActive:    false,
			Conditions:  map[string]any{"min_signatures": float64(2)},
		},
		{
			RuleID:      domain.RuleTenantEBNameMatch,
			RuleName:    "Electricity Bill Name Match",
			Description: "The electricity bill must name the property owner",
			Severity:    domain.SeverityMedium,
			IsActive:    false,
		},
	}
}

func trademarkRules() []domain.RuleDefinition {
	return []domain.RuleDefinition{
		{
			RuleID:      domain.RuleTrademarkApplicant,
			RuleName:    "Trademark Applicant Documents",
			Description: "The applicant must provide an MSME or DIPP certificate",
			Severity:    domain.SeverityCritical,
			IsActive:    true,
		},
		{
			RuleID:      domain.RuleTrademarkVerification,
			RuleName:    "Trademark Verification Documents",
			Description: "Every trademark must carry a clear verification document showing the brand name",
			Severity:    domain.SeverityCritical,
			IsActive:    true,
			Conditions:  map[string]any{"min_clarity": 0.7},
		},
	}
}
