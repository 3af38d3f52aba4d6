package rules

import (
	"fmt"
	"strconv"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
	"github.com/complyflow/complyflow-backend/internal/validation/match"
)

// CompanyAddressProof checks the registered-office address proof: present,
// recent, and matching the registered address when the caller supplied one.
type CompanyAddressProof struct{}

func (CompanyAddressProof) RuleID() string { return domain.RuleCompanyAddressProof }

func (CompanyAddressProof) EvaluateGroup(ec *EvalContext, rule *domain.RuleDefinition) []domain.RuleOutcome {
	res, fail := requireDoc(rule.RuleID, domain.SubjectCompany, ec.Company.Documents, domain.SlotCompanyAddressProof)
	if fail != nil {
		return []domain.RuleOutcome{*fail}
	}

	var out []domain.RuleOutcome

	maxAge := rule.IntCondition("max_age_days", 45)
	if dateStr := firstField(res, "date", "issue_date", "bill_date"); dateStr != "" {
		if age, ok := match.DocumentAge(dateStr, ec.Now); ok && age > maxAge {
			out = append(out, failed(rule.RuleID, domain.SubjectCompany,
				fmt.Sprintf("companyAddressProof is %d days old, maximum allowed is %d", age, maxAge)))
		}
	} else {
		out = append(out, failed(rule.RuleID, domain.SubjectCompany,
			"Could not determine companyAddressProof document date"))
	}

	if registered, ok := ec.Precondition(domain.PreconditionCompanyAddress); ok {
		if docAddr := firstField(res, "address", "full_address"); docAddr != "" {
			if !match.AddressesMatch(docAddr, registered) {
				out = append(out, failed(rule.RuleID, domain.SubjectCompany,
					"Company address proof does not match registered address"))
			}
		} else {
			out = append(out, warning(rule.RuleID, domain.SubjectCompany,
				"Address could not be read from companyAddressProof"))
		}
	}

	if len(out) == 0 {
		out = append(out, passed(rule.RuleID, domain.SubjectCompany))
	}
	return out
}

// NOCValidation checks that a no-objection certificate was uploaded and
// extracted.
type NOCValidation struct{}

func (NOCValidation) RuleID() string { return domain.RuleNOCValidation }

func (NOCValidation) EvaluateGroup(ec *EvalContext, rule *domain.RuleDefinition) []domain.RuleOutcome {
	_, fail := requireDoc(rule.RuleID, domain.SubjectCompany, ec.Company.Documents, domain.SlotNOC)
	if fail != nil {
		return []domain.RuleOutcome{*fail}
	}
	return []domain.RuleOutcome{passed(rule.RuleID, domain.SubjectCompany)}
}

// NOCOwnerValidation cross-checks the owner name on the NOC against the
// property owner supplied as a precondition. Without the precondition
// there is nothing to compare and the rule does not run.
type NOCOwnerValidation struct{}

func (NOCOwnerValidation) RuleID() string { return domain.RuleNOCOwnerValidation }

func (NOCOwnerValidation) EvaluateGroup(ec *EvalContext, rule *domain.RuleDefinition) []domain.RuleOutcome {
	owner, ok := ec.Precondition(domain.PreconditionOwnerName)
	if !ok {
		return nil
	}

	res, fail := requireDoc(rule.RuleID, domain.SubjectCompany, ec.Company.Documents, domain.SlotNOC)
	if fail != nil {
		return []domain.RuleOutcome{*fail}
	}

	docOwner := firstField(res, "owner_name", "name")
	if docOwner == "" {
		return []domain.RuleOutcome{warning(rule.RuleID, domain.SubjectCompany,
			"Owner name could not be read from NOC")}
	}
	if !match.NamesMatch(docOwner, owner) {
		return []domain.RuleOutcome{failed(rule.RuleID, domain.SubjectCompany,
			"NOC owner name does not match property owner")}
	}
	return []domain.RuleOutcome{passed(rule.RuleID, domain.SubjectCompany)}
}

// NOCMultipleSignatures requires the NOC to carry at least the configured
// number of signatures (joint ownership).
type NOCMultipleSignatures struct{}

func (NOCMultipleSignatures) RuleID() string { return domain.RuleNOCMultipleSignatures }

func (NOCMultipleSignatures) EvaluateGroup(ec *EvalContext, rule *domain.RuleDefinition) []domain.RuleOutcome {
	res, fail := requireDoc(rule.RuleID, domain.SubjectCompany, ec.Company.Documents, domain.SlotNOC)
	if fail != nil {
		return []domain.RuleOutcome{*fail}
	}

	minSig := rule.IntCondition("min_signatures", 2)
	countStr := res.Field("signature_count")
	count, err := strconv.Atoi(countStr)
	if countStr == "" || err != nil {
		return []domain.RuleOutcome{warning(rule.RuleID, domain.SubjectCompany,
			"Signature count could not be read from NOC")}
	}
	if count < minSig {
		return []domain.RuleOutcome{failed(rule.RuleID, domain.SubjectCompany,
			fmt.Sprintf("NOC carries %d signatures, minimum required is %d", count, minSig))}
	}
	return []domain.RuleOutcome{passed(rule.RuleID, domain.SubjectCompany)}
}

// TenantEBNameMatch compares the consumer name on the electricity bill
// with the property owner named in the preconditions. Covers rented
// premises where the bill stays in the owner's name.
type TenantEBNameMatch struct{}

func (TenantEBNameMatch) RuleID() string { return domain.RuleTenantEBNameMatch }

func (TenantEBNameMatch) EvaluateGroup(ec *EvalContext, rule *domain.RuleDefinition) []domain.RuleOutcome {
	owner, ok := ec.Precondition(domain.PreconditionOwnerName)
	if !ok {
		return nil
	}

	res, fail := requireDoc(rule.RuleID, domain.SubjectCompany, ec.Company.Documents, domain.SlotElectricityBill)
	if fail != nil {
		return []domain.RuleOutcome{*fail}
	}

	consumer := firstField(res, "consumer_name", "name")
	if consumer == "" {
		return []domain.RuleOutcome{warning(rule.RuleID, domain.SubjectCompany,
			"Consumer name could not be read from electricity bill")}
	}
	if !match.NamesMatch(consumer, owner) {
		return []domain.RuleOutcome{failed(rule.RuleID, domain.SubjectCompany,
			"Electricity bill consumer name does not match property owner")}
	}
	return []domain.RuleOutcome{passed(rule.RuleID, domain.SubjectCompany)}
}

// ConsentLetterValidation checks the consent letter required for
// section 8 incorporations.
type ConsentLetterValidation struct{}

func (ConsentLetterValidation) RuleID() string { return domain.RuleConsentLetter }

func (ConsentLetterValidation) EvaluateGroup(ec *EvalContext, rule *domain.RuleDefinition) []domain.RuleOutcome {
	_, fail := requireDoc(rule.RuleID, domain.SubjectCompany, ec.Company.Documents, domain.SlotConsentLetter)
	if fail != nil {
		return []domain.RuleOutcome{*fail}
	}
	return []domain.RuleOutcome{passed(rule.RuleID, domain.SubjectCompany)}
}

// BoardResolutionValidation checks the board resolution document and,
// when the company name precondition is present, that the resolution
// names the right company.
type BoardResolutionValidation struct{}

func (BoardResolutionValidation) RuleID() string { return domain.RuleBoardResolution }

func (BoardResolutionValidation) EvaluateGroup(ec *EvalContext, rule *domain.RuleDefinition) []domain.RuleOutcome {
	res, fail := requireDoc(rule.RuleID, domain.SubjectCompany, ec.Company.Documents, domain.SlotBoardResolution)
	if fail != nil {
		return []domain.RuleOutcome{*fail}
	}

	if company, ok := ec.Precondition(domain.PreconditionCompanyName); ok {
		docCompany := firstField(res, "company_name", "name")
		if docCompany == "" {
			return []domain.RuleOutcome{warning(rule.RuleID, domain.SubjectCompany,
				"Company name could not be read from board resolution")}
		}
		if !match.NamesMatch(docCompany, company) {
			return []domain.RuleOutcome{failed(rule.RuleID, domain.SubjectCompany,
				"Board resolution does not name the applying company")}
		}
	}
	return []domain.RuleOutcome{passed(rule.RuleID, domain.SubjectCompany)}
}
