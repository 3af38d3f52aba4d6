package rules

import (
	"fmt"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
	"github.com/complyflow/complyflow-backend/internal/validation/match"
)

// TrademarkApplicantDocs requires the applicant to hold at least one of
// the eligibility certificates (MSME or DIPP).
type TrademarkApplicantDocs struct{}

func (TrademarkApplicantDocs) RuleID() string { return domain.RuleTrademarkApplicant }

func (TrademarkApplicantDocs) EvaluateGroup(ec *EvalContext, rule *domain.RuleDefinition) []domain.RuleOutcome {
	if ec.Applicant == nil {
		return []domain.RuleOutcome{failed(rule.RuleID, domain.SubjectAll,
			"No applicant provided for trademark validation")}
	}

	for _, slot := range []string{domain.SlotMSMECertificate, domain.SlotDIPPCertificate} {
		if res, ok := ec.Applicant.Doc(slot); ok && res.OK() {
			return []domain.RuleOutcome{passed(rule.RuleID, domain.SubjectAll)}
		}
	}
	return []domain.RuleOutcome{failed(rule.RuleID, domain.SubjectAll,
		"Applicant must provide an MSME or DIPP certificate")}
}

// TrademarkVerificationDocs checks each trademark's verification document:
// uploaded, sharp enough, and showing the brand name being registered.
type TrademarkVerificationDocs struct{}

func (TrademarkVerificationDocs) RuleID() string { return domain.RuleTrademarkVerification }

func (TrademarkVerificationDocs) EvaluateGroup(ec *EvalContext, rule *domain.RuleDefinition) []domain.RuleOutcome {
	if len(ec.Trademarks) == 0 {
		return []domain.RuleOutcome{failed(rule.RuleID, domain.SubjectAll,
			"No trademarks provided for validation")}
	}

	minClarity := rule.FloatCondition("min_clarity", 0.7)

	var out []domain.RuleOutcome
	for i, tm := range ec.Trademarks {
		subject := tm.BrandName
		if subject == "" {
			subject = fmt.Sprintf("trademark_%d", i+1)
		}

		res, fail := requireDoc(rule.RuleID, subject, tm.Documents, domain.SlotVerificationDoc)
		if fail != nil {
			out = append(out, *fail)
			continue
		}

		if res.ClarityScore < minClarity {
			out = append(out, failed(rule.RuleID, subject,
				fmt.Sprintf("Low clarity score: %.2f", res.ClarityScore)))
			continue
		}

		if tm.BrandName != "" {
			visible := firstField(res, "brand_name", "visible_text")
			if visible == "" {
				out = append(out, failed(rule.RuleID, subject,
					fmt.Sprintf("Brand name not visible on verification document for %s", tm.BrandName)))
				continue
			}
			if !match.NamesMatch(visible, tm.BrandName) {
				out = append(out, failed(rule.RuleID, subject,
					fmt.Sprintf("Verification document shows %q, expected brand %q", visible, tm.BrandName)))
				continue
			}
		}

		out = append(out, passed(rule.RuleID, subject))
	}
	return out
}
