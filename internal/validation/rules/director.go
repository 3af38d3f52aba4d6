package rules

import (
	"fmt"
	"strings"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
	"github.com/complyflow/complyflow-backend/internal/validation/match"
)

// appliesToAll marks universal director rules.
type appliesToAll struct{}

func (appliesToAll) AppliesTo(*domain.ResolvedEntity) bool { return true }

// appliesToIndian marks rules that only run for Indian directors.
type appliesToIndian struct{}

func (appliesToIndian) AppliesTo(e *domain.ResolvedEntity) bool { return e.IsIndian() }

// appliesToForeign marks rules that only run for foreign directors.
type appliesToForeign struct{}

func (appliesToForeign) AppliesTo(e *domain.ResolvedEntity) bool { return !e.IsIndian() }

// PassportPhoto checks that every director uploaded a passport-format
// photo of sufficient clarity.
type PassportPhoto struct{ appliesToAll }

func (PassportPhoto) RuleID() string { return domain.RulePassportPhoto }

func (PassportPhoto) EvaluateEntity(ec *EvalContext, rule *domain.RuleDefinition, e *domain.ResolvedEntity) []domain.RuleOutcome {
	res, fail := requireDoc(rule.RuleID, e.Key, e.Documents, domain.SlotPassportPhoto)
	if fail != nil {
		return []domain.RuleOutcome{*fail}
	}

	minClarity := rule.FloatCondition("min_clarity", 0.7)
	if res.ClarityScore < minClarity {
		return []domain.RuleOutcome{failed(rule.RuleID, e.Key,
			fmt.Sprintf("Low clarity score: %.2f", res.ClarityScore))}
	}

	out := []domain.RuleOutcome{passed(rule.RuleID, e.Key)}
	if res.Method == domain.MethodPhotoFallback {
		out = append(out, warning(rule.RuleID, e.Key, "photo assessed by fallback quality check"))
	}
	return out
}

// Signature checks that a signature specimen was uploaded and extracted.
type Signature struct{ appliesToAll }

func (Signature) RuleID() string { return domain.RuleSignature }

func (Signature) EvaluateEntity(ec *EvalContext, rule *domain.RuleDefinition, e *domain.ResolvedEntity) []domain.RuleOutcome {
	res, fail := requireDoc(rule.RuleID, e.Key, e.Documents, domain.SlotSignature)
	if fail != nil {
		return []domain.RuleOutcome{*fail}
	}

	if minClarity := rule.FloatCondition("min_clarity", 0); minClarity > 0 && res.ClarityScore < minClarity {
		return []domain.RuleOutcome{failed(rule.RuleID, e.Key,
			fmt.Sprintf("Low clarity score: %.2f", res.ClarityScore))}
	}
	return []domain.RuleOutcome{passed(rule.RuleID, e.Key)}
}

// minCompleteAddressLen is the shortest extracted address accepted as a
// complete address line.
const minCompleteAddressLen = 10

// AddressProof checks that the director's address proof is recent
// enough, carries a complete address line, and names the director.
type AddressProof struct{ appliesToAll }

func (AddressProof) RuleID() string { return domain.RuleAddressProof }

func (AddressProof) EvaluateEntity(ec *EvalContext, rule *domain.RuleDefinition, e *domain.ResolvedEntity) []domain.RuleOutcome {
	res, fail := requireDoc(rule.RuleID, e.Key, e.Documents, domain.SlotAddressProof)
	if fail != nil {
		return []domain.RuleOutcome{*fail}
	}

	maxAge := rule.IntCondition("max_age_days", 45)
	dateStr := firstField(res, "date", "issue_date", "bill_date")
	if dateStr == "" {
		return []domain.RuleOutcome{failed(rule.RuleID, e.Key,
			"Could not determine addressProof document date")}
	}

	var out []domain.RuleOutcome
	if age, ok := match.DocumentAge(dateStr, ec.Now); !ok {
		out = append(out, failed(rule.RuleID, e.Key,
			fmt.Sprintf("Could not parse addressProof date: %s", dateStr)))
	} else if age > maxAge {
		out = append(out, failed(rule.RuleID, e.Key,
			fmt.Sprintf("addressProof is %d days old, maximum allowed is %d", age, maxAge)))
	}

	if rule.BoolCondition("complete_address_required", true) {
		if addr := strings.TrimSpace(res.Field("address")); len(addr) < minCompleteAddressLen {
			out = append(out, failed(rule.RuleID, e.Key,
				fmt.Sprintf("Address proof for %s does not contain a complete address", e.Key)))
		}
	}

	if rule.BoolCondition("name_match_required", true) {
		directorName := directorName(e)
		addrName := firstField(res, "name", "consumer_name")
		switch {
		case directorName == "" || addrName == "":
			out = append(out, failed(rule.RuleID, e.Key,
				fmt.Sprintf("Missing name in address proof for %s", e.Key)))
		case !match.NamesMatch(directorName, addrName):
			out = append(out, failed(rule.RuleID, e.Key,
				fmt.Sprintf("Address proof name '%s' for %s does not match director name '%s'", addrName, e.Key, directorName)))
		}
	}

	if len(out) == 0 {
		out = append(out, passed(rule.RuleID, e.Key))
	}
	return out
}

// directorNameSlots is the priority order of documents consulted for the
// director's canonical name.
var directorNameSlots = []string{domain.SlotPAN, domain.SlotAadhaarFront, domain.SlotPassport}

// directorName extracts the director's name from identity documents, in
// priority order, then from any other successfully extracted document.
func directorName(e *domain.ResolvedEntity) string {
	for _, slot := range directorNameSlots {
		if res, ok := e.Doc(slot); ok && res.OK() {
			if name := res.Field("name"); name != "" {
				return name
			}
		}
	}
	for slot, res := range e.Documents {
		if slot == domain.SlotAddressProof || !res.OK() {
			continue
		}
		if name := res.Field("name"); name != "" {
			return name
		}
	}
	return ""
}

// IndianDirectorPAN validates the PAN card of Indian directors: format
// of the PAN number and the minimum age derived from the date of birth.
type IndianDirectorPAN struct{ appliesToIndian }

func (IndianDirectorPAN) RuleID() string { return domain.RuleIndianDirectorPAN }

func (IndianDirectorPAN) EvaluateEntity(ec *EvalContext, rule *domain.RuleDefinition, e *domain.ResolvedEntity) []domain.RuleOutcome {
	res, fail := requireDoc(rule.RuleID, e.Key, e.Documents, domain.SlotPAN)
	if fail != nil {
		return []domain.RuleOutcome{*fail}
	}

	var out []domain.RuleOutcome

	pan := firstField(res, "pan_number", "pan")
	if !match.PANValid(pan) {
		out = append(out, failed(rule.RuleID, e.Key,
			fmt.Sprintf("Invalid PAN format for %s: %s", e.Key, pan)))
	}

	minAge := rule.IntCondition("min_age", 18)
	if dobStr := firstField(res, "dob", "date_of_birth"); dobStr != "" {
		if dob, ok := match.ParseDate(dobStr, ec.Now); ok {
			if age := match.AgeInYears(dob, ec.Now); age < minAge {
				out = append(out, failed(rule.RuleID, e.Key,
					fmt.Sprintf("Director %s is below the minimum age of %d", e.Key, minAge)))
			}
		} else {
			out = append(out, warning(rule.RuleID, e.Key,
				fmt.Sprintf("Could not parse date of birth on PAN: %s", dobStr)))
		}
	}

	if len(out) == 0 {
		out = append(out, passed(rule.RuleID, e.Key))
	}
	return out
}

// Aadhaar key fields compared when front and back carry the same image
// bytes. Disagreement on more than one means the sides are genuinely
// different documents stuffed into one upload.
var aadhaarKeyFields = []string{"name", "dob", "aadhar_number", "gender"}

// IndianDirectorAadhaar validates Aadhaar front and back: both sides
// present, masking policy, and duplicate-image detection.
type IndianDirectorAadhaar struct{ appliesToIndian }

func (IndianDirectorAadhaar) RuleID() string { return domain.RuleIndianDirectorAadhaar }

func (IndianDirectorAadhaar) EvaluateEntity(ec *EvalContext, rule *domain.RuleDefinition, e *domain.ResolvedEntity) []domain.RuleOutcome {
	front, failFront := requireDoc(rule.RuleID, e.Key, e.Documents, domain.SlotAadhaarFront)
	back, failBack := requireDoc(rule.RuleID, e.Key, e.Documents, domain.SlotAadhaarBack)

	var out []domain.RuleOutcome
	if failFront != nil {
		out = append(out, *failFront)
	}
	if failBack != nil {
		out = append(out, *failBack)
	}
	if len(out) > 0 {
		return out
	}

	if rule.BoolCondition("masked_not_allowed", true) {
		frontMasked := match.AadhaarMasked(firstField(front, "aadhar_number", "aadhaar_number"))
		backMasked := match.AadhaarMasked(firstField(back, "aadhar_number", "aadhaar_number"))
		switch {
		case frontMasked && backMasked:
			out = append(out, failed(rule.RuleID, e.Key,
				fmt.Sprintf("Both Aadhar front and back are masked for %s, need at least one unmasked", e.Key)))
		case frontMasked:
			out = append(out, warning(rule.RuleID, e.Key,
				fmt.Sprintf("Aadhar front is masked for %s", e.Key)))
		case backMasked:
			out = append(out, warning(rule.RuleID, e.Key,
				fmt.Sprintf("Aadhar back is masked for %s", e.Key)))
		}
	}

	if rule.BoolCondition("different_images_required", true) &&
		front.ContentHash != "" && front.ContentHash == back.ContentHash {
		// Identical bytes alone stay a warning; it becomes a failure only
		// when the extracted key fields also disagree, which rules out a
		// benign double upload of a combined scan.
		inconsistent := 0
		for _, key := range aadhaarKeyFields {
			fv, bv := front.Field(key), back.Field(key)
			if fv != "" && bv != "" && fv != bv {
				inconsistent++
			}
		}
		msg := fmt.Sprintf("Same image used for Aadhar front and back for %s", e.Key)
		if inconsistent > 1 {
			out = append(out, failed(rule.RuleID, e.Key, msg))
		} else {
			out = append(out, warning(rule.RuleID, e.Key, msg))
		}
	}

	if len(out) == 0 {
		out = append(out, passed(rule.RuleID, e.Key))
	}
	return out
}

// ForeignDirectorDocs checks foreign directors' passports, including expiry.
type ForeignDirectorDocs struct{ appliesToForeign }

func (ForeignDirectorDocs) RuleID() string { return domain.RuleForeignDirectorDocs }

func (ForeignDirectorDocs) EvaluateEntity(ec *EvalContext, rule *domain.RuleDefinition, e *domain.ResolvedEntity) []domain.RuleOutcome {
	res, fail := requireDoc(rule.RuleID, e.Key, e.Documents, domain.SlotPassport)
	if fail != nil {
		return []domain.RuleOutcome{*fail}
	}

	expiryStr := firstField(res, "expiry_date", "date_of_expiry")
	if expiryStr == "" {
		return []domain.RuleOutcome{warning(rule.RuleID, e.Key,
			"Passport expiry date could not be read")}
	}
	expiry, ok := parseExpiry(expiryStr, ec)
	if !ok {
		return []domain.RuleOutcome{warning(rule.RuleID, e.Key,
			fmt.Sprintf("Could not parse passport expiry date: %s", expiryStr))}
	}
	if expiry.Before(ec.Now) {
		return []domain.RuleOutcome{failed(rule.RuleID, e.Key,
			fmt.Sprintf("Passport for %s has expired", e.Key))}
	}
	return []domain.RuleOutcome{passed(rule.RuleID, e.Key)}
}

// AadhaarPANLinkage reports whether the director's Aadhaar and PAN are
// linked at the income tax department. The lookup happens before dispatch;
// this rule only reads the pre-fetched fact.
type AadhaarPANLinkage struct{ appliesToIndian }

func (AadhaarPANLinkage) RuleID() string { return domain.RuleAadhaarPANLinkage }

func (AadhaarPANLinkage) EvaluateEntity(ec *EvalContext, rule *domain.RuleDefinition, e *domain.ResolvedEntity) []domain.RuleOutcome {
	fact, ok := ec.Linkage[e.Key]
	if !ok || !fact.Checked {
		return []domain.RuleOutcome{warning(rule.RuleID, e.Key,
			fmt.Sprintf("Aadhar-PAN linkage status unavailable for %s", e.Key))}
	}
	if fact.RateLimited {
		return []domain.RuleOutcome{warning(rule.RuleID, e.Key,
			fmt.Sprintf("Aadhar-PAN linkage check rate limited for %s", e.Key))}
	}
	if !fact.IsLinked {
		msg := fact.Message
		if msg == "" {
			msg = fmt.Sprintf("Aadhar and PAN are not linked for %s", e.Key)
		}
		return []domain.RuleOutcome{failed(rule.RuleID, e.Key, msg)}
	}
	return []domain.RuleOutcome{passed(rule.RuleID, e.Key)}
}

// AadhaarPANNameMatch cross-checks the holder name on Aadhaar and PAN.
type AadhaarPANNameMatch struct{ appliesToIndian }

func (AadhaarPANNameMatch) RuleID() string { return domain.RuleAadhaarPANNameMatch }

func (AadhaarPANNameMatch) EvaluateEntity(ec *EvalContext, rule *domain.RuleDefinition, e *domain.ResolvedEntity) []domain.RuleOutcome {
	aadhaar, okA := e.Doc(domain.SlotAadhaarFront)
	pan, okP := e.Doc(domain.SlotPAN)
	if !okA || !okP || !aadhaar.OK() || !pan.OK() {
		// Presence is the concern of the Aadhaar and PAN rules; without
		// both names there is nothing to compare here.
		return nil
	}

	aName := aadhaar.Field("name")
	pName := pan.Field("name")
	if aName == "" || pName == "" {
		return []domain.RuleOutcome{warning(rule.RuleID, e.Key,
			fmt.Sprintf("Holder name missing on Aadhar or PAN for %s", e.Key))}
	}

	// strict_match demands equality after normalization; otherwise
	// fuzzy_matching (the default) tolerates reordered or partial names.
	// With both disabled no comparison can succeed.
	var namesMatch bool
	if rule.BoolCondition("strict_match", false) {
		namesMatch = match.NamesMatchStrict(aName, pName)
	} else if rule.BoolCondition("fuzzy_matching", true) {
		namesMatch = match.NamesMatch(aName, pName)
	}
	if !namesMatch {
		return []domain.RuleOutcome{failed(rule.RuleID, e.Key,
			fmt.Sprintf("Name mismatch between Aadhar and PAN for %s", e.Key))}
	}
	return []domain.RuleOutcome{passed(rule.RuleID, e.Key)}
}
