package report

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
)

func testRuleSet(rules ...domain.RuleDefinition) *domain.RuleSet {
	return &domain.RuleSet{ServiceID: "1", Version: "v1", Rules: rules}
}

func rule(id string, active bool) domain.RuleDefinition {
	return domain.RuleDefinition{
		RuleID:   id,
		RuleName: id,
		Severity: domain.SeverityHigh,
		IsActive: active,
	}
}

func okDoc(slot string, clarity float64) domain.ExtractionResult {
	return domain.ExtractionResult{Slot: slot, Status: domain.ExtractionOK, ClarityScore: clarity}
}

func resolved(key, nationality string, docs ...domain.ExtractionResult) domain.ResolvedEntity {
	m := make(map[string]domain.ExtractionResult, len(docs))
	for _, d := range docs {
		m[d.Slot] = d
	}
	return domain.ResolvedEntity{Key: key, Nationality: nationality, Documents: m}
}

func TestBuildEveryRuleAppearsOnce(t *testing.T) {
	rs := testRuleSet(
		rule(domain.RuleDirectorCount, true),
		rule(domain.RulePassportPhoto, true),
		rule(domain.RuleSignature, false),
	)
	outcomes := []domain.RuleOutcome{
		{RuleID: domain.RuleDirectorCount, Subject: domain.SubjectAll, Status: domain.OutcomePassed},
	}

	compact, detailed := Build("req-1", rs, outcomes, nil, domain.ResolvedEntity{})

	require.Len(t, compact.Results, 3)
	require.Len(t, detailed.Rules, 3)

	// Active rule with a passed outcome.
	assert.Equal(t, domain.StatusPassed, compact.Results[domain.RuleDirectorCount].Status)
	// Active rule with no outcomes defaults to passed.
	assert.Equal(t, domain.StatusPassed, compact.Results[domain.RulePassportPhoto].Status)
	// Inactive rule appears, passed, with no details.
	assert.Equal(t, domain.StatusPassed, compact.Results[domain.RuleSignature].Status)
	assert.Empty(t, detailed.Rules[2].Details)

	assert.True(t, compact.IsCompliant)
	assert.True(t, detailed.IsCompliant)
	assert.Equal(t, "req-1", compact.RequestID)
	assert.Equal(t, "1", compact.ServiceID)
}

func TestBuildFailedRuleJoinsMessages(t *testing.T) {
	rs := testRuleSet(rule(domain.RulePassportPhoto, true))
	outcomes := []domain.RuleOutcome{
		{RuleID: domain.RulePassportPhoto, Subject: "director_1", Status: domain.OutcomeFailed, Message: "Low clarity score: 0.40"},
		{RuleID: domain.RulePassportPhoto, Subject: "director_2", Status: domain.OutcomePassed},
		{RuleID: domain.RulePassportPhoto, Subject: "director_3", Status: domain.OutcomeFailed, Message: "passportPhoto not uploaded"},
	}

	compact, detailed := Build("req-1", rs, outcomes, nil, domain.ResolvedEntity{})

	result := compact.Results[domain.RulePassportPhoto]
	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.Equal(t, "director_1: Low clarity score: 0.40; director_3: passportPhoto not uploaded", result.ErrorMessage)
	assert.False(t, compact.IsCompliant)

	// The detailed view keeps all three outcomes in production order.
	require.Len(t, detailed.Rules[0].Details, 3)
	assert.Equal(t, "director_2", detailed.Rules[0].Details[1].Subject)
}

func TestBuildGroupsOutcomesCaseInsensitively(t *testing.T) {
	rs := testRuleSet(rule("director_count", true))
	outcomes := []domain.RuleOutcome{
		{RuleID: "DIRECTOR_COUNT", Subject: domain.SubjectAll, Status: domain.OutcomeFailed,
			Message: "Insufficient directors. Found 1, minimum required is 2."},
	}

	compact, detailed := Build("req-1", rs, outcomes, nil, domain.ResolvedEntity{})

	// The differently-cased outcome still lands on its rule entry.
	result := compact.Results["director_count"]
	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.False(t, compact.IsCompliant)
	require.Len(t, detailed.Rules[0].Details, 1)
}

func TestBuildIsDeterministic(t *testing.T) {
	rs := testRuleSet(
		rule(domain.RuleDirectorCount, true),
		rule(domain.RulePassportPhoto, true),
		rule(domain.RuleIndianDirectorPAN, true),
		rule(domain.RuleCompanyAddressProof, true),
	)
	outcomes := []domain.RuleOutcome{
		{RuleID: domain.RuleDirectorCount, Subject: domain.SubjectAll, Status: domain.OutcomePassed},
		{RuleID: domain.RulePassportPhoto, Subject: "director_1", Status: domain.OutcomeFailed, Message: "Low clarity score: 0.40"},
		{RuleID: domain.RulePassportPhoto, Subject: "director_2", Status: domain.OutcomePassed},
	}
	entities := []domain.ResolvedEntity{
		resolved("director_1", domain.NationalityIndian, okDoc(domain.SlotPassportPhoto, 0.4)),
		resolved("director_2", domain.NationalityIndian, okDoc(domain.SlotPassportPhoto, 0.9)),
	}
	company := resolved(domain.SubjectCompany, "", okDoc(domain.SlotCompanyAddressProof, 0.85))

	_, first := Build("req-1", rs, outcomes, entities, company)
	_, second := Build("req-1", rs, outcomes, entities, company)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestBuildWarningsDoNotFailCompliance(t *testing.T) {
	rs := testRuleSet(rule(domain.RuleIndianDirectorAadhaar, true))
	outcomes := []domain.RuleOutcome{
		{RuleID: domain.RuleIndianDirectorAadhaar, Subject: "director_1", Status: domain.OutcomeWarning, Message: "front side is masked"},
	}

	compact, _ := Build("req-1", rs, outcomes, nil, domain.ResolvedEntity{})

	assert.True(t, compact.IsCompliant)
	assert.Equal(t, domain.StatusPassed, compact.Results[domain.RuleIndianDirectorAadhaar].Status)
	assert.Empty(t, compact.Results[domain.RuleIndianDirectorAadhaar].ErrorMessage)
}

func TestBuildEntityTree(t *testing.T) {
	rs := testRuleSet(
		rule(domain.RulePassportPhoto, true),
		rule(domain.RuleIndianDirectorPAN, true),
		rule(domain.RuleCompanyAddressProof, true),
	)

	failedDoc := domain.ExtractionResult{
		Slot:   domain.SlotPAN,
		Status: domain.ExtractionFailed,
		Error:  "extraction service unavailable",
	}
	entities := []domain.ResolvedEntity{
		resolved("director_1", domain.NationalityIndian,
			okDoc(domain.SlotPassportPhoto, 0.9),
			failedDoc,
		),
		resolved("director_2", domain.NationalityIndian,
			okDoc(domain.SlotPassportPhoto, 0.5),
		),
	}
	company := resolved(domain.SubjectCompany, "",
		okDoc(domain.SlotCompanyAddressProof, 0.85),
	)

	_, detailed := Build("req-1", rs, nil, entities, company)

	require.Contains(t, detailed.Entities, "director_1")
	require.Contains(t, detailed.Entities, "director_2")
	require.Contains(t, detailed.Entities, domain.SubjectCompany)

	d1 := detailed.Entities["director_1"].Documents
	assert.Equal(t, domain.DocValid, d1[domain.SlotPassportPhoto].Status)
	assert.Equal(t, domain.DocNotValid, d1[domain.SlotPAN].Status)
	assert.Equal(t, "extraction service unavailable", d1[domain.SlotPAN].Reason)

	// Low clarity is reported against the document itself.
	d2 := detailed.Entities["director_2"].Documents
	assert.Equal(t, domain.DocNotValid, d2[domain.SlotPassportPhoto].Status)
	assert.Equal(t, "Low clarity score: 0.50", d2[domain.SlotPassportPhoto].Reason)
	// Expected but never supplied.
	assert.Equal(t, "not uploaded", d2[domain.SlotPAN].Reason)

	co := detailed.Entities[domain.SubjectCompany].Documents
	assert.Equal(t, domain.DocValid, co[domain.SlotCompanyAddressProof].Status)
}

func TestBuildFailure(t *testing.T) {
	compact, detailed := BuildFailure("req-1", "1", errors.New("rule store exploded"), "goroutine 1 [running]:")

	assert.False(t, compact.IsCompliant)
	assert.Empty(t, compact.Results)

	require.NotNil(t, detailed.GlobalError)
	assert.Equal(t, "rule store exploded", detailed.GlobalError.Message)
	assert.Equal(t, "goroutine 1 [running]:", detailed.GlobalError.Stacktrace)
}

func TestExpectedEntitySlots(t *testing.T) {
	rs := testRuleSet(
		rule(domain.RulePassportPhoto, true),
		rule(domain.RuleIndianDirectorPAN, true),
		rule(domain.RuleIndianDirectorAadhaar, true),
		rule(domain.RuleForeignDirectorDocs, true),
		rule(domain.RuleSignature, false),
	)

	indian := ExpectedEntitySlots(rs, true)
	assert.ElementsMatch(t, []string{
		domain.SlotPassportPhoto, domain.SlotPAN, domain.SlotAadhaarFront, domain.SlotAadhaarBack,
	}, indian)

	foreign := ExpectedEntitySlots(rs, false)
	assert.ElementsMatch(t, []string{domain.SlotPassportPhoto, domain.SlotPassport}, foreign)
}

func TestExpectedCompanySlots(t *testing.T) {
	rs := testRuleSet(
		rule(domain.RuleCompanyAddressProof, true),
		rule(domain.RuleNOCValidation, true),
		rule(domain.RuleTenantEBNameMatch, true),
		rule(domain.RuleConsentLetter, false),
	)

	slots := ExpectedCompanySlots(rs)
	assert.ElementsMatch(t, []string{
		domain.SlotCompanyAddressProof, domain.SlotNOC, domain.SlotElectricityBill,
	}, slots)
}
