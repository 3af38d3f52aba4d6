package rules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
)

func ctxWith(entities ...domain.ResolvedEntity) *EvalContext {
	return &EvalContext{Now: testNow, Entities: entities}
}

func TestDirectorCountBounds(t *testing.T) {
	rule := activeRule(domain.RuleDirectorCount, map[string]any{"min_directors": 2, "max_directors": 3})
	s := DirectorCount{}

	out := s.EvaluateGroup(ctxWith(entity("director_1", "Indian")), &rule)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
	assert.Equal(t, "Insufficient directors. Found 1, minimum required is 2.", out[0].Message)
	assert.Equal(t, domain.SubjectAll, out[0].Subject)

	out = s.EvaluateGroup(ctxWith(
		entity("d1", "Indian"), entity("d2", "Indian"), entity("d3", "Indian"), entity("d4", "Indian"),
	), &rule)
	require.Len(t, out, 1)
	assert.Equal(t, "Too many directors. Found 4, maximum allowed is 3.", out[0].Message)

	out = s.EvaluateGroup(ctxWith(entity("d1", "Indian"), entity("d2", "Indian")), &rule)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomePassed, out[0].Status)
}

func TestPassportPhotoClarity(t *testing.T) {
	rule := activeRule(domain.RulePassportPhoto, map[string]any{"min_clarity": 0.7})
	s := PassportPhoto{}

	e := entity("director_1", "Indian", okDoc(domain.SlotPassportPhoto, 0.55, nil))
	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
	assert.Equal(t, "Low clarity score: 0.55", out[0].Message)

	e = entity("director_1", "Indian", okDoc(domain.SlotPassportPhoto, 0.8, nil))
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomePassed, out[0].Status)
}

func TestPassportPhotoMissing(t *testing.T) {
	rule := activeRule(domain.RulePassportPhoto, nil)
	s := PassportPhoto{}

	e := entity("director_1", "Indian")
	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
	assert.Equal(t, "passportPhoto not uploaded", out[0].Message)
}

func TestPassportPhotoFallbackWarning(t *testing.T) {
	rule := activeRule(domain.RulePassportPhoto, nil)
	s := PassportPhoto{}

	doc := okDoc(domain.SlotPassportPhoto, 0.9, nil)
	doc.Method = domain.MethodPhotoFallback
	e := entity("director_1", "Indian", doc)

	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 2)
	assert.Equal(t, domain.OutcomePassed, out[0].Status)
	assert.Equal(t, domain.OutcomeWarning, out[1].Status)
}

func TestAddressProofAge(t *testing.T) {
	rule := activeRule(domain.RuleAddressProof, map[string]any{
		"max_age_days":              45,
		"name_match_required":       false,
		"complete_address_required": false,
	})
	s := AddressProof{}

	// 28 days old: fine.
	e := entity("d1", "Indian", okDoc(domain.SlotAddressProof, 0.9, map[string]string{"date": "15/02/2026"}))
	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomePassed, out[0].Status)

	// ~90 days old: too old.
	e = entity("d1", "Indian", okDoc(domain.SlotAddressProof, 0.9, map[string]string{"date": "15/12/2025"}))
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
	assert.Contains(t, out[0].Message, "maximum allowed is 45")

	// No readable date fails closed.
	e = entity("d1", "Indian", okDoc(domain.SlotAddressProof, 0.9, nil))
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
}

func TestAddressProofCompleteAddress(t *testing.T) {
	rule := activeRule(domain.RuleAddressProof, map[string]any{
		"max_age_days":              45,
		"name_match_required":       false,
		"complete_address_required": true,
	})
	s := AddressProof{}

	// Address shorter than a plausible address line fails.
	e := entity("d1", "Indian", okDoc(domain.SlotAddressProof, 0.9, map[string]string{
		"date": "15/02/2026", "address": "Delhi",
	}))
	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
	assert.Equal(t, "Address proof for d1 does not contain a complete address", out[0].Message)

	// No address at all fails the same way.
	e = entity("d1", "Indian", okDoc(domain.SlotAddressProof, 0.9, map[string]string{"date": "15/02/2026"}))
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)

	// A full address line passes.
	e = entity("d1", "Indian", okDoc(domain.SlotAddressProof, 0.9, map[string]string{
		"date": "15/02/2026", "address": "Flat 12, MG Road, Bangalore 560001",
	}))
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomePassed, out[0].Status)
}

func TestAddressProofNameMatch(t *testing.T) {
	rule := activeRule(domain.RuleAddressProof, map[string]any{
		"max_age_days":              45,
		"name_match_required":       true,
		"complete_address_required": false,
	})
	s := AddressProof{}

	proof := func(name string) domain.ExtractionResult {
		fields := map[string]string{"date": "15/02/2026"}
		if name != "" {
			fields["name"] = name
		}
		return okDoc(domain.SlotAddressProof, 0.9, fields)
	}
	pan := okDoc(domain.SlotPAN, 0.9, map[string]string{"name": "Rahul Sharma"})

	// Address proof naming someone else must fail even when the date is fresh.
	e := entity("d1", "Indian", proof("Completely Different Person"), pan)
	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
	assert.Equal(t, "Address proof name 'Completely Different Person' for d1 does not match director name 'Rahul Sharma'", out[0].Message)

	// Matching names pass; consumer_name is accepted as the address name.
	billing := okDoc(domain.SlotAddressProof, 0.9, map[string]string{
		"date": "15/02/2026", "consumer_name": "Sharma, Rahul",
	})
	e = entity("d1", "Indian", billing, pan)
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomePassed, out[0].Status)

	// No name on either side fails closed.
	e = entity("d1", "Indian", proof(""))
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
	assert.Equal(t, "Missing name in address proof for d1", out[0].Message)

	// Disabling the requirement skips the comparison entirely.
	relaxed := activeRule(domain.RuleAddressProof, map[string]any{
		"max_age_days":              45,
		"name_match_required":       false,
		"complete_address_required": false,
	})
	e = entity("d1", "Indian", proof("Completely Different Person"), pan)
	out = s.EvaluateEntity(ctxWith(e), &relaxed, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomePassed, out[0].Status)
}

func TestAddressProofStaleDateStillChecksName(t *testing.T) {
	rule := activeRule(domain.RuleAddressProof, map[string]any{
		"max_age_days":              45,
		"name_match_required":       true,
		"complete_address_required": true,
	})
	s := AddressProof{}

	// A stale proof with a short address and a mismatching name reports
	// all three problems in one pass.
	e := entity("d1", "Indian",
		okDoc(domain.SlotAddressProof, 0.9, map[string]string{
			"date": "15/12/2025", "address": "Delhi", "name": "Sunil Mehta",
		}),
		okDoc(domain.SlotPAN, 0.9, map[string]string{"name": "Rahul Sharma"}),
	)
	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 3)
	for _, o := range out {
		assert.Equal(t, domain.OutcomeFailed, o.Status)
	}
}

func TestIndianDirectorPANFormat(t *testing.T) {
	rule := activeRule(domain.RuleIndianDirectorPAN, map[string]any{"min_age": 18})
	s := IndianDirectorPAN{}

	e := entity("director_2", "Indian", okDoc(domain.SlotPAN, 0.9, map[string]string{"pan_number": "BAD123"}))
	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
	assert.Equal(t, "Invalid PAN format for director_2: BAD123", out[0].Message)
}

func TestIndianDirectorPANMinimumAge(t *testing.T) {
	rule := activeRule(domain.RuleIndianDirectorPAN, map[string]any{"min_age": 18})
	s := IndianDirectorPAN{}

	e := entity("director_1", "Indian", okDoc(domain.SlotPAN, 0.9, map[string]string{
		"pan_number": "ABCDE1234F",
		"dob":        "15/06/2010", // 15 years old
	}))
	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
	assert.Contains(t, out[0].Message, "below the minimum age of 18")

	e = entity("director_1", "Indian", okDoc(domain.SlotPAN, 0.9, map[string]string{
		"pan_number": "ABCDE1234F",
		"dob":        "15/06/1990",
	}))
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomePassed, out[0].Status)
}

func aadhaarDoc(slot, number, hash string, extra map[string]string) domain.ExtractionResult {
	fields := map[string]string{"aadhar_number": number}
	for k, v := range extra {
		fields[k] = v
	}
	d := okDoc(slot, 0.9, fields)
	d.ContentHash = hash
	return d
}

func TestIndianDirectorAadhaarMasking(t *testing.T) {
	rule := activeRule(domain.RuleIndianDirectorAadhaar, map[string]any{
		"masked_not_allowed": true, "different_images_required": true,
	})
	s := IndianDirectorAadhaar{}

	// Both masked: hard failure with the exact production message.
	e := entity("director_3", "Indian",
		aadhaarDoc(domain.SlotAadhaarFront, "XXXX XXXX 1234", "h1", nil),
		aadhaarDoc(domain.SlotAadhaarBack, "XXXX XXXX 1234", "h2", nil),
	)
	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
	assert.Equal(t, "Both Aadhar front and back are masked for director_3, need at least one unmasked", out[0].Message)

	// One side masked: warning only.
	e = entity("director_3", "Indian",
		aadhaarDoc(domain.SlotAadhaarFront, "XXXX XXXX 1234", "h1", nil),
		aadhaarDoc(domain.SlotAadhaarBack, "1234 5678 9012", "h2", nil),
	)
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeWarning, out[0].Status)
}

func TestIndianDirectorAadhaarDuplicateImage(t *testing.T) {
	rule := activeRule(domain.RuleIndianDirectorAadhaar, map[string]any{
		"masked_not_allowed": true, "different_images_required": true,
	})
	s := IndianDirectorAadhaar{}

	// Same hash, consistent fields: lenient warning.
	e := entity("director_1", "Indian",
		aadhaarDoc(domain.SlotAadhaarFront, "1234 5678 9012", "same", map[string]string{"name": "Rahul"}),
		aadhaarDoc(domain.SlotAadhaarBack, "1234 5678 9012", "same", map[string]string{"name": "Rahul"}),
	)
	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeWarning, out[0].Status)
	assert.Equal(t, "Same image used for Aadhar front and back for director_1", out[0].Message)

	// Same hash but two inconsistent key fields: failure.
	e = entity("director_1", "Indian",
		aadhaarDoc(domain.SlotAadhaarFront, "1234 5678 9012", "same", map[string]string{"name": "Rahul", "gender": "M"}),
		aadhaarDoc(domain.SlotAadhaarBack, "9999 8888 7777", "same", map[string]string{"name": "Sunil", "gender": "M"}),
	)
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)

	// Different images: pass.
	e = entity("director_1", "Indian",
		aadhaarDoc(domain.SlotAadhaarFront, "1234 5678 9012", "h1", nil),
		aadhaarDoc(domain.SlotAadhaarBack, "1234 5678 9012", "h2", nil),
	)
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomePassed, out[0].Status)
}

func TestIndianDirectorAadhaarMissingSides(t *testing.T) {
	rule := activeRule(domain.RuleIndianDirectorAadhaar, nil)
	s := IndianDirectorAadhaar{}

	e := entity("director_1", "Indian",
		aadhaarDoc(domain.SlotAadhaarFront, "1234 5678 9012", "h1", nil),
	)
	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, "aadharBack not uploaded", out[0].Message)
}

func TestForeignDirectorPassportExpiry(t *testing.T) {
	rule := activeRule(domain.RuleForeignDirectorDocs, nil)
	s := ForeignDirectorDocs{}

	e := entity("director_4", "American", okDoc(domain.SlotPassport, 0.9, map[string]string{"expiry_date": "01/01/2020"}))
	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
	assert.Equal(t, "Passport for director_4 has expired", out[0].Message)

	// Expiry in the future passes even though it is a future date.
	e = entity("director_4", "American", okDoc(domain.SlotPassport, 0.9, map[string]string{"expiry_date": "01/01/2031"}))
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomePassed, out[0].Status)
}

func TestAadhaarPANLinkageFacts(t *testing.T) {
	rule := activeRule(domain.RuleAadhaarPANLinkage, nil)
	s := AadhaarPANLinkage{}
	e := entity("director_1", "Indian")

	tests := []struct {
		name string
		fact *domain.LinkageFact
		want domain.OutcomeStatus
	}{
		{"linked", &domain.LinkageFact{Checked: true, IsLinked: true}, domain.OutcomePassed},
		{"not linked", &domain.LinkageFact{Checked: true, IsLinked: false}, domain.OutcomeFailed},
		{"rate limited", &domain.LinkageFact{Checked: true, RateLimited: true}, domain.OutcomeWarning},
		{"unavailable", nil, domain.OutcomeWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := ctxWith(e)
			ec.Linkage = map[string]domain.LinkageFact{}
			if tt.fact != nil {
				ec.Linkage["director_1"] = *tt.fact
			}
			out := s.EvaluateEntity(ec, &rule, &e)
			require.Len(t, out, 1)
			assert.Equal(t, tt.want, out[0].Status)
		})
	}
}

func TestAadhaarPANNameMatch(t *testing.T) {
	rule := activeRule(domain.RuleAadhaarPANNameMatch, nil)
	s := AadhaarPANNameMatch{}

	e := entity("director_1", "Indian",
		okDoc(domain.SlotAadhaarFront, 0.9, map[string]string{"name": "Sharma, Rahul"}),
		okDoc(domain.SlotPAN, 0.9, map[string]string{"name": "Rahul Sharma"}),
	)
	out := s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomePassed, out[0].Status)

	e = entity("director_1", "Indian",
		okDoc(domain.SlotAadhaarFront, 0.9, map[string]string{"name": "Rahul Sharma"}),
		okDoc(domain.SlotPAN, 0.9, map[string]string{"name": "Sunil Mehta"}),
	)
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
	assert.Equal(t, "Name mismatch between Aadhar and PAN for director_1", out[0].Message)

	// Without both documents the comparison is skipped entirely.
	e = entity("director_1", "Indian", okDoc(domain.SlotPAN, 0.9, map[string]string{"name": "Rahul"}))
	out = s.EvaluateEntity(ctxWith(e), &rule, &e)
	assert.Empty(t, out)
}

func TestAadhaarPANNameMatchStrict(t *testing.T) {
	s := AadhaarPANNameMatch{}
	e := entity("director_1", "Indian",
		okDoc(domain.SlotAadhaarFront, 0.9, map[string]string{"name": "Sharma, Rahul"}),
		okDoc(domain.SlotPAN, 0.9, map[string]string{"name": "Rahul Sharma"}),
	)

	// Reordered names survive the default fuzzy comparison but not a
	// strict one.
	strict := activeRule(domain.RuleAadhaarPANNameMatch, map[string]any{"strict_match": true})
	out := s.EvaluateEntity(ctxWith(e), &strict, &e)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
	assert.Equal(t, "Name mismatch between Aadhar and PAN for director_1", out[0].Message)

	// Strict mode accepts names that normalize identically.
	e2 := entity("director_1", "Indian",
		okDoc(domain.SlotAadhaarFront, 0.9, map[string]string{"name": "RAHUL SHARMA"}),
		okDoc(domain.SlotPAN, 0.9, map[string]string{"name": "Rahul Sharma"}),
	)
	out = s.EvaluateEntity(ctxWith(e2), &strict, &e2)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomePassed, out[0].Status)

	// With both strict and fuzzy disabled nothing can match.
	neither := activeRule(domain.RuleAadhaarPANNameMatch, map[string]any{
		"strict_match": false, "fuzzy_matching": false,
	})
	e3 := entity("director_1", "Indian",
		okDoc(domain.SlotAadhaarFront, 0.9, map[string]string{"name": "Rahul Sharma"}),
		okDoc(domain.SlotPAN, 0.9, map[string]string{"name": "Rahul Sharma"}),
	)
	out = s.EvaluateEntity(ctxWith(e3), &neither, &e3)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OutcomeFailed, out[0].Status)
}

func TestRequireDocMessageFormat(t *testing.T) {
	failedDoc := domain.ExtractionResult{
		Slot:   domain.SlotPAN,
		Status: domain.ExtractionFailed,
		Error:  "download returned 404",
	}
	docs := map[string]domain.ExtractionResult{domain.SlotPAN: failedDoc}

	_, fail := requireDoc("R", "director_1", docs, domain.SlotPAN)
	require.NotNil(t, fail)
	assert.Equal(t, fmt.Sprintf("%s: %s", domain.SlotPAN, "download returned 404"), fail.Message)
}
