package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "rahul k sharma", NormalizeName("  Rahul K. Sharma "))
	assert.Equal(t, "maria d souza", NormalizeName("Maria D'Souza"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"exact after normalization", "Rahul Sharma", "rahul sharma", true},
		{"punctuation ignored", "Maria D'Souza", "Maria D Souza", true},
		{"substring containment", "Rahul Kumar", "Rahul Kumar Sharma", true},
		{"high word overlap", "Anil Kumar Gupta Verma Singh", "Anil Kumar Gupta Verma Yadav", true},
		{"low word overlap", "Anil Kumar", "Sunil Mehta", false},
		{"half overlap below threshold", "Anil Kumar Gupta Verma", "Anil Kumar Patel Shah", false},
		{"empty never matches", "", "Rahul", false},
		{"both empty never match", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NamesMatch(tt.a, tt.b))
		})
	}
}

func TestNamesMatchStrict(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical after normalization", "RAHUL SHARMA", "rahul sharma", true},
		{"punctuation ignored", "Rahul Sharma.", "Rahul Sharma", true},
		{"reordered words rejected", "Sharma, Rahul", "Rahul Sharma", false},
		{"containment rejected", "Rahul Kumar", "Rahul Kumar Sharma", false},
		{"empty never matches", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NamesMatchStrict(tt.a, tt.b))
		})
	}
}

func TestAddressesMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"containment", "Flat 12B, MG Road, Pune", "MG Road Pune", true},
		{"shared keyword", "Flat 4 Green Heights", "Flat 9 Sunrise Towers", true},
		{"postal code match", "Somewhere 411001", "Elsewhere entirely 411001", true},
		{"postal code mismatch no keyword", "Plot 5 560001", "Plot 9 411001", false},
		{"empty fails", "", "MG Road", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddressesMatch(tt.a, tt.b))
		})
	}
}

func TestPANValid(t *testing.T) {
	assert.True(t, PANValid("ABCDE1234F"))
	assert.True(t, PANValid(" abcde1234f "))
	assert.False(t, PANValid("ABC1234567"))
	assert.False(t, PANValid("ABCDE12345"))
	assert.False(t, PANValid(""))
}

func TestAadhaarMasked(t *testing.T) {
	assert.True(t, AadhaarMasked("XXXX XXXX 1234"))
	assert.True(t, AadhaarMasked("xxxx-xxxx-5678"))
	assert.False(t, AadhaarMasked("1234 5678 9012"))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"15/01/2026", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"2026-01-15", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"15 Jan 2026", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), true},
		// Day-first fallback: 05/04/2024 is 5 April, not 4 May.
		{"05 04 2024", time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC), true},
		{"31/02/2024", time.Time{}, false},
		{"", time.Time{}, false},
		{"gibberish", time.Time{}, false},
		// More than three days in the future is a misparse.
		{"15/06/2026", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input, testNow)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			}
		})
	}
}

func TestParseDateFutureSkewTolerance(t *testing.T) {
	// Two days ahead is within the allowed skew.
	got, ok := ParseDate("17/03/2026", testNow)
	assert.True(t, ok)
	assert.Equal(t, 17, got.Day())
}

func TestDatesMatch(t *testing.T) {
	assert.True(t, DatesMatch("15/01/2026", "2026-01-15", 0, testNow))
	assert.True(t, DatesMatch("15/01/2026", "17/01/2026", 2, testNow))
	assert.False(t, DatesMatch("15/01/2026", "18/01/2026", 2, testNow))
	// Fails closed on unparseable input.
	assert.False(t, DatesMatch("not a date", "15/01/2026", 30, testNow))
}

func TestDocumentAge(t *testing.T) {
	days, ok := DocumentAge("15/02/2026", testNow)
	assert.True(t, ok)
	assert.Equal(t, 28, days)

	_, ok = DocumentAge("junk", testNow)
	assert.False(t, ok)
}

func TestAgeInYears(t *testing.T) {
	dob := time.Date(2008, 3, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 17, AgeInYears(dob, testNow)) // birthday tomorrow

	dob = time.Date(2008, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 18, AgeInYears(dob, testNow)) // birthday today
}
