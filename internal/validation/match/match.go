// Package match holds the pure text and date predicates shared by the
// compliance rules. Nothing in here performs I/O; every function is
// deterministic over its inputs so rule evaluation stays reproducible.
package match

import (
	"regexp"
	"strings"
	"time"
)

// Names of a person rarely arrive in a canonical form: extraction returns
// honorifics, uppercase, stray punctuation. NamesMatch accepts two raw
// names and applies progressively weaker comparisons: exact after
// normalization, containment, then word-overlap with a 0.8 threshold
// computed over the larger word set.
const wordOverlapThreshold = 0.8

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9\s]`)
	multiSpace = regexp.MustCompile(`\s+`)
	panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	postalCode = regexp.MustCompile(`\b\d{6}\b`)
	digitRun   = regexp.MustCompile(`\d+`)
)

// Address tokens that indicate two strings describe the same kind of
// location line even when the free text differs.
var locationKeywords = []string{"flat", "apartment", "street", "road", "lane", "block"}

// NormalizeName lowercases, strips punctuation and collapses whitespace.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlnum.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NamesMatch reports whether two raw names plausibly refer to the same
// person. Empty input never matches.
func NamesMatch(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return wordOverlap(na, nb) >= wordOverlapThreshold
}

// NamesMatchStrict reports whether two raw names are identical after
// normalization. Empty input never matches.
func NamesMatchStrict(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	return na != "" && na == nb
}

// wordOverlap returns |shared words| / |larger word set|.
func wordOverlap(a, b string) float64 {
	wa := strings.Fields(a)
	wb := strings.Fields(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	seen := make(map[string]bool, len(wa))
	for _, w := range wa {
		seen[w] = true
	}
	shared := 0
	counted := make(map[string]bool, len(wb))
	for _, w := range wb {
		if seen[w] && !counted[w] {
			shared++
			counted[w] = true
		}
	}

	larger := len(uniqueWords(wa))
	if n := len(uniqueWords(wb)); n > larger {
		larger = n
	}
	return float64(shared) / float64(larger)
}

func uniqueWords(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// NormalizeAddress lowercases an address and collapses separators so
// containment checks are not defeated by formatting.
func NormalizeAddress(addr string) string {
	s := strings.ToLower(strings.TrimSpace(addr))
	s = strings.NewReplacer(",", " ", ".", " ", "-", " ", "/", " ").Replace(s)
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// AddressesMatch reports whether two raw addresses plausibly describe the
// same place: containment, a shared location keyword, or the same 6-digit
// postal code.
func AddressesMatch(a, b string) bool {
	na, nb := NormalizeAddress(a), NormalizeAddress(b)
	if na == "" || nb == "" {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}

	for _, kw := range locationKeywords {
		if strings.Contains(na, kw) && strings.Contains(nb, kw) {
			return true
		}
	}

	pa, pb := postalCode.FindString(na), postalCode.FindString(nb)
	return pa != "" && pa == pb
}

// PANValid reports whether a string matches the PAN card format:
// five letters, four digits, one letter.
func PANValid(pan string) bool {
	return panPattern.MatchString(strings.ToUpper(strings.TrimSpace(pan)))
}

// AadhaarMasked reports whether an Aadhaar number string is masked
// (contains X placeholders instead of digits).
func AadhaarMasked(number string) bool {
	return strings.Contains(strings.ToUpper(number), "XXXX")
}

// dateFormats are tried in order before the generic day-first fallback.
var dateFormats = []string{
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
	"02.01.2006",
	"2 January 2006",
	"02 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02/01/06",
}

// maxFutureSkew tolerates clock drift on issued documents; anything dated
// further into the future than this is treated as a misparse.
const maxFutureSkew = 3 * 24 * time.Hour

// ParseDate parses a document date string. Known formats are tried first,
// then a day-first numeric fallback. Dates more than three days in the
// future are rejected.
func ParseDate(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			if t.After(now.Add(maxFutureSkew)) {
				continue
			}
			return t, true
		}
	}

	// Day-first fallback over any run of digits: d m y.
	parts := digitRun.FindAllString(s, 3)
	if len(parts) == 3 {
		day := atoi(parts[0])
		month := atoi(parts[1])
		year := atoi(parts[2])
		if year < 100 {
			year += 2000
		}
		if day >= 1 && day <= 31 && month >= 1 && month <= 12 && year >= 1900 {
			t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			// time.Date normalizes overflow (e.g. 31 Feb); reject those.
			if t.Day() == day && int(t.Month()) == month && !t.After(now.Add(maxFutureSkew)) {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

// DatesMatch reports whether two date strings refer to the same moment
// within toleranceDays. Unparseable input fails closed.
func DatesMatch(a, b string, toleranceDays int, now time.Time) bool {
	ta, oka := ParseDate(a, now)
	tb, okb := ParseDate(b, now)
	if !oka || !okb {
		return false
	}
	diff := ta.Sub(tb)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(toleranceDays)*24*time.Hour
}

// DocumentAge returns the age in whole days of a dated document relative
// to now. Unparseable dates report ok=false.
func DocumentAge(dateStr string, now time.Time) (days int, ok bool) {
	t, ok := ParseDate(dateStr, now)
	if !ok {
		return 0, false
	}
	return int(now.Sub(t).Hours() / 24), true
}

// AgeInYears returns the full years elapsed between a date of birth and now.
func AgeInYears(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	anniversary := dob.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}
