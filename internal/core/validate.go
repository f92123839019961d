package core

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// MinDescriptionLetters applies to expense descriptions and income sources.
	MinDescriptionLetters = 5

	// MinCategoryLetters applies to a custom "Other" category name.
	MinCategoryLetters = 3
)

// Positive decimal, at most two fractional digits, no sign.
var amountPattern = regexp.MustCompile(`^(?:0*[1-9]\d*(?:\.\d{1,2})?|0?\.\d{1,2})$`)

// ValidateRequired reports whether s has non-blank content.
func ValidateRequired(s string) bool {
	return strings.TrimSpace(s) != ""
}

// ValidateAmount accepts "12" or "12.34" and rejects zero, negatives,
// letters and more than two decimals.
func ValidateAmount(s string) bool {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return false
	}
	// "0.00" and ".0" pass the pattern but are not positive.
	return strings.ContainsFunc(s, func(r rune) bool { return r >= '1' && r <= '9' })
}

// ValidateDateNotFuture reports whether s is a real YYYY-MM-DD date that is
// not after the calendar day of now.
func ValidateDateNotFuture(s string, now time.Time) bool {
	chosen, err := ParseDate(s, now.Location())
	if err != nil {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return !chosen.After(today)
}

// CountLetters counts Unicode letters in s after NFC composition, so
// decomposed forms count the same as precomposed ones.
func CountLetters(s string) int {
	n := 0
	for _, r := range norm.NFC.String(s) {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

// ValidateMinLetters reports whether s contains at least min letters.
func ValidateMinLetters(s string, min int) bool {
	return CountLetters(s) >= min
}
