package core

import (
	"testing"
	"time"
)

func TestValidateAmount(t *testing.T) {
	valid := []string{"1", "12", "12.3", "12.34", "0.5", ".25", "007", "1000000"}
	for _, s := range valid {
		if !ValidateAmount(s) {
			t.Fatalf("%q should be valid", s)
		}
	}
	invalid := []string{"0", "-5", "12.345", "abc", "", "0.0", "1e3", "1.", "+3"}
	for _, s := range invalid {
		if ValidateAmount(s) {
			t.Fatalf("%q should be invalid", s)
		}
	}
}

func TestValidateDateNotFuture(t *testing.T) {
	now := time.Date(2025, 10, 16, 23, 59, 0, 0, time.UTC)
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-10-16", true},
		{"2025-10-15", true},
		{"1999-01-01", true},
		{"2025-10-17", false},
		{"2026-01-01", false},
		{"2025-10-32", false},
		{"16/10/2025", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidateDateNotFuture(tc.in, now); got != tc.ok {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.ok, got)
		}
	}
}

func TestCountLetters(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"Böok5!", 4},
		{"Bo\u0308ok5!", 4}, // decomposed umlaut
		{"12345", 0},
		{"  a b  ", 2},
		{"日本語", 3},
		{"\u1100\u1161", 1}, // jamo compose into one syllable
	}
	for _, tc := range cases {
		if got := CountLetters(tc.in); got != tc.want {
			t.Fatalf("%q expected %d letters, got %d", tc.in, tc.want, got)
		}
	}
}

func TestValidateMinLetters(t *testing.T) {
	if !ValidateMinLetters("Lunch out", MinDescriptionLetters) {
		t.Fatalf("expected valid description")
	}
	if ValidateMinLetters("ab1!", MinCategoryLetters) {
		t.Fatalf("expected too few letters")
	}
	if !ValidateRequired(" x ") || ValidateRequired("   ") {
		t.Fatalf("unexpected ValidateRequired result")
	}
}
