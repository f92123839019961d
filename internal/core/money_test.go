package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"0.01", "0.01", true},
		{".5", "0.5", true},
		{" 2.50 ", "2.5", true},
		{"1000000000000", "1000000000000", true},
		{"1000000000000.01", "", false},
		{"100000000000000000", "", false},
		{"1.005", "", false},
		{"1,23", "", false},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.00", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestNewMoneyRounds(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
	}{
		{"10.005", 1001},
		{"10.004", 1000},
		{"1400", 140000},
		{"0.1", 10},
	}
	for _, tc := range cases {
		if got := NewMoney(decimal.RequireFromString(tc.in)); got.Cents != tc.cents {
			t.Fatalf("%s expected %d cents, got %d", tc.in, tc.cents, got.Cents)
		}
	}
}

func TestToMoneyBounds(t *testing.T) {
	if m, err := ToMoney(decimal.New(MaxCents, -2)); err != nil || m.Cents != MaxCents {
		t.Fatalf("max amount rejected: %v %d", err, m.Cents)
	}
	for _, in := range []string{"1000000000000.01", "100000000000000000", "-100000000000000000"} {
		if _, err := ToMoney(decimal.RequireFromString(in)); err != ErrInvalidAmount {
			t.Fatalf("%s expected ErrInvalidAmount, got %v", in, err)
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	m := Money{Cents: 1400050}
	if m.String() != "14000.50" {
		t.Fatalf("unexpected String %q", m.String())
	}
	if m.Plain() != "14000.5" {
		t.Fatalf("unexpected Plain %q", m.Plain())
	}
}

func TestMoneyUnmarshalJSON(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{`14000`, 1400000, true},
		{`12.345`, 1235, true},
		{`"7.5"`, 750, true},
		{`null`, 0, true},
		{`{"x":1}`, 0, false},
		{`"abc"`, 0, false},
		{`1e17`, 0, false},
		{`"-100000000000000000"`, 0, false},
	}
	for _, tc := range cases {
		var m Money
		err := json.Unmarshal([]byte(tc.in), &m)
		if tc.ok {
			if err != nil || m.Cents != tc.cents {
				t.Fatalf("%s expected %d, got %d (err=%v)", tc.in, tc.cents, m.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%s expected error", tc.in)
		}
	}
}
