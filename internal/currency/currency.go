// Package currency converts entered amounts into the ledger's base
// currency using a static rate table.
package currency

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"finledger/internal/core"
)

var ErrInvalidRate = errors.New("currency: rate must be positive")

// Rate is one row of the table: how many base units one unit of Code buys.
type Rate struct {
	Code string          `json:"code"`
	Rate decimal.Decimal `json:"rate"`
}

type Converter struct {
	base  string
	rates map[string]decimal.Decimal
}

// Default returns the built-in RWF table.
func Default() *Converter {
	c, _ := NewConverter(core.BaseCurrency, map[string]decimal.Decimal{
		"RWF": decimal.NewFromInt(1),
		"NGN": decimal.RequireFromString("1.05"),
		"USD": decimal.NewFromInt(1400),
	})
	return c
}

// NewConverter builds a converter over rates, keyed by currency code. The
// base currency is always present with rate 1.
func NewConverter(base string, rates map[string]decimal.Decimal) (*Converter, error) {
	base = normalize(base)
	if base == "" {
		base = core.BaseCurrency
	}
	table := make(map[string]decimal.Decimal, len(rates)+1)
	for code, r := range rates {
		if !r.IsPositive() {
			return nil, fmt.Errorf("%w: %s=%s", ErrInvalidRate, code, r)
		}
		table[normalize(code)] = r
	}
	table[base] = decimal.NewFromInt(1)
	return &Converter{base: base, rates: table}, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Base returns the base currency code.
func (c *Converter) Base() string { return c.base }

// Supports reports whether code has an entry in the table.
func (c *Converter) Supports(code string) bool {
	code = normalize(code)
	if code == "" {
		return true
	}
	_, ok := c.rates[code]
	return ok
}

// RateToBase returns the multiplier for code. Empty means base; unknown
// codes get 1.
func (c *Converter) RateToBase(code string) decimal.Decimal {
	code = normalize(code)
	if code == "" {
		return decimal.NewFromInt(1)
	}
	r, ok := c.rates[code]
	if !ok {
		slog.Debug("Unknown currency, using rate 1", "currency", code)
		return decimal.NewFromInt(1)
	}
	return r
}

// ToBase converts amount in code to the base currency, rounded to 2 dp.
func (c *Converter) ToBase(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Mul(c.RateToBase(code)).Round(2)
}

// Codes lists the supported codes in alphabetical order.
func (c *Converter) Codes() []string {
	codes := make([]string, 0, len(c.rates))
	for code := range c.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Rates returns the table in Codes order.
func (c *Converter) Rates() []Rate {
	codes := c.Codes()
	out := make([]Rate, len(codes))
	for i, code := range codes {
		out[i] = Rate{Code: code, Rate: c.rates[code]}
	}
	return out
}
