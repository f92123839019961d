package services

import (
	"context"
	"math"
	"strings"
	"time"

	"finledger/internal/core"
)

type MonthSummary struct {
	Income      core.Money `json:"income"`
	Expense     core.Money `json:"expense"`
	TopCategory string     `json:"topCategory"`
	HealthScore int        `json:"healthScore"`
}

type BudgetLine struct {
	Key         string     `json:"key"`
	Cap         int64      `json:"cap"`
	Spent       core.Money `json:"spent"`
	PercentUsed int        `json:"percentUsed"`
	Remaining   core.Money `json:"remaining"`
}

// OverCap reports whether spending reached a positive cap.
func (l BudgetLine) OverCap() bool {
	return l.Cap > 0 && l.Spent.Cents >= l.Cap*100
}

type DayTotal struct {
	Date    string     `json:"date"`
	Expense core.Money `json:"expense"`
}

const (
	// healthExpensesOnly is the score of a month with spending and no income.
	healthExpensesOnly = 10
	// healthEmptyMonth is the score of a month with no records.
	healthEmptyMonth = 70
)

// budgetAliases maps lower-cased category names onto budget keys.
var budgetAliases = map[string]string{
	"misc":          "other",
	"miscellaneous": "other",
	"fee":           "fees",
	"book":          "books",
}

type Aggregator struct {
	ledger   LedgerReader
	settings SettingsReader
}

func NewAggregator(ledger LedgerReader, settings SettingsReader) *Aggregator {
	return &Aggregator{ledger: ledger, settings: settings}
}

// MonthSummary totals the records dated in now's calendar month.
func (a *Aggregator) MonthSummary(ctx context.Context, now time.Time) MonthSummary {
	return Summarize(a.ledger.Load(ctx), now)
}

// Summarize computes MonthSummary over records.
func Summarize(records []core.Transaction, now time.Time) MonthSummary {
	var (
		income, expense core.Money
		order           []string
		byCategory      = map[string]int64{}
	)
	for _, r := range records {
		if !r.InMonth(now) {
			continue
		}
		switch r.Type {
		case core.Income:
			income = income.Add(r.Amount)
		case core.Expense:
			expense = expense.Add(r.Amount)
			cat := r.Category
			if cat == "" {
				cat = core.OtherCategory
			}
			if _, ok := byCategory[cat]; !ok {
				order = append(order, cat)
			}
			byCategory[cat] += r.Amount.Cents
		}
	}

	top, best := core.NoTopCategory, int64(0)
	for _, cat := range order {
		if byCategory[cat] > best {
			top, best = cat, byCategory[cat]
		}
	}

	return MonthSummary{
		Income:      income,
		Expense:     expense,
		TopCategory: top,
		HealthScore: healthScore(income, expense),
	}
}

func healthScore(income, expense core.Money) int {
	switch {
	case income.Cents > 0:
		inc := float64(income.Cents)
		score := math.Round(50 + 50*(inc-float64(expense.Cents))/inc)
		return clamp(int(score), 0, 100)
	case expense.Cents > 0:
		return healthExpensesOnly
	default:
		return healthEmptyMonth
	}
}

// BudgetProgress reports spending against each budget cap this month.
func (a *Aggregator) BudgetProgress(ctx context.Context, now time.Time) []BudgetLine {
	return Progress(a.ledger.Load(ctx), a.settings.Load(ctx), now)
}

// Progress computes BudgetProgress over records and st.
func Progress(records []core.Transaction, st core.Settings, now time.Time) []BudgetLine {
	spent := make(map[string]int64, len(core.BudgetKeys))
	for _, r := range records {
		if r.Type != core.Expense || !r.InMonth(now) {
			continue
		}
		if key, ok := budgetKey(r.Category, st.Budget); ok {
			spent[key] += r.Amount.Cents
		}
	}

	lines := make([]BudgetLine, 0, len(core.BudgetKeys))
	for _, key := range core.BudgetKeys {
		limit, ok := st.Budget[key]
		if !ok {
			continue
		}
		line := BudgetLine{Key: key, Cap: limit, Spent: core.Money{Cents: spent[key]}}
		capCents := limit * 100
		if capCents > 0 {
			pct := math.Round(100 * float64(line.Spent.Cents) / float64(capCents))
			line.PercentUsed = clamp(int(pct), 0, 100)
		}
		if rem := capCents - line.Spent.Cents; rem > 0 {
			line.Remaining = core.Money{Cents: rem}
		}
		lines = append(lines, line)
	}
	return lines
}

// budgetKey maps a category onto a budget key: exact key, then alias,
// then "other" when the budget has it.
func budgetKey(category string, budget map[string]int64) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(category))
	if _, ok := budget[c]; ok {
		return c, true
	}
	if alias, ok := budgetAliases[c]; ok {
		if _, ok := budget[alias]; ok {
			return alias, true
		}
	}
	if _, ok := budget["other"]; ok {
		return "other", true
	}
	return "", false
}

// LastSevenDays sums expenses per day for the week ending today.
func (a *Aggregator) LastSevenDays(ctx context.Context, now time.Time) []DayTotal {
	return Week(a.ledger.Load(ctx), now)
}

// Week computes LastSevenDays over records.
func Week(records []core.Transaction, now time.Time) []DayTotal {
	y, m, d := now.Date()
	days := make([]DayTotal, 7)
	index := make(map[string]int, 7)
	for i := range days {
		day := time.Date(y, m, d-6+i, 0, 0, 0, 0, now.Location())
		days[i].Date = core.FormatDate(day)
		index[days[i].Date] = i
	}
	for _, r := range records {
		if r.Type != core.Expense {
			continue
		}
		if i, ok := index[r.Date]; ok {
			days[i].Expense = days[i].Expense.Add(r.Amount)
		}
	}
	return days
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
