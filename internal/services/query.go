package services

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"finledger/internal/core"
)

// Filter restricts a view to one record type.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterIncome  Filter = "income"
	FilterExpense Filter = "expense"
)

// ParseFilter maps unknown values to FilterAll.
func ParseFilter(s string) Filter {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterIncome, FilterExpense:
		return f
	default:
		return FilterAll
	}
}

type QueryEngine struct {
	ledger LedgerReader
}

func NewQueryEngine(ledger LedgerReader) *QueryEngine {
	return &QueryEngine{ledger: ledger}
}

// View returns the records matching filter and search, newest first.
func (q *QueryEngine) View(ctx context.Context, filter Filter, search string) []core.Transaction {
	return Select(q.ledger.Load(ctx), filter, search)
}

// Select applies View's rules to an in-memory list.
func Select(records []core.Transaction, filter Filter, search string) []core.Transaction {
	filter = ParseFilter(string(filter))

	var pattern *regexp.Regexp
	if s := strings.TrimSpace(search); s != "" {
		pattern = regexp.MustCompile("(?i)" + regexp.QuoteMeta(s))
	}

	out := make([]core.Transaction, 0, len(records))
	for _, r := range records {
		if filter != FilterAll && string(r.Type) != string(filter) {
			continue
		}
		if pattern != nil && !pattern.MatchString(haystack(r)) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a > b
	})
	return out
}

func haystack(r core.Transaction) string {
	return strings.Join([]string{
		r.Description,
		r.Category,
		string(r.Type),
		r.Date,
		r.Amount.Plain(),
	}, " ")
}
