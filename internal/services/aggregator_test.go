package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finledger/internal/core"
	"finledger/internal/events"
	"finledger/internal/ledger"
	"finledger/internal/settings"
	"finledger/internal/storage"
)

func money(rwf int64) core.Money { return core.Money{Cents: rwf * 100} }

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 10, 16, 12, 0, 0, 0, time.UTC)
	inc := func(amt int64, date string) core.Transaction {
		return core.Transaction{Type: core.Income, Amount: money(amt), Category: core.IncomeCategory, Date: date}
	}
	exp := func(amt int64, cat, date string) core.Transaction {
		return core.Transaction{Type: core.Expense, Amount: money(amt), Category: cat, Date: date}
	}

	tests := []struct {
		name    string
		records []core.Transaction
		want    MonthSummary
	}{
		{
			name:    "empty month",
			records: nil,
			want:    MonthSummary{TopCategory: core.NoTopCategory, HealthScore: 70},
		},
		{
			name:    "expenses only",
			records: []core.Transaction{exp(100, "Food", "2025-10-02")},
			want:    MonthSummary{Expense: money(100), TopCategory: "Food", HealthScore: 10},
		},
		{
			name:    "balanced",
			records: []core.Transaction{inc(1000, "2025-10-01"), exp(250, "Food", "2025-10-03")},
			want:    MonthSummary{Income: money(1000), Expense: money(250), TopCategory: "Food", HealthScore: 88},
		},
		{
			name:    "spending sixty percent of income",
			records: []core.Transaction{inc(1000, "2025-10-01"), exp(600, "Food", "2025-10-04")},
			want:    MonthSummary{Income: money(1000), Expense: money(600), TopCategory: "Food", HealthScore: 70},
		},
		{
			name:    "overspent clamps to zero",
			records: []core.Transaction{inc(100, "2025-10-01"), exp(500, "Rent", "2025-10-03")},
			want:    MonthSummary{Income: money(100), Expense: money(500), TopCategory: "Rent", HealthScore: 0},
		},
		{
			name: "other months ignored",
			records: []core.Transaction{
				inc(1000, "2025-09-30"),
				exp(50, "Food", "2024-10-10"),
				exp(20, "Books", "2025-10-10"),
			},
			want: MonthSummary{Expense: money(20), TopCategory: "Books", HealthScore: 10},
		},
		{
			name: "first category wins ties",
			records: []core.Transaction{
				exp(30, "Transport", "2025-10-01"),
				exp(10, "Food", "2025-10-02"),
				exp(20, "Food", "2025-10-03"),
			},
			want: MonthSummary{Expense: money(60), TopCategory: "Transport", HealthScore: 10},
		},
		{
			name:    "empty category counts as Other",
			records: []core.Transaction{exp(5, "", "2025-10-01")},
			want:    MonthSummary{Expense: money(5), TopCategory: core.OtherCategory, HealthScore: 10},
		},
		{
			name:    "zero amounts have no top category",
			records: []core.Transaction{exp(0, "Food", "2025-10-01")},
			want:    MonthSummary{TopCategory: core.NoTopCategory, HealthScore: 70},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.records, now))
		})
	}
}

func TestProgress(t *testing.T) {
	now := time.Date(2025, 10, 16, 12, 0, 0, 0, time.UTC)
	st := core.DefaultSettings()
	st.Budget["food"] = 100
	st.Budget["books"] = 50
	st.Budget["fees"] = 10
	st.Budget["other"] = 20

	records := []core.Transaction{
		{Type: core.Expense, Amount: money(30), Category: "FOOD", Date: "2025-10-01"},
		{Type: core.Expense, Amount: money(45), Category: "food", Date: "2025-10-02"},
		{Type: core.Expense, Amount: money(60), Category: "Book", Date: "2025-10-03"},
		{Type: core.Expense, Amount: money(4), Category: "fee", Date: "2025-10-03"},
		{Type: core.Expense, Amount: money(7), Category: "Misc", Date: "2025-10-03"},
		{Type: core.Expense, Amount: money(9), Category: "Gym", Date: "2025-10-03"},
		{Type: core.Expense, Amount: money(500), Category: "food", Date: "2025-09-03"},
		{Type: core.Income, Amount: money(500), Category: "Income", Date: "2025-10-03"},
	}

	lines := Progress(records, st, now)
	require.Len(t, lines, len(core.BudgetKeys))

	byKey := map[string]BudgetLine{}
	for i, l := range lines {
		assert.Equal(t, core.BudgetKeys[i], l.Key)
		byKey[l.Key] = l
	}

	assert.Equal(t, BudgetLine{Key: "food", Cap: 100, Spent: money(75), PercentUsed: 75, Remaining: money(25)}, byKey["food"])
	assert.Equal(t, BudgetLine{Key: "books", Cap: 50, Spent: money(60), PercentUsed: 100, Remaining: money(0)}, byKey["books"])
	assert.True(t, byKey["books"].OverCap())
	assert.Equal(t, 40, byKey["fees"].PercentUsed)
	assert.Equal(t, money(16), byKey["other"].Spent)
	assert.Equal(t, 80, byKey["other"].PercentUsed)
	assert.Equal(t, BudgetLine{Key: "transport", Cap: 0}, byKey["transport"])
	assert.False(t, byKey["transport"].OverCap())
}

func TestBudgetKeyWithoutOther(t *testing.T) {
	budget := map[string]int64{"food": 1}
	_, ok := budgetKey("Gym", budget)
	assert.False(t, ok)

	key, ok := budgetKey(" Food ", budget)
	assert.True(t, ok)
	assert.Equal(t, "food", key)
}

func TestWeek(t *testing.T) {
	now := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	records := []core.Transaction{
		{Type: core.Expense, Amount: money(10), Date: "2025-03-02"},
		{Type: core.Expense, Amount: money(5), Date: "2025-03-02"},
		{Type: core.Expense, Amount: money(7), Date: "2025-02-24"},
		{Type: core.Expense, Amount: money(99), Date: "2025-02-23"},
		{Type: core.Income, Amount: money(99), Date: "2025-03-01"},
	}
	days := Week(records, now)
	require.Len(t, days, 7)
	assert.Equal(t, "2025-02-24", days[0].Date)
	assert.Equal(t, "2025-03-02", days[6].Date)
	assert.Equal(t, money(7), days[0].Expense)
	assert.Equal(t, money(15), days[6].Expense)
	assert.True(t, days[5].Expense.IsZero())
}

func TestAggregatorReadsStores(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemoryStore()
	ls := ledger.NewStore(blobs, events.NewBus())
	ss := settings.NewStore(blobs)

	now := time.Date(2025, 10, 16, 12, 0, 0, 0, time.UTC)
	require.NoError(t, ls.Add(ctx, core.Transaction{ID: "a", Type: core.Expense, Amount: money(40), Category: "Food", Date: "2025-10-16"}))
	st := core.DefaultSettings()
	st.Budget["food"] = 80
	require.NoError(t, ss.Save(ctx, st))

	agg := NewAggregator(ls, ss)
	assert.Equal(t, "Food", agg.MonthSummary(ctx, now).TopCategory)
	assert.Equal(t, 50, agg.BudgetProgress(ctx, now)[0].PercentUsed)
	assert.Equal(t, money(40), agg.LastSevenDays(ctx, now)[6].Expense)
}
