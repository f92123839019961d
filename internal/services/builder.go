package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"finledger/internal/core"
	"finledger/internal/currency"
)

// Form is the raw input of the income and expense forms.
type Form struct {
	Type          core.TxnType `json:"type"`
	Amount        string       `json:"amount"`
	Date          string       `json:"date"`
	Description   string       `json:"description"`
	Currency      string       `json:"currency"`
	Category      string       `json:"category"`
	OtherCategory string       `json:"otherCategory"`
	EditID        string       `json:"editId"`
}

func (f Form) trimmed() Form {
	f.Amount = strings.TrimSpace(f.Amount)
	f.Date = strings.TrimSpace(f.Date)
	f.Description = strings.TrimSpace(f.Description)
	f.Currency = strings.ToUpper(strings.TrimSpace(f.Currency))
	f.Category = strings.TrimSpace(f.Category)
	f.OtherCategory = strings.TrimSpace(f.OtherCategory)
	f.EditID = strings.TrimSpace(f.EditID)
	return f
}

// ValidationError lists every form field that failed, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type Outcome string

const (
	Created Outcome = "created"
	Updated Outcome = "updated"
)

// BuildResult is a saved record and how it got there.
type BuildResult struct {
	Record  core.Transaction `json:"record"`
	Outcome Outcome          `json:"outcome"`
}

// RecordBuilder turns validated form input into stored records.
type RecordBuilder struct {
	ledger    LedgerWriter
	converter *currency.Converter
	now       func() time.Time
	newID     func() string
}

func NewRecordBuilder(ledger LedgerWriter, converter *currency.Converter) *RecordBuilder {
	return &RecordBuilder{
		ledger:    ledger,
		converter: converter,
		now:       time.Now,
		newID:     core.NewID,
	}
}

// WithClock replaces the time source.
func (b *RecordBuilder) WithClock(now func() time.Time) *RecordBuilder {
	b.now = now
	return b
}

// WithIDFunc replaces the id generator.
func (b *RecordBuilder) WithIDFunc(fn func() string) *RecordBuilder {
	b.newID = fn
	return b
}

// Validate checks f as submitted for the record type typ.
func (b *RecordBuilder) Validate(typ core.TxnType, f Form) *ValidationError {
	f = f.trimmed()
	fields := map[string]string{}

	if !core.ValidateAmount(f.Amount) {
		fields["amount"] = "Enter a positive amount with at most 2 decimals."
	}
	if !core.ValidateDateNotFuture(f.Date, b.now()) {
		fields["date"] = "Choose a valid date that is not in the future."
	}
	if !core.ValidateMinLetters(f.Description, core.MinDescriptionLetters) {
		fields["description"] = fmt.Sprintf("Enter at least %d letters.", core.MinDescriptionLetters)
	}
	if typ == core.Expense {
		switch {
		case f.Category == "":
			fields["category"] = "Choose a category."
		case f.Category == core.OtherCategory && !core.ValidateMinLetters(f.OtherCategory, core.MinCategoryLetters):
			fields["category"] = fmt.Sprintf("Enter at least %d letters for the category.", core.MinCategoryLetters)
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Build validates f and creates or updates a record. An EditID that no
// longer exists creates a new record instead.
func (b *RecordBuilder) Build(ctx context.Context, f Form) (BuildResult, error) {
	f = f.trimmed()

	var (
		prev    core.Transaction
		editing bool
	)
	if f.EditID != "" {
		prev, editing = b.ledger.FindByID(ctx, f.EditID)
		if !editing {
			slog.InfoContext(ctx, "Edit target not found, creating new record", "record_id", f.EditID)
		}
	}

	typ := f.Type
	if editing {
		typ = prev.Type
	}
	if !typ.Valid() {
		return BuildResult{}, &ValidationError{Fields: map[string]string{"type": "Choose income or expense."}}
	}
	if verr := b.Validate(typ, f); verr != nil {
		return BuildResult{}, verr
	}

	entered, err := core.ParseAmount(f.Amount)
	if err != nil {
		return BuildResult{}, &ValidationError{Fields: map[string]string{"amount": err.Error()}}
	}
	code := f.Currency
	if code == "" {
		code = core.BaseCurrency
	}
	base, err := core.ToMoney(b.converter.ToBase(entered, code))
	if err != nil {
		return BuildResult{}, &ValidationError{Fields: map[string]string{"amount": "Amount is too large."}}
	}
	now := core.FormatTimestamp(b.now())

	record := core.Transaction{
		Type:        typ,
		Amount:      base,
		Currency:    core.BaseCurrency,
		Original:    core.Original{Amount: core.NewMoney(entered), Currency: code},
		Category:    resolveCategory(typ, f),
		Description: f.Description,
		Date:        f.Date,
		UpdatedAt:   now,
	}

	if editing {
		record.ID = prev.ID
		record.CreatedAt = prev.CreatedAt
		found, err := b.ledger.Replace(ctx, record)
		if err != nil {
			return BuildResult{}, err
		}
		if found {
			return BuildResult{Record: record, Outcome: Updated}, nil
		}
		// Removed between lookup and write.
		slog.InfoContext(ctx, "Edit target vanished, creating new record", "record_id", prev.ID)
	}

	record.ID = b.newID()
	record.CreatedAt = now
	if err := b.ledger.Add(ctx, record); err != nil {
		return BuildResult{}, err
	}
	return BuildResult{Record: record, Outcome: Created}, nil
}

func resolveCategory(typ core.TxnType, f Form) string {
	if typ == core.Income {
		return core.IncomeCategory
	}
	if f.Category == core.OtherCategory {
		return f.OtherCategory
	}
	return f.Category
}
