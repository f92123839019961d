package core

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Income  TxnType = "income"
	Expense TxnType = "expense"
)

const (
	// BaseCurrency is the unit every stored amount is expressed in.
	BaseCurrency = "RWF"

	// IncomeCategory is the fixed category given to every income record.
	IncomeCategory = "Income"

	// OtherCategory is the selector sentinel that switches to a free-text category.
	OtherCategory = "Other"

	// NoTopCategory is reported when a month has no spending.
	NoTopCategory = "—"

	// DateLayout is the calendar date format used by records.
	DateLayout = "2006-01-02"

	// TimestampLayout renders createdAt/updatedAt; fixed width keeps them lexically sortable.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

type (
	TxnType string

	// Original keeps the amount and currency the user typed before conversion.
	Original struct {
		Amount   Money  `json:"amount"`
		Currency string `json:"currency"`
	}

	Transaction struct {
		ID          string   `json:"id"`
		Type        TxnType  `json:"type"`
		Amount      Money    `json:"amount"` // base currency
		Currency    string   `json:"currency"`
		Original    Original `json:"original"`
		Category    string   `json:"category"`
		Description string   `json:"description"`
		Date        string   `json:"date"`
		CreatedAt   string   `json:"createdAt"`
		UpdatedAt   string   `json:"updatedAt"`
	}
)

var (
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrMissingID     = errors.New("missing id")
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Valid reports whether t is one of the known transaction types.
func (t TxnType) Valid() bool {
	return t == Income || t == Expense
}

// NewID returns a collision-resistant record id: a UUIDv7 carries a
// millisecond timestamp followed by random bits.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "txn_" + id.String()
}

// FormatTimestamp renders t as a UTC ISO-8601 string with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseDate parses a strict YYYY-MM-DD string at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, ErrInvalidDate
	}
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// FormatDate renders the calendar day of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// InMonth reports whether the record date falls in the calendar month of ref.
func (t Transaction) InMonth(ref time.Time) bool {
	d, err := ParseDate(t.Date, ref.Location())
	if err != nil {
		return false
	}
	return d.Year() == ref.Year() && d.Month() == ref.Month()
}

// Validate checks the shape of a record coming from outside the record
// builder (imports, stored blobs).
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount.Cents < 0 || t.Original.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if _, err := ParseDate(t.Date, time.UTC); err != nil {
		return err
	}
	return nil
}

// Normalize fills the fields an external record may omit.
func (t Transaction) Normalize() Transaction {
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	if t.Currency == "" {
		t.Currency = BaseCurrency
	}
	t.Original.Currency = strings.ToUpper(strings.TrimSpace(t.Original.Currency))
	if t.Original.Currency == "" {
		t.Original = Original{Amount: t.Amount, Currency: t.Currency}
	}
	if t.Type == Income && t.Category == "" {
		t.Category = IncomeCategory
	}
	return t
}
