package transfer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"finledger/internal/core"
)

type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeSettings Scope = "settings"
	ScopeRecords  Scope = "records"
)

// ParseScope maps unknown values to ScopeAll.
func ParseScope(s string) Scope {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case ScopeSettings, ScopeRecords:
		return sc
	default:
		return ScopeAll
	}
}

const stampLayout = "2006-01-02-15-04-05"

// JSONFileName names a JSON backup taken at t.
func JSONFileName(scope Scope, t time.Time) string {
	return fmt.Sprintf("finledger-export-%s-%s.json", scope, t.UTC().Format(stampLayout))
}

// TableFileName names a CSV or XLSX export taken at t.
func TableFileName(ext string, t time.Time) string {
	return fmt.Sprintf("transactions-%s.%s", t.UTC().Format(stampLayout), ext)
}

type backup struct {
	Settings     *core.Settings     `json:"settings,omitempty"`
	Transactions *[]core.Transaction `json:"transactions,omitempty"`
}

// ExportJSON writes the parts of the state selected by scope. The output
// is accepted by ParseImport.
func ExportJSON(w io.Writer, scope Scope, settings core.Settings, records []core.Transaction) error {
	var payload backup
	if scope == ScopeAll || scope == ScopeSettings {
		payload.Settings = &settings
	}
	if scope == ScopeAll || scope == ScopeRecords {
		if records == nil {
			records = []core.Transaction{}
		}
		payload.Transactions = &records
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// Columns is the header shared by the CSV and XLSX exports.
var Columns = []string{
	"id", "type", "category", "description",
	"amount_RWF", "currency", "original_amount", "original_currency",
	"date", "createdAt", "updatedAt",
}

func row(t core.Transaction) []string {
	origCurrency := t.Original.Currency
	if origCurrency == "" {
		origCurrency = core.BaseCurrency
	}
	return []string{
		t.ID, string(t.Type), t.Category, t.Description,
		t.Amount.String(), core.BaseCurrency,
		t.Original.Amount.String(), origCurrency,
		t.Date, t.CreatedAt, t.UpdatedAt,
	}
}

// ExportCSV writes records as UTF-8 CSV with a byte order mark so
// spreadsheet tools detect the encoding.
func ExportCSV(w io.Writer, records []core.Transaction) error {
	if _, err := w.Write([]byte("\uFEFF")); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range records {
		if err := cw.Write(row(t)); err != nil {
			return fmt.Errorf("write record %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

const sheetName = "Transactions"

// ExportXLSX writes records as a single-sheet workbook. Amount columns
// are numeric cells.
func ExportXLSX(w io.Writer, records []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for r, t := range records {
		values := row(t)
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			var val any = v
			switch Columns[c] {
			case "amount_RWF":
				val = t.Amount.Decimal().InexactFloat64()
			case "original_amount":
				val = t.Original.Amount.Decimal().InexactFloat64()
			}
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				return fmt.Errorf("write record %s: %w", t.ID, err)
			}
		}
	}

	f.SetColWidth(sheetName, "A", "A", 40)
	f.SetColWidth(sheetName, "C", "D", 24)
	f.SetColWidth(sheetName, "I", "K", 26)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
