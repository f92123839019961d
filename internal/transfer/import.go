// Package transfer moves ledger data in and out: JSON imports, JSON
// backups, CSV and XLSX exports.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"finledger/internal/core"
)

var ErrInvalidImport = errors.New("invalid import")

type Kind int

const (
	KindInvalid Kind = iota
	// KindTransactions is a bare array of records.
	KindTransactions
	// KindBundle is an object with optional settings and transactions.
	KindBundle
)

func (k Kind) String() string {
	switch k {
	case KindTransactions:
		return "transactions"
	case KindBundle:
		return "bundle"
	default:
		return "invalid"
	}
}

// Import is a parsed and validated import payload. Err is set only for
// KindInvalid.
type Import struct {
	Kind         Kind
	Settings     *core.SettingsPatch
	Transactions []core.Transaction
	Err          error
}

func invalid(format string, args ...any) Import {
	return Import{Kind: KindInvalid, Err: fmt.Errorf("%w: %s", ErrInvalidImport, fmt.Sprintf(format, args...))}
}

// ParseImport classifies and validates data. Any invalid part makes the
// whole import invalid.
func ParseImport(data []byte) Import {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return invalid("empty payload")
	}

	switch data[0] {
	case '[':
		txns, err := parseTransactions(data)
		if err != nil {
			return invalid("%v", err)
		}
		return Import{Kind: KindTransactions, Transactions: txns}

	case '{':
		var bundle map[string]json.RawMessage
		if err := json.Unmarshal(data, &bundle); err != nil {
			return invalid("malformed JSON: %v", err)
		}
		rawSettings, hasSettings := present(bundle, "settings")
		rawTxns, hasTxns := present(bundle, "transactions")
		if !hasSettings && !hasTxns {
			return invalid("expected settings or transactions")
		}

		out := Import{Kind: KindBundle, Transactions: []core.Transaction{}}
		if hasSettings {
			patch, err := parseSettings(rawSettings)
			if err != nil {
				return invalid("settings: %v", err)
			}
			out.Settings = &patch
		}
		if hasTxns {
			txns, err := parseTransactions(rawTxns)
			if err != nil {
				return invalid("%v", err)
			}
			out.Transactions = txns
		}
		return out

	default:
		return invalid("expected a JSON array or object")
	}
}

func present(m map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := m[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func parseTransactions(data []byte) ([]core.Transaction, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("transactions must be an array: %v", err)
	}
	out := make([]core.Transaction, 0, len(items))
	for i, item := range items {
		var t core.Transaction
		if err := json.Unmarshal(item, &t); err != nil {
			return nil, fmt.Errorf("transaction %d: %v", i, err)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("transaction %d: %v", i, err)
		}
		out = append(out, t.Normalize())
	}
	return out, nil
}

func parseSettings(data []byte) (core.SettingsPatch, error) {
	var raw struct {
		Name        *string            `json:"name"`
		Theme       *core.Theme        `json:"theme"`
		WarnOverCap *string            `json:"warnOverCap"`
		Budget      map[string]float64 `json:"budget"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return core.SettingsPatch{}, err
	}

	patch := core.SettingsPatch{Name: raw.Name, Theme: raw.Theme, WarnOverCap: raw.WarnOverCap}
	if raw.Budget != nil {
		patch.Budget = make(map[string]int64, len(raw.Budget))
		for k, v := range raw.Budget {
			if v < 0 {
				return core.SettingsPatch{}, fmt.Errorf("%w: %s", core.ErrInvalidBudget, k)
			}
			patch.Budget[k] = int64(math.Round(v))
		}
	}
	if err := patch.Validate(); err != nil {
		return core.SettingsPatch{}, err
	}
	return patch, nil
}

// LedgerMerger appends imported records.
type LedgerMerger interface {
	Merge(ctx context.Context, records []core.Transaction) ([]core.Transaction, error)
}

// SettingsMerger applies imported settings.
type SettingsMerger interface {
	Merge(ctx context.Context, patch core.SettingsPatch) (core.Settings, error)
}

type Result struct {
	SettingsApplied bool `json:"settingsApplied"`
	Imported        int  `json:"imported"`
	Reassigned      int  `json:"reassigned"`
}

type Importer struct {
	ledger   LedgerMerger
	settings SettingsMerger
}

func NewImporter(ledger LedgerMerger, settings SettingsMerger) *Importer {
	return &Importer{ledger: ledger, settings: settings}
}

// Apply stores a valid import. Invalid imports change nothing.
func (im *Importer) Apply(ctx context.Context, imp Import) (Result, error) {
	if imp.Kind == KindInvalid {
		if imp.Err == nil {
			return Result{}, ErrInvalidImport
		}
		return Result{}, imp.Err
	}

	if imp.Settings != nil {
		if err := imp.Settings.Validate(); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
	}

	// Records first: a failed ledger write leaves settings untouched.
	var res Result
	if len(imp.Transactions) > 0 {
		merged, err := im.ledger.Merge(ctx, imp.Transactions)
		if err != nil {
			return res, fmt.Errorf("import transactions: %w", err)
		}
		res.Imported = len(merged)
		for i, r := range merged {
			if r.ID != imp.Transactions[i].ID {
				res.Reassigned++
			}
		}
	}

	if imp.Settings != nil {
		if _, err := im.settings.Merge(ctx, *imp.Settings); err != nil {
			return res, fmt.Errorf("import settings: %w", err)
		}
		res.SettingsApplied = true
	}

	slog.InfoContext(ctx, "Import applied",
		"kind", imp.Kind.String(),
		"settings_applied", res.SettingsApplied,
		"imported", res.Imported,
		"reassigned", res.Reassigned)
	return res, nil
}

// ApplyFile parses and applies the import stored at path.
func (im *Importer) ApplyFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read import file: %w", err)
	}
	return im.Apply(ctx, ParseImport(data))
}
