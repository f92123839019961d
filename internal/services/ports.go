package services

import (
	"context"

	"finledger/internal/core"
)

// LedgerReader is the read side of the ledger store.
type LedgerReader interface {
	Load(ctx context.Context) []core.Transaction
	FindByID(ctx context.Context, id string) (core.Transaction, bool)
}

// LedgerWriter persists built records.
type LedgerWriter interface {
	LedgerReader
	Add(ctx context.Context, record core.Transaction) error
	Replace(ctx context.Context, record core.Transaction) (bool, error)
}

// SettingsReader supplies the budget caps.
type SettingsReader interface {
	Load(ctx context.Context) core.Settings
}
