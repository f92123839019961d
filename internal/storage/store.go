// Package storage persists keyed blobs, the unit the ledger and settings
// stores read and rewrite in full.
package storage

import (
	"context"
	"errors"
)

// Keys of the two blobs the application owns.
const (
	LedgerKey   = "finledger_transactions"
	SettingsKey = "finledger_settings"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// BlobStore is a keyed string store. Put replaces the whole value in a
// single write; readers never observe a partial value.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
