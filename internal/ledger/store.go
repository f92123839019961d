// Package ledger owns the persisted list of transactions. Every mutation
// loads the whole ledger, changes it in memory and writes it back, then
// announces the difference on the event bus.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"finledger/internal/core"
	"finledger/internal/events"
	"finledger/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	blobs storage.BlobStore
	bus   *events.Bus
	newID func() string
}

type Option func(*Store)

// WithIDFunc overrides the id generator used by Merge.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func NewStore(blobs storage.BlobStore, bus *events.Bus, opts ...Option) *Store {
	s := &Store{blobs: blobs, bus: bus, newID: core.NewID}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load returns the current ledger. A missing or unreadable blob yields an
// empty ledger; elements that fail to decode are skipped.
func (s *Store) Load(ctx context.Context) []core.Transaction {
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) []core.Transaction {
	raw, ok, err := s.blobs.Get(ctx, storage.LedgerKey)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read ledger, using empty ledger", "error", err)
		return []core.Transaction{}
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return []core.Transaction{}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		slog.WarnContext(ctx, "Corrupt ledger blob, using empty ledger", "error", err)
		return []core.Transaction{}
	}

	out := make([]core.Transaction, 0, len(items))
	for i, item := range items {
		var t core.Transaction
		if err := json.Unmarshal(item, &t); err != nil {
			slog.WarnContext(ctx, "Skipping undecodable ledger entry", "index", i, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *Store) write(ctx context.Context, records []core.Transaction) error {
	if records == nil {
		records = []core.Transaction{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.blobs.Put(ctx, storage.LedgerKey, data); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func (s *Store) publish(evs []events.Event) {
	for _, e := range evs {
		s.bus.Publish(e)
	}
}

// Save replaces the ledger with records and publishes one event per
// added, changed or removed id.
func (s *Store) Save(ctx context.Context, records []core.Transaction) error {
	s.mu.Lock()
	prev := s.load(ctx)
	if err := s.write(ctx, records); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.publish(diff(prev, records))
	return nil
}

// Add appends record.
func (s *Store) Add(ctx context.Context, record core.Transaction) error {
	s.mu.Lock()
	records := append(s.load(ctx), record)
	if err := s.write(ctx, records); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Record added", "record_id", record.ID, "record_type", string(record.Type))
	s.publish([]events.Event{events.RecordAdded{Record: record}})
	return nil
}

// Replace swaps the record with the same id. It reports false, without
// writing, when no such record exists.
func (s *Store) Replace(ctx context.Context, record core.Transaction) (bool, error) {
	s.mu.Lock()
	records := s.load(ctx)
	idx := indexOf(records, record.ID)
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	prev := records[idx]
	records[idx] = record
	if err := s.write(ctx, records); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Record updated", "record_id", record.ID)
	s.publish([]events.Event{events.RecordUpdated{Previous: prev, Record: record}})
	return true, nil
}

// Delete removes the record with id. Unknown ids are not an error; the
// deletion is still announced, without a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	records := s.load(ctx)
	idx := indexOf(records, id)
	if idx < 0 {
		s.mu.Unlock()
		slog.DebugContext(ctx, "Delete of unknown record", "record_id", id)
		s.publish([]events.Event{events.RecordDeleted{ID: id}})
		return nil
	}
	removed := records[idx]
	records = append(records[:idx], records[idx+1:]...)
	if err := s.write(ctx, records); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Record deleted", "record_id", id)
	s.publish([]events.Event{events.RecordDeleted{ID: id, Record: &removed}})
	return nil
}

// FindByID returns the record with id.
func (s *Store) FindByID(ctx context.Context, id string) (core.Transaction, bool) {
	records := s.Load(ctx)
	if idx := indexOf(records, id); idx >= 0 {
		return records[idx], true
	}
	return core.Transaction{}, false
}

// Merge appends records, giving a fresh id to any record whose id is
// empty or already taken. It returns the records as stored.
func (s *Store) Merge(ctx context.Context, records []core.Transaction) ([]core.Transaction, error) {
	if len(records) == 0 {
		return []core.Transaction{}, nil
	}

	s.mu.Lock()
	current := s.load(ctx)
	taken := make(map[string]struct{}, len(current)+len(records))
	for _, r := range current {
		taken[r.ID] = struct{}{}
	}

	merged := make([]core.Transaction, 0, len(records))
	for _, r := range records {
		if _, dup := taken[r.ID]; r.ID == "" || dup {
			old := r.ID
			r.ID = s.uniqueID(taken)
			slog.DebugContext(ctx, "Reassigned record id", "old_id", old, "record_id", r.ID)
		}
		taken[r.ID] = struct{}{}
		merged = append(merged, r)
	}

	if err := s.write(ctx, append(current, merged...)); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Records merged", "count", len(merged))
	evs := make([]events.Event, len(merged))
	for i, r := range merged {
		evs[i] = events.RecordAdded{Record: r}
	}
	s.publish(evs)
	return merged, nil
}

func (s *Store) uniqueID(taken map[string]struct{}) string {
	for {
		id := s.newID()
		if _, dup := taken[id]; id != "" && !dup {
			return id
		}
	}
}

func indexOf(records []core.Transaction, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// diff lists the events that turn prev into next, in next order followed
// by deletions in prev order.
func diff(prev, next []core.Transaction) []events.Event {
	before := make(map[string]core.Transaction, len(prev))
	for _, r := range prev {
		before[r.ID] = r
	}

	var evs []events.Event
	seen := make(map[string]struct{}, len(next))
	for _, r := range next {
		seen[r.ID] = struct{}{}
		old, ok := before[r.ID]
		switch {
		case !ok:
			evs = append(evs, events.RecordAdded{Record: r})
		case old != r:
			evs = append(evs, events.RecordUpdated{Previous: old, Record: r})
		}
	}
	for _, r := range prev {
		if _, ok := seen[r.ID]; !ok {
			removed := r
			evs = append(evs, events.RecordDeleted{ID: r.ID, Record: &removed})
		}
	}
	return evs
}
