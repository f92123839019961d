// Package events carries ledger change notifications from the ledger
// store to its listeners.
package events

import (
	"sync"

	"finledger/internal/core"
)

type Kind string

const (
	KindAdded   Kind = "record_added"
	KindUpdated Kind = "record_updated"
	KindDeleted Kind = "record_deleted"
)

// Event is one of RecordAdded, RecordUpdated or RecordDeleted.
type Event interface {
	Kind() Kind
	RecordID() string
}

type RecordAdded struct {
	Record core.Transaction
}

type RecordUpdated struct {
	Previous core.Transaction
	Record   core.Transaction
}

// RecordDeleted has a nil Record when the id was not in the ledger.
type RecordDeleted struct {
	ID     string
	Record *core.Transaction
}

func (RecordAdded) Kind() Kind   { return KindAdded }
func (RecordUpdated) Kind() Kind { return KindUpdated }
func (RecordDeleted) Kind() Kind { return KindDeleted }

func (e RecordAdded) RecordID() string   { return e.Record.ID }
func (e RecordUpdated) RecordID() string { return e.Record.ID }
func (e RecordDeleted) RecordID() string { return e.ID }

type Handler func(Event)

// Bus is a synchronous publish/subscribe hub. Handlers run on the
// publisher's goroutine in no particular order.
type Bus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers e to every current subscriber. A nil bus drops events.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(e)
	}
}
