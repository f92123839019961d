package amqp

import (
	"context"
	"log/slog"

	"finledger/internal/events"
)

// Publisher sends ledger events to the broker.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, msg *LedgerEventMessage) error
}

// Forwarder relays bus events to a Publisher from its own goroutine so a
// slow broker never delays a ledger write.
type Forwarder struct {
	pub   Publisher
	queue chan *LedgerEventMessage
}

func NewForwarder(pub Publisher, buffer int) *Forwarder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Forwarder{pub: pub, queue: make(chan *LedgerEventMessage, buffer)}
}

// Handle is an events.Handler. Events are dropped when the buffer is full.
func (f *Forwarder) Handle(ev events.Event) {
	msg := NewLedgerEventMessage(ev)
	select {
	case f.queue <- msg:
	default:
		slog.Warn("Forward buffer full, dropping ledger event",
			"event_kind", msg.Kind, "record_id", msg.RecordID)
	}
}

// Run publishes queued events until ctx is done, then drains what is
// already buffered.
func (f *Forwarder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			f.drain()
			return nil
		case msg := <-f.queue:
			f.publish(ctx, msg)
		}
	}
}

func (f *Forwarder) drain() {
	// The parent context is gone; give buffered events a fresh one.
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	for {
		select {
		case msg := <-f.queue:
			f.publish(ctx, msg)
		default:
			return
		}
	}
}

func (f *Forwarder) publish(ctx context.Context, msg *LedgerEventMessage) {
	if err := f.pub.PublishLedgerEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to forward ledger event",
			"event_kind", msg.Kind, "record_id", msg.RecordID, "error", err)
	}
}
