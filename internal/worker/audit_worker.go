package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"finledger/internal/amqp"
)

// AuditEntry is one line of the audit log.
type AuditEntry struct {
	ReceivedAt time.Time                `json:"receivedAt"`
	Event      *amqp.LedgerEventMessage `json:"event"`
}

// AuditWorker appends every consumed ledger event to a JSON-lines log.
type AuditWorker struct {
	mu     sync.Mutex
	out    io.Writer
	now    func() time.Time
	counts map[string]int
}

func NewAuditWorker(out io.Writer) *AuditWorker {
	return &AuditWorker{out: out, now: time.Now, counts: make(map[string]int)}
}

// OpenAuditLog opens path for appending, creating parent directories.
func OpenAuditLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return f, nil
}

// HandleLedgerEvent writes msg as one line. A write error makes the
// consumer requeue the message.
func (w *AuditWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	line, err := json.Marshal(AuditEntry{ReceivedAt: w.now().UTC(), Event: msg})
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.out.Write(line); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	w.counts[msg.Kind]++

	slog.InfoContext(ctx, "Ledger event audited",
		"event_kind", msg.Kind,
		"record_id", msg.RecordID)
	return nil
}

// Counts returns how many events of each kind were written.
func (w *AuditWorker) Counts() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]int, len(w.counts))
	for k, v := range w.counts {
		out[k] = v
	}
	return out
}
