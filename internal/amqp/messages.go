package amqp

import (
	"encoding/json"
	"time"

	"finledger/internal/core"
	"finledger/internal/events"
)

// LedgerEventMessage is the wire form of a ledger change. Record is absent
// for deletions of unknown ids; Previous is set only for updates.
type LedgerEventMessage struct {
	Kind      string            `json:"kind"`
	RecordID  string            `json:"recordId"`
	Record    *core.Transaction `json:"record,omitempty"`
	Previous  *core.Transaction `json:"previous,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewLedgerEventMessage converts a bus event into a message.
func NewLedgerEventMessage(ev events.Event) *LedgerEventMessage {
	msg := &LedgerEventMessage{
		Kind:      string(ev.Kind()),
		RecordID:  ev.RecordID(),
		Timestamp: time.Now().UTC(),
	}
	switch e := ev.(type) {
	case events.RecordAdded:
		msg.Record = &e.Record
	case events.RecordUpdated:
		msg.Record = &e.Record
		msg.Previous = &e.Previous
	case events.RecordDeleted:
		msg.Record = e.Record
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
