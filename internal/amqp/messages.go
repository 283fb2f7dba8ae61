package amqp

import (
	"encoding/json"
	"time"
)

// TransactionSyncMessage asks the worker to export one ledger record. It
// carries only id and version; the worker fetches the row from storage so
// the queue never holds stale payloads.
type TransactionSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionDeleteMessage propagates a ledger deletion. The row is already
// gone from storage by the time the worker sees this, so the message carries
// the data needed to locate the exported copy.
type TransactionDeleteMessage struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	Date        string    `json:"date"`
	Timestamp   time.Time `json:"timestamp"`
}

// envelope wraps every queue message with a kind discriminator.
type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

const (
	kindSync   = "transaction.sync"
	kindDelete = "transaction.delete"
)

func NewTransactionSyncMessage(id, version int64) *TransactionSyncMessage {
	return &TransactionSyncMessage{ID: id, Version: version, Timestamp: time.Now()}
}

func encodeMessage(kind string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: kind, Payload: raw})
}
