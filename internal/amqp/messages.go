package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionMessage is the ingest payload published by the API-key
// integration endpoint and consumed by the worker. Amounts travel as
// integer minor units (cents), the legacy integration encoding, and
// are converted to exact decimals on the consumer side.
type TransactionMessage struct {
	MessageID   string    `json:"messageId"`
	LedgerID    int64     `json:"ledgerId"`
	Direction   string    `json:"direction"`
	Category    string    `json:"category,omitempty"`
	AmountCents int64     `json:"amountCents"`
	OccurredAt  time.Time `json:"occurredAt"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewTransactionMessage builds an ingest message with a fresh message ID.
func NewTransactionMessage(ledgerID int64, direction, category string, amountCents int64, occurredAt time.Time, description string) *TransactionMessage {
	return &TransactionMessage{
		MessageID:   uuid.NewString(),
		LedgerID:    ledgerID,
		Direction:   direction,
		Category:    category,
		AmountCents: amountCents,
		OccurredAt:  occurredAt,
		Description: description,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionMessageFromJSON parses a message from JSON bytes.
func TransactionMessageFromJSON(data []byte) (*TransactionMessage, error) {
	var msg TransactionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
