package amqp

import (
	"testing"
	"time"
)

func TestNewTransactionMessage(t *testing.T) {
	occurredAt := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	msg := NewTransactionMessage(10, "expense", "groceries", 1250, occurredAt, "weekly shop")

	if msg.MessageID == "" {
		t.Error("MessageID should not be empty")
	}
	if msg.LedgerID != 10 {
		t.Errorf("LedgerID = %d, want 10", msg.LedgerID)
	}
	if msg.Direction != "expense" {
		t.Errorf("Direction = %q, want %q", msg.Direction, "expense")
	}
	if msg.AmountCents != 1250 {
		t.Errorf("AmountCents = %d, want 1250", msg.AmountCents)
	}
	if !msg.OccurredAt.Equal(occurredAt) {
		t.Errorf("OccurredAt = %v, want %v", msg.OccurredAt, occurredAt)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	other := NewTransactionMessage(10, "expense", "groceries", 1250, occurredAt, "weekly shop")
	if other.MessageID == msg.MessageID {
		t.Error("each message should get a unique MessageID")
	}
}

func TestTransactionMessageJSONRoundTrip(t *testing.T) {
	occurredAt := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	msg := NewTransactionMessage(7, "income", "", 200000, occurredAt, "bonus")

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	decoded, err := TransactionMessageFromJSON(data)
	if err != nil {
		t.Fatalf("TransactionMessageFromJSON() error = %v", err)
	}

	if decoded.MessageID != msg.MessageID {
		t.Errorf("MessageID = %q, want %q", decoded.MessageID, msg.MessageID)
	}
	if decoded.LedgerID != msg.LedgerID {
		t.Errorf("LedgerID = %d, want %d", decoded.LedgerID, msg.LedgerID)
	}
	if decoded.Direction != msg.Direction {
		t.Errorf("Direction = %q, want %q", decoded.Direction, msg.Direction)
	}
	if decoded.Category != "" {
		t.Errorf("Category = %q, want empty", decoded.Category)
	}
	if decoded.AmountCents != msg.AmountCents {
		t.Errorf("AmountCents = %d, want %d", decoded.AmountCents, msg.AmountCents)
	}
	if !decoded.OccurredAt.Equal(msg.OccurredAt) {
		t.Errorf("OccurredAt = %v, want %v", decoded.OccurredAt, msg.OccurredAt)
	}
}

func TestTransactionMessageFromJSONInvalid(t *testing.T) {
	if _, err := TransactionMessageFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
