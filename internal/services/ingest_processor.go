package services

import (
	"context"
	"fmt"
	"log/slog"

	"ledgerly/internal/amqp"
	"ledgerly/internal/core"
)

// IngestProcessor persists transactions arriving over the integration
// queue. Messages carry amounts as integer cents; they are converted to
// exact decimals here and validated like any user-created transaction.
type IngestProcessor struct {
	txs TransactionStore
}

func NewIngestProcessor(txs TransactionStore) *IngestProcessor {
	return &IngestProcessor{txs: txs}
}

// HandleTransactionMessage validates and stores one ingest message.
// Validation failures are permanent: the consumer drops the message
// instead of requeueing it.
func (p *IngestProcessor) HandleTransactionMessage(ctx context.Context, msg *amqp.TransactionMessage) error {
	tx := core.Transaction{
		LedgerID:    msg.LedgerID,
		Direction:   core.Direction(msg.Direction),
		Category:    core.Category(msg.Category),
		Amount:      core.MoneyFromCents(msg.AmountCents),
		OccurredAt:  msg.OccurredAt,
		Description: msg.Description,
	}
	if tx.Direction == core.DirectionIncome && tx.Category == "" {
		tx.Category = core.CategoryIncidentalIncome
	}
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("invalid ingest transaction %s: %w", msg.MessageID, err)
	}

	created, err := p.txs.CreateTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("store ingest transaction %s: %w", msg.MessageID, err)
	}

	slog.InfoContext(ctx, "Ingest transaction stored",
		"message_id", msg.MessageID,
		"ledger_id", created.LedgerID,
		"transaction_id", created.ID,
		"amount", created.Amount.Fixed2())
	return nil
}
