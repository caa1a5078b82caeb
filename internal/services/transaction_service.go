package services

import (
	"context"
	"log/slog"

	"ledgerly/internal/core"
)

// TransactionService handles the variable-transaction write paths.
type TransactionService struct {
	access AccessChecker
	txs    TransactionStore
}

func NewTransactionService(access AccessChecker, txs TransactionStore) *TransactionService {
	return &TransactionService{access: access, txs: txs}
}

// TransactionInput carries the raw fields of a create or update request.
type TransactionInput struct {
	Direction   string
	Category    string
	Amount      string
	OccurredAt  string
	Description string
}

func (in TransactionInput) toDomain(ledgerID int64) (core.Transaction, error) {
	amount, err := core.ParseMoney(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	occurredAt, err := core.ParseInstant(in.OccurredAt)
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		LedgerID:    ledgerID,
		Direction:   core.Direction(in.Direction),
		Category:    core.Category(in.Category),
		Amount:      amount,
		OccurredAt:  occurredAt,
		Description: in.Description,
	}
	// Income without a category gets the legacy pseudo-category; it never
	// feeds the income summary.
	if tx.Direction == core.DirectionIncome && tx.Category == "" {
		tx.Category = core.CategoryIncidentalIncome
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// Create validates and stores a new transaction.
func (s *TransactionService) Create(ctx context.Context, userID, ledgerID int64, in TransactionInput) (core.Transaction, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return core.Transaction{}, err
	}
	tx, err := in.toDomain(ledgerID)
	if err != nil {
		return core.Transaction{}, err
	}
	created, err := s.txs.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction created",
		"ledger_id", ledgerID,
		"transaction_id", created.ID,
		"direction", created.Direction,
		"category", created.Category)
	return created, nil
}

// Update replaces the mutable fields of an existing transaction.
func (s *TransactionService) Update(ctx context.Context, userID, ledgerID, id int64, in TransactionInput) (core.Transaction, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return core.Transaction{}, err
	}
	tx, err := in.toDomain(ledgerID)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = id
	return s.txs.UpdateTransaction(ctx, tx)
}

// Delete removes a transaction.
func (s *TransactionService) Delete(ctx context.Context, userID, ledgerID, id int64) error {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return err
	}
	return s.txs.DeleteTransaction(ctx, ledgerID, id)
}

// List returns the ledger's transactions inside the range.
func (s *TransactionService) List(ctx context.Context, userID, ledgerID int64, r core.DateRange) ([]core.Transaction, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return nil, err
	}
	return s.txs.ListTransactions(ctx, ledgerID, r)
}
