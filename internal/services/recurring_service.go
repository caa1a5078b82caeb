package services

import (
	"context"
	"log/slog"
	"strings"

	"ledgerly/internal/core"
)

// RecurringService manages recurring items and their version history.
// Amount corrections always happen by adding a new version; existing
// versions are never edited.
type RecurringService struct {
	access    AccessChecker
	recurring RecurringStore
}

func NewRecurringService(access AccessChecker, recurring RecurringStore) *RecurringService {
	return &RecurringService{access: access, recurring: recurring}
}

// RecurringItemInput carries the raw fields for creating an item with
// its initial version.
type RecurringItemInput struct {
	Name      string
	Direction string
	Amount    string
	ValidFrom string
	ValidTo   string
}

// VersionInput carries the raw fields for appending a version.
type VersionInput struct {
	Amount    string
	ValidFrom string
	ValidTo   string
}

func (in VersionInput) toDomain(itemID int64) (core.RecurringItemVersion, error) {
	amount, err := core.ParseMoney(in.Amount)
	if err != nil {
		return core.RecurringItemVersion{}, err
	}
	validFrom, err := core.ParseInstant(in.ValidFrom)
	if err != nil {
		return core.RecurringItemVersion{}, err
	}
	v := core.RecurringItemVersion{
		ItemID:    itemID,
		Amount:    amount,
		ValidFrom: validFrom,
	}
	if in.ValidTo != "" {
		validTo, err := core.ParseInstant(in.ValidTo)
		if err != nil {
			return core.RecurringItemVersion{}, err
		}
		v.ValidTo = &validTo
	}
	if err := v.Validate(); err != nil {
		return core.RecurringItemVersion{}, err
	}
	return v, nil
}

// CreateItem creates a recurring item together with its first version.
// Item names are unique per ledger; a duplicate surfaces as Conflict.
func (s *RecurringService) CreateItem(ctx context.Context, userID, ledgerID int64, in RecurringItemInput) (core.RecurringItem, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return core.RecurringItem{}, err
	}
	item := core.RecurringItem{
		LedgerID:  ledgerID,
		Name:      strings.TrimSpace(in.Name),
		Direction: core.Direction(in.Direction),
		IsActive:  true,
	}
	if err := item.Validate(); err != nil {
		return core.RecurringItem{}, err
	}
	version, err := VersionInput{Amount: in.Amount, ValidFrom: in.ValidFrom, ValidTo: in.ValidTo}.toDomain(0)
	if err != nil {
		return core.RecurringItem{}, err
	}
	item.Versions = []core.RecurringItemVersion{version}
	created, err := s.recurring.CreateRecurringItem(ctx, item)
	if err != nil {
		return core.RecurringItem{}, err
	}
	slog.InfoContext(ctx, "Recurring item created",
		"ledger_id", ledgerID,
		"item_id", created.ID,
		"name", created.Name,
		"direction", created.Direction)
	return created, nil
}

// AddVersion appends a new time-bounded amount to an item.
func (s *RecurringService) AddVersion(ctx context.Context, userID, ledgerID, itemID int64, in VersionInput) (core.RecurringItemVersion, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return core.RecurringItemVersion{}, err
	}
	v, err := in.toDomain(itemID)
	if err != nil {
		return core.RecurringItemVersion{}, err
	}
	return s.recurring.AddRecurringItemVersion(ctx, ledgerID, v)
}

// SetActive flips the isActive flag. Inactive items stop contributing to
// every summary immediately, regardless of version windows.
func (s *RecurringService) SetActive(ctx context.Context, userID, ledgerID, itemID int64, active bool) error {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return err
	}
	return s.recurring.SetRecurringItemActive(ctx, ledgerID, itemID, active)
}

// List returns the ledger's recurring items with their versions. The
// direction filter is optional.
func (s *RecurringService) List(ctx context.Context, userID, ledgerID int64, direction string, activeOnly bool) ([]core.RecurringItem, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return nil, err
	}
	d := core.Direction(direction)
	if direction != "" && !core.ValidDirection(d) {
		return nil, core.BadRequestf("unknown direction %q", direction)
	}
	return s.recurring.RecurringItems(ctx, ledgerID, d, activeOnly)
}
