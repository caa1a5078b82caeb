package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ledgerly/internal/core"
)

// BudgetService computes budget overviews and manages allocations for a
// ledger and calendar month.
type BudgetService struct {
	access    AccessChecker
	recurring RecurringStore
	budgets   BudgetStore
	now       func() time.Time
}

func NewBudgetService(access AccessChecker, recurring RecurringStore, budgets BudgetStore) *BudgetService {
	return &BudgetService{
		access:    access,
		recurring: recurring,
		budgets:   budgets,
		now:       time.Now,
	}
}

// AllocationView is one allocation row in an overview response.
type AllocationView struct {
	ID           int64         `json:"id"`
	Category     core.Category `json:"category,omitempty"`
	Name         string        `json:"name,omitempty"`
	BudgetAmount core.Money    `json:"budgetAmount"`
}

// BudgetOverview reports available-to-budget, allocated and remaining
// amounts for one month. RemainingToAllocate may be negative: that is
// over-allocation, reported rather than rejected. Actual spend per
// category is deliberately not included; callers merge with the expenses
// summary themselves.
type BudgetOverview struct {
	YearMonth           core.YearMonth   `json:"yearMonth"`
	RecurringIncome     core.Money       `json:"recurringIncome"`
	RecurringExpenses   core.Money       `json:"recurringExpenses"`
	AvailableToBudget   core.Money       `json:"availableToBudget"`
	AllocatedBudget     core.Money       `json:"allocatedBudget"`
	RemainingToAllocate core.Money       `json:"remainingToAllocate"`
	Allocations         []AllocationView `json:"allocations"`
}

// AllocationInput carries the raw creation fields for an allocation.
type AllocationInput struct {
	YearMonth string
	Category  string
	Name      string
	Amount    string
}

// Overview computes the budget overview for the given month. An empty
// yearMonth defaults to the current calendar month in UTC.
func (s *BudgetService) Overview(ctx context.Context, userID, ledgerID int64, yearMonth string) (BudgetOverview, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return BudgetOverview{}, err
	}
	ym, err := s.resolveMonth(yearMonth)
	if err != nil {
		return BudgetOverview{}, err
	}
	window := ym.Window()

	incomeItems, err := s.recurring.RecurringItems(ctx, ledgerID, core.DirectionIncome, true)
	if err != nil {
		return BudgetOverview{}, fmt.Errorf("fetch recurring income: %w", err)
	}
	expenseItems, err := s.recurring.RecurringItems(ctx, ledgerID, core.DirectionExpense, true)
	if err != nil {
		return BudgetOverview{}, fmt.Errorf("fetch recurring expenses: %w", err)
	}
	allocations, err := s.budgets.AllocationsForMonth(ctx, ledgerID, ym)
	if err != nil {
		return BudgetOverview{}, fmt.Errorf("fetch allocations: %w", err)
	}

	income := core.SumActiveAmounts(incomeItems, window)
	expenses := core.SumActiveAmounts(expenseItems, window)
	available := income.Sub(expenses)

	var allocated core.Money
	views := make([]AllocationView, len(allocations))
	for i, a := range allocations {
		allocated = allocated.Add(a.Amount)
		views[i] = AllocationView{
			ID:           a.ID,
			Category:     a.Category,
			Name:         a.Name,
			BudgetAmount: a.Amount,
		}
	}

	return BudgetOverview{
		YearMonth:           ym,
		RecurringIncome:     income,
		RecurringExpenses:   expenses,
		AvailableToBudget:   available,
		AllocatedBudget:     allocated,
		RemainingToAllocate: available.Sub(allocated),
		Allocations:         views,
	}, nil
}

// CreateAllocation validates and stores a new allocation. Uniqueness per
// (ledger, month, category) and (ledger, month, name) surfaces as a
// Conflict error from the store.
func (s *BudgetService) CreateAllocation(ctx context.Context, userID, ledgerID int64, in AllocationInput) (core.BudgetAllocation, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return core.BudgetAllocation{}, err
	}
	ym, err := s.resolveMonth(in.YearMonth)
	if err != nil {
		return core.BudgetAllocation{}, err
	}
	amount, err := core.ParseMoneyFixed2(in.Amount)
	if err != nil {
		return core.BudgetAllocation{}, err
	}
	alloc := core.BudgetAllocation{
		LedgerID:  ledgerID,
		YearMonth: ym,
		Category:  core.Category(in.Category),
		Name:      in.Name,
		Amount:    amount,
	}
	if err := alloc.Validate(); err != nil {
		return core.BudgetAllocation{}, err
	}
	created, err := s.budgets.CreateAllocation(ctx, alloc)
	if err != nil {
		return core.BudgetAllocation{}, err
	}
	slog.InfoContext(ctx, "Budget allocation created",
		"ledger_id", ledgerID,
		"year_month", ym.String(),
		"allocation_id", created.ID)
	return created, nil
}

// UpdateAllocation changes the amount of an existing allocation.
func (s *BudgetService) UpdateAllocation(ctx context.Context, userID, ledgerID, allocationID int64, amountRaw string) (core.BudgetAllocation, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return core.BudgetAllocation{}, err
	}
	amount, err := core.ParseMoneyFixed2(amountRaw)
	if err != nil {
		return core.BudgetAllocation{}, err
	}
	if amount.IsNegative() {
		return core.BudgetAllocation{}, core.BadRequest("budget amount cannot be negative")
	}
	return s.budgets.UpdateAllocationAmount(ctx, ledgerID, allocationID, amount)
}

// DeleteAllocation removes a single allocation.
func (s *BudgetService) DeleteAllocation(ctx context.Context, userID, ledgerID, allocationID int64) error {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return err
	}
	return s.budgets.DeleteAllocation(ctx, ledgerID, allocationID)
}

// DeleteMonth removes every allocation of the given month.
func (s *BudgetService) DeleteMonth(ctx context.Context, userID, ledgerID int64, yearMonth string) (int64, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return 0, err
	}
	if yearMonth == "" {
		return 0, core.BadRequest("yearMonth is required for bulk delete")
	}
	ym, err := core.ParseYearMonth(yearMonth)
	if err != nil {
		return 0, err
	}
	deleted, err := s.budgets.DeleteAllocationsForMonth(ctx, ledgerID, ym)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Budget allocations bulk deleted",
		"ledger_id", ledgerID,
		"year_month", ym.String(),
		"count", deleted)
	return deleted, nil
}

// CopyMonth duplicates every allocation from one month to another.
// Copying a month onto itself is rejected.
func (s *BudgetService) CopyMonth(ctx context.Context, userID, ledgerID int64, fromRaw, toRaw string) (int64, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return 0, err
	}
	from, err := core.ParseYearMonth(fromRaw)
	if err != nil {
		return 0, err
	}
	to, err := core.ParseYearMonth(toRaw)
	if err != nil {
		return 0, err
	}
	if from == to {
		return 0, core.BadRequest("source and destination month are identical")
	}
	copied, err := s.budgets.CopyAllocations(ctx, ledgerID, from, to)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Budget allocations copied",
		"ledger_id", ledgerID,
		"from", from.String(),
		"to", to.String(),
		"count", copied)
	return copied, nil
}

func (s *BudgetService) resolveMonth(raw string) (core.YearMonth, error) {
	if raw == "" {
		return core.CurrentYearMonth(s.now()), nil
	}
	return core.ParseYearMonth(raw)
}
