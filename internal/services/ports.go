// Package services contains the application services composing the
// domain model with the persistence collaborators: analytics summaries,
// monthly averages, budget overviews and the ledger write paths.
package services

import (
	"context"

	"ledgerly/internal/core"
)

// Ports for the persistence collaborators. The SQLite repository
// implements all of them; tests substitute in-memory fakes.
type (
	// AccessChecker verifies ledger membership before any ledger-scoped
	// operation. A non-member gets a Forbidden error, never partial data.
	AccessChecker interface {
		RequireLedgerAccess(ctx context.Context, userID, ledgerID int64) (core.MemberInfo, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, ledgerID, id int64) error
		ListTransactions(ctx context.Context, ledgerID int64, r core.DateRange) ([]core.Transaction, error)
		// ExpenseTotalsByCategory groups expense transactions inside the
		// range by category. It must agree with core.AggregateByCategory
		// applied to the matching rows.
		ExpenseTotalsByCategory(ctx context.Context, ledgerID int64, r core.DateRange) ([]core.CategoryTotal, error)
	}

	RecurringStore interface {
		// RecurringItems returns items with their full version history,
		// versions ordered by validFrom descending. An empty direction
		// matches both.
		RecurringItems(ctx context.Context, ledgerID int64, direction core.Direction, activeOnly bool) ([]core.RecurringItem, error)
		CreateRecurringItem(ctx context.Context, item core.RecurringItem) (core.RecurringItem, error)
		AddRecurringItemVersion(ctx context.Context, ledgerID int64, v core.RecurringItemVersion) (core.RecurringItemVersion, error)
		SetRecurringItemActive(ctx context.Context, ledgerID, itemID int64, active bool) error
	}

	BudgetStore interface {
		AllocationsForMonth(ctx context.Context, ledgerID int64, ym core.YearMonth) ([]core.BudgetAllocation, error)
		// CreateAllocation fails with a Conflict error when an allocation
		// for the same (ledger, month, category) or (ledger, month, name)
		// already exists.
		CreateAllocation(ctx context.Context, a core.BudgetAllocation) (core.BudgetAllocation, error)
		UpdateAllocationAmount(ctx context.Context, ledgerID, id int64, amount core.Money) (core.BudgetAllocation, error)
		DeleteAllocation(ctx context.Context, ledgerID, id int64) error
		DeleteAllocationsForMonth(ctx context.Context, ledgerID int64, ym core.YearMonth) (int64, error)
		// CopyAllocations duplicates every allocation row of the source
		// month into the destination month.
		CopyAllocations(ctx context.Context, ledgerID int64, from, to core.YearMonth) (int64, error)
	}
)
