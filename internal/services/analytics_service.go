package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgerly/internal/core"
)

// AnalyticsService computes period-bounded financial summaries. Every
// summary is recomputed from current data on each call; nothing is
// cached, so results are always fresh.
type AnalyticsService struct {
	access    AccessChecker
	txs       TransactionStore
	recurring RecurringStore
}

func NewAnalyticsService(access AccessChecker, txs TransactionStore, recurring RecurringStore) *AnalyticsService {
	return &AnalyticsService{
		access:    access,
		txs:       txs,
		recurring: recurring,
	}
}

// CategoryBreakdown is the per-category slice of an expenses summary,
// sorted by category for deterministic output.
type CategoryBreakdown struct {
	Category         core.Category `json:"category"`
	Total            core.Money    `json:"total"`
	TransactionCount int64         `json:"transactionCount"`
}

// ExpensesSummary combines variable (transaction-based) and recurring
// expenses for a range. TotalExpenses always equals
// TotalVariableExpenses + TotalRecurringExpenses exactly.
type ExpensesSummary struct {
	TotalExpenses            core.Money          `json:"totalExpenses"`
	TotalVariableExpenses    core.Money          `json:"totalVariableExpenses"`
	VariableTransactionCount int64               `json:"variableTransactionCount"`
	PerCategory              []CategoryBreakdown `json:"perCategory"`
	TotalRecurringExpenses   core.Money          `json:"totalRecurringExpenses"`
}

// IncomeSummary counts recurring income only. Variable income
// transactions (incidental income) are deliberately excluded.
type IncomeSummary struct {
	TotalIncome core.Money `json:"totalIncome"`
}

// NetBalanceSummary is income minus expenses; negative when the ledger
// spent more than it earned, never clamped.
type NetBalanceSummary struct {
	NetBalance core.Money `json:"netBalance"`
}

// CombinedSummary merges the three summaries into one payload so the
// caller avoids three sequential round trips. Its numbers are identical
// to calling the individual operations with the same range.
type CombinedSummary struct {
	DateRangeFrom time.Time         `json:"dateRangeFrom"`
	DateRangeTo   time.Time         `json:"dateRangeTo"`
	Expenses      ExpensesSummary   `json:"expenses"`
	Income        IncomeSummary     `json:"income"`
	NetBalance    NetBalanceSummary `json:"netBalance"`
}

// ExpensesSummary computes the expenses summary for a ledger and range.
func (s *AnalyticsService) ExpensesSummary(ctx context.Context, userID, ledgerID int64, r core.DateRange) (ExpensesSummary, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return ExpensesSummary{}, err
	}
	return s.expensesFor(ctx, ledgerID, r)
}

// IncomeSummary computes the income summary for a ledger and range.
func (s *AnalyticsService) IncomeSummary(ctx context.Context, userID, ledgerID int64, r core.DateRange) (IncomeSummary, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return IncomeSummary{}, err
	}
	return s.incomeFor(ctx, ledgerID, r)
}

// NetBalanceSummary computes income minus expenses for a ledger and range.
func (s *AnalyticsService) NetBalanceSummary(ctx context.Context, userID, ledgerID int64, r core.DateRange) (NetBalanceSummary, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return NetBalanceSummary{}, err
	}
	expenses, income, err := s.expensesAndIncome(ctx, ledgerID, r)
	if err != nil {
		return NetBalanceSummary{}, err
	}
	return netBalance(expenses, income), nil
}

// CombinedSummary computes all three summaries in one call.
func (s *AnalyticsService) CombinedSummary(ctx context.Context, userID, ledgerID int64, r core.DateRange) (CombinedSummary, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return CombinedSummary{}, err
	}
	return s.combinedFor(ctx, ledgerID, r)
}

// SummarizeLedgerMonth computes a combined summary for a calendar month
// on behalf of trusted in-process callers (the export worker). The HTTP
// boundary always goes through the userID-checked operations instead.
func (s *AnalyticsService) SummarizeLedgerMonth(ctx context.Context, ledgerID int64, ym core.YearMonth) (CombinedSummary, error) {
	return s.combinedFor(ctx, ledgerID, ym.Window())
}

func (s *AnalyticsService) combinedFor(ctx context.Context, ledgerID int64, r core.DateRange) (CombinedSummary, error) {
	expenses, income, err := s.expensesAndIncome(ctx, ledgerID, r)
	if err != nil {
		return CombinedSummary{}, err
	}
	return CombinedSummary{
		DateRangeFrom: r.From,
		DateRangeTo:   r.To,
		Expenses:      expenses,
		Income:        income,
		NetBalance:    netBalance(expenses, income),
	}, nil
}

// expensesAndIncome runs the two independent sub-aggregations
// concurrently; both must complete before the result is assembled.
func (s *AnalyticsService) expensesAndIncome(ctx context.Context, ledgerID int64, r core.DateRange) (ExpensesSummary, IncomeSummary, error) {
	var (
		expenses ExpensesSummary
		income   IncomeSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.expensesFor(gctx, ledgerID, r)
		return err
	})
	g.Go(func() error {
		var err error
		income, err = s.incomeFor(gctx, ledgerID, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return ExpensesSummary{}, IncomeSummary{}, err
	}
	return expenses, income, nil
}

func (s *AnalyticsService) expensesFor(ctx context.Context, ledgerID int64, r core.DateRange) (ExpensesSummary, error) {
	totals, err := s.txs.ExpenseTotalsByCategory(ctx, ledgerID, r)
	if err != nil {
		return ExpensesSummary{}, fmt.Errorf("expense totals by category: %w", err)
	}
	variable, count := core.SumTotals(totals)

	items, err := s.recurring.RecurringItems(ctx, ledgerID, core.DirectionExpense, true)
	if err != nil {
		return ExpensesSummary{}, fmt.Errorf("fetch recurring expenses: %w", err)
	}
	recurring := core.SumActiveAmounts(items, r)

	perCategory := make([]CategoryBreakdown, len(totals))
	for i, ct := range totals {
		perCategory[i] = CategoryBreakdown{
			Category:         ct.Category,
			Total:            ct.Total,
			TransactionCount: ct.Count,
		}
	}
	return ExpensesSummary{
		TotalExpenses:            variable.Add(recurring),
		TotalVariableExpenses:    variable,
		VariableTransactionCount: count,
		PerCategory:              perCategory,
		TotalRecurringExpenses:   recurring,
	}, nil
}

func (s *AnalyticsService) incomeFor(ctx context.Context, ledgerID int64, r core.DateRange) (IncomeSummary, error) {
	items, err := s.recurring.RecurringItems(ctx, ledgerID, core.DirectionIncome, true)
	if err != nil {
		return IncomeSummary{}, fmt.Errorf("fetch recurring income: %w", err)
	}
	return IncomeSummary{TotalIncome: core.SumActiveAmounts(items, r)}, nil
}

func netBalance(expenses ExpensesSummary, income IncomeSummary) NetBalanceSummary {
	return NetBalanceSummary{NetBalance: income.TotalIncome.Sub(expenses.TotalExpenses)}
}
