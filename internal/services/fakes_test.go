package services

import (
	"context"
	"testing"
	"time"

	"ledgerly/internal/core"
)

// In-memory stores mirroring the SQLite repository contracts. Expense
// grouping uses the same reference fold the repository uses.

type fakeAccess struct {
	members map[[2]int64]string // (userID, ledgerID) -> role
}

func newFakeAccess() *fakeAccess {
	return &fakeAccess{members: make(map[[2]int64]string)}
}

func (f *fakeAccess) grant(userID, ledgerID int64, role string) {
	f.members[[2]int64{userID, ledgerID}] = role
}

func (f *fakeAccess) RequireLedgerAccess(ctx context.Context, userID, ledgerID int64) (core.MemberInfo, error) {
	role, ok := f.members[[2]int64{userID, ledgerID}]
	if !ok {
		return core.MemberInfo{}, core.Forbidden("user is not a member of this ledger")
	}
	return core.MemberInfo{UserID: userID, LedgerID: ledgerID, Role: role}, nil
}

type fakeTransactionStore struct {
	nextID int64
	txs    []core.Transaction
}

func (f *fakeTransactionStore) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	f.nextID++
	tx.ID = f.nextID
	f.txs = append(f.txs, tx)
	return tx, nil
}

func (f *fakeTransactionStore) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	for i, existing := range f.txs {
		if existing.ID == tx.ID && existing.LedgerID == tx.LedgerID {
			f.txs[i] = tx
			return tx, nil
		}
	}
	return core.Transaction{}, core.NotFoundf("transaction %d not found", tx.ID)
}

func (f *fakeTransactionStore) DeleteTransaction(ctx context.Context, ledgerID, id int64) error {
	for i, existing := range f.txs {
		if existing.ID == id && existing.LedgerID == ledgerID {
			f.txs = append(f.txs[:i], f.txs[i+1:]...)
			return nil
		}
	}
	return core.NotFoundf("transaction %d not found", id)
}

func (f *fakeTransactionStore) ListTransactions(ctx context.Context, ledgerID int64, r core.DateRange) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, tx := range f.txs {
		if tx.LedgerID == ledgerID && r.Contains(tx.OccurredAt) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeTransactionStore) ExpenseTotalsByCategory(ctx context.Context, ledgerID int64, r core.DateRange) ([]core.CategoryTotal, error) {
	matching, _ := f.ListTransactions(ctx, ledgerID, r)
	return core.AggregateByCategory(matching), nil
}

type fakeRecurringStore struct {
	nextID int64
	items  []core.RecurringItem
}

func (f *fakeRecurringStore) RecurringItems(ctx context.Context, ledgerID int64, direction core.Direction, activeOnly bool) ([]core.RecurringItem, error) {
	var out []core.RecurringItem
	for _, it := range f.items {
		if it.LedgerID != ledgerID {
			continue
		}
		if direction != "" && it.Direction != direction {
			continue
		}
		if activeOnly && !it.IsActive {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeRecurringStore) CreateRecurringItem(ctx context.Context, item core.RecurringItem) (core.RecurringItem, error) {
	for _, existing := range f.items {
		if existing.LedgerID == item.LedgerID && existing.Name == item.Name {
			return core.RecurringItem{}, core.Conflictf("recurring item %q already exists", item.Name)
		}
	}
	f.nextID++
	item.ID = f.nextID
	for i := range item.Versions {
		f.nextID++
		item.Versions[i].ID = f.nextID
		item.Versions[i].ItemID = item.ID
	}
	f.items = append(f.items, item)
	return item, nil
}

func (f *fakeRecurringStore) AddRecurringItemVersion(ctx context.Context, ledgerID int64, v core.RecurringItemVersion) (core.RecurringItemVersion, error) {
	for i, it := range f.items {
		if it.ID == v.ItemID && it.LedgerID == ledgerID {
			f.nextID++
			v.ID = f.nextID
			f.items[i].Versions = append([]core.RecurringItemVersion{v}, it.Versions...)
			return v, nil
		}
	}
	return core.RecurringItemVersion{}, core.NotFoundf("recurring item %d not found", v.ItemID)
}

func (f *fakeRecurringStore) SetRecurringItemActive(ctx context.Context, ledgerID, itemID int64, active bool) error {
	for i, it := range f.items {
		if it.ID == itemID && it.LedgerID == ledgerID {
			f.items[i].IsActive = active
			return nil
		}
	}
	return core.NotFoundf("recurring item %d not found", itemID)
}

type fakeBudgetStore struct {
	nextID int64
	allocs []core.BudgetAllocation
}

func (f *fakeBudgetStore) AllocationsForMonth(ctx context.Context, ledgerID int64, ym core.YearMonth) ([]core.BudgetAllocation, error) {
	var out []core.BudgetAllocation
	for _, a := range f.allocs {
		if a.LedgerID == ledgerID && a.YearMonth == ym {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeBudgetStore) CreateAllocation(ctx context.Context, a core.BudgetAllocation) (core.BudgetAllocation, error) {
	for _, existing := range f.allocs {
		if existing.LedgerID != a.LedgerID || existing.YearMonth != a.YearMonth {
			continue
		}
		if a.Category != "" && existing.Category == a.Category {
			return core.BudgetAllocation{}, core.Conflictf("allocation for category %q already exists", a.Category)
		}
		if a.Name != "" && existing.Name == a.Name {
			return core.BudgetAllocation{}, core.Conflictf("allocation named %q already exists", a.Name)
		}
	}
	f.nextID++
	a.ID = f.nextID
	f.allocs = append(f.allocs, a)
	return a, nil
}

func (f *fakeBudgetStore) UpdateAllocationAmount(ctx context.Context, ledgerID, id int64, amount core.Money) (core.BudgetAllocation, error) {
	for i, a := range f.allocs {
		if a.ID == id && a.LedgerID == ledgerID {
			f.allocs[i].Amount = amount
			return f.allocs[i], nil
		}
	}
	return core.BudgetAllocation{}, core.NotFoundf("allocation %d not found", id)
}

func (f *fakeBudgetStore) DeleteAllocation(ctx context.Context, ledgerID, id int64) error {
	for i, a := range f.allocs {
		if a.ID == id && a.LedgerID == ledgerID {
			f.allocs = append(f.allocs[:i], f.allocs[i+1:]...)
			return nil
		}
	}
	return core.NotFoundf("allocation %d not found", id)
}

func (f *fakeBudgetStore) DeleteAllocationsForMonth(ctx context.Context, ledgerID int64, ym core.YearMonth) (int64, error) {
	var kept []core.BudgetAllocation
	var deleted int64
	for _, a := range f.allocs {
		if a.LedgerID == ledgerID && a.YearMonth == ym {
			deleted++
			continue
		}
		kept = append(kept, a)
	}
	f.allocs = kept
	return deleted, nil
}

func (f *fakeBudgetStore) CopyAllocations(ctx context.Context, ledgerID int64, from, to core.YearMonth) (int64, error) {
	source, _ := f.AllocationsForMonth(ctx, ledgerID, from)
	var copied int64
	for _, a := range source {
		a.ID = 0
		a.YearMonth = to
		if _, err := f.CreateAllocation(ctx, a); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

// Test helpers shared by the service tests.

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func utcDatePtr(y int, m time.Month, d int) *time.Time {
	t := utcDate(y, m, d)
	return &t
}

func money(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	if err != nil {
		t.Fatalf("parse money %q: %v", s, err)
	}
	return m
}

func expenseTx(ledgerID int64, cat core.Category, amount string, at time.Time, t *testing.T) core.Transaction {
	t.Helper()
	return core.Transaction{
		LedgerID:   ledgerID,
		Direction:  core.DirectionExpense,
		Category:   cat,
		Amount:     money(t, amount),
		OccurredAt: at,
	}
}

func recurringItem(ledgerID int64, name string, dir core.Direction, active bool, versions ...core.RecurringItemVersion) core.RecurringItem {
	return core.RecurringItem{
		LedgerID:  ledgerID,
		Name:      name,
		Direction: dir,
		IsActive:  active,
		Versions:  versions,
	}
}
