// Package storage provides the SQLite persistence layer. One repository
// implements every port the services depend on.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ledgerly/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// SQLite allows one writer at a time, and the pragma below is
	// per-connection. A single pooled connection covers both.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable. Used by readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Instants are stored as UTC unix nanoseconds so range comparisons are
// plain integer comparisons. Amounts are stored as exact decimal strings.

func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func storeMoney(m core.Money) string { return m.Decimal().String() }

func loadMoney(s string) (core.Money, error) {
	m, err := core.ParseMoney(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("corrupt amount %q in database: %w", s, err)
	}
	return m, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// --- Ledgers and membership ---

// CreateLedger creates a ledger and enrolls the creating user as owner.
func (r *SQLiteRepository) CreateLedger(ctx context.Context, userID int64, name string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO ledgers (name, created_at) VALUES (?, ?)",
		name, toNanos(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("insert ledger: %w", err)
	}
	ledgerID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ledger id: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO ledger_members (user_id, ledger_id, role) VALUES (?, ?, 'owner')",
		userID, ledgerID); err != nil {
		return 0, fmt.Errorf("insert owner membership: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ledger: %w", err)
	}
	return ledgerID, nil
}

// AddMember enrolls a user into a ledger.
func (r *SQLiteRepository) AddMember(ctx context.Context, ledgerID, userID int64, role string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO ledger_members (user_id, ledger_id, role) VALUES (?, ?, ?)",
		userID, ledgerID, role)
	if isUniqueViolation(err) {
		return core.Conflictf("user %d is already a member of ledger %d", userID, ledgerID)
	}
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// RequireLedgerAccess implements services.AccessChecker. A missing
// membership row is a Forbidden error, indistinguishable from a ledger
// that does not exist.
func (r *SQLiteRepository) RequireLedgerAccess(ctx context.Context, userID, ledgerID int64) (core.MemberInfo, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		"SELECT role FROM ledger_members WHERE user_id = ? AND ledger_id = ?",
		userID, ledgerID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MemberInfo{}, core.Forbidden("user is not a member of this ledger")
	}
	if err != nil {
		return core.MemberInfo{}, fmt.Errorf("query membership: %w", err)
	}
	return core.MemberInfo{UserID: userID, LedgerID: ledgerID, Role: role}, nil
}

// --- Transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (ledger_id, direction, category, amount, occurred_at, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.LedgerID, string(tx.Direction), string(tx.Category),
		storeMoney(tx.Amount), toNanos(tx.OccurredAt), tx.Description, toNanos(time.Now()))
	if isForeignKeyViolation(err) {
		return core.Transaction{}, core.NotFoundf("ledger %d not found", tx.LedgerID)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	tx.ID = id
	return tx, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET direction = ?, category = ?, amount = ?, occurred_at = ?, description = ?
		 WHERE id = ? AND ledger_id = ?`,
		string(tx.Direction), string(tx.Category), storeMoney(tx.Amount),
		toNanos(tx.OccurredAt), tx.Description, tx.ID, tx.LedgerID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.Transaction{}, core.NotFoundf("transaction %d not found", tx.ID)
	}
	return tx, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ledgerID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND ledger_id = ?", id, ledgerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.NotFoundf("transaction %d not found", id)
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ledgerID int64, dr core.DateRange) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ledger_id, direction, category, amount, occurred_at, description
		 FROM transactions
		 WHERE ledger_id = ? AND occurred_at >= ? AND occurred_at <= ?
		 ORDER BY occurred_at, id`,
		ledgerID, toNanos(dr.From), toNanos(dr.To))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx       core.Transaction
			amount   string
			occurred int64
		)
		if err := rows.Scan(&tx.ID, &tx.LedgerID, &tx.Direction, &tx.Category,
			&amount, &occurred, &tx.Description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.Amount, err = loadMoney(amount); err != nil {
			return nil, err
		}
		tx.OccurredAt = fromNanos(occurred)
		out = append(out, tx)
	}
	return out, rows.Err()
}

// ExpenseTotalsByCategory loads the matching expense rows and folds them
// with the reference aggregator. Summing the decimal strings inside
// SQLite would coerce them to floats and drift, so grouping stays on the
// Go side.
func (r *SQLiteRepository) ExpenseTotalsByCategory(ctx context.Context, ledgerID int64, dr core.DateRange) ([]core.CategoryTotal, error) {
	txs, err := r.ListTransactions(ctx, ledgerID, dr)
	if err != nil {
		return nil, err
	}
	return core.AggregateByCategory(txs), nil
}

// --- Recurring items ---

func (r *SQLiteRepository) RecurringItems(ctx context.Context, ledgerID int64, direction core.Direction, activeOnly bool) ([]core.RecurringItem, error) {
	query := `SELECT id, ledger_id, name, direction, is_active
		  FROM recurring_items WHERE ledger_id = ?`
	args := []any{ledgerID}
	if direction != "" {
		query += " AND direction = ?"
		args = append(args, string(direction))
	}
	if activeOnly {
		query += " AND is_active = 1"
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recurring items: %w", err)
	}
	defer rows.Close()

	var items []core.RecurringItem
	for rows.Next() {
		var it core.RecurringItem
		var active int
		if err := rows.Scan(&it.ID, &it.LedgerID, &it.Name, &it.Direction, &active); err != nil {
			return nil, fmt.Errorf("scan recurring item: %w", err)
		}
		it.IsActive = active != 0
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		versions, err := r.itemVersions(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Versions = versions
	}
	return items, nil
}

func (r *SQLiteRepository) itemVersions(ctx context.Context, itemID int64) ([]core.RecurringItemVersion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, item_id, amount, valid_from, valid_to
		 FROM recurring_item_versions
		 WHERE item_id = ?
		 ORDER BY valid_from DESC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query item versions: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringItemVersion
	for rows.Next() {
		var (
			v      core.RecurringItemVersion
			amount string
			from   int64
			to     sql.NullInt64
		)
		if err := rows.Scan(&v.ID, &v.ItemID, &amount, &from, &to); err != nil {
			return nil, fmt.Errorf("scan item version: %w", err)
		}
		if v.Amount, err = loadMoney(amount); err != nil {
			return nil, err
		}
		v.ValidFrom = fromNanos(from)
		if to.Valid {
			t := fromNanos(to.Int64)
			v.ValidTo = &t
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateRecurringItem(ctx context.Context, item core.RecurringItem) (core.RecurringItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.RecurringItem{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	active := 0
	if item.IsActive {
		active = 1
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO recurring_items (ledger_id, name, direction, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		item.LedgerID, item.Name, string(item.Direction), active, toNanos(time.Now()))
	if isUniqueViolation(err) {
		return core.RecurringItem{}, core.Conflictf("recurring item %q already exists", item.Name)
	}
	if err != nil {
		return core.RecurringItem{}, fmt.Errorf("insert recurring item: %w", err)
	}
	itemID, err := res.LastInsertId()
	if err != nil {
		return core.RecurringItem{}, fmt.Errorf("recurring item id: %w", err)
	}
	item.ID = itemID

	for i := range item.Versions {
		v := &item.Versions[i]
		v.ItemID = itemID
		id, err := insertVersion(ctx, tx, *v)
		if err != nil {
			return core.RecurringItem{}, err
		}
		v.ID = id
	}

	if err := tx.Commit(); err != nil {
		return core.RecurringItem{}, fmt.Errorf("commit recurring item: %w", err)
	}
	return item, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertVersion(ctx context.Context, db execer, v core.RecurringItemVersion) (int64, error) {
	var validTo any
	if v.ValidTo != nil {
		validTo = toNanos(*v.ValidTo)
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO recurring_item_versions (item_id, amount, valid_from, valid_to)
		 VALUES (?, ?, ?, ?)`,
		v.ItemID, storeMoney(v.Amount), toNanos(v.ValidFrom), validTo)
	if err != nil {
		return 0, fmt.Errorf("insert item version: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("item version id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) AddRecurringItemVersion(ctx context.Context, ledgerID int64, v core.RecurringItemVersion) (core.RecurringItemVersion, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM recurring_items WHERE id = ? AND ledger_id = ?",
		v.ItemID, ledgerID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringItemVersion{}, core.NotFoundf("recurring item %d not found", v.ItemID)
	}
	if err != nil {
		return core.RecurringItemVersion{}, fmt.Errorf("query recurring item: %w", err)
	}

	id, err := insertVersion(ctx, r.db, v)
	if err != nil {
		return core.RecurringItemVersion{}, err
	}
	v.ID = id
	return v, nil
}

func (r *SQLiteRepository) SetRecurringItemActive(ctx context.Context, ledgerID, itemID int64, active bool) error {
	flag := 0
	if active {
		flag = 1
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE recurring_items SET is_active = ? WHERE id = ? AND ledger_id = ?",
		flag, itemID, ledgerID)
	if err != nil {
		return fmt.Errorf("update recurring item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.NotFoundf("recurring item %d not found", itemID)
	}
	return nil
}

// --- Budget allocations ---

func (r *SQLiteRepository) AllocationsForMonth(ctx context.Context, ledgerID int64, ym core.YearMonth) ([]core.BudgetAllocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ledger_id, year_month, category, name, amount
		 FROM budget_allocations
		 WHERE ledger_id = ? AND year_month = ?
		 ORDER BY category, name`,
		ledgerID, ym.String())
	if err != nil {
		return nil, fmt.Errorf("query allocations: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetAllocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAllocation(rows *sql.Rows) (core.BudgetAllocation, error) {
	var (
		a      core.BudgetAllocation
		ymRaw  string
		amount string
	)
	if err := rows.Scan(&a.ID, &a.LedgerID, &ymRaw, &a.Category, &a.Name, &amount); err != nil {
		return core.BudgetAllocation{}, fmt.Errorf("scan allocation: %w", err)
	}
	ym, err := core.ParseYearMonth(ymRaw)
	if err != nil {
		return core.BudgetAllocation{}, fmt.Errorf("corrupt year_month %q in database: %w", ymRaw, err)
	}
	a.YearMonth = ym
	if a.Amount, err = loadMoney(amount); err != nil {
		return core.BudgetAllocation{}, err
	}
	return a, nil
}

func (r *SQLiteRepository) CreateAllocation(ctx context.Context, a core.BudgetAllocation) (core.BudgetAllocation, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budget_allocations (ledger_id, year_month, category, name, amount)
		 VALUES (?, ?, ?, ?, ?)`,
		a.LedgerID, a.YearMonth.String(), string(a.Category), a.Name, storeMoney(a.Amount))
	if isUniqueViolation(err) {
		if a.Category != "" {
			return core.BudgetAllocation{}, core.Conflictf("allocation for category %q already exists", a.Category)
		}
		return core.BudgetAllocation{}, core.Conflictf("allocation named %q already exists", a.Name)
	}
	if err != nil {
		return core.BudgetAllocation{}, fmt.Errorf("insert allocation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.BudgetAllocation{}, fmt.Errorf("allocation id: %w", err)
	}
	a.ID = id
	return a, nil
}

func (r *SQLiteRepository) UpdateAllocationAmount(ctx context.Context, ledgerID, id int64, amount core.Money) (core.BudgetAllocation, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE budget_allocations SET amount = ? WHERE id = ? AND ledger_id = ?",
		storeMoney(amount), id, ledgerID)
	if err != nil {
		return core.BudgetAllocation{}, fmt.Errorf("update allocation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.BudgetAllocation{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.BudgetAllocation{}, core.NotFoundf("allocation %d not found", id)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ledger_id, year_month, category, name, amount
		 FROM budget_allocations WHERE id = ?`, id)
	if err != nil {
		return core.BudgetAllocation{}, fmt.Errorf("query allocation: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return core.BudgetAllocation{}, core.NotFoundf("allocation %d not found", id)
	}
	return scanAllocation(rows)
}

func (r *SQLiteRepository) DeleteAllocation(ctx context.Context, ledgerID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM budget_allocations WHERE id = ? AND ledger_id = ?", id, ledgerID)
	if err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.NotFoundf("allocation %d not found", id)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAllocationsForMonth(ctx context.Context, ledgerID int64, ym core.YearMonth) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM budget_allocations WHERE ledger_id = ? AND year_month = ?",
		ledgerID, ym.String())
	if err != nil {
		return 0, fmt.Errorf("delete allocations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// CopyAllocations duplicates the source month's rows inside one database
// transaction, so a uniqueness conflict in the destination month leaves
// nothing half-copied.
func (r *SQLiteRepository) CopyAllocations(ctx context.Context, ledgerID int64, from, to core.YearMonth) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO budget_allocations (ledger_id, year_month, category, name, amount)
		 SELECT ledger_id, ?, category, name, amount
		 FROM budget_allocations
		 WHERE ledger_id = ? AND year_month = ?`,
		to.String(), ledgerID, from.String())
	if isUniqueViolation(err) {
		return 0, core.Conflictf("destination month %s already has overlapping allocations", to)
	}
	if err != nil {
		return 0, fmt.Errorf("copy allocations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit copy: %w", err)
	}
	return n, nil
}
