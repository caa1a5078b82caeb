package core

import (
	"strings"
	"time"
)

const (
	DirectionExpense Direction = "expense"
	DirectionIncome  Direction = "income"
)

// Expense categories form a closed set. CategoryIncidentalIncome is the
// pseudo-category carried by variable income transactions; it never feeds
// the income summary.
const (
	CategoryGroceries   Category = "groceries"
	CategoryTransport   Category = "transport"
	CategoryHousing     Category = "housing"
	CategoryUtilities   Category = "utilities"
	CategoryHealth      Category = "health"
	CategoryLeisure     Category = "leisure"
	CategoryRestaurants Category = "restaurants"
	CategoryTravel      Category = "travel"
	CategoryClothing    Category = "clothing"
	CategoryEducation   Category = "education"
	CategoryGifts       Category = "gifts"
	CategoryOther       Category = "other"

	CategoryIncidentalIncome Category = "incidental_income"
)

type (
	Direction string

	Category string

	// Transaction is a one-off dated entry belonging to one ledger.
	Transaction struct {
		ID          int64
		LedgerID    int64
		Direction   Direction
		Category    Category
		Amount      Money
		OccurredAt  time.Time
		Description string
	}

	// RecurringItemVersion is a time-bounded amount for a recurring item.
	// ValidFrom and ValidTo are inclusive dates; a nil ValidTo means the
	// version is open-ended. Versions are only ever added, never edited.
	RecurringItemVersion struct {
		ID        int64
		ItemID    int64
		Amount    Money
		ValidFrom time.Time
		ValidTo   *time.Time
	}

	// RecurringItem is a repeating obligation (rent, salary) whose amount
	// changes over time through its version history. It never carries a
	// bare amount itself.
	RecurringItem struct {
		ID        int64
		LedgerID  int64
		Name      string
		Direction Direction
		IsActive  bool
		Versions  []RecurringItemVersion
	}

	// BudgetAllocation is a spending target for one ledger and month,
	// identified by either a category or a free-text name (savings goal).
	// Exactly one of the two is set.
	BudgetAllocation struct {
		ID        int64
		LedgerID  int64
		YearMonth YearMonth
		Category  Category
		Name      string
		Amount    Money
	}

	// MemberInfo is the result of a successful ledger access check.
	MemberInfo struct {
		UserID   int64
		LedgerID int64
		Role     string
	}
)

var expenseCategories = map[Category]bool{
	CategoryGroceries:   true,
	CategoryTransport:   true,
	CategoryHousing:     true,
	CategoryUtilities:   true,
	CategoryHealth:      true,
	CategoryLeisure:     true,
	CategoryRestaurants: true,
	CategoryTravel:      true,
	CategoryClothing:    true,
	CategoryEducation:   true,
	CategoryGifts:       true,
	CategoryOther:       true,
}

// ValidExpenseCategory reports whether c belongs to the closed expense set.
func ValidExpenseCategory(c Category) bool {
	return expenseCategories[c]
}

// ValidDirection reports whether d is a known direction.
func ValidDirection(d Direction) bool {
	return d == DirectionExpense || d == DirectionIncome
}

// Validate checks the transaction invariants: a known direction, a
// strictly positive amount, a date, and for expenses a category from the
// closed set. Income transactions without a category receive the
// incidental-income pseudo-category at creation time.
func (t Transaction) Validate() error {
	if !ValidDirection(t.Direction) {
		return BadRequestf("unknown direction %q", t.Direction)
	}
	if !t.Amount.IsPositive() {
		return BadRequest("amount must be greater than zero")
	}
	if t.OccurredAt.IsZero() {
		return BadRequest("missing transaction date")
	}
	switch t.Direction {
	case DirectionExpense:
		if !ValidExpenseCategory(t.Category) {
			return BadRequestf("unknown expense category %q", t.Category)
		}
	case DirectionIncome:
		if t.Category != "" && t.Category != CategoryIncidentalIncome {
			return BadRequestf("income transactions cannot use category %q", t.Category)
		}
	}
	if len(t.Description) > 200 {
		return BadRequest("description too long (max 200 characters)")
	}
	return nil
}

// Validate checks item-level invariants. Version window overlap is not
// enforced at write time; the read-time resolver tie-breaks instead.
func (it RecurringItem) Validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return BadRequest("empty recurring item name")
	}
	if len(it.Name) > 100 {
		return BadRequest("recurring item name too long (max 100 characters)")
	}
	if !ValidDirection(it.Direction) {
		return BadRequestf("unknown direction %q", it.Direction)
	}
	return nil
}

// Validate checks version invariants: a positive amount and, when the
// window is closed, ValidTo not before ValidFrom.
func (v RecurringItemVersion) Validate() error {
	if !v.Amount.IsPositive() {
		return BadRequest("version amount must be greater than zero")
	}
	if v.ValidFrom.IsZero() {
		return BadRequest("missing version start date")
	}
	if v.ValidTo != nil && v.ValidTo.Before(v.ValidFrom) {
		return BadRequest("version end date before start date")
	}
	return nil
}

// Validate enforces the allocation identity: exactly one of category or
// name, a known category when set, and a non-negative amount.
func (a BudgetAllocation) Validate() error {
	hasCategory := a.Category != ""
	hasName := strings.TrimSpace(a.Name) != ""
	if hasCategory == hasName {
		return BadRequest("exactly one of category or name must be set")
	}
	if hasCategory && !ValidExpenseCategory(a.Category) {
		return BadRequestf("unknown budget category %q", a.Category)
	}
	if a.Amount.IsNegative() {
		return BadRequest("budget amount cannot be negative")
	}
	return nil
}
