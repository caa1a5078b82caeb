package core

import "sort"

// CategoryTotal is the per-category sum and count of variable expenses
// within a range. Categories without matching transactions are simply
// absent from results, never present with a zero amount.
type CategoryTotal struct {
	Category Category
	Total    Money
	Count    int64
}

// AggregateByCategory folds expense transactions into per-category
// totals. Grouping uses the category identity exactly as declared, with
// no normalization. The storage layer loads matching rows and reuses
// this fold rather than grouping in SQL, so amounts stay exact.
func AggregateByCategory(txs []Transaction) []CategoryTotal {
	byCat := make(map[Category]*CategoryTotal)
	for _, t := range txs {
		if t.Direction != DirectionExpense {
			continue
		}
		ct, ok := byCat[t.Category]
		if !ok {
			ct = &CategoryTotal{Category: t.Category}
			byCat[t.Category] = ct
		}
		ct.Total = ct.Total.Add(t.Amount)
		ct.Count++
	}
	return sortedTotals(byCat)
}

func sortedTotals(byCat map[Category]*CategoryTotal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(byCat))
	for _, ct := range byCat {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// SumTotals returns the grand total amount and count across categories.
func SumTotals(totals []CategoryTotal) (Money, int64) {
	var (
		sum   Money
		count int64
	)
	for _, ct := range totals {
		sum = sum.Add(ct.Total)
		count += ct.Count
	}
	return sum, count
}
