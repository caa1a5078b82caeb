package core

// ActiveAmount resolves the single amount a recurring item contributes
// within the given range, walking its version history.
//
// A version is a candidate when its inclusive validity window overlaps
// the range: validFrom <= range.To and (validTo is nil or validTo >=
// range.From). Version windows are not validated for overlap at write
// time; when several versions overlap, the one with the latest
// validFrom wins. Inactive items never contribute.
//
// The second return value reports whether any version was active.
func (it RecurringItem) ActiveAmount(r DateRange) (Money, bool) {
	if !it.IsActive {
		return Money{}, false
	}
	var (
		best  RecurringItemVersion
		found bool
	)
	for _, v := range it.Versions {
		if v.ValidFrom.After(r.To) {
			continue
		}
		if v.ValidTo != nil && v.ValidTo.Before(r.From) {
			continue
		}
		if !found || v.ValidFrom.After(best.ValidFrom) {
			best = v
			found = true
		}
	}
	if !found {
		return Money{}, false
	}
	return best.Amount, true
}

// SumActiveAmounts totals the per-range contribution of every item.
// Items are independent of each other, so this is a plain fold.
func SumActiveAmounts(items []RecurringItem, r DateRange) Money {
	var total Money
	for _, it := range items {
		if amt, ok := it.ActiveAmount(r); ok {
			total = total.Add(amt)
		}
	}
	return total
}
