package services

import (
	"context"
	"fmt"
	"time"

	"ledgerly/internal/core"
)

// CategoryAverage is the average monthly variable spend for one category.
type CategoryAverage struct {
	Category             core.Category `json:"category"`
	AverageMonthlyAmount core.Money    `json:"averageMonthlyAmount"`
}

// MonthlyAveragesSummary reports average monthly spend per category over
// a range. Recurring items are excluded: the question answered is "how
// much do I variably spend on X per month on average".
type MonthlyAveragesSummary struct {
	DateRangeFrom             time.Time         `json:"dateRangeFrom"`
	DateRangeTo               time.Time         `json:"dateRangeTo"`
	MonthsInRange             int64             `json:"monthsInRange"`
	PerCategory               []CategoryAverage `json:"perCategory"`
	TotalAverageMonthlyAmount core.Money        `json:"totalAverageMonthlyAmount"`
}

// MonthlyAverages computes per-category average monthly variable spend.
// Every category is divided by the same denominator: the number of
// calendar months the range touches, partial months counted whole.
// Division keeps full decimal precision; rounding to two places happens
// once, at serialization.
func (s *AnalyticsService) MonthlyAverages(ctx context.Context, userID, ledgerID int64, r core.DateRange) (MonthlyAveragesSummary, error) {
	if _, err := s.access.RequireLedgerAccess(ctx, userID, ledgerID); err != nil {
		return MonthlyAveragesSummary{}, err
	}

	totals, err := s.txs.ExpenseTotalsByCategory(ctx, ledgerID, r)
	if err != nil {
		return MonthlyAveragesSummary{}, fmt.Errorf("expense totals by category: %w", err)
	}

	months := r.MonthsSpanned()
	perCategory := make([]CategoryAverage, len(totals))
	var total core.Money
	for i, ct := range totals {
		avg := ct.Total.DivInt(months)
		perCategory[i] = CategoryAverage{Category: ct.Category, AverageMonthlyAmount: avg}
		total = total.Add(avg)
	}

	return MonthlyAveragesSummary{
		DateRangeFrom:             r.From,
		DateRangeTo:               r.To,
		MonthsInRange:             months,
		PerCategory:               perCategory,
		TotalAverageMonthlyAmount: total,
	}, nil
}
