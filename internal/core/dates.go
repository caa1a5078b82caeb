package core

import (
	"fmt"
	"time"
)

// defaultRangeDays is the lookback applied when no explicit start is given.
const defaultRangeDays = 30

// DateRange is an inclusive time window with From <= To. It is built
// fresh per request and never persisted.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange validates the From <= To invariant.
func NewDateRange(from, to time.Time) (DateRange, error) {
	if from.After(to) {
		return DateRange{}, InvalidRange(fmt.Sprintf("range start %s is after end %s",
			from.Format(time.RFC3339), to.Format(time.RFC3339)))
	}
	return DateRange{From: from, To: to}, nil
}

// ResolveDateRange normalizes optional from/to inputs into a DateRange.
// An omitted end defaults to now, an omitted start to 30 days before the
// end. The resolver is pure; callers resolve once per request and reuse
// the result so every sub-aggregate sees the same window.
//
// Accepted formats: RFC 3339 and plain dates ("2006-01-02").
func ResolveDateRange(fromRaw, toRaw string, now time.Time) (DateRange, error) {
	to := now
	if toRaw != "" {
		parsed, err := ParseInstant(toRaw)
		if err != nil {
			return DateRange{}, err
		}
		to = parsed
	}
	from := to.AddDate(0, 0, -defaultRangeDays)
	if fromRaw != "" {
		parsed, err := ParseInstant(fromRaw)
		if err != nil {
			return DateRange{}, err
		}
		from = parsed
	}
	return NewDateRange(from, to)
}

// ParseInstant parses an RFC 3339 instant or a plain "2006-01-02" date.
func ParseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, InvalidDatef("cannot parse date %q", s)
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// MonthsSpanned counts the calendar months touched by the range. A range
// covering parts of two months counts as 2: partial months count whole.
// This is the global denominator for monthly averages.
func (r DateRange) MonthsSpanned() int64 {
	from := r.From.UTC()
	to := r.To.UTC()
	return int64((to.Year()-from.Year())*12+int(to.Month())-int(from.Month())) + 1
}

// YearMonth identifies a calendar month, serialized as "YYYY-MM".
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses the canonical "YYYY-MM" form.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, InvalidDatef("cannot parse year-month %q", s)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// CurrentYearMonth returns the calendar month containing now, in UTC.
func CurrentYearMonth(now time.Time) YearMonth {
	u := now.UTC()
	return YearMonth{Year: u.Year(), Month: u.Month()}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// MarshalJSON renders the canonical "YYYY-MM" string.
func (ym YearMonth) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ym.String() + `"`), nil
}

// Start returns the first instant of the month in UTC.
func (ym YearMonth) Start() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar month.
func (ym YearMonth) Next() YearMonth {
	t := ym.Start().AddDate(0, 1, 0)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Window returns the month as a DateRange equivalent to the half-open
// interval [start, nextMonthStart).
func (ym YearMonth) Window() DateRange {
	start := ym.Start()
	return DateRange{From: start, To: ym.Next().Start().Add(-time.Nanosecond)}
}
