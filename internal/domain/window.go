package domain

import "time"

// MonthWindow is the half-open UTC time range [Since, Until) covering one
// calendar month.
type MonthWindow struct {
	Year  int
	Month time.Month
	Since time.Time
	Until time.Time
}

// NewMonthWindow validates year and month and computes the window. The
// window is exact: Until is the first instant of the following month, so a
// commit at the last instant of the month is in and one at the first
// instant of the next month is out.
func NewMonthWindow(year, month int) (MonthWindow, error) {
	if year < 1000 || year > 9999 {
		return MonthWindow{}, &ValidationError{Field: "year", Reason: "must be a 4-digit year"}
	}
	if month < 1 || month > 12 {
		return MonthWindow{}, &ValidationError{Field: "month", Reason: "must be between 1 and 12"}
	}
	since := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return MonthWindow{
		Year:  year,
		Month: time.Month(month),
		Since: since,
		Until: since.AddDate(0, 1, 0),
	}, nil
}

// Previous returns the window of the preceding calendar month. January
// rolls back to December of the prior year.
func (w MonthWindow) Previous() MonthWindow {
	since := w.Since.AddDate(0, -1, 0)
	return MonthWindow{
		Year:  since.Year(),
		Month: since.Month(),
		Since: since,
		Until: w.Since,
	}
}

// Contains reports whether t falls inside [Since, Until).
func (w MonthWindow) Contains(t time.Time) bool {
	return !t.Before(w.Since) && t.Before(w.Until)
}
