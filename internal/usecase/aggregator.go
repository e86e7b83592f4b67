package usecase

import (
	"time"

	"github.com/yshimizu/gh-commit-report/internal/domain"
)

// Fold accumulates commit entries into a monthly aggregate. Totals and the
// per-repository and per-day maps are order-independent; the commit-time
// sequence keeps arrival order and is sorted by whoever consumes it.
func Fold(window domain.MonthWindow, entries []domain.CommitEntry) *domain.MonthlyAggregate {
	agg := &domain.MonthlyAggregate{
		Year:         window.Year,
		Month:        window.Month,
		ByRepository: make(map[string]domain.Totals),
		ByDay:        make(map[string]domain.Totals),
	}
	for _, e := range entries {
		agg.Additions += e.Stat.Additions
		agg.Deletions += e.Stat.Deletions
		agg.Commits++
		agg.CommitTimes = append(agg.CommitTimes, e.Ref.AuthoredAt)

		addTotals(agg.ByRepository, e.Ref.Repository, e.Stat)
		addTotals(agg.ByDay, e.Ref.AuthoredAt.UTC().Format(domain.DayLayout), e.Stat)
	}
	return agg
}

func addTotals(m map[string]domain.Totals, key string, stat domain.CommitStat) {
	t := m[key]
	t.Additions += stat.Additions
	t.Deletions += stat.Deletions
	t.Commits++
	m[key] = t
}

// weekend reports whether the day key falls on a Saturday or Sunday in UTC.
func weekend(day string) bool {
	t, err := time.ParseInLocation(domain.DayLayout, day, time.UTC)
	if err != nil {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
