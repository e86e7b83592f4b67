package usecase

import (
	"sort"
	"time"

	montanastats "github.com/montanaflynn/stats"

	"github.com/yshimizu/gh-commit-report/internal/domain"
)

// topRepositories is the length of the most-active-repositories ranking.
const topRepositories = 5

// Compare derives the productivity metrics of the current month against
// the previous one. It borrows both aggregates read-only; every
// division-by-zero case is an explicit undefined sentinel, never a crash
// or an infinity.
func Compare(current, previous *domain.MonthlyAggregate) *domain.ComparisonReport {
	report := &domain.ComparisonReport{
		Current:  current,
		Previous: previous,

		TotalChangesDelta: domain.PercentOf(float64(current.Changes()), float64(previous.Changes())),
		AdditionsDelta:    domain.PercentOf(float64(current.Additions), float64(previous.Additions)),
		DeletionsDelta:    domain.PercentOf(float64(current.Deletions), float64(previous.Deletions)),

		TopRepositories: rankRepositories(current.ByRepository),
	}

	if days := current.ActiveDays(); days > 0 {
		report.DailyAverageChanges = float64(current.Changes()) / float64(days)
		report.CommitsPerDay = float64(current.Commits) / float64(days)
	}
	var previousDailyAverage float64
	if days := previous.ActiveDays(); days > 0 {
		previousDailyAverage = float64(previous.Changes()) / float64(days)
	}
	report.DailyAverageDelta = domain.PercentOf(report.DailyAverageChanges, previousDailyAverage)

	report.WeekendChanges, report.WeekdayChanges = splitByWeekend(current.ByDay)
	if total := report.WeekendChanges + report.WeekdayChanges; total > 0 {
		report.WeekendPercent = float64(report.WeekendChanges) / float64(total) * 100
		report.WeekdayPercent = float64(report.WeekdayChanges) / float64(total) * 100
	}

	report.AvgCommitInterval = averageInterval(current.CommitTimes)
	return report
}

// splitByWeekend sums changes per day bucket into weekend and weekday
// classes (Saturday/Sunday in UTC count as weekend).
func splitByWeekend(byDay map[string]domain.Totals) (weekendChanges, weekdayChanges int) {
	for day, totals := range byDay {
		if weekend(day) {
			weekendChanges += totals.Changes()
		} else {
			weekdayChanges += totals.Changes()
		}
	}
	return weekendChanges, weekdayChanges
}

// averageInterval computes the mean gap in minutes between consecutive
// commits. The stored sequence is in listing order, so it is sorted
// chronologically first. Fewer than two commits leave the metric undefined.
func averageInterval(commitTimes []time.Time) domain.Minutes {
	if len(commitTimes) < 2 {
		return domain.Minutes{}
	}
	sorted := make([]time.Time, len(commitTimes))
	copy(sorted, commitTimes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	intervals := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		intervals = append(intervals, sorted[i].Sub(sorted[i-1]).Minutes())
	}
	mean, err := montanastats.Mean(intervals)
	if err != nil {
		return domain.Minutes{}
	}
	return domain.Minutes{Valid: true, Value: mean}
}

// rankRepositories returns the repositories with nonzero changes, ordered
// by changes descending with the name as tiebreak, capped at
// topRepositories entries.
func rankRepositories(byRepository map[string]domain.Totals) []domain.RepoActivity {
	ranked := make([]domain.RepoActivity, 0, len(byRepository))
	for name, totals := range byRepository {
		if totals.Changes() == 0 {
			continue
		}
		ranked = append(ranked, domain.RepoActivity{Name: name, Changes: totals.Changes()})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Changes != ranked[j].Changes {
			return ranked[i].Changes > ranked[j].Changes
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > topRepositories {
		ranked = ranked[:topRepositories]
	}
	return ranked
}
