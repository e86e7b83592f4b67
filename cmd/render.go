// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"io"

	"github.com/yshimizu/gh-commit-report/internal/domain"
)

// renderText writes the comparison report as the human-readable summary.
func renderText(w io.Writer, org, user string, r *domain.ComparisonReport) {
	fmt.Fprintf(w, "=== Stats for %s in %s ===\n", user, org)

	renderMonth(w, "Current Month", r.Current)
	renderMonth(w, "Previous Month", r.Previous)

	fmt.Fprintf(w, "\n=== Productivity Analysis ===\n")
	fmt.Fprintf(w, "Total changes: %s\n", deltaLabel(r.TotalChangesDelta))
	fmt.Fprintf(w, "Additions: %s\n", deltaLabel(r.AdditionsDelta))
	fmt.Fprintf(w, "Deletions: %s\n", deltaLabel(r.DeletionsDelta))

	fmt.Fprintf(w, "\nDaily Metrics:\n")
	fmt.Fprintf(w, "Average changes per day: %.1f\n", r.DailyAverageChanges)
	fmt.Fprintf(w, "Daily average change: %s\n", deltaLabel(r.DailyAverageDelta))
	fmt.Fprintf(w, "Commits per day: %.1f\n", r.CommitsPerDay)
	if r.AvgCommitInterval.Valid {
		fmt.Fprintf(w, "Average time between commits: %.1f minutes\n", r.AvgCommitInterval.Value)
	} else {
		fmt.Fprintf(w, "Average time between commits: n/a\n")
	}

	fmt.Fprintf(w, "\nWork Pattern Analysis:\n")
	fmt.Fprintf(w, "Weekend activity: %d changes (%.1f%% of total)\n", r.WeekendChanges, r.WeekendPercent)
	fmt.Fprintf(w, "Weekday activity: %d changes (%.1f%% of total)\n", r.WeekdayChanges, r.WeekdayPercent)

	fmt.Fprintf(w, "\nMost Active Repositories:\n")
	if len(r.TopRepositories) == 0 {
		fmt.Fprintln(w, "- none")
	}
	for _, repo := range r.TopRepositories {
		fmt.Fprintf(w, "- %s: %d changes\n", repo.Name, repo.Changes)
	}

	renderSkipped(w, r.Current)
	renderSkipped(w, r.Previous)
}

func renderMonth(w io.Writer, label string, a *domain.MonthlyAggregate) {
	fmt.Fprintf(w, "\n%s (%s %d):\n", label, a.Month, a.Year)
	fmt.Fprintf(w, "Total additions: %d\n", a.Additions)
	fmt.Fprintf(w, "Total deletions: %d\n", a.Deletions)
	fmt.Fprintf(w, "Net changes: %d\n", a.NetChanges())
}

func renderSkipped(w io.Writer, a *domain.MonthlyAggregate) {
	if len(a.Skipped) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSkipped repositories (%s %d):\n", a.Month, a.Year)
	for _, s := range a.Skipped {
		fmt.Fprintf(w, "- %s: %s\n", s.Name, s.Reason)
	}
}

// deltaLabel formats a percentage delta, or "new activity" when the
// previous month had nothing to compare against.
func deltaLabel(p domain.Percent) string {
	if !p.Valid {
		return "new activity"
	}
	direction := "increase"
	if p.Value < 0 {
		direction = "decrease"
	}
	return fmt.Sprintf("%.1f%% %s", p.Value, direction)
}
