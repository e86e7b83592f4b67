// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"encoding/json"
	"time"
)

// DayLayout is the key format of the per-day buckets.
const DayLayout = "2006-01-02"

// Repository identifies a repository inside the target organization.
type Repository struct {
	Name          string `json:"name"`
	DefaultBranch string `json:"default_branch"`
}

// CommitRef is a commit as returned by a listing call: enough to locate
// the commit and place it in time, without its diff statistics.
type CommitRef struct {
	SHA        string    `json:"sha"`
	Repository string    `json:"repository"`
	Author     string    `json:"author"`
	AuthoredAt time.Time `json:"authored_at"`
}

// CommitStat holds the diff statistics of a single commit, obtained by a
// follow-up detail fetch. Additions and deletions are independently
// non-negative.
type CommitStat struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Changes returns the total number of changed lines.
func (s CommitStat) Changes() int { return s.Additions + s.Deletions }

// CommitEntry pairs a commit reference with its statistics. It is the unit
// the aggregator folds.
type CommitEntry struct {
	Ref  CommitRef  `json:"ref"`
	Stat CommitStat `json:"stat"`
}

// Totals accumulates additions, deletions and commit count for one bucket
// (a repository or a calendar day).
type Totals struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Commits   int `json:"commits"`
}

// Changes returns the total number of changed lines in the bucket.
func (t Totals) Changes() int { return t.Additions + t.Deletions }

// SkippedRepository records a repository that was excluded from an
// aggregate, and why. Partial success is a first-class outcome: the
// aggregate reflects the repositories that worked.
type SkippedRepository struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// MonthlyAggregate is the folded result of one month of commit activity.
type MonthlyAggregate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`

	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Commits   int `json:"commits"`

	// ByRepository and ByDay key by repository name and by the commit's
	// author-date calendar day (UTC, DayLayout) respectively.
	ByRepository map[string]Totals `json:"by_repository"`
	ByDay        map[string]Totals `json:"by_day"`

	// CommitTimes preserves arrival order; consumers sort before
	// computing intervals.
	CommitTimes []time.Time `json:"commit_times"`

	Skipped []SkippedRepository `json:"skipped_repositories,omitempty"`
}

// Changes returns the total number of changed lines in the month.
func (a *MonthlyAggregate) Changes() int { return a.Additions + a.Deletions }

// NetChanges returns additions minus deletions.
func (a *MonthlyAggregate) NetChanges() int { return a.Additions - a.Deletions }

// ActiveDays returns the number of distinct days with at least one commit.
func (a *MonthlyAggregate) ActiveDays() int { return len(a.ByDay) }

// Percent is a percentage metric that is undefined when its baseline is
// zero. It marshals to a JSON number, or null when undefined, so the
// divide-by-zero case is never coerced to zero or infinity.
type Percent struct {
	Valid bool
	Value float64
}

// PercentOf returns the percentage change from previous to current, or the
// undefined sentinel when previous is zero.
func PercentOf(current, previous float64) Percent {
	if previous <= 0 {
		return Percent{}
	}
	return Percent{Valid: true, Value: (current - previous) / previous * 100}
}

func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Percent{}
		return nil
	}
	p.Valid = true
	return json.Unmarshal(data, &p.Value)
}

// Minutes is a duration metric in minutes that is undefined when there is
// not enough data to compute it.
type Minutes struct {
	Valid bool
	Value float64
}

func (m Minutes) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Minutes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Minutes{}
		return nil
	}
	m.Valid = true
	return json.Unmarshal(data, &m.Value)
}

// RepoActivity is one entry of the most-active-repositories ranking.
type RepoActivity struct {
	Name    string `json:"name"`
	Changes int    `json:"changes"`
}

// ComparisonReport is the derived comparison of two monthly aggregates.
// It is a pure function of the two aggregates and is never persisted.
type ComparisonReport struct {
	Current  *MonthlyAggregate `json:"current"`
	Previous *MonthlyAggregate `json:"previous"`

	TotalChangesDelta Percent `json:"total_changes_delta_pct"`
	AdditionsDelta    Percent `json:"additions_delta_pct"`
	DeletionsDelta    Percent `json:"deletions_delta_pct"`

	DailyAverageChanges float64 `json:"daily_average_changes"`
	DailyAverageDelta   Percent `json:"daily_average_delta_pct"`
	CommitsPerDay       float64 `json:"commits_per_day"`
	AvgCommitInterval   Minutes `json:"avg_commit_interval_minutes"`

	WeekendChanges int     `json:"weekend_changes"`
	WeekdayChanges int     `json:"weekday_changes"`
	WeekendPercent float64 `json:"weekend_pct"`
	WeekdayPercent float64 `json:"weekday_pct"`

	TopRepositories []RepoActivity `json:"most_active_repositories"`
}
