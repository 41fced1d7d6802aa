// Package analytics turns timestamped activity and feedback records into the
// trend, distribution, consistency and goal metrics shown on dashboards.
//
// Every function is pure: the reference time and the weekly goal are passed in
// explicitly and no input is mutated, so reports may be computed concurrently.
package analytics

import (
	"fmt"
	"math"
	"time"
)

// TrendDays is the length of the rolling trend window.
const TrendDays = 7

// FeedbackTargetDays is the weekly number of active days an educator is
// expected to give feedback on.
const FeedbackTargetDays = 5

// Entry is one timestamped contribution to a report. For activities Key is
// the subject name and Amount the duration in minutes; for feedback Key is the
// student id and Amount is 1.
type Entry struct {
	Key    string
	Amount int
	At     time.Time
}

// NamedValue is one slice of a distribution.
type NamedValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// DayBucket is one day of the rolling trend.
type DayBucket struct {
	Name    string    `json:"name"`
	Minutes int       `json:"minutes"`
	Date    time.Time `json:"-"`
}

// HeatmapDay aggregates every entry that falls on one calendar date.
type HeatmapDay struct {
	Date          string `json:"date"`
	Count         int    `json:"count"`
	TotalDuration int    `json:"duration"`
}

// Goal describes progress toward the weekly goal. Hours are kept in tenths so
// the one-decimal rounding is exact.
type Goal struct {
	CurrentWeekTenths int
	GoalTenths        int
	Percent           int
	RemainingTenths   int
}

// CurrentWeekHours renders the current week's hours with one decimal.
func (g Goal) CurrentWeekHours() string { return FormatTenths(g.CurrentWeekTenths) }

// RemainingHours renders the hours left to reach the goal with one decimal.
func (g Goal) RemainingHours() string { return FormatTenths(g.RemainingTenths) }

// Scorer maps a rolling trend to a consistency score.
type Scorer func([]DayBucket) int

// Report is the complete output of Compute.
type Report struct {
	Total            int
	TotalEntries     int
	Distribution     []NamedValue
	Weekly           []DayBucket
	ConsistencyScore int
	Heatmap          []HeatmapDay
	CurrentWeekTotal int
	Goal             Goal
}

// Compute runs every aggregation over entries. weeklyGoal is in the same unit
// as Entry.Amount; defaulting it is the caller's job.
func Compute(entries []Entry, ref time.Time, weeklyGoal int, score Scorer) Report {
	if score == nil {
		score = ConsistencyScore
	}
	weekly := WeeklyTrend(entries, ref)
	currentWeek := CurrentWeekTotal(entries, ref)
	return Report{
		Total:            Total(entries),
		TotalEntries:     len(entries),
		Distribution:     SubjectDistribution(entries),
		Weekly:           weekly,
		ConsistencyScore: score(weekly),
		Heatmap:          Heatmap(entries),
		CurrentWeekTotal: currentWeek,
		Goal:             GoalProgress(currentWeek, weeklyGoal),
	}
}

// Total sums the amounts of all entries.
func Total(entries []Entry) int {
	total := 0
	for _, e := range entries {
		total += e.Amount
	}
	return total
}

// SubjectDistribution sums amounts per key in first-seen order.
func SubjectDistribution(entries []Entry) []NamedValue {
	out := make([]NamedValue, 0)
	index := make(map[string]int)
	for _, e := range entries {
		i, ok := index[e.Key]
		if !ok {
			i = len(out)
			index[e.Key] = i
			out = append(out, NamedValue{Name: e.Key})
		}
		out[i].Value += e.Amount
	}
	return out
}

// WeeklyTrend returns exactly TrendDays buckets, oldest first, ending on ref's
// calendar date. Days without entries hold zero.
func WeeklyTrend(entries []Entry, ref time.Time) []DayBucket {
	dates := LastNCalendarDates(ref, TrendDays)
	buckets := make([]DayBucket, len(dates))
	index := make(map[string]int, len(dates))
	for i, d := range dates {
		buckets[i] = DayBucket{Name: DayLabel(d), Date: d}
		index[DateKey(d)] = i
	}
	for _, e := range entries {
		if e.At.IsZero() {
			continue
		}
		if i, ok := index[DateKey(e.At)]; ok {
			buckets[i].Minutes += e.Amount
		}
	}
	return buckets
}

// ActiveDays counts buckets with a positive amount.
func ActiveDays(trend []DayBucket) int {
	active := 0
	for _, b := range trend {
		if b.Minutes > 0 {
			active++
		}
	}
	return active
}

// ConsistencyScore is the student score: the share of active days in the
// seven-day window, as a rounded percentage.
func ConsistencyScore(trend []DayBucket) int {
	return int(math.Round(float64(ActiveDays(trend)) / TrendDays * 100))
}

// FeedbackConsistencyScore is the educator score: active days measured against
// a five-day target and capped at 100.
func FeedbackConsistencyScore(trend []DayBucket) int {
	score := math.Min(100, float64(ActiveDays(trend))/FeedbackTargetDays*100)
	return int(math.Round(score))
}

// CurrentWeekTotal sums entries from Sunday 00:00 UTC of ref's week through ref.
func CurrentWeekTotal(entries []Entry, ref time.Time) int {
	start := StartOfCurrentWeek(ref)
	total := 0
	for _, e := range entries {
		if e.At.IsZero() || e.At.Before(start) || e.At.After(ref) {
			continue
		}
		total += e.Amount
	}
	return total
}

// GoalProgress compares the current week's minutes with the weekly goal.
// Percent is clamped to 100 and the remainder never goes negative. A
// non-positive goal counts as already reached.
func GoalProgress(currentWeekMinutes, weeklyGoalMinutes int) Goal {
	current := HoursTenths(currentWeekMinutes)
	if weeklyGoalMinutes <= 0 {
		return Goal{CurrentWeekTenths: current, Percent: 100}
	}
	goal := HoursTenths(weeklyGoalMinutes)
	// current/10 hours over goal/60 hours, as a percentage
	percent := int(math.Round(float64(current) * 600 / float64(weeklyGoalMinutes)))
	if percent > 100 {
		percent = 100
	}
	remaining := goal - current
	if remaining < 0 {
		remaining = 0
	}
	return Goal{CurrentWeekTenths: current, GoalTenths: goal, Percent: percent, RemainingTenths: remaining}
}

// Heatmap groups entries by calendar date in first-seen order. Dates without
// entries are not represented.
func Heatmap(entries []Entry) []HeatmapDay {
	out := make([]HeatmapDay, 0)
	index := make(map[string]int)
	for _, e := range entries {
		if e.At.IsZero() {
			continue
		}
		key := DateKey(e.At)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, HeatmapDay{Date: key})
		}
		out[i].Count++
		out[i].TotalDuration += e.Amount
	}
	return out
}

// DistinctKeys counts the distinct keys among entries.
func DistinctKeys(entries []Entry) int {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		seen[e.Key] = struct{}{}
	}
	return len(seen)
}

// LastActive returns the latest entry time, or nil when there is none.
func LastActive(entries []Entry) *time.Time {
	var latest time.Time
	for _, e := range entries {
		if e.At.After(latest) {
			latest = e.At
		}
	}
	if latest.IsZero() {
		return nil
	}
	return &latest
}

// HoursTenths converts minutes to tenths of an hour, rounding half up.
func HoursTenths(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	return (2*minutes + 6) / 12
}

// FormatHours renders minutes as hours with one decimal.
func FormatHours(minutes int) string {
	return FormatTenths(HoursTenths(minutes))
}

// FormatTenths renders a tenths-of-an-hour value with one decimal.
func FormatTenths(tenths int) string {
	if tenths < 0 {
		tenths = 0
	}
	return fmt.Sprintf("%d.%d", tenths/10, tenths%10)
}

// CountProgress compares a count against a count target. Percent is clamped
// to 100 and the remainder never goes negative. A non-positive target counts
// as already reached.
func CountProgress(current, target int) (percent, remaining int) {
	if target <= 0 {
		return 100, 0
	}
	percent = int(math.Round(float64(current) * 100 / float64(target)))
	if percent > 100 {
		percent = 100
	}
	remaining = target - current
	if remaining < 0 {
		remaining = 0
	}
	return percent, remaining
}

// TrendTotal sums the buckets of a trend.
func TrendTotal(trend []DayBucket) int {
	total := 0
	for _, day := range trend {
		total += day.Minutes
	}
	return total
}
