package dto

import (
	"time"

	"github.com/noah-isme/consistify-api/internal/analytics"
)

// StudentAnalyticsResponse is the analytics payload for a student. Hour values
// are strings with one decimal, as the web clients expect.
type StudentAnalyticsResponse struct {
	TotalHours       string                 `json:"totalHours"`
	ConsistencyScore int                    `json:"consistencyScore"`
	SubjectData      []analytics.NamedValue `json:"subjectData"`
	WeeklyData       []analytics.DayBucket  `json:"weeklyData"`
	TotalActivities  int                    `json:"totalActivities"`
	HeatmapData      []analytics.HeatmapDay `json:"heatmapData"`
	WeeklyGoal       float64                `json:"weeklyGoal"`
	CurrentWeekHours string                 `json:"currentWeekHours"`
	GoalProgress     int                    `json:"goalProgress"`
	RemainingHours   string                 `json:"remainingHours"`
}

// EducatorAnalyticsResponse is the feedback-based payload for an educator.
// TotalHours carries the feedback count and no heatmap is produced.
type EducatorAnalyticsResponse struct {
	TotalHours       int                    `json:"totalHours"`
	ConsistencyScore int                    `json:"consistencyScore"`
	SubjectData      []analytics.NamedValue `json:"subjectData"`
	WeeklyData       []analytics.DayBucket  `json:"weeklyData"`
	TotalActivities  int                    `json:"totalActivities"`
	WeeklyGoal       int                    `json:"weeklyGoal"`
	CurrentWeekHours int                    `json:"currentWeekHours"`
	GoalProgress     int                    `json:"goalProgress"`
	RemainingHours   int                    `json:"remainingHours"`
}

// RosterEntry summarises one student on the educator dashboard.
type RosterEntry struct {
	ID               string     `json:"_id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	ConsistencyScore int        `json:"consistencyScore"`
	LastActive       *time.Time `json:"lastActive"`
	TotalActivities  int        `json:"totalActivities"`
}
