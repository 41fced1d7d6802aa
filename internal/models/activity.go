package models

import "time"

// ActivityStatus captures the outcome a student recorded for a session.
type ActivityStatus string

const (
	ActivityCompleted  ActivityStatus = "completed"
	ActivityInProgress ActivityStatus = "in-progress"
	ActivitySkipped    ActivityStatus = "skipped"
)

// Activity is one logged study session owned by a student.
type Activity struct {
	ID              string         `db:"id" json:"_id"`
	StudentID       string         `db:"student_id" json:"student"`
	Subject         string         `db:"subject" json:"subject"`
	Topic           string         `db:"topic" json:"topic,omitempty"`
	DurationMinutes int            `db:"duration_minutes" json:"duration"`
	Status          ActivityStatus `db:"status" json:"status"`
	Notes           string         `db:"notes" json:"notes,omitempty"`
	OccurredAt      time.Time      `db:"occurred_at" json:"date"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}
