package models

import "time"

// Feedback is a mentoring note an educator addressed to a student.
type Feedback struct {
	ID         string    `db:"id" json:"_id"`
	StudentID  string    `db:"student_id" json:"student"`
	EducatorID string    `db:"educator_id" json:"-"`
	Message    string    `db:"message" json:"message"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// FeedbackWithEducator enriches feedback with its author for the student inbox.
type FeedbackWithEducator struct {
	Feedback
	Educator UserRef `json:"educator"`
}

// UserRef is the populated author reference of a feedback entry.
type UserRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
