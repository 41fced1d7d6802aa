package dto

import "time"

// ActivityRequest is the body of POST /activities and PUT /activities/:id.
type ActivityRequest struct {
	Subject  string     `json:"subject" validate:"required,max=120"`
	Topic    string     `json:"topic" validate:"max=200"`
	Duration int        `json:"duration" validate:"required,gt=0,lte=1440"`
	Status   string     `json:"status" validate:"omitempty,oneof=completed in-progress skipped"`
	Notes    string     `json:"notes" validate:"max=2000"`
	Date     *time.Time `json:"date"`
}

// FeedbackRequest is the body of POST /feedback.
type FeedbackRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Message   string `json:"message" validate:"required,max=4000"`
}
