package analytics

import "github.com/noah-isme/consistify-api/internal/models"

// FromActivities keys activities by subject with their duration as amount.
// Every status counts toward the totals.
func FromActivities(activities []models.Activity) []Entry {
	entries := make([]Entry, 0, len(activities))
	for _, a := range activities {
		amount := a.DurationMinutes
		if amount < 0 {
			amount = 0
		}
		at := a.OccurredAt
		if at.IsZero() {
			at = a.CreatedAt
		}
		entries = append(entries, Entry{Key: a.Subject, Amount: amount, At: at})
	}
	return entries
}

// FromFeedback keys feedback by student, each entry counting once.
func FromFeedback(feedback []models.Feedback) []Entry {
	entries := make([]Entry, 0, len(feedback))
	for _, f := range feedback {
		entries = append(entries, Entry{Key: f.StudentID, Amount: 1, At: f.CreatedAt})
	}
	return entries
}
