package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/consistify-api/internal/models"
)

const feedbackColumns = `id, student_id, educator_id, message, created_at`

// FeedbackRepository persists educator feedback.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository constructs a FeedbackRepository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// ListByEducator returns every feedback entry authored by the educator in creation order.
func (r *FeedbackRepository) ListByEducator(ctx context.Context, educatorID string) ([]models.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE educator_id = $1 ORDER BY created_at ASC, id ASC`
	var items []models.Feedback
	if err := r.db.SelectContext(ctx, &items, query, educatorID); err != nil {
		return nil, fmt.Errorf("list feedback by educator: %w", err)
	}
	return items, nil
}

type feedbackInboxRow struct {
	ID            string    `db:"id"`
	StudentID     string    `db:"student_id"`
	EducatorID    string    `db:"educator_id"`
	Message       string    `db:"message"`
	CreatedAt     time.Time `db:"created_at"`
	EducatorName  string    `db:"educator_name"`
	EducatorEmail string    `db:"educator_email"`
}

// ListForStudent returns the feedback addressed to a student with the author populated, newest first.
func (r *FeedbackRepository) ListForStudent(ctx context.Context, studentID string) ([]models.FeedbackWithEducator, error) {
	const query = `SELECT f.id, f.student_id, f.educator_id, f.message, f.created_at, u.name AS educator_name, u.email AS educator_email
FROM feedback f
JOIN users u ON u.id = f.educator_id
WHERE f.student_id = $1
ORDER BY f.created_at DESC, f.id DESC`
	var rows []feedbackInboxRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list feedback for student: %w", err)
	}
	items := make([]models.FeedbackWithEducator, 0, len(rows))
	for _, row := range rows {
		items = append(items, models.FeedbackWithEducator{
			Feedback: models.Feedback{
				ID:         row.ID,
				StudentID:  row.StudentID,
				EducatorID: row.EducatorID,
				Message:    row.Message,
				CreatedAt:  row.CreatedAt,
			},
			Educator: models.UserRef{ID: row.EducatorID, Name: row.EducatorName, Email: row.EducatorEmail},
		})
	}
	return items, nil
}

// Create inserts a feedback entry.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	query := `INSERT INTO feedback (` + feedbackColumns + `) VALUES (:id, :student_id, :educator_id, :message, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, feedback); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}
