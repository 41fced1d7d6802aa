package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

var activityRowColumns = []string{"id", "student_id", "subject", "topic", "duration_minutes", "status", "notes", "occurred_at", "created_at", "updated_at"}

func TestListActivitiesByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	day := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(activityRowColumns).
		AddRow("a1", "s1", "Math", "Algebra", 90, "completed", "", day, day, day).
		AddRow("a2", "s1", "Physics", "", 30, "in-progress", "", day.AddDate(0, 0, -1), day, day)
	mock.ExpectQuery(regexp.QuoteMeta("FROM activities WHERE student_id = $1 ORDER BY occurred_at DESC, id DESC")).
		WithArgs("s1").
		WillReturnRows(rows)

	activities, err := repo.ListByStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, 90, activities[0].DurationMinutes)
	assert.Equal(t, models.ActivityInProgress, activities[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActivitiesStoreFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectQuery("FROM activities").WillReturnError(errors.New("connection reset"))

	_, err := repo.ListByStudent(context.Background(), "s1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, appErrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAndUpdateActivity(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	now := time.Now().UTC()
	activity := &models.Activity{ID: "a1", StudentID: "s1", Subject: "Math", DurationMinutes: 45, Status: models.ActivityCompleted, OccurredAt: now, CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec("INSERT INTO activities").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE activities SET").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Create(context.Background(), activity))
	err := repo.Update(context.Background(), activity)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActivityNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectQuery("FROM activities WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(activityRowColumns))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
