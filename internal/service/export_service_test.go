package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

func newExportServiceForTest(acts *stubActivities) *ExportService {
	analyticsSvc := newAnalyticsForTest(newStubUsers(student(studentID, "ana")), acts, &stubFeedback{}, nil)
	svc := NewExportService(analyticsSvc, nil, nil, zap.NewNop())
	svc.now = func() time.Time { return refNow }
	return svc
}

func TestExportCSV(t *testing.T) {
	svc := newExportServiceForTest(&stubActivities{byOwner: map[string][]models.Activity{
		studentID: {{Subject: "Math", DurationMinutes: 75, OccurredAt: day(14, 8)}},
	}})

	result, err := svc.Export(context.Background(), studentID, "")
	require.NoError(t, err)
	assert.Equal(t, "analytics-2026-10-14.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	lines := strings.Split(strings.TrimSpace(string(result.Body)), "\n")
	require.Len(t, lines, 1+7+1+1)
	assert.Equal(t, "section,label,minutes,count", lines[0])
	assert.Equal(t, "weekly,2026-10-08 Thu,0,", lines[1])
	assert.Equal(t, "weekly,2026-10-14 Wed,75,", lines[7])
	assert.Equal(t, "subject,Math,75,", lines[8])
	assert.Equal(t, "day,2026-10-14,75,1", lines[9])
}

func TestExportPDF(t *testing.T) {
	svc := newExportServiceForTest(&stubActivities{})

	result, err := svc.Export(context.Background(), studentID, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Body), "%PDF-"))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := newExportServiceForTest(&stubActivities{})

	_, err := svc.Export(context.Background(), studentID, "xlsx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestExportSurfacesStoreFailures(t *testing.T) {
	svc := newExportServiceForTest(&stubActivities{err: errors.New("down")})

	_, err := svc.Export(context.Background(), studentID, "csv")
	assert.True(t, errors.Is(err, appErrors.ErrUnavailable))
}
