package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/consistify-api/internal/analytics"
	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
	"github.com/noah-isme/consistify-api/pkg/export"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type selfDatasetSource interface {
	SelfDataset(ctx context.Context, userID string) (*models.User, analytics.Report, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult is a rendered export ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the caller's analytics as a downloadable file.
type ExportService struct {
	source selfDatasetSource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(source selfDatasetSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{source: source, csv: csv, pdf: pdf, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Export renders the weekly trend, subject distribution and heatmap rows.
func (s *ExportService) Export(ctx context.Context, userID, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	user, report, err := s.source.SelfDataset(ctx, userID)
	if err != nil {
		return nil, err
	}
	data := buildDataset(user, report)
	filename := fmt.Sprintf("analytics-%s.%s", analytics.DateKey(s.now()), format)

	var body []byte
	contentType := "text/csv"
	if format == ExportFormatPDF {
		contentType = "application/pdf"
		body, err = s.pdf.Render(data)
	} else {
		body, err = s.csv.Render(data)
	}
	if err != nil {
		s.logger.Error("render analytics export", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to render export")
	}
	return &ExportResult{Filename: filename, ContentType: contentType, Body: body}, nil
}

func buildDataset(user *models.User, report analytics.Report) export.Dataset {
	data := export.Dataset{
		Title: "Study analytics: " + user.Name,
		Summary: []string{
			"Total hours: " + analytics.FormatHours(report.Total),
			"Total activities: " + strconv.Itoa(report.TotalEntries),
			"Consistency score: " + strconv.Itoa(report.ConsistencyScore),
			fmt.Sprintf("This week: %s h of %s h (%d%%)", report.Goal.CurrentWeekHours(), analytics.FormatTenths(report.Goal.GoalTenths), report.Goal.Percent),
		},
		Headers: []string{"section", "label", "minutes", "count"},
	}
	for _, d := range report.Weekly {
		data.AddRow("weekly", analytics.DateKey(d.Date)+" "+d.Name, strconv.Itoa(d.Minutes), "")
	}
	for _, subject := range report.Distribution {
		data.AddRow("subject", subject.Name, strconv.Itoa(subject.Value), "")
	}
	for _, h := range report.Heatmap {
		data.AddRow("day", h.Date, strconv.Itoa(h.TotalDuration), strconv.Itoa(h.Count))
	}
	return data
}
