package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/consistify-api/internal/dto"
	"github.com/noah-isme/consistify-api/internal/middleware"
	"github.com/noah-isme/consistify-api/internal/models"
	"github.com/noah-isme/consistify-api/internal/service"
	"github.com/noah-isme/consistify-api/pkg/response"
)

type analyticsReports interface {
	SelfReport(ctx context.Context, userID string) (*dto.StudentAnalyticsResponse, bool, error)
	StudentReport(ctx context.Context, studentID string) (*dto.StudentAnalyticsResponse, bool, error)
	EducatorReport(ctx context.Context, educatorID string) (*dto.EducatorAnalyticsResponse, bool, error)
	Roster(ctx context.Context) ([]dto.RosterEntry, error)
	SystemMetrics() models.SystemMetrics
}

type analyticsExporter interface {
	Export(ctx context.Context, userID, format string) (*service.ExportResult, error)
}

// AnalyticsHandler exposes the analytics reports.
type AnalyticsHandler struct {
	analytics analyticsReports
	exporter  analyticsExporter
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics analyticsReports, exporter analyticsExporter) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, exporter: exporter}
}

// Self godoc
// @Summary Own analytics
// @Description Activity analytics of the authenticated user
// @Tags Analytics
// @Produce json
// @Success 200 {object} dto.StudentAnalyticsResponse
// @Failure 401 {object} response.Message
// @Failure 503 {object} response.Message
// @Router /analytics [get]
func (h *AnalyticsHandler) Self(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	report, cached, err := h.analytics.SelfReport(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.OK(c, report)
}

// Student godoc
// @Summary Student analytics
// @Description Activity analytics of a student, for educators and admins
// @Tags Analytics
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} dto.StudentAnalyticsResponse
// @Failure 400 {object} response.Message
// @Failure 404 {object} response.Message
// @Failure 503 {object} response.Message
// @Router /educator/student/{id}/analytics [get]
func (h *AnalyticsHandler) Student(c *gin.Context) {
	report, cached, err := h.analytics.StudentReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.OK(c, report)
}

// Educator godoc
// @Summary Educator analytics
// @Description Feedback based analytics of an educator
// @Tags Analytics
// @Produce json
// @Param id path string true "Educator ID"
// @Success 200 {object} dto.EducatorAnalyticsResponse
// @Failure 400 {object} response.Message
// @Failure 404 {object} response.Message
// @Failure 503 {object} response.Message
// @Router /admin/educators/{id}/analytics [get]
func (h *AnalyticsHandler) Educator(c *gin.Context) {
	report, cached, err := h.analytics.EducatorReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.OK(c, report)
}

// Roster godoc
// @Summary Student roster
// @Description Every student with consistency score, last activity and activity count
// @Tags Analytics
// @Produce json
// @Success 200 {array} dto.RosterEntry
// @Failure 503 {object} response.Message
// @Router /educator/students [get]
func (h *AnalyticsHandler) Roster(c *gin.Context) {
	roster, err := h.analytics.Roster(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, roster)
}

// Export godoc
// @Summary Export own analytics
// @Tags Analytics
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Message
// @Router /analytics/export [get]
func (h *AnalyticsHandler) Export(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), claims.UserID, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Body)
}

// System returns an instrumentation snapshot for the admin portal.
func (h *AnalyticsHandler) System(c *gin.Context) {
	response.OK(c, h.analytics.SystemMetrics())
}
