package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/consistify-api/internal/dto"
	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
	"github.com/noah-isme/consistify-api/pkg/response"
)

type activityService interface {
	List(ctx context.Context, studentID string) ([]models.Activity, error)
	Create(ctx context.Context, studentID string, req dto.ActivityRequest) (*models.Activity, error)
	Update(ctx context.Context, studentID, activityID string, req dto.ActivityRequest) (*models.Activity, error)
	Delete(ctx context.Context, studentID, activityID string) error
}

// ActivityHandler serves the student's own activity log.
type ActivityHandler struct {
	service activityService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(svc activityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// List godoc
// @Summary List own activities
// @Tags Activities
// @Produce json
// @Success 200 {array} models.Activity
// @Router /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	activities, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, activities)
}

// Create godoc
// @Summary Log an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param payload body dto.ActivityRequest true "Activity payload"
// @Success 201 {object} models.Activity
// @Failure 400 {object} response.Message
// @Router /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	req, ok := bindActivity(c)
	if !ok {
		return
	}
	activity, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// Update godoc
// @Summary Update an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body dto.ActivityRequest true "Activity payload"
// @Success 200 {object} models.Activity
// @Failure 403 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /activities/{id} [put]
func (h *ActivityHandler) Update(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	req, ok := bindActivity(c)
	if !ok {
		return
	}
	activity, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, activity)
}

// Delete godoc
// @Summary Delete an activity
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Message
// @Failure 403 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /activities/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, response.Message{Message: "Activity removed"})
}

func bindActivity(c *gin.Context) (dto.ActivityRequest, bool) {
	var req dto.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Please add a subject and duration"))
		return req, false
	}
	return req, true
}
