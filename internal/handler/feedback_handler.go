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

type feedbackService interface {
	Create(ctx context.Context, educatorID string, req dto.FeedbackRequest) (*models.Feedback, error)
	Inbox(ctx context.Context, studentID string) ([]models.FeedbackWithEducator, error)
}

// FeedbackHandler serves educator feedback.
type FeedbackHandler struct {
	service feedbackService
}

// NewFeedbackHandler constructs the handler.
func NewFeedbackHandler(svc feedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// Create godoc
// @Summary Send feedback to a student
// @Tags Feedback
// @Accept json
// @Produce json
// @Param payload body dto.FeedbackRequest true "Feedback payload"
// @Success 201 {object} models.Feedback
// @Failure 400 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /feedback [post]
func (h *FeedbackHandler) Create(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Please add a student and a message"))
		return
	}
	feedback, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, feedback)
}

// Inbox godoc
// @Summary Feedback addressed to the caller
// @Tags Feedback
// @Produce json
// @Success 200 {array} models.FeedbackWithEducator
// @Router /feedback [get]
func (h *FeedbackHandler) Inbox(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	inbox, err := h.service.Inbox(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, inbox)
}
