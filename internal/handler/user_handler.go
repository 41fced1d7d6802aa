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

type userService interface {
	ListByRole(ctx context.Context, role models.UserRole) ([]models.UserSummary, error)
	Create(ctx context.Context, req dto.CreateUserRequest) (*models.UserSummary, error)
	Update(ctx context.Context, id string, req dto.UpdateUserRequest) (*models.UserSummary, error)
	Delete(ctx context.Context, id string) error
}

// UserHandler manages the user directories and account administration.
type UserHandler struct {
	service userService
}

// NewUserHandler constructs the handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// Students godoc
// @Summary List students
// @Tags Users
// @Produce json
// @Success 200 {array} models.UserSummary
// @Router /admin/students [get]
func (h *UserHandler) Students(c *gin.Context) {
	h.list(c, models.RoleStudent)
}

// Educators godoc
// @Summary List educators
// @Tags Users
// @Produce json
// @Success 200 {array} models.UserSummary
// @Router /admin/educators [get]
func (h *UserHandler) Educators(c *gin.Context) {
	h.list(c, models.RoleEducator)
}

// Create godoc
// @Summary Create a user
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.CreateUserRequest true "User payload"
// @Success 201 {object} models.UserSummary
// @Failure 400 {object} response.Message
// @Failure 409 {object} response.Message
// @Router /admin/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid user payload"))
		return
	}
	user, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Update godoc
// @Summary Update a user
// @Description Change name, email, role or password; empty fields are kept
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.UpdateUserRequest true "User payload"
// @Success 200 {object} models.UserSummary
// @Failure 400 {object} response.Message
// @Failure 404 {object} response.Message
// @Failure 409 {object} response.Message
// @Router /admin/users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid user payload"))
		return
	}
	user, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// Delete godoc
// @Summary Remove a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /admin/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, response.Message{Message: "User removed"})
}

func (h *UserHandler) list(c *gin.Context, role models.UserRole) {
	users, err := h.service.ListByRole(c.Request.Context(), role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, users)
}

// Directory godoc
// @Summary List educators
// @Description Educator directory for students picking a feedback recipient
// @Tags Users
// @Produce json
// @Success 200 {array} models.UserSummary
// @Router /educator/list [get]
func (h *UserHandler) Directory(c *gin.Context) {
	h.list(c, models.RoleEducator)
}
