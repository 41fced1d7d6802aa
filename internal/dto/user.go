package dto

import (
	"time"

	"github.com/noah-isme/consistify-api/internal/models"
)

// CreateUserRequest is the body of POST /admin/users.
type CreateUserRequest struct {
	Name       string  `json:"name" validate:"required,max=120"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=6"`
	Role       string  `json:"role" validate:"required,oneof=student educator admin"`
	CollegeID  string  `json:"collegeId" validate:"max=64"`
	Department string  `json:"department" validate:"max=120"`
	WeeklyGoal float64 `json:"weeklyGoal" validate:"omitempty,gt=0,lte=168"`
}

// UpdateUserRequest is the body of PUT /admin/users/:id. Empty fields keep
// their stored value.
type UpdateUserRequest struct {
	Name     string `json:"name" validate:"omitempty,max=120"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"omitempty,oneof=student educator admin"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// RegisterRequest is the body of POST /auth/register. Self sign-up cannot
// create admins.
type RegisterRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"omitempty,oneof=student educator"`
	CollegeID string `json:"collegeId" validate:"max=64"`
}

// UpdateProfileRequest is the body of PUT /auth/profile. WeeklyGoal is in hours.
type UpdateProfileRequest struct {
	Name       string   `json:"name" validate:"omitempty,max=120"`
	WeeklyGoal *float64 `json:"weeklyGoal" validate:"omitempty,gte=1,lte=168"`
}

// ProfileResponse is the account view returned by /auth/me and /auth/profile.
type ProfileResponse struct {
	ID         string          `json:"_id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Role       models.UserRole `json:"role"`
	CollegeID  string          `json:"collegeId,omitempty"`
	Department string          `json:"department,omitempty"`
	WeeklyGoal *float64        `json:"weeklyGoal,omitempty"`
	LastActive *time.Time      `json:"lastActive,omitempty"`
}

// NewProfileResponse projects a user without secrets, the goal in hours.
func NewProfileResponse(user *models.User) ProfileResponse {
	return ProfileResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		CollegeID:  user.CollegeID,
		Department: user.Department,
		WeeklyGoal: user.WeeklyGoalHours(),
		LastActive: user.LastActive,
	}
}
