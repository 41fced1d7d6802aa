package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleEducator UserRole = "educator"
	RoleStudent  UserRole = "student"
)

// Valid reports whether the role is one the platform knows about.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleEducator, RoleStudent:
		return true
	}
	return false
}

// User is an account of any role. WeeklyGoalMinutes is nil when the student
// never set a goal; the report assembler substitutes the configured default.
type User struct {
	ID                string     `db:"id" json:"_id"`
	Name              string     `db:"name" json:"name"`
	Email             string     `db:"email" json:"email"`
	PasswordHash      string     `db:"password_hash" json:"-"`
	Role              UserRole   `db:"role" json:"role"`
	WeeklyGoalMinutes *int       `db:"weekly_goal_minutes" json:"-"`
	CollegeID         string     `db:"college_id" json:"collegeId,omitempty"`
	Department        string     `db:"department" json:"department"`
	LastActive        *time.Time `db:"last_active" json:"lastActive,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
}

// WeeklyGoalHours is the goal as exposed to clients, nil when unset.
func (u *User) WeeklyGoalHours() *float64 {
	if u == nil || u.WeeklyGoalMinutes == nil {
		return nil
	}
	hours := float64(*u.WeeklyGoalMinutes) / 60
	return &hours
}

// UserSummary is the directory projection of a user.
type UserSummary struct {
	ID         string    `db:"id" json:"_id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Role       UserRole  `db:"role" json:"role"`
	Department string    `db:"department" json:"department,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
