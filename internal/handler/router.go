package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/consistify-api/internal/middleware"
	"github.com/noah-isme/consistify-api/internal/models"
)

// Handlers groups the API handlers mounted under the API prefix.
type Handlers struct {
	Auth      *AuthHandler
	Analytics *AnalyticsHandler
	Activity  *ActivityHandler
	Feedback  *FeedbackHandler
	User      *UserHandler
}

// RegisterRoutes mounts the API on the group. Everything except sign-up and
// the two login endpoints requires a bearer token.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/admin/login", h.Auth.AdminLogin)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))

	secured.GET("/auth/me", h.Auth.Me)
	secured.PUT("/auth/profile", h.Auth.UpdateProfile)
	secured.POST("/auth/heartbeat", h.Auth.Heartbeat)

	secured.GET("/analytics", h.Analytics.Self)
	secured.GET("/analytics/export", h.Analytics.Export)

	activities := secured.Group("/activities", middleware.RequireRoles(models.RoleStudent))
	activities.GET("", h.Activity.List)
	activities.POST("", h.Activity.Create)
	activities.PUT("/:id", h.Activity.Update)
	activities.DELETE("/:id", h.Activity.Delete)

	secured.GET("/feedback", h.Feedback.Inbox)
	secured.POST("/feedback", middleware.RequireRoles(models.RoleEducator, models.RoleAdmin), h.Feedback.Create)

	secured.GET("/educator/list", h.User.Directory)

	educator := secured.Group("/educator", middleware.RequireRoles(models.RoleEducator, models.RoleAdmin))
	educator.GET("/students", h.Analytics.Roster)
	educator.GET("/student/:id/analytics", h.Analytics.Student)

	admin := secured.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/students", h.User.Students)
	admin.GET("/educators", h.User.Educators)
	admin.GET("/students/:id/analytics", h.Analytics.Student)
	admin.GET("/educators/:id/analytics", h.Analytics.Educator)
	admin.POST("/users", h.User.Create)
	admin.PUT("/users/:id", h.User.Update)
	admin.DELETE("/users/:id", h.User.Delete)
	admin.GET("/system", h.Analytics.System)
}
