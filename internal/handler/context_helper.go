package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/consistify-api/internal/middleware"
	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
	"github.com/noah-isme/consistify-api/pkg/response"
)

// requireCaller returns the authenticated caller or writes a 401.
func requireCaller(c *gin.Context) (*models.JWTClaims, bool) {
	claims := middleware.Claims(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}
