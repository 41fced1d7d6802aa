package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

// ErrorCodeHeader carries the machine readable error code. The body keeps the
// legacy `{message}` shape the web clients parse.
const ErrorCodeHeader = "X-Error-Code"

// Message is the legacy body shape used for errors and acknowledgements.
type Message struct {
	Message string `json:"message"`
}

// JSON sends a success response with the payload as the top-level body.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error sends an error response converting the error to the legacy message body.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError && appErr.Err != nil {
		_ = c.Error(appErr.Err)
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.Header(ErrorCodeHeader, appErr.Code)
	if appErr.Retryable() {
		c.Header("Retry-After", "5")
	}
	c.JSON(appErr.Status, Message{Message: appErr.Message})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
