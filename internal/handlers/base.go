package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"redsocial/internal/services"
	"redsocial/internal/utils"
)

// Response is the JSON envelope every API endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Response{Success: true, Message: message, Data: data})
}

// RespondError writes err with the status of its error kind. Unexpected
// errors are logged and hidden behind a generic message.
func RespondError(c *gin.Context, err error) {
	code, kind := statusOf(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		message = "internal server error"
	}
	c.AbortWithStatusJSON(code, Response{Success: false, Message: message, Error: kind})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, services.ErrPermissionDenied):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", services.ErrInvalidArgument, err)
}

// paramID reads a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, error) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		return 0, badRequest(err)
	}
	return id, nil
}

// bindJSON decodes the body and reports failures as invalid arguments.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return badRequest(describeBindError(err))
	}
	return nil
}

// Health is the liveness probe.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
