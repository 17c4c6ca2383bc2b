package handlers

import (
	"log/slog"
	"net/http"

	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/models"
	"stagedoor/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{services: services}
}

// writeError maps the error taxonomy onto HTTP status codes. Anything
// outside the taxonomy is a 500 and the detail stays in the logs.
func (h *Handlers) writeError(c *gin.Context, err error) {
	code := apperrors.Code(err)

	var status int
	switch code {
	case "NotFound":
		status = http.StatusNotFound
	case "InsufficientAvailability":
		status = http.StatusConflict
	case "InvalidStateTransition":
		status = http.StatusUnprocessableEntity
	case "ValidationError":
		status = http.StatusBadRequest
	default:
		slog.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:  code,
			Error: "Internal server error",
		})
		return
	}

	c.JSON(status, models.ErrorResponse{Code: code, Error: err.Error()})
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Code:  "ValidationError",
		Error: msg,
	})
}
