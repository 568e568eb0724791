package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/command"
	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/presentation"
	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/session"
	"github.com/GriffinCanCode/TermDeck/backend/internal/providers/terminal"
)

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("terminal not found")
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, terminal.ErrResourceExhausted):
		return http.StatusTooManyRequests
	case errors.Is(err, terminal.ErrShellNotAllowed),
		errors.Is(err, session.ErrInvalidName),
		errors.Is(err, command.ErrInvalidChord),
		errors.Is(err, command.ErrInvalidCommand),
		errors.Is(err, presentation.ErrInvalidViewport),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound),
		errors.Is(err, session.ErrUnknownSession),
		errors.Is(err, command.ErrNotFound),
		errors.Is(err, command.ErrUnbound):
		return http.StatusNotFound
	case errors.Is(err, command.ErrNoActiveSession):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
