package handler

import (
	"errors"
	"net/http"

	"github.com/contacthub/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// writeServiceError translates service sentinels into (status, message)
// pairs. Anything unrecognized is a 500 with a generic message; internals are
// never echoed to the client.
func writeServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "server error"

	switch {
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrUsernameTaken):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrEmailNotConfirmed),
		errors.Is(err, service.ErrCredentials):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrInvalidResetTicket),
		errors.Is(err, service.ErrResetTicketExpired),
		errors.Is(err, service.ErrContactNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, service.ErrEmailTokenInvalid):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	case errors.Is(err, service.ErrVerification),
		errors.Is(err, service.ErrContactDuplicate),
		errors.Is(err, service.ErrInvalidBirthDate):
		status = http.StatusBadRequest
		message = err.Error()
	}

	c.JSON(status, gin.H{"error": message})
}
