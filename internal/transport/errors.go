package transport

import (
	"errors"
	"net/http"

	"github.com/ds124wfegd/eventwaitlist/internal/entity"
	"github.com/ds124wfegd/eventwaitlist/pkg/eventsapi"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: code, Message: message})
}

// handleError maps service errors onto HTTP statuses.
func handleError(c *gin.Context, err error) {
	c.Error(err)

	apiErr, isAPIErr := eventsapi.AsAPIError(err)
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, entity.ErrNotOnWaitlist):
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "Attendee is not on the waitlist")
	case errors.Is(err, entity.ErrEventNotFound):
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "Event not found")
	case errors.Is(err, entity.ErrPersistenceUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, "PERSISTENCE_UNAVAILABLE",
			"Waitlist storage is temporarily unavailable, please try again later")
	case errors.Is(err, entity.ErrEventsUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, "EVENTS_UNAVAILABLE",
			"Events service is temporarily unavailable, please try again later")
	case isAPIErr:
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			code := apiErr.Code
			if code == "" {
				code = "UPSTREAM_REJECTED"
			}
			abortWithError(c, apiErr.StatusCode, code, apiErr.Message)
			return
		}
		abortWithError(c, http.StatusBadGateway, "UPSTREAM_ERROR", "Events service returned an error")
	default:
		abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
