package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"routedesk/internal/repository"
	"routedesk/internal/service/classifier"
	"routedesk/internal/service/onboarding"
	"routedesk/internal/service/routing"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidAction   = errors.New("invalid action")
	ErrInvalidPayload  = errors.New("invalid payload")
)

// MapHTTPStatus maps domain errors to status codes. Unknown errors are upstream failures.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidAction),
		errors.Is(err, ErrInvalidPayload),
		errors.Is(err, classifier.ErrEmptyMessage),
		errors.Is(err, onboarding.ErrUnknownTier):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrMessageNotFound),
		errors.Is(err, repository.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, routing.ErrRoutingInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(MapHTTPStatus(err), gin.H{"error": err.Error()})
}
