package routing

import (
	"errors"

	"routedesk/internal/repository"
)

var (
	ErrMessageNotFound = repository.ErrMessageNotFound
	// ErrRoutingInProgress is returned when the dedupe guard is enabled and
	// another trigger already holds the message.
	ErrRoutingInProgress = errors.New("message is already being routed")
)
