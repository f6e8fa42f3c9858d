package onboarding

import (
	"errors"

	"routedesk/internal/repository"
)

var (
	ErrTaskNotFound = repository.ErrTaskNotFound
	ErrUnknownTier  = errors.New("unknown tier")
)
