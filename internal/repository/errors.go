package repository

import "errors"

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("onboarding task not found")
)
