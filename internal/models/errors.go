package models

import "errors"

// Error kinds shared by the repository, services and handlers.
// Callers wrap them with context via fmt.Errorf("%w: ...").
var (
	ErrValidation          = errors.New("validation error")
	ErrUnknownReviewer     = errors.New("unknown reviewer")
	ErrDuplicateSubmission = errors.New("feedback already submitted")
	ErrNotFound            = errors.New("assessment not found")
	ErrBusy                = errors.New("operation already in progress")
	ErrAgentCall           = errors.New("agent call failed")
)
