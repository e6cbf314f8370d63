package core

import "errors"

var (
	ErrAgentNotFound      = errors.New("agent not found")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrCompletionFailed   = errors.New("completion failed")
	ErrDocumentExtraction = errors.New("document extraction failed")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
)
