package store

import "github.com/ayoisaiah/studytime/internal/apperr"

var (
	errAlreadyRunning = &apperr.Error{
		Message: "is studytime already running? Only one instance can use the database at a time",
	}

	ErrSessionNotFound = &apperr.Error{
		Message: "session not found: %s",
	}

	ErrEntryNotFound = &apperr.Error{
		Message: "sync queue entry not found: %s",
	}
)
