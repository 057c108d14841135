package syncq

import "github.com/ayoisaiah/studytime/internal/apperr"

var (
	errNotAuthenticated = &apperr.Error{
		Message: "not signed in: run `studytime login --token <token>` to enable sync",
	}

	errNoBackend = &apperr.Error{
		Message: "no sync backend configured",
	}

	errNotFailed = &apperr.Error{
		Message: "sync queue entry %s has not failed",
	}

	errUnknownAction = &apperr.Error{
		Message: "unknown sync action: %s",
	}

	errMissingPayload = &apperr.Error{
		Message: "upsert for session %s has no payload",
	}
)
