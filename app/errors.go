package app

import "github.com/ayoisaiah/studytime/internal/apperr"

var (
	errNoSessionIDs = &apperr.Error{
		Message: "specify the id of at least one session (see 'studytime sessions list')",
	}

	errNoEntryIDs = &apperr.Error{
		Message: "specify the id of at least one failed entry (see 'studytime sync status')",
	}
)
