package config

import "github.com/ayoisaiah/studytime/internal/apperr"

var (
	errConfigOption = &apperr.Error{
		Message: "config option error",
	}

	errConfigValidation = &apperr.Error{
		Message: "config validation error",
	}

	errReadConfig = &apperr.Error{
		Message: "reading config file failed",
	}

	errWriteConfig = &apperr.Error{
		Message: "writing default config failed",
	}

	errInvalidCLIDuration = &apperr.Error{
		Message: "invalid %s duration: %v",
	}

	errInvalidSection = &apperr.Error{
		Message: "invalid exam section %q: expected name=duration",
	}

	errInvalidTick = &apperr.Error{
		Message: "tick interval (%v) must be between %v and %v",
	}

	errUnknownBackend = &apperr.Error{
		Message: "unknown sync backend %q: use off, postgres, sqlite or nats",
	}

	errMissingSetting = &apperr.Error{
		Message: "the %s sync backend requires %s",
	}

	errInvalidDelay = &apperr.Error{
		Message: "%s must be positive",
	}

	errDelayOrder = &apperr.Error{
		Message: "sync base delay (%v) must not exceed the max delay (%v)",
	}

	errInvalidPeriod = &apperr.Error{
		Message: "invalid period %q",
	}

	errInvalidSince = &apperr.Error{
		Message: "could not understand the date %q",
	}

	errInvalidDateRange = &apperr.Error{
		Message: "the start time must be earlier than the end time",
	}
)
