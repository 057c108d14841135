package timer

import "github.com/ayoisaiah/studytime/internal/apperr"

var (
	errNotANumber = &apperr.Error{
		Message: "%q is not a whole number",
	}

	errNegativeCount = &apperr.Error{
		Message: "the count cannot be negative",
	}

	errCorrectExceedsTotal = &apperr.Error{
		Message: "correct answers (%d) cannot exceed the total (%d)",
	}
)
