// Package report prints command failures.
package report

import (
	"errors"
	"os"

	"github.com/pterm/pterm"

	"github.com/ayoisaiah/studytime/internal/apperr"
)

// Error prints err. The cause of an application error is printed on its own
// line so the message stays short.
func Error(err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && errors.Unwrap(appErr) != nil {
		pterm.Error.Println(appErr.Message)
		pterm.Println("  caused by:", errors.Unwrap(appErr))

		return
	}

	pterm.Error.Println(err)
}

func Quit(err error) {
	Error(err)
	os.Exit(1)
}
