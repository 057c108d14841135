// Package ui holds small terminal output helpers shared by the commands.
package ui

import (
	"github.com/pterm/pterm"

	"github.com/ayoisaiah/studytime/internal/models"
)

func Green(a any) string {
	return pterm.LightGreen(a)
}

func Yellow(a any) string {
	return pterm.LightYellow(a)
}

func Red(a any) string {
	return pterm.LightRed(a)
}

func Highlight(a any) string {
	return pterm.LightWhite(a)
}

// SyncStatus renders a sync status badge.
func SyncStatus(s models.SyncStatus) string {
	switch s {
	case models.SyncSynced:
		return Green(string(s))
	case models.SyncFailed:
		return Red(string(s))
	}

	return Yellow(string(s))
}
