package ui_test

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/studytime/internal/models"
	"github.com/ayoisaiah/studytime/internal/ui"
)

func TestPrintTable(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer

	err := ui.PrintTable([][]string{
		{"ID", "MODE"},
		{"s1", "exam"},
	}, &buf)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "MODE")
	assert.Contains(t, buf.String(), "exam")
}

func TestSyncStatus(t *testing.T) {
	pterm.DisableColor()
	defer pterm.EnableColor()

	for _, s := range []models.SyncStatus{models.SyncSynced, models.SyncPending, models.SyncFailed} {
		assert.Equal(t, string(s), ui.SyncStatus(s))
	}
}
