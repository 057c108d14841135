package ui

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
)

// PrintTable writes data as a boxed table. The first row is the header.
func PrintTable(data [][]string, writer io.Writer) error {
	table := pterm.DefaultTable
	table.Boxed = true

	str, err := table.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	_, err = fmt.Fprintln(writer, str)

	return err
}
