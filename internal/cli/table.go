package cli

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
)

// printTable renders data with a header row to out.
func printTable(out io.Writer, data pterm.TableData) error {
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprintln(out, table)
	return err
}
