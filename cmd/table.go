// File: cmd/table.go
package cmd

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// newTable returns a rounded table writer that renders to w.
func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}
