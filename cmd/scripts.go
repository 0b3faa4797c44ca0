// File: cmd/scripts.go
package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/seeqlo-runner/internal/activities"
)

func newScriptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scripts",
		Short: "List the automation scripts that can be run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Key", "Role", "Name", "Description"})
			for _, s := range activities.All() {
				t.AppendRow(table.Row{s.Key, s.Role, s.Name, s.Description})
			}
			t.AppendFooter(table.Row{"", "", "Total", len(activities.All())})
			t.Render()
			return nil
		},
	}
}
