// File: cmd/runs.go
package cmd

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRunsCmd(provider storeProvider) *cobra.Command {
	var limit int

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Show the most recent runs recorded in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			st, cleanup, err := provider.Create(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			runs, err := st.RecentRuns(ctx, limit)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Run", "Script", "PID", "Status", "Started", "Duration", "Error"})
			for _, r := range runs {
				duration := "-"
				if r.FinishedAt != nil {
					duration = r.Duration().Round(time.Second).String()
				}
				t.AppendRow(table.Row{
					r.ID.String()[:8],
					r.Script,
					r.PID,
					r.Status,
					r.StartedAt.Local().Format("2006-01-02 15:04:05"),
					duration,
					r.Error,
				})
			}
			t.Render()
			return nil
		},
	}

	runsCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return runsCmd
}
