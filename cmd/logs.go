// File: cmd/logs.go
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/seeqlo-runner/internal/logtail"
	"github.com/xkilldash9x/seeqlo-runner/internal/logview"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

func newLogsCmd() *cobra.Command {
	var (
		follow   bool
		raw      bool
		truncate bool
		noColor  bool
	)

	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the shared automation log",
		Long: `Prints the structured log written by every run. Records are rendered as
one readable line each unless --raw is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			path := observability.ExpandPath(cfg.Logger().LogFile)
			if path == "" {
				return fmt.Errorf("logger.log_file is not configured")
			}
			out := cmd.OutOrStdout()

			if truncate {
				if err := logtail.Truncate(path); err != nil {
					return err
				}
				fmt.Fprintln(out, "Logs cleared successfully.")
				return nil
			}

			render := func(line string) string {
				if raw {
					return line
				}
				return logview.FormatLine(line, !noColor)
			}

			if follow {
				// Follow replays from the start so nothing written between
				// reading and tailing is lost.
				lines, err := logtail.Follow(ctx, path, true, observability.GetLogger())
				if err != nil {
					return err
				}
				printLines(out, lines, render)
				return nil
			}

			lines, err := logtail.ReadAll(path)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(out, render(line))
			}
			return nil
		},
	}

	logsCmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are appended")
	logsCmd.Flags().BoolVar(&raw, "raw", false, "Print the JSON records unchanged")
	logsCmd.Flags().BoolVar(&truncate, "clear", false, "Truncate the log file")
	logsCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable ANSI colors")
	return logsCmd
}

func printLines(out io.Writer, lines <-chan string, render func(string) string) {
	for line := range lines {
		fmt.Fprintln(out, render(line))
	}
}
