// File: cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/seeqlo-runner/internal/activities"
	"github.com/xkilldash9x/seeqlo-runner/internal/browser"
	"github.com/xkilldash9x/seeqlo-runner/internal/config"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
	"github.com/xkilldash9x/seeqlo-runner/internal/runner"
)

// factoryFunc builds the browser factory for a run. Tests replace it with a fake.
var factoryFunc = func(cfg config.BrowserConfig, logger *zap.Logger) browser.Factory {
	return browser.NewFactory(cfg, logger)
}

func newRunCmd(provider storeProvider) *cobra.Command {
	var (
		reportPath string
		headless   bool
		pace       float64
	)

	runCmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run one automation script in a browser",
		Long: `Logs in with the script's role and runs its flow. The browser is closed
once the flow finishes, fails or is interrupted.

Available scripts:
  ` + strings.Join(activities.Keys(), "\n  "),
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return activities.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("headless") {
				cfg.SetBrowserHeadless(headless)
			}
			if cmd.Flags().Changed("pace") {
				if pace < 0 {
					return fmt.Errorf("--pace must not be negative")
				}
				cfg.SetAppPace(pace)
			}

			logger := observability.GetLogger()
			return runScript(ctx, logger, cfg, args[0], reportPath, factoryFunc(cfg.Browser(), logger), provider)
		},
	}

	runCmd.Flags().StringVar(&reportPath, "report", "", "Write a step report to this path (.json for JSON, JUnit XML otherwise)")
	runCmd.Flags().BoolVar(&headless, "headless", false, "Run the browser without a window")
	runCmd.Flags().Float64Var(&pace, "pace", 1, "Scale fixed pauses; 0 disables them")
	return runCmd
}

// runScript wires the optional run history and report, then runs key.
// History is best effort: an unreachable database never blocks a run.
func runScript(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	key, reportPath string,
	factory browser.Factory,
	provider storeProvider,
) error {
	var opts []runner.Option
	if reportPath != "" {
		opts = append(opts, runner.WithReport(reportPath))
	}
	if cfg.Database().Enabled() {
		st, cleanup, err := provider.Create(ctx, cfg)
		if err != nil {
			logger.Warn("Run history disabled", zap.Error(err))
		} else {
			defer cleanup()
			opts = append(opts, runner.WithRecorder(st))
		}
	}
	return runner.New(cfg, factory, logger, opts...).Run(ctx, key)
}
