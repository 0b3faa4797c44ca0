// File: cmd/serve.go
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/seeqlo-runner/internal/launcher"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

func newServeCmd(provider storeProvider) *cobra.Command {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the launcher dashboard and HTTP API",
		Long: `Starts the launcher. Each GET /run-script?type=<script> spawns
'seeqlo-runner run <script>' as a detached process and returns immediately.
The dashboard at / lists the scripts and streams the shared log file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.SetServerAddr(addr)
			}
			logger := observability.GetLogger()

			spawner := &launcher.ProcessSpawner{
				Args:   childArgs(cmd),
				Logger: logger.Named("spawner"),
			}

			var opts []launcher.Option
			if cfg.Database().Enabled() {
				st, cleanup, err := provider.Create(ctx, cfg)
				if err != nil {
					logger.Warn("Run history endpoint disabled", zap.Error(err))
				} else {
					defer cleanup()
					opts = append(opts, launcher.WithRuns(st))
				}
			}

			return launcher.NewServer(cfg, spawner, logger, opts...).Start(ctx)
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", ":8000", "Address to listen on")
	return serveCmd
}
