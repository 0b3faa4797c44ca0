// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/seeqlo-runner/internal/config"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

type contextKey string

// configKey stores the loaded *config.Config in the command context.
const configKey contextKey = "config"

const envPrefix = "SEEQLO"

// NewRootCommand returns a fresh command tree. Each call is independent so
// flag state never leaks between executions.
func NewRootCommand() *cobra.Command {
	return newRootCmd()
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(defaultStoreProvider{})
}

// buildRootCmd assembles the tree around provider, the run history source
// shared by run, serve and runs.
func buildRootCmd(provider storeProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seeqlo-runner",
		Short: "Seeqlo runner drives browser automation flows against the Seeqlo learning app.",
		Long: `Seeqlo runner logs into the Seeqlo learning application as a student or a
teacher and walks through its activities, homework and assignment flows in a
real Chrome browser. Flows can be run directly or launched from the web
dashboard served by the 'serve' command.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadDotEnv(cmd); err != nil {
				return err
			}

			v := viper.New()
			config.SetDefaults(v)

			// 1. Config file and environment.
			if err := initializeConfig(cmd, v); err != nil {
				basicLogger, _ := zap.NewDevelopment()
				defer basicLogger.Sync()
				basicLogger.Error("Failed to initialize configuration", zap.Error(err))
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// 2. Typed, validated configuration.
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "seeqlo-runner"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			// 3. Logging.
			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting seeqlo-runner", zap.String("version", Version))

			// 4. Hand the config to subcommands.
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "config file (default is ./config.yaml)")
	cmd.PersistentFlags().String("env-file", ".env", "dotenv file with credentials; missing files are ignored")

	cmd.AddCommand(newRunCmd(provider))
	cmd.AddCommand(newServeCmd(provider))
	cmd.AddCommand(newScriptsCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newTriggerCmd())
	cmd.AddCommand(newRunsCmd(provider))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the command tree with ctx and reports a failure once.
func Execute(ctx context.Context) error {
	rootCmd := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	observability.Sync()
	return err
}

// loadDotEnv exports the variables of the --env-file into the process
// environment. Variables already set win over the file.
func loadDotEnv(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("env-file")
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading env file %s: %w", path, err)
	}
	return nil
}

// initializeConfig reads the config file and binds SEEQLO_* environment
// variables into v.
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment only.
	}
	return nil
}

// getConfigFromContext returns the configuration stored by PersistentPreRunE.
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// childArgs are the global flags a spawned run must inherit so it loads
// the same configuration as the launcher.
func childArgs(cmd *cobra.Command) []string {
	var args []string
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		args = append(args, "--config", path)
	}
	if path, _ := cmd.Flags().GetString("env-file"); path != "" && cmd.Flags().Changed("env-file") {
		args = append(args, "--env-file", path)
	}
	return args
}
