// File: cmd/config.go
package cmd

import (
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/seeqlo-runner/internal/config"
)

const redacted = "********"

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(redact(*cfg)); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

// redact blanks passwords and the database URL's credentials.
func redact(cfg config.Config) config.Config {
	if cfg.AppCfg.Student.Password != "" {
		cfg.AppCfg.Student.Password = redacted
	}
	if cfg.AppCfg.Teacher.Password != "" {
		cfg.AppCfg.Teacher.Password = redacted
	}
	if cfg.DatabaseCfg.URL != "" {
		if u, err := url.Parse(cfg.DatabaseCfg.URL); err == nil {
			cfg.DatabaseCfg.URL = u.Redacted()
		} else {
			cfg.DatabaseCfg.URL = redacted
		}
	}
	return cfg
}
