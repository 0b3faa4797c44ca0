// File: cmd/trigger.go
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

// launcherReply covers both the success and the error bodies of the launcher.
type launcherReply struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (r launcherReply) text() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Message
}

func newTriggerCmd() *cobra.Command {
	var (
		server  string
		timeout time.Duration
	)

	triggerCmd := &cobra.Command{
		Use:   "trigger <script>",
		Short: "Ask a running launcher to start a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			base := server
			if base == "" {
				cfg, err := getConfigFromContext(ctx)
				if err != nil {
					return err
				}
				base = launcherURL(cfg.Server().Addr)
			}

			client := resty.New().
				SetBaseURL(strings.TrimRight(base, "/")).
				SetTimeout(timeout)

			var ok, failed launcherReply
			resp, err := client.R().
				SetContext(ctx).
				SetQueryParam("type", args[0]).
				SetResult(&ok).
				SetError(&failed).
				Get("/run-script")
			if err != nil {
				return fmt.Errorf("failed to reach launcher at %s: %w", base, err)
			}
			if resp.IsError() {
				msg := failed.text()
				if msg == "" {
					msg = strings.TrimSpace(resp.String())
				}
				return fmt.Errorf("launcher rejected %s (HTTP %d): %s", args[0], resp.StatusCode(), msg)
			}

			fmt.Fprintln(cmd.OutOrStdout(), ok.text())
			return nil
		},
	}

	triggerCmd.Flags().StringVar(&server, "server", "", "Launcher base URL (default derived from server.addr)")
	triggerCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "HTTP timeout")
	return triggerCmd
}

// launcherURL turns a listen address into a URL a local client can dial.
func launcherURL(addr string) string {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	} else if strings.HasPrefix(host, "0.0.0.0:") {
		host = "localhost" + strings.TrimPrefix(host, "0.0.0.0")
	}
	return "http://" + host
}
