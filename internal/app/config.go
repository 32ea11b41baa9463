package app

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/blackwell-systems/bookctl/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Show or change the configuration",
		Annotations: map[string]string{skipSetup: "true"},
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSetURLCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			header("Config (%s)", config.Path())
			printField("base url", cfg.API.BaseURL)
			printField("timeout", cfg.API.EffectiveTimeout().String())
			printField("session", cfg.Session.Backend)
			if cfg.Session.Backend != config.BackendMemory {
				printField("session at", cfg.Session.EffectiveSessionPath())
			}
			printField("cache", cfg.Cache.Dir)
			logTo := "stderr"
			if cfg.Log.File != "" {
				logTo = cfg.Log.File
			}
			printField("log", fmt.Sprintf("%s, %s, %s", cfg.Log.Level, cfg.Log.Format, logTo))
			return nil
		},
	}
}

func newConfigSetURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-url <url>",
		Short: "Point bookctl at another backend",
		Long: `Save the backend base URL to the config file.

The stored session belongs to the old backend; sign in again afterwards.

Example:
  bookctl config set-url https://books.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.TrimRight(strings.TrimSpace(args[0]), "/")
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("invalid base url %q (want http:// or https://)", args[0])
			}
			cfg.API.BaseURL = raw
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			ok("Base URL set to %s", raw)
			return nil
		},
	}
}
