package cli

import (
	"fmt"
	"strings"

	"roadmap-cli/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write client settings",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOut(cmd, app, map[string]string{
				"server_url": app.cfg.ServerURL,
				"identity":   app.cfg.Identity,
				"theme":      app.cfg.Theme,
				"prefs_path": app.cfg.PrefsPath,
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist one setting to config.yaml",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return writeErr(cmd, err)
			}
			key := strings.TrimSpace(args[0])
			val := strings.TrimSpace(args[1])
			switch key {
			case "server_url":
				cfg.ServerURL = strings.TrimRight(val, "/")
			case "identity":
				cfg.Identity = val
			case "theme":
				switch val {
				case "auto", "dark", "light":
					cfg.Theme = val
				default:
					return writeErr(cmd, fmt.Errorf("theme must be auto, dark or light"))
				}
			case "prefs_path":
				cfg.PrefsPath = val
			default:
				return writeErr(cmd, fmt.Errorf("unknown key: %q", key))
			}
			if err := config.Write(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{key: val})
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}
