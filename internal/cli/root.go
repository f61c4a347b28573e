package cli

import (
	"fmt"
	"os"
	"strings"

	"roadmap-cli/internal/api"
	"roadmap-cli/internal/config"
	"roadmap-cli/internal/format"
	"roadmap-cli/internal/store"
	"roadmap-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	ServerURL  string
	Identity   string
	PrettyJSON bool
	Format     string

	cfg    config.Config
	client *api.Client
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "roadmap",
		Short:        "Product roadmap board (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive board
  roadmap

  # Scriptable commands
  roadmap items list --status IN_PROGRESS
  roadmap items move 12 DONE

  # Run the bundled dev server
  roadmap serve --addr :5000
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if app.ServerURL != "" {
			cfg.ServerURL = strings.TrimRight(strings.TrimSpace(app.ServerURL), "/")
		}
		if app.Identity != "" {
			cfg.Identity = app.Identity
		}
		app.cfg = cfg
		app.client = api.NewClient(cfg.ServerURL)
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", envOr("ROADMAP_SERVER_URL", ""), "Server base URL (overrides config)")
	cmd.PersistentFlags().StringVar(&app.Identity, "as", envOr("ROADMAP_IDENTITY", ""), "Attribution name for anonymous edits")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("ROADMAP_FORMAT", "json"), "Output format (json)")

	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newCommentsCmd(app))
	cmd.AddCommand(newAuthCmds(app)...)
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newHealthCmd(app))
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func runTUI(app *App) error {
	prefs, err := store.OpenPrefs(app.cfg.PrefsPath)
	if err != nil {
		// The board works without prefs; collapse state and celebration
		// counters just won't persist.
		prefs = nil
	}
	if prefs != nil {
		defer prefs.Close()
	}
	return tui.Run(app.client, prefs, app.cfg.Identity, app.cfg.Theme)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
