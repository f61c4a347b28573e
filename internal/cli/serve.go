package cli

import (
	"fmt"
	"strings"

	"roadmap-cli/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		addr  string
		file  string
		users []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the roadmap API server",
		Long: "Runs the HTTP API the client talks to. State lives in memory unless\n" +
			"--file is given, in which case the roadmap is persisted as JSON.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts := map[string]string{}
			for _, u := range users {
				name, pw, ok := strings.Cut(u, ":")
				if !ok || name == "" || pw == "" {
					return writeErr(cmd, fmt.Errorf("invalid --user %q, want name:password", u))
				}
				accounts[name] = pw
			}

			srv := server.New(server.Options{File: file, Users: accounts})
			fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s\n", addr)
			return srv.Start(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":5000", "Listen address")
	cmd.Flags().StringVar(&file, "file", "", "Persist roadmap state to this JSON file")
	cmd.Flags().StringArrayVar(&users, "user", nil, "Account as name:password (repeatable; default admin:admin)")
	return cmd
}
