package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAuthCmds(app *App) []*cobra.Command {
	return []*cobra.Command{
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
	}
}

func newLoginCmd(app *App) *cobra.Command {
	var (
		password string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and keep the session cookie for this process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw := password
			if pw == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil {
					return writeErr(cmd, err)
				}
				pw = strings.TrimRight(line, "\r\n")
			}
			u, err := app.client.Login(cmd.Context(), args[0], pw, remember)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, u)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().BoolVar(&remember, "remember", false, "Ask the server for a long-lived session")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client.Logout(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]bool{"logged_out": true})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user, if any",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.client.CurrentUser(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if u == nil {
				return writeOut(cmd, app, map[string]any{"user": nil})
			}
			return writeOut(cmd, app, u)
		},
	}
}
