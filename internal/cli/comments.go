package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newCommentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Comment thread commands",
	}

	list := &cobra.Command{
		Use:   "list <item-id>",
		Short: "List comments on an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			cs, err := app.client.ListComments(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, cs)
		},
	}

	add := &cobra.Command{
		Use:   "add <item-id> <text>",
		Short: "Add a comment (requires login)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			text := strings.TrimSpace(args[1])
			if text == "" {
				return writeErr(cmd, fmt.Errorf("comment text is required"))
			}
			c, err := app.client.AddComment(cmd.Context(), id, text)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, c)
		},
	}

	del := &cobra.Command{
		Use:   "delete <item-id> <comment-id>",
		Short: "Delete a comment (owner or admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			cid, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil || cid <= 0 {
				return writeErr(cmd, fmt.Errorf("invalid comment id: %q", args[1]))
			}
			if err := app.client.DeleteComment(cmd.Context(), id, cid); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]int{"deleted": cid})
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}
