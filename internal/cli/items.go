package cli

import (
	"fmt"
	"strconv"
	"strings"

	"roadmap-cli/internal/api"
	"roadmap-cli/internal/board"
	"roadmap-cli/internal/edit"
	"roadmap-cli/internal/model"
	"roadmap-cli/internal/status"

	"github.com/spf13/cobra"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Roadmap item commands",
	}
	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsShowCmd(app))
	cmd.AddCommand(newItemsCreateCmd(app))
	cmd.AddCommand(newItemsSetCmd(app))
	cmd.AddCommand(newItemsMoveCmd(app))
	cmd.AddCommand(newItemsDeleteCmd(app))
	cmd.AddCommand(newItemsVoteCmd(app))
	return cmd
}

func parseItemID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id: %q", arg)
	}
	return id, nil
}

func newItemsListCmd(app *App) *cobra.Command {
	var (
		statusFilter string
		category     string
		search       string
		sortKey      string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List roadmap items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rm, err := app.client.FetchRoadmap(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			q := board.Query{Search: search, Sort: board.SortKey(sortKey)}
			if c := strings.TrimSpace(category); c != "" {
				q.Categories = map[string]bool{c: true}
			}
			items := board.Filter(rm.Items, q)

			if s := strings.TrimSpace(statusFilter); s != "" {
				st, err := status.Normalize(s)
				if err != nil {
					return writeErr(cmd, err)
				}
				kept := items[:0]
				for _, it := range items {
					if it.Status == st {
						kept = append(kept, it)
					}
				}
				items = kept
			}
			return writeOut(cmd, app, items)
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (BACKLOG|PLANNED|NEXT|IN_PROGRESS|DONE)")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&search, "search", "", "Substring search across name/description/category")
	cmd.Flags().StringVar(&sortKey, "sort", "priority", "Sort key (priority|id|name|impact|ease)")
	return cmd
}

func newItemsShowCmd(app *App) *cobra.Command {
	var withComments bool

	cmd := &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			rm, err := app.client.FetchRoadmap(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			for _, it := range rm.Items {
				if it.ID != id {
					continue
				}
				if !withComments {
					return writeOut(cmd, app, it)
				}
				cs, err := app.client.ListComments(cmd.Context(), id)
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, struct {
					Item     model.Item      `json:"item"`
					Comments []model.Comment `json:"comments"`
				}{Item: it, Comments: cs})
			}
			return writeErr(cmd, fmt.Errorf("item not found: %d", id))
		},
	}

	cmd.Flags().BoolVar(&withComments, "comments", false, "Include the comment thread")
	return cmd
}

func newItemsCreateCmd(app *App) *cobra.Command {
	var (
		in       api.CreateItemInput
		impact   float64
		ease     float64
		priority float64
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a roadmap item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = strings.TrimSpace(args[0])
			if in.Name == "" {
				return writeErr(cmd, fmt.Errorf("name is required"))
			}
			if cmd.Flags().Changed("impact") {
				in.ImpactScore = &impact
			}
			if cmd.Flags().Changed("ease") {
				in.EaseScore = &ease
			}
			if cmd.Flags().Changed("priority") {
				in.PriorityScore = &priority
			}

			it, err := app.client.CreateItem(cmd.Context(), in)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, it)
		},
	}

	cmd.Flags().StringVar(&in.Category, "category", "", "Category")
	cmd.Flags().StringVar(&in.Status, "status", "", "Initial status (default BACKLOG)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description (markdown)")
	cmd.Flags().StringVar(&in.Owner, "owner", "", "Owner")
	cmd.Flags().Float64Var(&impact, "impact", 0, "Impact score 0-10")
	cmd.Flags().Float64Var(&ease, "ease", 0, "Ease score 0-10")
	cmd.Flags().Float64Var(&priority, "priority", 0, "Priority score 0-10")
	return cmd
}

func newItemsSetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <item-id> <field> <value>",
		Short: "Set one field (full-snapshot save, like an inline edit)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			fieldName := strings.TrimSpace(args[1])

			rm, err := app.client.FetchRoadmap(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			var target *model.Item
			for i := range rm.Items {
				if rm.Items[i].ID == id {
					target = &rm.Items[i]
					break
				}
			}
			if target == nil {
				return writeErr(cmd, fmt.Errorf("item not found: %d", id))
			}

			field, ok := edit.FieldByName(fieldName)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown field: %q", fieldName))
			}
			if field.Kind == edit.FieldStatus {
				return writeErr(cmd, fmt.Errorf("use `roadmap items move` to change status"))
			}
			edit.Apply(target, field, args[2])

			saved, err := app.client.UpdateItem(cmd.Context(), *target, app.cfg.Identity)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, saved)
		},
	}
	return cmd
}

func newItemsMoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <item-id> <status>",
		Short: "Move an item to another column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := status.Normalize(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			it, err := app.client.UpdateStatus(cmd.Context(), id, st)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, it)
		},
	}
	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if !yes {
				return writeErr(cmd, fmt.Errorf("refusing to delete item %d without --yes", id))
			}
			if err := app.client.DeleteItem(cmd.Context(), id); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]int{"deleted": id})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func newItemsVoteCmd(app *App) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "vote <item-id>",
		Short: "Vote on an item (requires login)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			dir := model.VoteUp
			if down {
				dir = model.VoteDown
			}
			res, err := app.client.Vote(cmd.Context(), id, dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, res)
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Vote down instead of up")
	return cmd
}
