package cli

import (
	"roadmap-cli/internal/model"
	"roadmap-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var (
		toDir        string
		overwrite    bool
		withComments bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the board as browsable markdown",
		Long: "Writes index.md plus one page per item under items/. Useful for\n" +
			"publishing a read-only snapshot to a wiki or static site.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rm, err := app.client.FetchRoadmap(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			var comments map[int][]model.Comment
			if withComments {
				comments = make(map[int][]model.Comment, len(rm.Items))
				for _, it := range rm.Items {
					cs, err := app.client.ListComments(cmd.Context(), it.ID)
					if err != nil {
						return writeErr(cmd, err)
					}
					comments[it.ID] = cs
				}
			}

			res, err := publish.WriteBoard(rm, comments, toDir, publish.WriteOptions{Overwrite: overwrite})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, res)
		},
	}

	cmd.Flags().StringVar(&toDir, "to", "", "Output directory (required)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	cmd.Flags().BoolVar(&withComments, "comments", false, "Include comment threads on item pages")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
