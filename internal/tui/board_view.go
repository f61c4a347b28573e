package tui

import (
	"fmt"
	"strings"

	"roadmap-cli/internal/model"
	"roadmap-cli/internal/status"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// renderColumns renders the five status columns side by side.
func (m appModel) renderColumns(width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	n := len(m.board.Cols)
	if n == 0 {
		return normalizePane("", width, height)
	}
	sel := m.board.Clamp(m.sel)

	gap := 2
	avail := width - gap*(n-1)
	if avail < n {
		avail = n
	}
	colW := avail / n
	if colW < 12 {
		colW = 12
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Background(colorControlBg)
	headerSelectedStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
	muted := styleMuted()

	rendered := make([]string, 0, n)
	for ci, c := range m.board.Cols {
		head := fmt.Sprintf("%s (%d)", c.Label, len(c.Items))
		head = truncateText(head, colW)
		hs := headerStyle
		if ci == sel.Col {
			hs = headerSelectedStyle
		}
		if accent, ok := statusAccent[c.Status]; ok && ci != sel.Col {
			hs = hs.Foreground(accent)
		}

		lines := []string{hs.Width(colW).Render(head)}
		if len(c.Items) == 0 {
			lines = append(lines, muted.Render("(empty)"))
			rendered = append(rendered, normalizePane(strings.Join(lines, "\n"), colW, height))
			continue
		}

		lines = append(lines, "")
		for ii, it := range c.Items {
			card := m.renderCard(it, c.Status, colW, ci == sel.Col && ii == sel.Item)
			lines = append(lines, strings.Split(card, "\n")...)
			if ii < len(c.Items)-1 {
				sepW := colW - 2
				if sepW < 0 {
					sepW = 0
				}
				lines = append(lines, muted.Render(" "+strings.Repeat("─", sepW)+" "))
			}
		}
		rendered = append(rendered, normalizePane(strings.Join(lines, "\n"), colW, height))
	}

	// Insert gaps manually because JoinHorizontal doesn't provide inter-column spacing.
	out := rendered[0]
	sep := strings.Repeat(" ", gap)
	for i := 1; i < len(rendered); i++ {
		out = lipgloss.JoinHorizontal(lipgloss.Top, out, sep, rendered[i])
	}
	return normalizePane(out, width, height)
}

// renderCard renders one item inside a column. Whitespace defines the "card",
// not borders (borders read like a continuous list when stacked).
func (m appModel) renderCard(it model.Item, colStatus string, colW int, selected bool) string {
	innerW := colW - 2
	if innerW < 0 {
		innerW = 0
	}

	name := strings.TrimSpace(it.Name)
	if name == "" {
		name = "(untitled)"
	}
	titleLines := wrapPlainTextWithPrefix(name, innerW, "", "")

	titleStyle := lipgloss.NewStyle().Bold(true)
	if selected {
		titleStyle = titleStyle.Foreground(colorSelectedFg).Background(colorSelectedBg)
	} else if status.IsTerminal(colStatus) {
		titleStyle = faintIfDark(lipgloss.NewStyle()).Foreground(colorMuted)
	}

	metaStyle := faintIfDark(lipgloss.NewStyle().Foreground(colorCardMetaFg))
	if selected {
		metaStyle = metaStyle.Background(colorSelectedBg)
	}

	tokens := make([]string, 0, 5)
	if c := strings.TrimSpace(it.Category); c != "" && !strings.EqualFold(c, "Uncategorized") {
		catStyle := lipgloss.NewStyle().Foreground(categoryAccent(c))
		if selected {
			catStyle = catStyle.Background(colorSelectedBg)
		}
		tokens = append(tokens, catStyle.Render(truncateText(c, 14)))
	}
	if it.PriorityScore > 0 {
		tokens = append(tokens, fmt.Sprintf("p%.2g", it.PriorityScore))
	}
	if !isTBD(it.Owner) {
		tokens = append(tokens, it.Owner)
	}
	if it.VoteCount > 0 {
		tokens = append(tokens, fmt.Sprintf("▲%d", it.VoteCount))
	}
	if days := overdueDays(it, m.now()); days > 0 {
		overdueStyle := lipgloss.NewStyle().Foreground(colorError)
		if selected {
			overdueStyle = overdueStyle.Background(colorSelectedBg)
		}
		tokens = append(tokens, overdueStyle.Render(plural(days, "day")+" overdue"))
	}
	if m.celebrating && it.Status == status.Done && !it.LastTouched.IsZero() {
		tokens = append(tokens, lipgloss.NewStyle().Foreground(colorCelebrate).Render("✦ done!"))
	}

	content := make([]string, 0, len(titleLines)+1)
	for _, ln := range titleLines {
		content = append(content, titleStyle.Render(ln))
	}
	if len(tokens) > 0 {
		meta := strings.Join(tokens, "  ")
		if xansi.StringWidth(meta) > innerW {
			meta = truncateText(meta, innerW)
		}
		content = append(content, metaStyle.Render(meta))
	}

	inner := normalizePane(strings.Join(content, "\n"), innerW, 0)
	st := lipgloss.NewStyle().Width(colW).Padding(0, 1)
	if selected {
		st = st.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	}
	return st.Render(inner)
}
