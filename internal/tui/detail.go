package tui

import (
	"context"
	"fmt"
	"strings"

	"roadmap-cli/internal/edit"
	"roadmap-cli/internal/model"
	"roadmap-cli/internal/status"

	"github.com/charmbracelet/lipgloss"
)

// fieldLabels maps editable field names to their display labels.
var fieldLabels = map[string]string{
	"name":              "Name",
	"category":          "Category",
	"description":       "Description",
	"business_impact":   "Business impact",
	"outcome":           "Outcome",
	"success_metric":    "Success metric",
	"owner":             "Owner",
	"dependencies":      "Dependencies",
	"build_time":        "Build time",
	"impact_score":      "Impact",
	"ease_score":        "Ease",
	"priority_score":    "Priority",
	"start_date":        "Started",
	"expected_delivery": "Expected delivery",
	"completed_date":    "Completed",
}

func (m appModel) renderDetail(width, height int) string {
	it, ok := m.detailItem()
	if !ok {
		return normalizePane(styleMuted().Render("Item no longer exists."), width, height)
	}

	innerW := width - 2
	if innerW > 96 {
		innerW = 96
	}
	if innerW < 30 {
		innerW = 30
	}

	var lines []string
	add := func(s string) {
		lines = append(lines, strings.Split(s, "\n")...)
	}

	// Header: name, status chip, category, votes.
	add(m.renderFieldRow(it, "name", innerW))
	add(m.renderStatusRow(it, innerW))
	add("")

	for _, name := range []string{"category", "owner", "build_time"} {
		add(m.renderFieldRow(it, name, innerW))
	}
	add(m.renderScoresRow(it, innerW))
	add(m.renderDatesRow(it, innerW))
	add("")

	add(m.renderSection(it, "description", innerW))
	for _, name := range []string{"business_impact", "outcome", "success_metric", "dependencies"} {
		add(m.renderSection(it, name, innerW))
	}

	add(m.renderActivity(it, innerW))
	add(m.renderComments(innerW))

	body := strings.Join(lines, "\n")

	// Simple scroll window over the assembled page.
	all := strings.Split(body, "\n")
	top := m.detailScroll
	if top > len(all)-1 {
		top = len(all) - 1
	}
	if top < 0 {
		top = 0
	}
	if top+height < len(all) {
		all = all[top : top+height]
	} else {
		all = all[top:]
	}
	return normalizePane(" "+strings.Join(all, "\n "), width, height)
}

// regionStyle styles an editable region by its reconciler state: active gets
// the input treatment, saving shows the optimistic value plus an indicator.
func (m appModel) regionValue(it model.Item, name string, width int) string {
	field, ok := edit.FieldByName(name)
	if !ok {
		return ""
	}
	selected := detailFields[m.detailField] == name

	switch m.ctrl.State(it.ID, name) {
	case edit.StateActive:
		if m.editingMulti {
			return m.editArea.View()
		}
		return m.editInput.View()
	case edit.StateSaving:
		v := edit.Value(it, field)
		return v + " " + styleMuted().Render("saving…")
	}

	v := edit.Value(it, field)
	display := v
	muted := false
	if isTBD(v) {
		display = "TBD"
		if v == "" {
			display = "—"
		}
		muted = true
	}
	display = truncateText(display, width)

	st := lipgloss.NewStyle()
	if muted {
		st = styleMuted()
	}
	if selected {
		st = st.Background(colorSelectedBg).Foreground(colorSelectedFg)
	}
	return st.Render(display)
}

func (m appModel) fieldLabel(name string) string {
	lbl := fieldLabels[name]
	st := faintIfDark(lipgloss.NewStyle().Foreground(colorChromeMutedFg))
	if detailFields[m.detailField] == name {
		st = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	}
	return st.Render(lbl)
}

func (m appModel) renderFieldRow(it model.Item, name string, width int) string {
	if name == "name" {
		// Name renders as the page title.
		if m.ctrl.State(it.ID, "name") == edit.StateActive {
			return m.editInput.View()
		}
		title := strings.TrimSpace(it.Name)
		if title == "" {
			title = "(untitled)"
		}
		st := lipgloss.NewStyle().Bold(true)
		if detailFields[m.detailField] == "name" {
			st = st.Background(colorSelectedBg).Foreground(colorSelectedFg)
		}
		out := st.Render(truncateText(title, width))
		if m.ctrl.Saving(it.ID, "name") {
			out += " " + styleMuted().Render("saving…")
		}
		return out
	}
	return m.fieldLabel(name) + ": " + m.regionValue(it, name, width-18)
}

func (m appModel) renderStatusRow(it model.Item, width int) string {
	accent, ok := statusAccent[it.Status]
	if !ok {
		accent = colorMuted
	}
	chip := lipgloss.NewStyle().Foreground(accent).Bold(true).Render(status.Label(it.Status))
	meta := []string{chip}
	if it.VoteCount > 0 {
		meta = append(meta, fmt.Sprintf("▲%d", it.VoteCount))
	}
	if it.UserVote != nil {
		meta = append(meta, styleMuted().Render("voted "+string(*it.UserVote)))
	}
	if days := overdueDays(it, m.now()); days > 0 {
		meta = append(meta, lipgloss.NewStyle().Foreground(colorError).Render(plural(days, "day")+" overdue"))
	}
	if added := formatDate(it.AddedDate); added != "" {
		meta = append(meta, styleMuted().Render("added "+added))
	}
	return truncateText(strings.Join(meta, "  "), width)
}

func (m appModel) renderScoresRow(it model.Item, width int) string {
	parts := make([]string, 0, 3)
	for _, name := range []string{"impact_score", "ease_score", "priority_score"} {
		parts = append(parts, m.fieldLabel(name)+" "+m.regionValue(it, name, 12))
	}
	return truncateText(strings.Join(parts, "   "), width)
}

func (m appModel) renderDatesRow(it model.Item, width int) string {
	parts := make([]string, 0, 3)
	for _, name := range []string{"start_date", "expected_delivery", "completed_date"} {
		parts = append(parts, m.fieldLabel(name)+" "+m.regionValue(it, name, 14))
	}
	return truncateText(strings.Join(parts, "   "), width)
}

// renderSection renders a multiline text block with a collapsible header.
func (m appModel) renderSection(it model.Item, name string, width int) string {
	collapsed := m.prefs.SectionCollapsed(context.Background(), it.ID, name)
	marker := "▾"
	if collapsed {
		marker = "▸"
	}
	header := m.fieldLabel(name) + " " + styleMuted().Render(marker)

	if collapsed {
		return header + "\n"
	}

	if m.ctrl.State(it.ID, name) == edit.StateActive {
		if m.editingMulti {
			return header + "\n" + m.editArea.View() + "\n"
		}
		return header + "\n" + m.editInput.View() + "\n"
	}

	field, _ := edit.FieldByName(name)
	v := edit.Value(it, field)
	var body string
	if isTBD(v) {
		body = styleMuted().Render("TBD")
		if strings.TrimSpace(v) == "" {
			body = styleMuted().Render("—")
		}
	} else if name == "description" {
		body = renderMarkdown(v, width-2)
	} else {
		body = strings.Join(wrapPlainTextWithPrefix(v, width-2, "", ""), "\n")
	}
	if m.ctrl.Saving(it.ID, name) {
		body += "\n" + styleMuted().Render("saving…")
	}
	return header + "\n" + body + "\n"
}

func (m appModel) renderActivity(it model.Item, width int) string {
	if len(it.EditHistory) == 0 {
		return ""
	}
	lines := []string{faintIfDark(lipgloss.NewStyle().Foreground(colorChromeMutedFg)).Render("Activity")}
	// Newest first; cap the visible log.
	shown := 0
	for i := len(it.EditHistory) - 1; i >= 0 && shown < 8; i-- {
		h := it.EditHistory[i]
		who := h.EditedBy
		if strings.TrimSpace(who) == "" {
			who = "anonymous"
		}
		lbl := fieldLabels[h.Field]
		if lbl == "" {
			lbl = h.Field
		}
		entry := fmt.Sprintf("%s changed %s  %s", who, strings.ToLower(lbl), relativeTime(h.Timestamp, m.now()))
		lines = append(lines, styleMuted().Render(truncateText(entry, width)))
		shown++
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m appModel) renderComments(width int) string {
	header := faintIfDark(lipgloss.NewStyle().Foreground(colorChromeMutedFg)).Render(
		fmt.Sprintf("Comments (%d)", len(m.comments)))
	lines := []string{header}

	for i, c := range m.comments {
		who := lipgloss.NewStyle().Bold(true).Render(c.Author)
		when := styleMuted().Render(relativeTime(c.CreatedAt, m.now()))
		head := who + "  " + when
		if i == m.commentIdx {
			head = lipgloss.NewStyle().Background(colorSelectedBg).Render(head)
		}
		lines = append(lines, head)
		lines = append(lines, wrapPlainTextWithPrefix(c.Comment, width-2, "  ", "  ")...)
	}

	if m.writingComment {
		lines = append(lines, m.commentInput.View())
	} else if len(m.comments) == 0 {
		lines = append(lines, styleMuted().Render("No comments yet. Press c to add one."))
	}
	return strings.Join(lines, "\n")
}
