package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func modalBox(title string, body string) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorSurfaceFg).
		Background(colorControlBg).
		Padding(0, 1).
		Render(title)
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSelectedBorder).
		Padding(1, 2)
	return frame.Render(header + "\n\n" + body)
}

func buttonRow(labels []string, focused int) string {
	parts := make([]string, 0, len(labels))
	for i, lbl := range labels {
		st := lipgloss.NewStyle().Padding(0, 1).Foreground(colorSurfaceFg).Background(colorControlBg)
		if i == focused {
			st = st.Foreground(colorAccentFg).Background(colorAccent).Bold(true)
		}
		parts = append(parts, st.Render(lbl))
	}
	return strings.Join(parts, "  ")
}

func (m appModel) renderModal() string {
	switch m.modal {
	case modalAddItem:
		return m.renderAddModal()
	case modalLogin:
		return m.renderLoginModal()
	case modalConfirmDelete:
		return m.renderConfirmModal()
	}
	return ""
}

func (m appModel) renderAddModal() string {
	rows := []string{
		m.addInputs[addFocusName].View(),
		m.addInputs[addFocusCategory].View(),
		m.addInputs[addFocusImpact].View(),
		m.addInputs[addFocusEase].View(),
		"",
	}
	focusedButton := -1
	switch m.addFocus {
	case addFocusSave:
		focusedButton = 0
	case addFocusCancel:
		focusedButton = 1
	}
	rows = append(rows, buttonRow([]string{"Add", "Cancel"}, focusedButton))
	if m.addErr != "" {
		rows = append(rows, "", lipgloss.NewStyle().Foreground(colorError).Render(m.addErr))
	}
	return modalBox("New roadmap item", strings.Join(rows, "\n"))
}

func (m appModel) renderLoginModal() string {
	remember := "[ ] remember me (ctrl+r)"
	if m.loginRemember {
		remember = "[x] remember me (ctrl+r)"
	}
	rows := []string{
		m.loginInputs[0].View(),
		m.loginInputs[1].View(),
		styleMuted().Render(remember),
		"",
	}
	focusedButton := -1
	switch m.loginFocus {
	case loginFocusSubmit:
		focusedButton = 0
	case loginFocusCancel:
		focusedButton = 1
	}
	rows = append(rows, buttonRow([]string{"Login", "Cancel"}, focusedButton))
	if m.loginErr != "" {
		rows = append(rows, "", lipgloss.NewStyle().Foreground(colorError).Render(m.loginErr))
	}
	return modalBox("Login", strings.Join(rows, "\n"))
}

func (m appModel) renderConfirmModal() string {
	name := ""
	if it, ok := m.items.Get(m.confirmDeleteID); ok {
		name = it.Name
	}
	body := "Delete \"" + name + "\"?\n\n" + styleMuted().Render("y: delete  n: keep")
	return modalBox("Confirm delete", body)
}
