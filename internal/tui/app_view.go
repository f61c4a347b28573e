package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m appModel) View() string {
	width := m.width
	if width <= 0 {
		width = 100
	}
	height := m.height
	if height <= 0 {
		height = 30
	}

	header := m.renderHeader(width)
	footer := m.renderFooter(width)
	bodyH := height - lipgloss.Height(header) - lipgloss.Height(footer) - 2
	if bodyH < 6 {
		bodyH = 6
	}

	var body string
	switch {
	case m.modal != modalNone:
		body = lipgloss.Place(width, bodyH, lipgloss.Center, lipgloss.Center, m.renderModal())
	case m.loading:
		body = lipgloss.Place(width, bodyH, lipgloss.Center, lipgloss.Center, styleMuted().Render("Loading roadmap…"))
	case m.loadErr != "":
		msg := lipgloss.NewStyle().Foreground(colorError).Render("Could not load roadmap: "+m.loadErr) +
			"\n" + styleMuted().Render("r: retry  q: quit")
		body = lipgloss.Place(width, bodyH, lipgloss.Center, lipgloss.Center, msg)
	case m.view == viewDetail:
		body = m.renderDetail(width, bodyH)
	default:
		body = m.renderColumns(width, bodyH)
	}

	return strings.Join([]string{header, body, footer}, "\n\n")
}

func (m appModel) renderHeader(width int) string {
	title := lipgloss.NewStyle().Bold(true).Render("Roadmap")

	parts := []string{title}

	if m.user != nil {
		parts = append(parts, styleMuted().Render("@"+m.user.Username))
	} else {
		parts = append(parts, styleMuted().Render("(anonymous)"))
	}

	if m.searching {
		parts = append(parts, "/"+m.searchInput.View())
	} else if q := strings.TrimSpace(m.query.Search); q != "" {
		parts = append(parts, styleMuted().Render(fmt.Sprintf("search:%q", q)))
	}

	if cat := m.activeCategory(); cat != "" {
		parts = append(parts, styleMuted().Render("category:"+cat))
	}
	parts = append(parts, styleMuted().Render("sort:"+string(m.query.Sort)))

	if m.celebrating {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorCelebrate).Bold(true).Render("✦ nice work ✦"))
	}

	return truncateText(strings.Join(parts, "  "), width)
}

func (m appModel) renderFooter(width int) string {
	if m.toast != "" {
		st := lipgloss.NewStyle()
		switch m.toastKind {
		case toastError:
			st = st.Foreground(colorError)
		case toastSuccess:
			st = st.Foreground(colorSuccess)
		default:
			st = st.Foreground(colorChromeMutedFg)
		}
		return truncateText(st.Render(m.toast), width)
	}

	var help string
	switch {
	case m.modal == modalAddItem:
		help = "tab: next field  enter: save  esc: cancel"
	case m.modal == modalLogin:
		help = "tab: next field  ctrl+r: toggle remember  enter: login  esc: cancel"
	case m.modal == modalConfirmDelete:
		help = "y: delete  n/esc: keep"
	case m.view == viewDetail:
		if _, _, ok := m.ctrl.Active(); ok {
			if m.editingMulti {
				help = "ctrl+s: save  esc: cancel"
			} else {
				help = "enter: save  esc: cancel"
			}
		} else {
			help = "tab: field  enter: edit  shift+←/→: move  c: comment  v: vote  d: delete  esc: back"
		}
	default:
		help = "←↓↑→: navigate  enter: open  a: add  shift+←/→: move  /: search  o: sort  f: filter  v: vote  t: theme  i: login  q: quit"
	}
	return truncateText(faintIfDark(lipgloss.NewStyle()).Render(help), width)
}
