package tui

import (
	"context"
	"strings"

	"roadmap-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive board against the given backend. Prefs may be
// nil; persistence of theme, collapse state, and celebrations degrades
// gracefully.
func Run(backend Backend, prefs *store.Prefs, identity, theme string) error {
	applyColorProfilePreference()
	applyThemePreference(resolveTheme(prefs, theme))
	m := newAppModel(backend, prefs, identity)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// resolveTheme picks the theme to apply. Explicit config wins; otherwise the
// preference saved by the in-app toggle, then terminal detection.
func resolveTheme(prefs *store.Prefs, configured string) string {
	switch strings.ToLower(strings.TrimSpace(configured)) {
	case "", "auto":
		return prefs.Theme(context.Background())
	}
	return configured
}
