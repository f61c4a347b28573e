package tui

import (
	"context"
	"path/filepath"
	"testing"

	"roadmap-cli/internal/store"

	"github.com/charmbracelet/lipgloss"
)

func openTestPrefs(t *testing.T) *store.Prefs {
	t.Helper()
	p, err := store.OpenPrefs(filepath.Join(t.TempDir(), "prefs.sqlite"))
	if err != nil {
		t.Fatalf("OpenPrefs: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestResolveTheme(t *testing.T) {
	p := openTestPrefs(t)
	if err := p.SetTheme(context.Background(), "light"); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}

	// Explicit config wins over the saved preference.
	if got := resolveTheme(p, "dark"); got != "dark" {
		t.Fatalf("explicit config: %q", got)
	}
	// Unset and "auto" fall back to the saved preference.
	if got := resolveTheme(p, ""); got != "light" {
		t.Fatalf("saved preference: %q", got)
	}
	if got := resolveTheme(p, "auto"); got != "light" {
		t.Fatalf("auto: %q", got)
	}
	// Without prefs, auto stays auto (terminal detection).
	if got := resolveTheme(nil, "auto"); got != "" {
		t.Fatalf("nil prefs: %q", got)
	}
}

func TestThemeToggleKeyPersists(t *testing.T) {
	orig := lipgloss.HasDarkBackground()
	t.Cleanup(func() { lipgloss.SetHasDarkBackground(orig) })

	p := openTestPrefs(t)
	fb := newFakeBackend(seedItems()...)
	m := newTestApp(t, fb)
	m.prefs = p

	m = press(t, m, runes("t"))
	if lipgloss.HasDarkBackground() == orig {
		t.Fatal("toggle did not flip the background variant")
	}
	want := "light"
	if lipgloss.HasDarkBackground() {
		want = "dark"
	}
	if got := p.Theme(context.Background()); got != want {
		t.Fatalf("persisted theme = %q, want %q", got, want)
	}

	// A second toggle restores the original variant and overwrites the pref.
	m = press(t, m, runes("t"))
	if lipgloss.HasDarkBackground() != orig {
		t.Fatal("second toggle should restore the original variant")
	}
}
