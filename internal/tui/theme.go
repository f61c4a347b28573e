package tui

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme/palette helpers.
//
// The TUI must remain readable on both light and dark terminal backgrounds.
// We use lipgloss.AdaptiveColor where possible and only apply "faint" styling
// on dark backgrounds (faint text on light terminals often becomes illegible).

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

// Common semantic colors used across the TUI.
var (
	colorMuted lipgloss.TerminalColor = ac("240", "243")

	// Used for headings and other secondary chrome.
	colorChromeMutedFg lipgloss.TerminalColor = ac("240", "245")

	colorSelectedBg     lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg     lipgloss.TerminalColor = ac("235", "255")
	colorSelectedBorder lipgloss.TerminalColor = ac("232", "255")

	colorSurfaceBg lipgloss.TerminalColor = ac("255", "235")
	colorSurfaceFg lipgloss.TerminalColor = ac("235", "252")

	// Slightly elevated surface for controls/inputs so they remain visible on light terminals.
	colorControlBg lipgloss.TerminalColor = ac("252", "235")
	colorInputBg   lipgloss.TerminalColor = ac("254", "234")

	colorAccent   lipgloss.TerminalColor = ac("27", "62") // blue
	colorAccentFg lipgloss.TerminalColor = ac("255", "235")

	colorSuccess lipgloss.TerminalColor = ac("28", "40")  // green
	colorError   lipgloss.TerminalColor = ac("160", "203")
	colorWarning lipgloss.TerminalColor = ac("130", "214")

	// Card metadata (small secondary labels inside cards).
	colorCardMetaFg lipgloss.TerminalColor = ac("238", "250")

	// Short-lived background flash feedback (failed save rollback).
	colorFlashErrorBg lipgloss.TerminalColor = ac("196", "160")

	// Celebration accent for items landing in the terminal column.
	colorCelebrate lipgloss.TerminalColor = ac("127", "213")
)

// statusAccent maps a status to its column accent color.
var statusAccent = map[string]lipgloss.TerminalColor{
	"BACKLOG":     ac("245", "245"),
	"PLANNED":     ac("27", "75"),
	"NEXT":        ac("130", "214"),
	"IN_PROGRESS": ac("33", "81"),
	"DONE":        ac("28", "40"),
}

// categoryPalette holds the chip accents cycled through by category name.
// Categories come from the server so the assignment must be deterministic,
// not positional (a filtered reload must not recolor everything).
var categoryPalette = []lipgloss.TerminalColor{
	ac("27", "75"),   // blue
	ac("89", "176"),  // purple
	ac("28", "114"),  // green
	ac("130", "214"), // orange
	ac("30", "80"),   // teal
	ac("125", "211"), // pink
}

func categoryAccent(name string) lipgloss.TerminalColor {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "uncategorized" {
		return colorMuted
	}
	var h uint32 = 2166136261
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= 16777619
	}
	return categoryPalette[h%uint32(len(categoryPalette))]
}

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

// applyColorProfilePreference sets Lip Gloss's color profile for the interactive TUI.
//
// Note: termenv.EnvColorProfile respects CLICOLOR/CLICOLOR_FORCE, which is useful for
// non-interactive CLI output but can accidentally disable colors in a TUI. For the TUI,
// we only honor NO_COLOR and otherwise follow the terminal's capabilities.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	// Start from termenv's best guess.
	profile := termenv.ColorProfile()

	// If TERM/COLORTERM indicate stronger support than the detector reports, trust
	// the env. Color probing under-reports on some terminals (macOS Terminal.app),
	// which degrades the palette to grays.
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") {
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}

	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures Lip Gloss's background detection.
//
// Some terminals don't reliably report their background, which can cause
// lipgloss.AdaptiveColor to pick the wrong variant.
//
// Priority:
// 1) explicit config value ("light"/"dark")
// 2) ROADMAP_TUI_THEME=light|dark|auto
// 3) COLORFGBG heuristic (format like "15;0" = fg;bg)
// 4) macOS appearance
func applyThemePreference(configured string) {
	switch strings.ToLower(strings.TrimSpace(configured)) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}

	if v := strings.TrimSpace(os.Getenv("ROADMAP_TUI_THEME")); v != "" {
		switch strings.ToLower(v) {
		case "light":
			lipgloss.SetHasDarkBackground(false)
			return
		case "dark":
			lipgloss.SetHasDarkBackground(true)
			return
		}
	}

	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		bgStr := strings.TrimSpace(parts[len(parts)-1])
		if bg, err := strconv.Atoi(bgStr); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
			return
		}
	}

	if runtime.GOOS == "darwin" {
		if dark, ok := macOSHasDarkAppearance(); ok {
			lipgloss.SetHasDarkBackground(dark)
			return
		}
	}
}

// toggleThemePreference flips the light/dark variant in place and returns the
// name of the theme now active, suitable for saving in prefs.
func toggleThemePreference() string {
	dark := !lipgloss.HasDarkBackground()
	lipgloss.SetHasDarkBackground(dark)
	if dark {
		return "dark"
	}
	return "light"
}

func macOSHasDarkAppearance() (dark bool, ok bool) {
	// `defaults read -g AppleInterfaceStyle` prints "Dark" in dark mode and returns exit
	// status 1 in light mode (key missing).
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	out, err := exec.CommandContext(ctx, "defaults", "read", "-g", "AppleInterfaceStyle").CombinedOutput()
	if ctx.Err() != nil {
		return false, false
	}
	if err == nil {
		return strings.Contains(strings.ToLower(string(out)), "dark"), true
	}
	if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
		return false, true
	}
	return false, false
}
