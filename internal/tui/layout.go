package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to be exactly width columns wide (ANSI-aware) and height
// lines tall. This makes split-pane rendering stable when using lipgloss.JoinHorizontal.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	lines := strings.Split(s, "\n")

	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}

	for i := range lines {
		ln := lines[i]
		// Fast path: avoid computing StringWidth on extremely long lines (can be slow).
		// If the raw string is huge, it's almost certainly visually wider than the pane;
		// cut it early so subsequent width computations are bounded.
		if width > 0 && len(ln) > 8192 {
			if width == 1 {
				ln = xansi.Cut(ln, 0, 1)
			} else {
				ln = xansi.Cut(ln, 0, width-1) + "…"
			}
		}

		w := xansi.StringWidth(ln)

		if w > width {
			if width <= 0 {
				ln = ""
			} else if width == 1 {
				ln = xansi.Cut(ln, 0, 1)
			} else {
				ln = xansi.Cut(ln, 0, width-1) + "…"
			}
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln = ln + strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}

	return strings.Join(lines, "\n")
}

func truncateText(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return xansi.Cut(s, 0, 1)
	}
	return xansi.Cut(s, 0, width-1) + "…"
}

// wrapPlainTextWithPrefix word-wraps s to maxW columns, applying firstPrefix on
// the first line and contPrefix on continuations. Overlong words are hard-cut.
func wrapPlainTextWithPrefix(s string, maxW int, firstPrefix, contPrefix string) []string {
	if maxW <= 0 {
		return []string{""}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{firstPrefix}
	}
	firstAvail := maxW - xansi.StringWidth(firstPrefix)
	contAvail := maxW - xansi.StringWidth(contPrefix)
	if firstAvail < 1 {
		firstAvail = 1
	}
	if contAvail < 1 {
		contAvail = 1
	}

	words := strings.Fields(s)
	lines := make([]string, 0, 4)
	linePrefix := firstPrefix
	avail := firstAvail

	cur := ""
	curW := 0
	flush := func() {
		lines = append(lines, linePrefix+cur)
		linePrefix = contPrefix
		avail = contAvail
		cur = ""
		curW = 0
	}
	hardCut := func(w string) {
		rest := w
		for xansi.StringWidth(rest) > avail {
			lines = append(lines, linePrefix+xansi.Cut(rest, 0, avail))
			rest = xansi.Cut(rest, avail, xansi.StringWidth(rest))
			linePrefix = contPrefix
			avail = contAvail
		}
		cur = rest
		curW = xansi.StringWidth(rest)
	}

	for _, w := range words {
		wordW := xansi.StringWidth(w)
		if cur == "" {
			if wordW <= avail {
				cur = w
				curW = wordW
				continue
			}
			hardCut(w)
			continue
		}
		if curW+1+wordW <= avail {
			cur = cur + " " + w
			curW = curW + 1 + wordW
			continue
		}
		flush()
		if wordW <= avail {
			cur = w
			curW = wordW
			continue
		}
		hardCut(w)
	}

	if cur != "" || len(lines) == 0 {
		lines = append(lines, linePrefix+cur)
	}
	return lines
}
