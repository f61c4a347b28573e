package tui

import (
	"fmt"
	"strings"
	"time"

	"roadmap-cli/internal/model"
	"roadmap-cli/internal/status"
)

// formatDate renders "2025-03-10" as "Mar 10", falling back to the raw string
// when it doesn't parse.
func formatDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return parsed.Format("Jan 2")
}

func formatDatePtr(p *string) string {
	if p == nil {
		return ""
	}
	return formatDate(*p)
}

// relativeTime renders a short "how long ago" label for activity entries.
func relativeTime(t time.Time, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// isTBD reports whether a field value is placeholder text that should render
// muted instead of as real content.
func isTBD(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.HasPrefix(strings.ToUpper(v), "TBD")
}

// overdueDays returns how many days past its expected delivery an in-progress
// item is. Zero means not overdue (or not applicable).
func overdueDays(it model.Item, now time.Time) int {
	if it.Status != status.InProgress || it.ExpectedDelivery == nil {
		return 0
	}
	due, err := time.Parse("2006-01-02", strings.TrimSpace(*it.ExpectedDelivery))
	if err != nil {
		return 0
	}
	days := int(now.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
