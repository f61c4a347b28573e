package status

import (
	"fmt"
	"strings"
)

// The five board statuses, in fixed column order. The order never changes and
// is never derived from content.
const (
	Backlog    = "BACKLOG"
	Planned    = "PLANNED"
	Next       = "NEXT"
	InProgress = "IN_PROGRESS"
	Done       = "DONE"
)

var ordered = []string{Backlog, Planned, Next, InProgress, Done}

var labels = map[string]string{
	Backlog:    "Backlog",
	Planned:    "Planned",
	Next:       "Next",
	InProgress: "In Progress",
	Done:       "Done",
}

// All returns the statuses in column order. Callers must not mutate the result.
func All() []string {
	return ordered
}

func Normalize(s string) (string, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	up = strings.ReplaceAll(up, " ", "_")
	up = strings.ReplaceAll(up, "-", "_")
	for _, st := range ordered {
		if up == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q (must be one of: %s)", s, strings.Join(ordered, ", "))
}

func Valid(s string) bool {
	_, err := Normalize(s)
	return err == nil
}

func Label(s string) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return s
}

// Index returns the column position of s, or -1 for unknown statuses.
func Index(s string) int {
	for i, st := range ordered {
		if st == s {
			return i
		}
	}
	return -1
}

// Prev returns the status one column to the left, clamped at the first column.
func Prev(s string) string {
	i := Index(s)
	if i <= 0 {
		return s
	}
	return ordered[i-1]
}

// Next ("Succ" to avoid colliding with the constant) returns the status one
// column to the right, clamped at the last column.
func Succ(s string) string {
	i := Index(s)
	if i < 0 || i >= len(ordered)-1 {
		return s
	}
	return ordered[i+1]
}

// IsTerminal reports whether s is the end state that triggers the celebration
// on first entry.
func IsTerminal(s string) bool {
	return s == Done
}
