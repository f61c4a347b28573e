package tui

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	debugOnce sync.Once
	debugPath string
)

// debugLogf appends one timestamped line to the file named by
// ROADMAP_TUI_DEBUG_LOG. No-op when unset; write failures are swallowed so
// diagnostics can never break the UI.
func debugLogf(format string, args ...any) {
	debugOnce.Do(func() {
		debugPath = strings.TrimSpace(os.Getenv("ROADMAP_TUI_DEBUG_LOG"))
	})
	if debugPath == "" {
		return
	}
	f, err := os.OpenFile(debugPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s "+format+"\n", append([]any{time.Now().Format("15:04:05.000")}, args...)...)
}
