package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Prefs holds small client-local UX state: theme preference, per-item+section
// collapsible flags, and the daily celebration count. None of it is ever sent
// to the server and all of it may be dropped without correctness impact, so
// reads are best-effort (a broken database degrades to defaults).
type Prefs struct {
	db *sql.DB
}

const prefsSchema = `
CREATE TABLE IF NOT EXISTS prefs (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS collapsed_sections (
	item_id   INTEGER NOT NULL,
	section   TEXT NOT NULL,
	collapsed INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (item_id, section)
);
CREATE TABLE IF NOT EXISTS celebrations (
	day   TEXT PRIMARY KEY,
	count INTEGER NOT NULL DEFAULT 0
);
`

// DefaultPrefsPath resolves the per-user prefs database location.
func DefaultPrefsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "roadmap", "prefs.sqlite"), nil
}

func OpenPrefs(path string) (*Prefs, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("prefs path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open prefs db: %w", err)
	}
	if _, err := db.Exec(prefsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init prefs schema: %w", err)
	}
	return &Prefs{db: db}, nil
}

func (p *Prefs) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Prefs) get(ctx context.Context, key string) string {
	if p == nil || p.db == nil {
		return ""
	}
	var v string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&v)
	if err != nil {
		return ""
	}
	return v
}

func (p *Prefs) set(ctx context.Context, key, value string) error {
	if p == nil || p.db == nil {
		return nil
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO prefs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Theme returns "dark", "light", or "" (follow the terminal).
func (p *Prefs) Theme(ctx context.Context) string {
	return p.get(ctx, "theme")
}

func (p *Prefs) SetTheme(ctx context.Context, theme string) error {
	return p.set(ctx, "theme", theme)
}

func (p *Prefs) SectionCollapsed(ctx context.Context, itemID int, section string) bool {
	if p == nil || p.db == nil {
		return false
	}
	var collapsed int
	err := p.db.QueryRowContext(ctx,
		`SELECT collapsed FROM collapsed_sections WHERE item_id = ? AND section = ?`,
		itemID, section).Scan(&collapsed)
	if err != nil {
		return false
	}
	return collapsed != 0
}

func (p *Prefs) SetSectionCollapsed(ctx context.Context, itemID int, section string, collapsed bool) error {
	if p == nil || p.db == nil {
		return nil
	}
	v := 0
	if collapsed {
		v = 1
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO collapsed_sections (item_id, section, collapsed) VALUES (?, ?, ?)
		 ON CONFLICT(item_id, section) DO UPDATE SET collapsed = excluded.collapsed`,
		itemID, section, v)
	return err
}

// CelebrationCount returns how many DONE celebrations fired on the given
// calendar day (YYYY-MM-DD).
func (p *Prefs) CelebrationCount(ctx context.Context, day string) int {
	if p == nil || p.db == nil {
		return 0
	}
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT count FROM celebrations WHERE day = ?`, day).Scan(&n)
	if err != nil {
		return 0
	}
	return n
}

func (p *Prefs) IncrCelebrations(ctx context.Context, day string) (int, error) {
	if p == nil || p.db == nil {
		return 0, nil
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO celebrations (day, count) VALUES (?, 1)
		 ON CONFLICT(day) DO UPDATE SET count = count + 1`, day)
	if err != nil {
		return 0, err
	}
	return p.CelebrationCount(ctx, day), nil
}
