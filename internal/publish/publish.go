package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"roadmap-cli/internal/model"
)

type WriteOptions struct {
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteBoard writes a browsable markdown snapshot: index.md plus one page per
// item under items/. Comments are optional; pass nil to skip them.
func WriteBoard(rm *model.Roadmap, comments map[int][]model.Comment, toDir string, opt WriteOptions) (WriteResult, error) {
	if rm == nil {
		return WriteResult{}, errors.New("missing roadmap")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	itemsDir := filepath.Join(toDir, "items")
	if err := os.MkdirAll(itemsDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	indexPath := filepath.Join(toDir, "index.md")
	if err := writeFile(indexPath, []byte(RenderBoardMarkdown(rm)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}

	written := []string{indexPath}
	for _, it := range rm.Items {
		md := RenderItemMarkdown(it, comments[it.ID])
		p := filepath.Join(itemsDir, strconv.Itoa(it.ID)+".md")
		if err := writeFile(p, []byte(md), opt.Overwrite); err != nil {
			return WriteResult{}, err
		}
		written = append(written, p)
	}

	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
