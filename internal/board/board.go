package board

import (
	"sort"
	"strings"

	"roadmap-cli/internal/model"
	"roadmap-cli/internal/status"
)

type SortKey string

const (
	SortPriority SortKey = "priority"
	SortID       SortKey = "id"
	SortName     SortKey = "name"
	SortImpact   SortKey = "impact"
	SortEase     SortKey = "ease"
)

var SortKeys = []SortKey{SortPriority, SortID, SortName, SortImpact, SortEase}

// Query is the full filter/sort input. An empty category set means "all".
type Query struct {
	Search     string
	Categories map[string]bool
	Sort       SortKey
}

type Column struct {
	Status string
	Label  string
	Items  []model.Item
}

type Board struct {
	Cols []Column
}

func matches(it model.Item, q Query) bool {
	if len(q.Categories) > 0 && !q.Categories[it.Category] {
		return false
	}
	query := strings.ToLower(strings.TrimSpace(q.Search))
	if query == "" {
		return true
	}
	searchable := strings.ToLower(strings.Join([]string{
		it.Name, it.Description, it.Category, it.BusinessImpact, it.Dependencies,
	}, " "))
	return strings.Contains(searchable, query)
}

// less orders two items under the chosen key. Recency is always the primary
// tie-break: a just-touched item sorts before everything untouched so a
// just-moved or just-created card stays visible at the top of its column
// instead of jumping to wherever its score places it.
func less(a, b model.Item, key SortKey) bool {
	at, bt := !a.LastTouched.IsZero(), !b.LastTouched.IsZero()
	if at != bt {
		return at
	}
	if at && bt && !a.LastTouched.Equal(b.LastTouched) {
		return a.LastTouched.After(b.LastTouched)
	}
	switch key {
	case SortID:
		return a.ID < b.ID
	case SortName:
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	case SortImpact:
		return a.ImpactScore > b.ImpactScore
	case SortEase:
		return a.EaseScore > b.EaseScore
	default: // priority
		return a.PriorityScore > b.PriorityScore
	}
}

// Filter is a pure projection: same inputs, same ordered output. It never
// mutates its input slice.
func Filter(items []model.Item, q Query) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if matches(it, q) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j], q.Sort) })
	return out
}

// Build partitions the filtered set into the five fixed columns. Column order
// is fixed and never reordered by content; items with an unknown status are
// dropped from the board (they remain in the store).
func Build(items []model.Item, q Query) Board {
	filtered := Filter(items, q)
	cols := make([]Column, 0, len(status.All()))
	for _, st := range status.All() {
		cols = append(cols, Column{Status: st, Label: status.Label(st)})
	}
	for _, it := range filtered {
		idx := status.Index(it.Status)
		if idx < 0 {
			continue
		}
		cols[idx].Items = append(cols[idx].Items, it)
	}
	return Board{Cols: cols}
}

// Selection tracks board focus. ItemID is the stable handle, preferred over
// indexes so focus survives re-sorts and status changes.
type Selection struct {
	Col    int
	Item   int
	ItemID int
}

func (b Board) IndexOfItemID(itemID int) (int, int, bool) {
	if itemID == 0 {
		return 0, 0, false
	}
	for ci := range b.Cols {
		for ii := range b.Cols[ci].Items {
			if b.Cols[ci].Items[ii].ID == itemID {
				return ci, ii, true
			}
		}
	}
	return 0, 0, false
}

func (b Board) Clamp(sel Selection) Selection {
	if len(b.Cols) == 0 {
		return Selection{Col: 0, Item: -1}
	}
	if ci, ii, ok := b.IndexOfItemID(sel.ItemID); ok {
		sel.Col = ci
		sel.Item = ii
	} else {
		sel.ItemID = 0
	}
	if sel.Col < 0 {
		sel.Col = 0
	}
	if sel.Col >= len(b.Cols) {
		sel.Col = len(b.Cols) - 1
	}
	n := len(b.Cols[sel.Col].Items)
	if n == 0 {
		sel.Item = -1
		return sel
	}
	if sel.Item < 0 {
		sel.Item = 0
	}
	if sel.Item >= n {
		sel.Item = n - 1
	}
	sel.ItemID = b.Cols[sel.Col].Items[sel.Item].ID
	return sel
}

func (b Board) SelectedItem(sel Selection) (model.Item, bool) {
	sel = b.Clamp(sel)
	if sel.Col < 0 || sel.Col >= len(b.Cols) {
		return model.Item{}, false
	}
	if sel.Item < 0 || sel.Item >= len(b.Cols[sel.Col].Items) {
		return model.Item{}, false
	}
	return b.Cols[sel.Col].Items[sel.Item], true
}
