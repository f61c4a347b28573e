package store

import (
	"sort"
	"time"

	"roadmap-cli/internal/model"
)

// Items is the single source of truth for everything rendered: the full known
// item set plus the client-local "last touched" bookkeeping used for recency
// ordering. It is mutated only from the UI update loop, so there is no lock;
// renderers always work on copies returned by All.
type Items struct {
	items       []model.Item
	categories  []string
	lastUpdated string
}

func NewItems() *Items {
	return &Items{}
}

// ReplaceAll resets the store to the given set (initial load). Last-touched
// markers do not survive a full reload.
func (s *Items) ReplaceAll(items []model.Item) {
	s.items = make([]model.Item, len(items))
	copy(s.items, items)
}

// Upsert replaces the item with a matching id, or appends. The prior copy's
// last-touched marker is preserved when the incoming item lacks one: it is
// client-local metadata that server responses never carry, so it must survive
// the canonical replace.
func (s *Items) Upsert(it model.Item) {
	for i := range s.items {
		if s.items[i].ID == it.ID {
			if it.LastTouched.IsZero() {
				it.LastTouched = s.items[i].LastTouched
			}
			s.items[i] = it
			return
		}
	}
	s.items = append(s.items, it)
}

func (s *Items) Remove(id int) bool {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Items) Get(id int) (model.Item, bool) {
	for i := range s.items {
		if s.items[i].ID == id {
			return s.items[i], true
		}
	}
	return model.Item{}, false
}

// Touch stamps the recency marker so the item floats to the top of its column
// on the next render.
func (s *Items) Touch(id int, at time.Time) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].LastTouched = at
			return
		}
	}
}

// All returns a fresh copy; render paths iterate this, never the backing slice.
func (s *Items) All() []model.Item {
	out := make([]model.Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Items) Len() int { return len(s.items) }

func (s *Items) SetCategories(cats []string) {
	s.categories = make([]string, len(cats))
	copy(s.categories, cats)
	sort.Strings(s.categories)
}

func (s *Items) Categories() []string {
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

func (s *Items) SetLastUpdated(ts string) { s.lastUpdated = ts }
func (s *Items) LastUpdated() string      { return s.lastUpdated }
