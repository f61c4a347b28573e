package store

import (
	"testing"
	"time"

	"roadmap-cli/internal/model"
)

func TestUpsertPreservesLastTouched(t *testing.T) {
	s := NewItems()
	s.ReplaceAll([]model.Item{{ID: 1, Name: "Alpha", Status: "NEXT"}})

	stamp := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	s.Touch(1, stamp)

	// Canonical server responses never carry the client-local marker.
	s.Upsert(model.Item{ID: 1, Name: "Alpha (renamed)", Status: "NEXT"})

	got, ok := s.Get(1)
	if !ok {
		t.Fatal("item 1 missing after upsert")
	}
	if got.Name != "Alpha (renamed)" {
		t.Fatalf("upsert did not replace fields: %q", got.Name)
	}
	if !got.LastTouched.Equal(stamp) {
		t.Fatalf("last-touched marker lost on upsert: %v", got.LastTouched)
	}
}

func TestUpsertWithMarkerWins(t *testing.T) {
	s := NewItems()
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.ReplaceAll([]model.Item{{ID: 7, Name: "Old", LastTouched: old}})

	newer := old.Add(time.Hour)
	s.Upsert(model.Item{ID: 7, Name: "New", LastTouched: newer})

	got, _ := s.Get(7)
	if !got.LastTouched.Equal(newer) {
		t.Fatalf("explicit marker should replace prior one, got %v", got.LastTouched)
	}
}

func TestUpsertAppendsUnknownID(t *testing.T) {
	s := NewItems()
	s.Upsert(model.Item{ID: 3, Name: "Created"})
	if s.Len() != 1 {
		t.Fatalf("expected 1 item, got %d", s.Len())
	}
	if _, ok := s.Get(3); !ok {
		t.Fatal("appended item not found")
	}
}

func TestRemove(t *testing.T) {
	s := NewItems()
	s.ReplaceAll([]model.Item{{ID: 1}, {ID: 2}, {ID: 3}})
	if !s.Remove(2) {
		t.Fatal("Remove(2) should report true")
	}
	if s.Remove(2) {
		t.Fatal("double remove should report false")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", s.Len())
	}
	if _, ok := s.Get(2); ok {
		t.Fatal("removed item still present")
	}
}

func TestAllReturnsCopy(t *testing.T) {
	s := NewItems()
	s.ReplaceAll([]model.Item{{ID: 1, Name: "A"}})
	items := s.All()
	items[0].Name = "mutated"
	got, _ := s.Get(1)
	if got.Name != "A" {
		t.Fatal("All must return a copy, not the backing slice")
	}
}

func TestCategoriesSorted(t *testing.T) {
	s := NewItems()
	s.SetCategories([]string{"DevOps", "CS Intelligence", "Reliability"})
	cats := s.Categories()
	if len(cats) != 3 || cats[0] != "CS Intelligence" || cats[2] != "Reliability" {
		t.Fatalf("categories not sorted: %v", cats)
	}
}
