package board

import (
	"reflect"
	"testing"
	"time"

	"roadmap-cli/internal/model"
	"roadmap-cli/internal/status"
)

func sampleItems() []model.Item {
	return []model.Item{
		{ID: 1, Name: "Search revamp", Category: "DevOps", Status: status.Backlog, PriorityScore: 3, ImpactScore: 8, EaseScore: 2},
		{ID: 2, Name: "API gateway", Category: "Infrastructure", Status: status.Next, PriorityScore: 9, ImpactScore: 5, EaseScore: 7, Dependencies: "auth service"},
		{ID: 3, Name: "Billing docs", Category: "Documentation", Status: status.Done, PriorityScore: 5, ImpactScore: 2, EaseScore: 9, Description: "customer billing guide"},
	}
}

func ids(items []model.Item) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestBuildColumnCounts(t *testing.T) {
	b := Build(sampleItems(), Query{Sort: SortPriority})
	if len(b.Cols) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(b.Cols))
	}
	wantCounts := []int{1, 0, 1, 0, 1}
	wantLabels := []string{"Backlog", "Planned", "Next", "In Progress", "Done"}
	for i, col := range b.Cols {
		if len(col.Items) != wantCounts[i] {
			t.Fatalf("column %s: expected %d items, got %d", col.Status, wantCounts[i], len(col.Items))
		}
		if col.Label != wantLabels[i] {
			t.Fatalf("column %d: expected label %q, got %q", i, wantLabels[i], col.Label)
		}
	}
}

func TestSearchMatchesConcatenatedFields(t *testing.T) {
	items := sampleItems()
	cases := []struct {
		query string
		want  []int
	}{
		{"billing", []int{3}},       // description
		{"AUTH SERVICE", []int{2}},  // dependencies, case-insensitive
		{"devops", []int{1}},        // category
		{"gateway", []int{2}},       // name
		{"zzz", []int{}},
	}
	for _, tc := range cases {
		got := ids(Filter(items, Query{Search: tc.query, Sort: SortID}))
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("search %q: expected %v, got %v", tc.query, tc.want, got)
		}
	}
}

func TestCategoryFilterEmptySetMeansAll(t *testing.T) {
	items := sampleItems()
	if got := Filter(items, Query{Sort: SortID}); len(got) != 3 {
		t.Fatalf("empty category set should keep all, got %d", len(got))
	}
	got := Filter(items, Query{Sort: SortID, Categories: map[string]bool{"DevOps": true}})
	if !reflect.DeepEqual(ids(got), []int{1}) {
		t.Fatalf("category filter: got %v", ids(got))
	}
}

func TestSortKeys(t *testing.T) {
	items := sampleItems()
	cases := []struct {
		key  SortKey
		want []int
	}{
		{SortPriority, []int{2, 3, 1}},
		{SortID, []int{1, 2, 3}},
		{SortName, []int{2, 3, 1}}, // API gateway, Billing docs, Search revamp
		{SortImpact, []int{1, 2, 3}},
		{SortEase, []int{3, 2, 1}},
	}
	for _, tc := range cases {
		got := ids(Filter(items, Query{Sort: tc.key}))
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("sort %s: expected %v, got %v", tc.key, tc.want, got)
		}
	}
}

func TestRecencyBeatsSortKey(t *testing.T) {
	items := sampleItems()
	// Item 1 has the lowest priority score; touching it must still float it first.
	items[0].LastTouched = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	got := ids(Filter(items, Query{Sort: SortPriority}))
	if got[0] != 1 {
		t.Fatalf("touched item should sort first, got %v", got)
	}

	// Two touched items order by marker, newest first.
	items[2].LastTouched = items[0].LastTouched.Add(time.Minute)
	got = ids(Filter(items, Query{Sort: SortPriority}))
	if !reflect.DeepEqual(got[:2], []int{3, 1}) {
		t.Fatalf("touched items should order newest-first, got %v", got)
	}
}

func TestFilterIsPure(t *testing.T) {
	items := sampleItems()
	q := Query{Search: "a", Sort: SortPriority}
	first := ids(Filter(items, q))
	second := ids(Filter(items, q))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs gave different output: %v vs %v", first, second)
	}
	// Input order is untouched.
	if items[0].ID != 1 || items[1].ID != 2 || items[2].ID != 3 {
		t.Fatal("Filter mutated its input slice")
	}
}

func TestSelectionClampTracksItemID(t *testing.T) {
	items := sampleItems()
	b := Build(items, Query{Sort: SortPriority})
	sel := Selection{ItemID: 2}
	sel = b.Clamp(sel)
	if got, ok := b.SelectedItem(sel); !ok || got.ID != 2 {
		t.Fatalf("selection should track item 2, got %+v ok=%v", got, ok)
	}

	// Move the item to another column; selection follows the id.
	items[1].Status = status.InProgress
	b = Build(items, Query{Sort: SortPriority})
	sel = b.Clamp(sel)
	if sel.Col != 3 {
		t.Fatalf("selection should follow item into IN_PROGRESS column, col=%d", sel.Col)
	}
}

func TestClampEmptyColumn(t *testing.T) {
	b := Build(nil, Query{Sort: SortPriority})
	sel := b.Clamp(Selection{Col: 1, Item: 5})
	if sel.Item != -1 {
		t.Fatalf("empty column should clamp item to -1, got %d", sel.Item)
	}
	if _, ok := b.SelectedItem(sel); ok {
		t.Fatal("no item should be selected on an empty board")
	}
}
