package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"roadmap-cli/internal/model"
)

func strPtr(s string) *string { return &s }

func testRoadmap() *model.Roadmap {
	return &model.Roadmap{
		LastUpdated: "2025-03-10T12:00:00Z",
		Items: []model.Item{
			{
				ID:             1,
				Name:           "Unified search",
				Category:       "Platform",
				Status:         "IN_PROGRESS",
				Description:    "Search across **everything**.",
				BusinessImpact: "Less tab switching.",
				Outcome:        "TBD - define after initial build",
				Owner:          "Maya",
				ImpactScore:    8,
				EaseScore:      4,
				PriorityScore:  7.5,
				StartDate:      strPtr("2025-03-01"),
				AddedDate:      "2025-02-20",
				VoteCount:      3,
				EditHistory: []model.EditHistoryRecord{
					{Field: "owner", OldValue: "", NewValue: "Maya", EditedBy: "jordan",
						Timestamp: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)},
				},
			},
			{ID: 2, Name: "Billing revamp", Status: "BACKLOG", Owner: "TBD"},
		},
	}
}

func TestRenderItemMarkdown(t *testing.T) {
	t.Parallel()

	rm := testRoadmap()
	comments := []model.Comment{
		{ID: 1, Author: "maya", Comment: "Ship it", CreatedAt: time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)},
	}

	md := RenderItemMarkdown(rm.Items[0], comments)

	for _, want := range []string{
		"# Unified search",
		"- Status: In Progress",
		"- Category: Platform",
		"- Owner: Maya",
		"- Started: 2025-03-01",
		"## Description",
		"Search across **everything**.",
		"## Activity",
		"jordan changed owner",
		"## Comments",
		"Ship it",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected rendered markdown to contain %q\n%s", want, md)
		}
	}

	// TBD sections are noise in an export; they stay out.
	if strings.Contains(md, "## Outcome") {
		t.Fatalf("expected TBD outcome section to be omitted\n%s", md)
	}
}

func TestRenderBoardMarkdown(t *testing.T) {
	t.Parallel()

	md := RenderBoardMarkdown(testRoadmap())

	if !strings.Contains(md, "## In Progress") || !strings.Contains(md, "## Backlog") {
		t.Fatalf("expected a section per column\n%s", md)
	}
	if !strings.Contains(md, "[Unified search](items/1.md) (p7.5, Maya, 3 votes)") {
		t.Fatalf("expected linked item line with extras\n%s", md)
	}
	if !strings.Contains(md, "[Billing revamp](items/2.md)") {
		t.Fatalf("expected plain item line\n%s", md)
	}
	// Empty columns still render so the board shape is visible.
	if !strings.Contains(md, "(empty)") {
		t.Fatalf("expected empty column marker\n%s", md)
	}
}

func TestWriteBoard(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rm := testRoadmap()

	res, err := WriteBoard(rm, nil, dir, WriteOptions{})
	if err != nil {
		t.Fatalf("WriteBoard: %v", err)
	}
	if len(res.Written) != 3 {
		t.Fatalf("expected index + 2 item pages; got %v", res.Written)
	}

	b, err := os.ReadFile(filepath.Join(dir, "index.md"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if !strings.Contains(string(b), "# Roadmap") {
		t.Fatalf("unexpected index contents:\n%s", b)
	}

	if _, err := os.Stat(filepath.Join(dir, "items", "1.md")); err != nil {
		t.Fatalf("expected item page: %v", err)
	}

	// Existing files are not clobbered without the flag.
	if _, err := WriteBoard(rm, nil, dir, WriteOptions{}); err == nil {
		t.Fatalf("expected second write without Overwrite to fail")
	}
	if _, err := WriteBoard(rm, nil, dir, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("WriteBoard overwrite: %v", err)
	}
}
