package publish

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"roadmap-cli/internal/board"
	"roadmap-cli/internal/model"
	"roadmap-cli/internal/status"
)

// RenderItemMarkdown renders one item as a standalone markdown page. Empty
// fields are omitted so the page reads like notes, not a form dump.
func RenderItemMarkdown(it model.Item, comments []model.Comment) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + strings.TrimSpace(it.Name))
	writeLn("")

	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + strconv.Itoa(it.ID))
	writeLn("- Status: " + status.Label(it.Status))
	if c := strings.TrimSpace(it.Category); c != "" {
		writeLn("- Category: " + c)
	}
	if o := strings.TrimSpace(it.Owner); o != "" {
		writeLn("- Owner: " + o)
	}
	if it.PriorityScore > 0 || it.ImpactScore > 0 || it.EaseScore > 0 {
		writeLn(fmt.Sprintf("- Scores: impact %s, ease %s, priority %s",
			trimScore(it.ImpactScore), trimScore(it.EaseScore), trimScore(it.PriorityScore)))
	}
	if bt := strings.TrimSpace(it.BuildTime); bt != "" {
		writeLn("- Build time: " + bt)
	}
	if it.VoteCount > 0 {
		writeLn("- Votes: " + strconv.Itoa(it.VoteCount))
	}
	if d := strings.TrimSpace(it.AddedDate); d != "" {
		writeLn("- Added: " + d)
	}
	if it.StartDate != nil && strings.TrimSpace(*it.StartDate) != "" {
		writeLn("- Started: " + strings.TrimSpace(*it.StartDate))
	}
	if it.CompletedDate != nil && strings.TrimSpace(*it.CompletedDate) != "" {
		writeLn("- Completed: " + strings.TrimSpace(*it.CompletedDate))
	}
	if it.ExpectedDelivery != nil && strings.TrimSpace(*it.ExpectedDelivery) != "" {
		writeLn("- Expected delivery: " + strings.TrimSpace(*it.ExpectedDelivery))
	}
	if deps := strings.TrimSpace(it.Dependencies); deps != "" {
		writeLn("- Dependencies: " + deps)
	}

	writeSection(&buf, "Description", it.Description)
	writeSection(&buf, "Business impact", it.BusinessImpact)
	writeSection(&buf, "Outcome", it.Outcome)
	writeSection(&buf, "Success metric", it.SuccessMetric)

	if len(it.EditHistory) > 0 {
		writeLn("")
		writeLn("## Activity")
		writeLn("")
		for _, rec := range it.EditHistory {
			who := strings.TrimSpace(rec.EditedBy)
			if who == "" {
				who = "anonymous"
			}
			writeLn(fmt.Sprintf("- %s changed %s (%s)",
				who, rec.Field, rec.Timestamp.UTC().Format("2006-01-02 15:04")))
		}
	}

	if len(comments) > 0 {
		sorted := make([]model.Comment, len(comments))
		copy(sorted, comments)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

		writeLn("")
		writeLn("## Comments")
		writeLn("")
		for _, c := range sorted {
			writeLn("### " + strings.TrimSpace(c.Author) + " (" + c.CreatedAt.UTC().Format("2006-01-02 15:04") + ")")
			writeLn("")
			body := strings.TrimSpace(c.Comment)
			if body == "" {
				body = "(empty)"
			}
			writeLn(body)
			writeLn("")
		}
	}

	return buf.String()
}

func writeSection(buf *bytes.Buffer, title, body string) {
	body = strings.TrimSpace(body)
	if body == "" || strings.HasPrefix(strings.ToUpper(body), "TBD") {
		return
	}
	buf.WriteString("\n## " + title + "\n\n")
	buf.WriteString(body)
	buf.WriteString("\n")
}

// RenderBoardMarkdown renders the index page: one section per column, items in
// priority order, each linking to its page under items/.
func RenderBoardMarkdown(rm *model.Roadmap) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# Roadmap")
	writeLn("")
	if rm.LastUpdated != "" {
		writeLn("Last updated: " + rm.LastUpdated)
		writeLn("")
	}

	b := board.Build(rm.Items, board.Query{Sort: board.SortPriority})
	for _, col := range b.Cols {
		writeLn("## " + col.Label)
		writeLn("")
		if len(col.Items) == 0 {
			writeLn("(empty)")
			writeLn("")
			continue
		}
		for _, it := range col.Items {
			line := fmt.Sprintf("- [%s](items/%d.md)", strings.TrimSpace(it.Name), it.ID)
			extras := make([]string, 0, 3)
			if it.PriorityScore > 0 {
				extras = append(extras, "p"+trimScore(it.PriorityScore))
			}
			if o := strings.TrimSpace(it.Owner); o != "" && !strings.HasPrefix(strings.ToUpper(o), "TBD") {
				extras = append(extras, o)
			}
			if it.VoteCount > 0 {
				extras = append(extras, fmt.Sprintf("%d votes", it.VoteCount))
			}
			if len(extras) > 0 {
				line += " (" + strings.Join(extras, ", ") + ")"
			}
			writeLn(line)
		}
		writeLn("")
	}

	return buf.String()
}

func trimScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
