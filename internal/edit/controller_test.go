package edit

import (
	"context"
	"errors"
	"testing"
	"time"

	"roadmap-cli/internal/model"
	"roadmap-cli/internal/status"
	"roadmap-cli/internal/store"
)

// fakeGateway echoes the snapshot back as the canonical item, optionally
// failing, and records every request. Tests run Cmds synchronously so there is
// no concurrency here despite the real thing running them off the update loop.
type fakeGateway struct {
	updateCalls []model.Item
	statusCalls []string
	failNext    error
	// mutate lets a test simulate server-computed fields on the response.
	mutate func(*model.Item)
}

func (g *fakeGateway) UpdateItem(_ context.Context, it model.Item, _ string) (*model.Item, error) {
	g.updateCalls = append(g.updateCalls, it)
	if err := g.failNext; err != nil {
		g.failNext = nil
		return nil, err
	}
	out := it
	if g.mutate != nil {
		g.mutate(&out)
	}
	return &out, nil
}

func (g *fakeGateway) UpdateStatus(_ context.Context, id int, newStatus string) (*model.Item, error) {
	g.statusCalls = append(g.statusCalls, newStatus)
	if err := g.failNext; err != nil {
		g.failNext = nil
		return nil, err
	}
	out := model.Item{ID: id, Name: "Widget", Status: newStatus}
	if g.mutate != nil {
		g.mutate(&out)
	}
	return &out, nil
}

type eventLog struct {
	events []Event
}

func (l *eventLog) Notify(e Event) { l.events = append(l.events, e) }

func (l *eventLog) count(kind EventKind) int {
	n := 0
	for _, e := range l.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func newTestController(items ...model.Item) (*Controller, *store.Items, *fakeGateway, *eventLog) {
	s := store.NewItems()
	s.ReplaceAll(items)
	gw := &fakeGateway{}
	log := &eventLog{}
	c := NewController(s, gw, log, func() string { return "tester" })
	c.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return c, s, gw, log
}

func mustField(t *testing.T, name string) Field {
	t.Helper()
	f, ok := FieldByName(name)
	if !ok {
		t.Fatalf("unknown field %q", name)
	}
	return f
}

// drain runs cmds to completion the way the event loop would.
func drain(c *Controller, cmd Cmd) {
	for cmd != nil {
		cmd = c.Apply(cmd())
	}
}

func TestSingleActiveField(t *testing.T) {
	c, s, gw, _ := newTestController(
		model.Item{ID: 1, Name: "One", Status: status.Next},
		model.Item{ID: 2, Name: "Two", Status: status.Backlog},
	)

	c.Activate(1, mustField(t, "name"))
	c.SetDraft("One edited")

	// Activating a second region force-commits the first.
	cmd := c.Activate(2, mustField(t, "owner"))
	if cmd == nil {
		t.Fatal("expected forced commit of the first region to produce a save")
	}
	id, f, ok := c.Active()
	if !ok || id != 2 || f.Name != "owner" {
		t.Fatalf("second region should now be active, got item=%d field=%q ok=%v", id, f.Name, ok)
	}
	if st := c.State(1, "name"); st != StateSaving {
		t.Fatalf("first region should be saving after forced commit, got %v", st)
	}

	drain(c, cmd)
	if len(gw.updateCalls) != 1 {
		t.Fatalf("expected exactly one save, got %d", len(gw.updateCalls))
	}
	got, _ := s.Get(1)
	if got.Name != "One edited" {
		t.Fatalf("forced commit lost the edit: %q", got.Name)
	}
}

func TestActivateUnchangedPrevRegionIsSilent(t *testing.T) {
	c, _, gw, _ := newTestController(model.Item{ID: 1, Name: "One", Status: status.Next})

	c.Activate(1, mustField(t, "name"))
	// No draft change: switching away must not call the network.
	cmd := c.Activate(1, mustField(t, "owner"))
	if cmd != nil {
		t.Fatal("unchanged region should commit as a no-op")
	}
	if len(gw.updateCalls) != 0 {
		t.Fatalf("no-op commit issued %d saves", len(gw.updateCalls))
	}
}

func TestNoOpCommitSkipsNetwork(t *testing.T) {
	c, s, gw, _ := newTestController(model.Item{ID: 1, Name: "Widget", ImpactScore: 7, Status: status.Next})

	// Whitespace-only difference.
	c.Activate(1, mustField(t, "name"))
	c.SetDraft("  Widget  ")
	if cmd := c.Commit(); cmd != nil {
		t.Fatal("trimmed-equal commit should not save")
	}

	// Numeric formatting difference.
	c.Activate(1, mustField(t, "impact_score"))
	c.SetDraft("7.0")
	if cmd := c.Commit(); cmd != nil {
		t.Fatal("numerically-equal commit should not save")
	}

	if len(gw.updateCalls) != 0 {
		t.Fatalf("expected zero network calls, got %d", len(gw.updateCalls))
	}
	got, _ := s.Get(1)
	if len(got.EditHistory) != 0 {
		t.Fatal("no-op edit must leave edit history unchanged")
	}
}

func TestCancelDiscardsEdit(t *testing.T) {
	c, s, gw, _ := newTestController(model.Item{ID: 1, Name: "Original", Status: status.Next})

	c.Activate(1, mustField(t, "name"))
	c.SetDraft("Changed")
	c.Cancel()

	if _, _, ok := c.Active(); ok {
		t.Fatal("cancel should deactivate the region")
	}
	got, _ := s.Get(1)
	if got.Name != "Original" {
		t.Fatalf("cancel must keep the original value, got %q", got.Name)
	}
	if len(gw.updateCalls) != 0 {
		t.Fatal("cancel must not contact the server")
	}
}

func TestCommitSendsFullSnapshotWithAttribution(t *testing.T) {
	c, _, gw, _ := newTestController(model.Item{
		ID: 1, Name: "Widget", Status: status.Next, Owner: "ada", PriorityScore: 4,
	})

	c.Activate(1, mustField(t, "description"))
	c.SetDraft("new words")
	drain(c, c.Commit())

	if len(gw.updateCalls) != 1 {
		t.Fatalf("expected one save, got %d", len(gw.updateCalls))
	}
	sent := gw.updateCalls[0]
	if sent.Description != "new words" {
		t.Fatalf("changed field missing from snapshot: %q", sent.Description)
	}
	// The rest of the item rides along unchanged: full-object upsert.
	if sent.Name != "Widget" || sent.Owner != "ada" || sent.PriorityScore != 4 {
		t.Fatalf("snapshot should carry the whole item, got %+v", sent)
	}
}

func TestRollbackDeterminism(t *testing.T) {
	c, s, _, log := newTestController(model.Item{ID: 1, Name: "Widget", Owner: "ada", Status: status.Next})
	gw := c.gw.(*fakeGateway)
	gw.failNext = errors.New("boom")

	c.Activate(1, mustField(t, "owner"))
	c.SetDraft("grace")
	cmd := c.Commit()

	// Optimistic value is on display while saving.
	mid, _ := s.Get(1)
	if mid.Owner != "grace" {
		t.Fatalf("optimistic value not applied: %q", mid.Owner)
	}

	drain(c, cmd)

	got, _ := s.Get(1)
	if got.Owner != "ada" {
		t.Fatalf("rollback must restore the exact pre-edit value, got %q", got.Owner)
	}
	if c.State(1, "owner") != StateDisplay {
		t.Fatal("failed region should return to display")
	}
	if log.count(EventSaveFailed) != 1 {
		t.Fatal("failure must be surfaced exactly once")
	}
}

func TestSaveOrderingSameField(t *testing.T) {
	c, s, gw, _ := newTestController(model.Item{ID: 1, Name: "Widget", Description: "v0", Status: status.Next})

	// E1 committed; its request is dispatched but the response has not arrived.
	c.Activate(1, mustField(t, "description"))
	c.SetDraft("v1")
	cmd1 := c.Commit()
	if cmd1 == nil {
		t.Fatal("E1 should dispatch")
	}

	// E2 to the same field before E1's response: it queues, nothing dispatches.
	c.Activate(1, mustField(t, "description"))
	c.SetDraft("v2")
	if cmd := c.Commit(); cmd != nil {
		t.Fatal("E2 must wait in the queue while E1 is in flight")
	}
	if !c.Saving(1, "description") {
		t.Fatal("region should stay in saving state across queued edits")
	}

	// E1's response arrives; the queue hands over E2.
	cmd2 := c.Apply(cmd1())
	if cmd2 == nil {
		t.Fatal("E1 completion should dispatch E2")
	}
	if end := c.Apply(cmd2()); end != nil {
		t.Fatal("queue should be empty after E2")
	}

	if len(gw.updateCalls) != 2 {
		t.Fatalf("expected 2 serialized saves, got %d", len(gw.updateCalls))
	}
	if gw.updateCalls[0].Description != "v1" || gw.updateCalls[1].Description != "v2" {
		t.Fatalf("saves out of order: %q then %q", gw.updateCalls[0].Description, gw.updateCalls[1].Description)
	}
	got, _ := s.Get(1)
	if got.Description != "v2" {
		t.Fatalf("final value must be E2's outcome, got %q", got.Description)
	}
}

func TestCrossFieldSavesTrackRegionsIndependently(t *testing.T) {
	c, _, _, _ := newTestController(model.Item{ID: 1, Name: "Widget", Owner: "ada", BuildTime: "1 week", Status: status.Next})

	// Two quick commits to different fields of the same item: the first is in
	// flight, the second queued behind it.
	c.Activate(1, mustField(t, "owner"))
	c.SetDraft("grace")
	cmd1 := c.Commit()
	if cmd1 == nil {
		t.Fatal("first commit should dispatch")
	}
	c.Activate(1, mustField(t, "build_time"))
	c.SetDraft("2 weeks")
	if cmd := c.Commit(); cmd != nil {
		t.Fatal("second commit must queue behind the in-flight save")
	}

	if st := c.State(1, "owner"); st != StateSaving {
		t.Fatalf("owner should stay saving while its request is in flight, got %v", st)
	}
	if st := c.State(1, "build_time"); st != StateSaving {
		t.Fatalf("build_time should be saving while queued, got %v", st)
	}

	// The first response settles only its own region.
	cmd2 := c.Apply(cmd1())
	if cmd2 == nil {
		t.Fatal("first completion should dispatch the queued save")
	}
	if st := c.State(1, "owner"); st != StateDisplay {
		t.Fatalf("owner should return to display after its save, got %v", st)
	}
	if st := c.State(1, "build_time"); st != StateSaving {
		t.Fatalf("build_time must keep its saving indicator until its own response, got %v", st)
	}

	drain(c, cmd2)
	if st := c.State(1, "build_time"); st != StateDisplay {
		t.Fatalf("build_time should settle after its response, got %v", st)
	}
}

func TestCanonicalReplacePreservesQueuedFieldPreview(t *testing.T) {
	c, s, gw, _ := newTestController(model.Item{ID: 1, Name: "Widget", Owner: "ada", BuildTime: "1 week", Status: status.Next})

	c.Activate(1, mustField(t, "owner"))
	c.SetDraft("grace")
	cmd1 := c.Commit()

	c.Activate(1, mustField(t, "build_time"))
	c.SetDraft("2 weeks")
	if cmd := c.Commit(); cmd != nil {
		t.Fatal("second commit must queue behind the in-flight save")
	}

	// The owner response carries the server's copy, which predates the
	// build_time edit. Replacing the store with it must not erase the queued
	// edit's preview.
	cmd2 := c.Apply(cmd1())
	mid, _ := s.Get(1)
	if mid.Owner != "grace" {
		t.Fatalf("canonical owner should be on display, got %q", mid.Owner)
	}
	if mid.BuildTime != "2 weeks" {
		t.Fatalf("queued edit's value must survive the canonical replace, got %q", mid.BuildTime)
	}

	drain(c, cmd2)
	if len(gw.updateCalls) != 2 {
		t.Fatalf("expected 2 serialized saves, got %d", len(gw.updateCalls))
	}
	got, _ := s.Get(1)
	if got.Owner != "grace" || got.BuildTime != "2 weeks" {
		t.Fatalf("both edits should land, got owner=%q build_time=%q", got.Owner, got.BuildTime)
	}
}

func TestFailedSaveDoesNotJamQueue(t *testing.T) {
	c, s, gw, log := newTestController(model.Item{ID: 1, Name: "Widget", Owner: "ada", Status: status.Next})
	gw.failNext = errors.New("boom")

	c.Activate(1, mustField(t, "owner"))
	c.SetDraft("grace")
	cmd1 := c.Commit()

	c.Activate(1, mustField(t, "dependencies"))
	c.SetDraft("payments team")
	if cmd := c.Commit(); cmd != nil {
		t.Fatal("second save should queue behind the first")
	}

	// First fails, second still runs.
	drain(c, cmd1)

	if len(gw.updateCalls) != 2 {
		t.Fatalf("queue jammed after failure: %d calls", len(gw.updateCalls))
	}
	got, _ := s.Get(1)
	if got.Owner != "ada" {
		t.Fatalf("failed field should roll back, got %q", got.Owner)
	}
	if got.Dependencies != "payments team" {
		t.Fatalf("later save should land, got %q", got.Dependencies)
	}
	if log.count(EventSaveFailed) != 1 || log.count(EventSaved) != 1 {
		t.Fatalf("expected one failure and one success, got %+v", log.events)
	}
}

func TestCelebrationOnStatusFieldEditToDone(t *testing.T) {
	c, _, _, log := newTestController(model.Item{ID: 1, Name: "Widget", Status: status.InProgress})

	c.Activate(1, mustField(t, "status"))
	c.SetDraft(status.Done)
	drain(c, c.Commit())

	if log.count(EventCelebrate) != 1 {
		t.Fatalf("expected one celebration, got %d", log.count(EventCelebrate))
	}

	// DONE -> DONE style edits never celebrate again.
	c.Activate(1, mustField(t, "owner"))
	c.SetDraft("grace")
	drain(c, c.Commit())
	if log.count(EventCelebrate) != 1 {
		t.Fatal("non-status edits must not celebrate")
	}
}

func TestMoveStatusOptimisticAndCanonical(t *testing.T) {
	c, s, gw, log := newTestController(model.Item{ID: 1, Name: "Widget", Status: status.Next})
	started := "2026-09-01"
	gw.mutate = func(it *model.Item) { it.StartDate = &started }

	cmd := c.MoveRight(1)
	if cmd == nil {
		t.Fatal("move should dispatch a status update")
	}
	mid, _ := s.Get(1)
	if mid.Status != status.InProgress {
		t.Fatalf("optimistic move not applied: %s", mid.Status)
	}
	if mid.LastTouched.IsZero() {
		t.Fatal("move must stamp the recency marker")
	}

	drain(c, cmd)

	got, _ := s.Get(1)
	if got.StartDate == nil || *got.StartDate != started {
		t.Fatal("server-computed start date should appear after canonical replace")
	}
	if got.LastTouched.IsZero() {
		t.Fatal("recency marker must survive the canonical replace")
	}
	if log.count(EventMoved) != 1 {
		t.Fatalf("expected exactly one moved notification, got %d", log.count(EventMoved))
	}
	if log.events[0].Moved != "In Progress" {
		t.Fatalf("moved notification should carry the target label, got %q", log.events[0].Moved)
	}
}

func TestMoveStatusRollbackOnFailure(t *testing.T) {
	c, s, gw, log := newTestController(model.Item{ID: 1, Name: "Widget", Status: status.Next})
	gw.failNext = errors.New("offline")

	drain(c, c.MoveRight(1))

	got, _ := s.Get(1)
	if got.Status != status.Next {
		t.Fatalf("failed move must restore the old status, got %s", got.Status)
	}
	if log.count(EventMoveFailed) != 1 {
		t.Fatal("failed move must be surfaced")
	}
}

func TestMoveClampsAtEnds(t *testing.T) {
	c, _, gw, _ := newTestController(
		model.Item{ID: 1, Status: status.Backlog},
		model.Item{ID: 2, Status: status.Done},
	)
	if cmd := c.MoveLeft(1); cmd != nil {
		t.Fatal("left from the first column is a no-op")
	}
	if cmd := c.MoveRight(2); cmd != nil {
		t.Fatal("right from the last column is a no-op")
	}
	if len(gw.statusCalls) != 0 {
		t.Fatalf("clamped moves must not call the server: %v", gw.statusCalls)
	}
}

func TestMoveToSameStatusIsNoOp(t *testing.T) {
	c, _, gw, _ := newTestController(model.Item{ID: 1, Status: status.Next})
	if cmd := c.MoveStatus(1, status.Next); cmd != nil {
		t.Fatal("dropping on the same column is a no-op")
	}
	if len(gw.statusCalls) != 0 {
		t.Fatal("same-status drop must not call the server")
	}
}

func TestMoveToDoneCelebrates(t *testing.T) {
	c, _, _, log := newTestController(model.Item{ID: 1, Status: status.InProgress})
	drain(c, c.MoveRight(1))
	if log.count(EventCelebrate) != 1 {
		t.Fatalf("move into DONE should celebrate once, got %d", log.count(EventCelebrate))
	}
}

func TestScoreParsing(t *testing.T) {
	c, s, _, _ := newTestController(model.Item{ID: 1, Name: "Widget", EaseScore: 3, Status: status.Next})

	c.Activate(1, mustField(t, "ease_score"))
	c.SetDraft("not a number")
	drain(c, c.Commit())

	got, _ := s.Get(1)
	if got.EaseScore != 0 {
		t.Fatalf("unparseable score defaults to 0, got %v", got.EaseScore)
	}

	c.Activate(1, mustField(t, "ease_score"))
	c.SetDraft("15")
	drain(c, c.Commit())
	got, _ = s.Get(1)
	if got.EaseScore != 10 {
		t.Fatalf("scores clamp to 10, got %v", got.EaseScore)
	}
}

func TestClearedDateBecomesNil(t *testing.T) {
	d := "2026-10-01"
	c, s, _, _ := newTestController(model.Item{ID: 1, Name: "Widget", Status: status.Next, ExpectedDelivery: &d})

	c.Activate(1, mustField(t, "expected_delivery"))
	c.SetDraft("   ")
	drain(c, c.Commit())

	got, _ := s.Get(1)
	if got.ExpectedDelivery != nil {
		t.Fatalf("cleared date should be unset, got %v", *got.ExpectedDelivery)
	}
}
