package edit

import (
	"context"
	"time"

	"roadmap-cli/internal/model"
	"roadmap-cli/internal/status"
	"roadmap-cli/internal/store"
)

// Gateway is the slice of the remote API the controller writes through.
type Gateway interface {
	UpdateItem(ctx context.Context, it model.Item, editedBy string) (*model.Item, error)
	UpdateStatus(ctx context.Context, id int, newStatus string) (*model.Item, error)
}

// Msg is a completed network call fed back into Apply by the event loop.
type Msg any

// Cmd is deferred work (a network call) the event loop must run off the update
// path; its result goes back into Apply. Mirrors the bubbletea contract so the
// TUI can wrap these directly, while tests run them synchronously.
type Cmd func() Msg

type saveDoneMsg struct {
	req  saveRequest
	item *model.Item
	err  error
}

type moveDoneMsg struct {
	itemID    int
	oldStatus string
	newStatus string
	item      *model.Item
	err       error
}

type RegionState int

const (
	StateDisplay RegionState = iota
	StateActive
	StateSaving
)

// Event is the notification-sink payload; the presentation layer turns these
// into toasts, re-renders, and celebration effects. No state implication.
type Event struct {
	Kind   EventKind
	Item   model.Item
	Field  string
	Moved  string // target status label for EventMoved
	Err    error
}

type EventKind int

const (
	EventSaved EventKind = iota
	EventSaveFailed
	EventMoved
	EventMoveFailed
	EventCelebrate
)

type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

type activeEdit struct {
	itemID int
	field  Field
	old    string
	draft  string
}

type saveRequest struct {
	itemID int
	field  Field
	old    string // pre-edit value, the single stored rollback value
	value  string // committed value; re-applied to the snapshot at dispatch
}

// region identifies one editable region: one field of one item. Saving state
// is tracked per region, not per item, so edit bursts across several fields of
// the same item each keep their own indicator.
type region struct {
	itemID int
	field  string
}

// Controller is the inline-edit state machine. One globally-tracked active
// field guarantees at most one input is live across the entire UI; saves are
// appended to a single FIFO queue so only one request is in flight at a time
// no matter how quickly the user edits successive fields.
type Controller struct {
	store  *store.Items
	gw     Gateway
	notify Notifier
	// identity resolves the attribution sent with each save.
	identity func() string
	now      func() time.Time

	active *activeEdit
	// saving counts queued-or-in-flight saves per region. A region leaves the
	// saving state only when its count reaches zero, so a burst of commits to
	// different fields of the same item cannot clear each other's indicator.
	saving   map[region]int
	queue    []saveRequest
	inFlight bool
}

func NewController(items *store.Items, gw Gateway, notify Notifier, identity func() string) *Controller {
	if notify == nil {
		notify = NotifierFunc(func(Event) {})
	}
	if identity == nil {
		identity = func() string { return "" }
	}
	return &Controller{
		store:    items,
		gw:       gw,
		notify:   notify,
		identity: identity,
		now:      time.Now,
		saving:   map[region]int{},
	}
}

// Active reports the currently live region, if any.
func (c *Controller) Active() (itemID int, field Field, ok bool) {
	if c.active == nil {
		return 0, Field{}, false
	}
	return c.active.itemID, c.active.field, true
}

// Busy reports whether any save is queued or in flight. Background refreshes
// should be skipped while true so a stale fetch cannot race a pending write.
func (c *Controller) Busy() bool {
	return c.inFlight || len(c.queue) > 0 || c.active != nil
}

// Saving reports whether the given region is waiting on a queued or in-flight
// save (the UI shows the new value plus a loading indicator).
func (c *Controller) Saving(itemID int, fieldName string) bool {
	return c.saving[region{itemID: itemID, field: fieldName}] > 0
}

func (c *Controller) incSaving(itemID int, fieldName string) {
	c.saving[region{itemID: itemID, field: fieldName}]++
}

func (c *Controller) decSaving(itemID int, fieldName string) {
	r := region{itemID: itemID, field: fieldName}
	if c.saving[r] <= 1 {
		delete(c.saving, r)
		return
	}
	c.saving[r]--
}

// State returns the region's current machine state.
func (c *Controller) State(itemID int, fieldName string) RegionState {
	if c.active != nil && c.active.itemID == itemID && c.active.field.Name == fieldName {
		return StateActive
	}
	if c.Saving(itemID, fieldName) {
		return StateSaving
	}
	return StateDisplay
}

// Activate puts a region into the active state. If a different field is
// currently active it is force-committed first, exactly as if it lost focus;
// the returned Cmd (if any) carries that forced save.
func (c *Controller) Activate(itemID int, field Field) Cmd {
	var cmd Cmd
	if c.active != nil && (c.active.itemID != itemID || c.active.field.Name != field.Name) {
		cmd = c.Commit()
	}
	it, ok := c.store.Get(itemID)
	if !ok {
		return cmd
	}
	c.active = &activeEdit{
		itemID: itemID,
		field:  field,
		old:    Value(it, field),
	}
	c.active.draft = c.active.old
	return cmd
}

// SetDraft records the input's current value while the region is active.
func (c *Controller) SetDraft(v string) {
	if c.active != nil {
		c.active.draft = v
	}
}

// Cancel reverts the active region to display with the original value. No
// network call is made.
func (c *Controller) Cancel() {
	c.active = nil
}

// Commit ends the active edit. If the trimmed new value equals the old value
// (compared as strings) the region simply reverts to display with no network
// call. Otherwise the change is applied optimistically, the region enters the
// saving state, and the save joins the FIFO queue.
func (c *Controller) Commit() Cmd {
	if c.active == nil {
		return nil
	}
	a := *c.active
	c.active = nil

	newVal := normalize(a.field, a.draft)
	if newVal == a.old {
		return nil
	}

	it, ok := c.store.Get(a.itemID)
	if !ok {
		return nil
	}
	Apply(&it, a.field, newVal)
	it.LastTouched = c.now()
	c.store.Upsert(it)
	c.incSaving(a.itemID, a.field.Name)

	return c.enqueue(saveRequest{itemID: a.itemID, field: a.field, old: a.old, value: newVal})
}

// normalize trims and, for numeric fields, canonicalizes through the parse so
// "07" and "7" compare equal and garbage compares as "0".
func normalize(f Field, raw string) string {
	var it model.Item
	Apply(&it, f, raw)
	return Value(it, f)
}

func (c *Controller) enqueue(req saveRequest) Cmd {
	c.queue = append(c.queue, req)
	if c.inFlight {
		return nil
	}
	return c.dispatch()
}

// dispatch hands the next queued save to the event loop. The wire snapshot is
// built here, at dispatch time, from the store's current copy: an earlier
// save's rollback (or canonical response) must be reflected in later payloads,
// not frozen at commit time.
func (c *Controller) dispatch() Cmd {
	for len(c.queue) > 0 {
		req := c.queue[0]
		c.queue = c.queue[1:]

		it, ok := c.store.Get(req.itemID)
		if !ok {
			// Item was deleted while the save waited; drop the request.
			c.decSaving(req.itemID, req.field.Name)
			continue
		}
		Apply(&it, req.field, req.value)

		c.inFlight = true
		gw := c.gw
		editedBy := c.identity()
		return func() Msg {
			item, err := gw.UpdateItem(context.Background(), it, editedBy)
			return saveDoneMsg{req: req, item: item, err: err}
		}
	}
	c.inFlight = false
	return nil
}

// MoveStatus is the shared status-transition procedure used by board moves
// (drag-equivalent and keyboard): optimistic set + recency stamp, then the
// status endpoint, then canonical replace or single-old-value rollback. These
// writes bypass the edit queue; board moves and inline edits are mutually
// exclusive user actions and both funnel full items through the store, so the
// later response wins.
func (c *Controller) MoveStatus(itemID int, target string) Cmd {
	it, ok := c.store.Get(itemID)
	if !ok || target == it.Status {
		return nil
	}
	old := it.Status
	it.Status = target
	it.LastTouched = c.now()
	c.store.Upsert(it)

	gw := c.gw
	return func() Msg {
		item, err := gw.UpdateStatus(context.Background(), itemID, target)
		return moveDoneMsg{itemID: itemID, oldStatus: old, newStatus: target, item: item, err: err}
	}
}

// MoveLeft moves the item one column toward BACKLOG; no-op at the first column.
func (c *Controller) MoveLeft(itemID int) Cmd {
	it, ok := c.store.Get(itemID)
	if !ok {
		return nil
	}
	return c.MoveStatus(itemID, status.Prev(it.Status))
}

// MoveRight moves the item one column toward DONE; no-op at the last column.
func (c *Controller) MoveRight(itemID int) Cmd {
	it, ok := c.store.Get(itemID)
	if !ok {
		return nil
	}
	return c.MoveStatus(itemID, status.Succ(it.Status))
}

// Apply feeds a completed network call back into the machine. It returns the
// next queued save's Cmd when one is waiting; a failed save never jams the
// queue.
func (c *Controller) Apply(msg Msg) Cmd {
	switch m := msg.(type) {
	case saveDoneMsg:
		c.finishSave(m)
		return c.dispatch()
	case moveDoneMsg:
		c.finishMove(m)
		return nil
	}
	return nil
}

func (c *Controller) finishSave(m saveDoneMsg) {
	c.decSaving(m.req.itemID, m.req.field.Name)

	if m.err != nil {
		// Roll back just the edited field to its pre-edit value, unless a
		// later queued save to the same field already superseded this edit
		// (its value stays on display and its own response settles things).
		if it, ok := c.store.Get(m.req.itemID); ok {
			if !c.pendingFor(m.req.itemID, m.req.field.Name) {
				Apply(&it, m.req.field, m.req.old)
				c.store.Upsert(it)
			}
			c.notify.Notify(Event{Kind: EventSaveFailed, Item: it, Field: m.req.field.Name, Err: m.err})
		}
		return
	}

	canonical := *m.item
	// Queued saves for this item carry committed values the user already sees;
	// re-apply them so the canonical replace does not erase their previews
	// before their own responses land.
	for _, q := range c.queue {
		if q.itemID == canonical.ID {
			Apply(&canonical, q.field, q.value)
		}
	}
	c.store.Upsert(canonical) // store preserves the recency marker
	c.notify.Notify(Event{Kind: EventSaved, Item: canonical, Field: m.req.field.Name})

	if m.req.field.Name == "status" && status.IsTerminal(canonical.Status) && !status.IsTerminal(m.req.old) {
		c.notify.Notify(Event{Kind: EventCelebrate, Item: canonical})
	}
}

func (c *Controller) pendingFor(itemID int, fieldName string) bool {
	for _, q := range c.queue {
		if q.itemID == itemID && q.field.Name == fieldName {
			return true
		}
	}
	return false
}

func (c *Controller) finishMove(m moveDoneMsg) {
	if m.err != nil {
		if it, ok := c.store.Get(m.itemID); ok {
			it.Status = m.oldStatus
			c.store.Upsert(it)
			c.notify.Notify(Event{Kind: EventMoveFailed, Item: it, Err: m.err})
		}
		return
	}
	canonical := *m.item
	c.store.Upsert(canonical)
	c.notify.Notify(Event{Kind: EventMoved, Item: canonical, Moved: status.Label(m.newStatus)})
	if status.IsTerminal(m.newStatus) && !status.IsTerminal(m.oldStatus) {
		c.notify.Notify(Event{Kind: EventCelebrate, Item: canonical})
	}
}
