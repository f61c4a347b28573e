package tui

import (
	"context"
	"time"

	"roadmap-cli/internal/api"
	"roadmap-cli/internal/board"
	"roadmap-cli/internal/edit"
	"roadmap-cli/internal/model"
	"roadmap-cli/internal/store"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Backend is the full server surface the TUI needs. *api.Client implements it;
// tests substitute a fake.
type Backend interface {
	edit.Gateway
	FetchRoadmap(ctx context.Context) (*model.Roadmap, error)
	CreateItem(ctx context.Context, in api.CreateItemInput) (*model.Item, error)
	DeleteItem(ctx context.Context, id int) error
	Vote(ctx context.Context, id int, dir model.VoteDirection) (*model.VoteResult, error)
	ListComments(ctx context.Context, id int) ([]model.Comment, error)
	AddComment(ctx context.Context, id int, text string) (*model.Comment, error)
	DeleteComment(ctx context.Context, id, commentID int) error
	CurrentUser(ctx context.Context) (*model.User, error)
	Login(ctx context.Context, username, password string, remember bool) (*model.User, error)
	Logout(ctx context.Context) error
}

// eventQueue collects reconciler notifications raised during an Update pass so
// the model can turn them into toasts after the controller call returns.
type eventQueue struct {
	events []edit.Event
}

func (q *eventQueue) Notify(e edit.Event) { q.events = append(q.events, e) }

func (q *eventQueue) drain() []edit.Event {
	out := q.events
	q.events = nil
	return out
}

// identityRef is shared with the reconciler so attribution follows login state
// even though the model itself is copied by value.
type identityRef struct {
	name string
}

type appModel struct {
	backend  Backend
	items    *store.Items
	prefs    *store.Prefs
	ctrl     *edit.Controller
	events   *eventQueue
	user     *model.User
	identity *identityRef

	width  int
	height int

	view  view
	modal modalKind

	query board.Query
	board board.Board
	sel   board.Selection

	searching   bool
	searchInput textinput.Model
	categoryIdx int // 0 = all; 1..n indexes items.Categories()

	detailID     int
	detailField  int
	detailScroll int
	comments     []model.Comment
	commentIdx   int

	editInput    textinput.Model
	editArea     textarea.Model
	editingMulti bool

	commentInput    textinput.Model
	writingComment  bool

	addInputs [4]textinput.Model
	addFocus  addFocus
	addErr    string

	loginInputs   [2]textinput.Model
	loginFocus    loginFocus
	loginErr      string
	loginRemember bool

	confirmDeleteID int

	toast     string
	toastKind toastKind
	toastSeq  int

	celebrating  bool
	celebrateSeq int

	loading bool
	loadErr string

	now func() time.Time
}

// detailFields is the tab order of editable regions on the detail page.
var detailFields = []string{
	"name", "category", "description", "business_impact", "outcome",
	"success_metric", "owner", "dependencies", "build_time",
	"impact_score", "ease_score", "priority_score",
	"start_date", "expected_delivery", "completed_date",
}

func newAppModel(backend Backend, prefs *store.Prefs, identity string) appModel {
	items := store.NewItems()
	events := &eventQueue{}
	ident := &identityRef{name: identity}
	m := appModel{
		backend:  backend,
		items:    items,
		prefs:    prefs,
		ctrl:     edit.NewController(items, backend, events, func() string { return ident.name }),
		events:   events,
		identity: ident,
		view:     viewBoard,
		query:    board.Query{Sort: board.SortPriority},
		loading:  true,
		now:      time.Now,
	}

	m.searchInput = textinput.New()
	m.searchInput.Placeholder = "Search items…"
	m.searchInput.CharLimit = 120
	m.searchInput.Width = 32

	m.editInput = textinput.New()
	m.editInput.CharLimit = 300
	m.editInput.Width = 48

	m.editArea = textarea.New()
	m.editArea.Placeholder = "Write…"
	m.editArea.CharLimit = 0
	m.editArea.SetWidth(72)
	m.editArea.SetHeight(8)
	m.editArea.ShowLineNumbers = false

	m.commentInput = textinput.New()
	m.commentInput.Placeholder = "Add a comment…"
	m.commentInput.CharLimit = 500
	m.commentInput.Width = 60

	placeholders := []string{"Name (required)", "Category", "Impact 0-10", "Ease 0-10"}
	for i := range m.addInputs {
		m.addInputs[i] = textinput.New()
		m.addInputs[i].Placeholder = placeholders[i]
		m.addInputs[i].CharLimit = 200
		m.addInputs[i].Width = 36
	}

	for i := range m.loginInputs {
		m.loginInputs[i] = textinput.New()
		m.loginInputs[i].CharLimit = 100
		m.loginInputs[i].Width = 28
	}
	m.loginInputs[0].Placeholder = "Username"
	m.loginInputs[1].Placeholder = "Password"
	m.loginInputs[1].EchoMode = textinput.EchoPassword

	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.loadRoadmap(), m.loadUser(), tickReload())
}

func (m appModel) loadRoadmap() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		rm, err := backend.FetchRoadmap(context.Background())
		return roadmapLoadedMsg{roadmap: rm, err: err}
	}
}

func (m appModel) loadUser() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		u, err := backend.CurrentUser(context.Background())
		return userLoadedMsg{user: u, err: err}
	}
}

func (m appModel) loadComments(id int) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		cs, err := backend.ListComments(context.Background(), id)
		return commentsLoadedMsg{id: id, comments: cs, err: err}
	}
}

func tickReload() tea.Cmd {
	return tea.Tick(30*time.Second, func(time.Time) tea.Msg { return reloadTickMsg{} })
}

// wrapEdit lifts a reconciler command into the bubbletea event loop.
func wrapEdit(c edit.Cmd) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg { return editResultMsg{inner: c()} }
}

func (m *appModel) rebuildBoard() {
	m.board = board.Build(m.items.All(), m.query)
	m.sel = m.board.Clamp(m.sel)
}

func (m *appModel) selectedItem() (model.Item, bool) {
	bi, ok := m.board.SelectedItem(m.sel)
	if !ok {
		return model.Item{}, false
	}
	return bi, true
}

func (m *appModel) detailItem() (model.Item, bool) {
	return m.items.Get(m.detailID)
}

// activeCategory returns the category filter currently cycled to ("" = all).
func (m *appModel) activeCategory() string {
	cats := m.items.Categories()
	if m.categoryIdx <= 0 || m.categoryIdx > len(cats) {
		return ""
	}
	return cats[m.categoryIdx-1]
}

func (m *appModel) applyCategoryFilter() {
	cat := m.activeCategory()
	if cat == "" {
		m.query.Categories = nil
	} else {
		m.query.Categories = map[string]bool{cat: true}
	}
}

func (m *appModel) showToast(kind toastKind, text string) tea.Cmd {
	m.toast = text
	m.toastKind = kind
	m.toastSeq++
	seq := m.toastSeq
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg { return toastDoneMsg{seq: seq} })
}

func (m *appModel) startCelebration() tea.Cmd {
	m.celebrating = true
	m.celebrateSeq++
	seq := m.celebrateSeq
	_, _ = m.prefs.IncrCelebrations(context.Background(), m.now().Format("2006-01-02"))
	return tea.Tick(1500*time.Millisecond, func(time.Time) tea.Msg { return celebrateDoneMsg{seq: seq} })
}

// drainEvents converts reconciler notifications into UI feedback.
func (m *appModel) drainEvents() []tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range m.events.drain() {
		switch e.Kind {
		case edit.EventSaved:
			// Quiet on success; the canonical value is already on screen.
		case edit.EventSaveFailed:
			debugLogf("save failed item=%d field=%s err=%v", e.Item.ID, e.Field, e.Err)
			cmds = append(cmds, m.showToast(toastError, "Save failed: "+e.Err.Error()))
		case edit.EventMoved:
			cmds = append(cmds, m.showToast(toastSuccess, "Moved \""+e.Item.Name+"\" to "+e.Moved))
		case edit.EventMoveFailed:
			debugLogf("move failed item=%d err=%v", e.Item.ID, e.Err)
			cmds = append(cmds, m.showToast(toastError, "Move failed: "+e.Err.Error()))
		case edit.EventCelebrate:
			cmds = append(cmds, m.startCelebration())
		}
	}
	m.rebuildBoard()
	return cmds
}

func (m *appModel) setUser(u *model.User) {
	m.user = u
	if u != nil && u.Username != "" {
		m.identity.name = u.Username
	}
}

// canDeleteComment implements the own-or-admin rule the server enforces, so
// the key handler can reject locally instead of round-tripping a 403.
func (m *appModel) canDeleteComment(c model.Comment) bool {
	if m.user == nil {
		return false
	}
	return c.Author == m.user.Username || m.user.CanDelete()
}
