package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"roadmap-cli/internal/api"
	"roadmap-cli/internal/board"
	"roadmap-cli/internal/edit"
	"roadmap-cli/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case reloadTickMsg:
		// Skip the background refresh while a save is pending so the reload
		// can't resurrect values the queue is about to overwrite.
		if m.ctrl.Busy() {
			return m, tickReload()
		}
		return m, tea.Batch(m.loadRoadmap(), tickReload())

	case roadmapLoadedMsg:
		m.loading = false
		if msg.err != nil {
			debugLogf("roadmap load err=%v", msg.err)
			m.loadErr = msg.err.Error()
			return m, nil
		}
		m.loadErr = ""
		m.items.ReplaceAll(msg.roadmap.Items)
		m.items.SetCategories(msg.roadmap.Metadata.Categories)
		m.items.SetLastUpdated(msg.roadmap.LastUpdated)
		m.applyCategoryFilter()
		m.rebuildBoard()
		return m, nil

	case userLoadedMsg:
		if msg.err == nil {
			m.setUser(msg.user)
		}
		return m, nil

	case editResultMsg:
		next := m.ctrl.Apply(msg.inner)
		cmds := m.drainEvents()
		if next != nil {
			cmds = append(cmds, wrapEdit(next))
		}
		return m, tea.Batch(cmds...)

	case loginDoneMsg:
		if msg.err != nil {
			m.loginErr = msg.err.Error()
			return m, nil
		}
		m.setUser(msg.user)
		m.modal = modalNone
		m.resetLoginModal()
		return m, m.showToast(toastSuccess, "Logged in as "+msg.user.Username)

	case logoutDoneMsg:
		if msg.err != nil {
			return m, m.showToast(toastError, "Logout failed: "+msg.err.Error())
		}
		m.user = nil
		return m, m.showToast(toastInfo, "Logged out")

	case createDoneMsg:
		if msg.err != nil {
			m.addErr = msg.err.Error()
			return m, nil
		}
		m.modal = modalNone
		m.resetAddModal()
		m.items.Upsert(*msg.item)
		m.items.Touch(msg.item.ID, m.now())
		m.rebuildBoard()
		m.sel.ItemID = msg.item.ID
		m.sel = m.board.Clamp(m.sel)
		return m, m.showToast(toastSuccess, "Added \""+msg.item.Name+"\"")

	case deleteDoneMsg:
		if msg.err != nil {
			return m, m.showToast(toastError, "Delete failed: "+msg.err.Error())
		}
		m.items.Remove(msg.id)
		if m.view == viewDetail && m.detailID == msg.id {
			m.view = viewBoard
		}
		m.rebuildBoard()
		return m, m.showToast(toastInfo, "Item deleted")

	case voteDoneMsg:
		if msg.err != nil {
			if isAuthErr(msg.err) {
				m.modal = modalLogin
				m.focusLogin(loginFocusUsername)
				return m, nil
			}
			return m, m.showToast(toastError, "Vote failed: "+msg.err.Error())
		}
		if it, ok := m.items.Get(msg.id); ok {
			it.VoteCount = msg.result.VoteCount
			it.UserVote = msg.result.UserVote
			m.items.Upsert(it)
			m.rebuildBoard()
		}
		return m, nil

	case commentsLoadedMsg:
		if msg.err == nil && msg.id == m.detailID {
			m.comments = msg.comments
			if m.commentIdx >= len(m.comments) {
				m.commentIdx = len(m.comments) - 1
			}
		}
		return m, nil

	case commentAddedMsg:
		if msg.err != nil {
			if isAuthErr(msg.err) {
				m.modal = modalLogin
				m.focusLogin(loginFocusUsername)
				return m, nil
			}
			return m, m.showToast(toastError, "Comment failed: "+msg.err.Error())
		}
		return m, m.loadComments(msg.id)

	case commentDeletedMsg:
		if msg.err != nil {
			return m, m.showToast(toastError, "Delete failed: "+msg.err.Error())
		}
		return m, m.loadComments(msg.id)

	case toastDoneMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case celebrateDoneMsg:
		if msg.seq == m.celebrateSeq {
			m.celebrating = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func isAuthErr(err error) bool {
	return errors.Is(err, api.ErrAuthRequired)
}

func nextSortKey(cur board.SortKey) board.SortKey {
	for i, k := range board.SortKeys {
		if k == cur {
			return board.SortKeys[(i+1)%len(board.SortKeys)]
		}
	}
	return board.SortKeys[0]
}

func (m appModel) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Modals capture all input while open.
	switch m.modal {
	case modalAddItem:
		return m.updateAddModal(k)
	case modalLogin:
		return m.updateLoginModal(k)
	case modalConfirmDelete:
		return m.updateConfirmModal(k)
	}

	if k.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.view {
	case viewDetail:
		return m.updateDetail(k)
	default:
		return m.updateBoard(k)
	}
}

// --- board view ---

func (m appModel) updateBoard(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch k.String() {
		case "enter", "esc":
			m.searching = false
			m.searchInput.Blur()
			if k.String() == "esc" {
				m.searchInput.SetValue("")
				m.query.Search = ""
				m.rebuildBoard()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(k)
			m.query.Search = m.searchInput.Value()
			m.rebuildBoard()
			return m, cmd
		}
	}

	switch k.String() {
	case "q":
		return m, tea.Quit

	case "r":
		return m, m.loadRoadmap()

	case "/":
		m.searching = true
		m.searchInput.Focus()
		return m, textinput.Blink

	case "o":
		m.query.Sort = nextSortKey(m.query.Sort)
		m.rebuildBoard()
		return m, nil

	case "f":
		m.categoryIdx++
		if m.categoryIdx > len(m.items.Categories()) {
			m.categoryIdx = 0
		}
		m.applyCategoryFilter()
		m.rebuildBoard()
		return m, nil

	case "left", "h":
		m.sel.Col--
		m.sel.Item = 0
		m.sel.ItemID = 0
		m.sel = m.board.Clamp(m.sel)
		return m, nil

	case "right", "l":
		m.sel.Col++
		m.sel.Item = 0
		m.sel.ItemID = 0
		m.sel = m.board.Clamp(m.sel)
		return m, nil

	case "up", "k":
		m.sel.Item--
		m.sel.ItemID = 0
		m.sel = m.board.Clamp(m.sel)
		return m, nil

	case "down", "j":
		m.sel.Item++
		m.sel.ItemID = 0
		m.sel = m.board.Clamp(m.sel)
		return m, nil

	case "shift+left", "H":
		if it, ok := m.selectedItem(); ok {
			cmd := wrapEdit(m.ctrl.MoveLeft(it.ID))
			cmds := append(m.drainEvents(), cmd)
			return m, tea.Batch(cmds...)
		}
		return m, nil

	case "shift+right", "L":
		if it, ok := m.selectedItem(); ok {
			cmd := wrapEdit(m.ctrl.MoveRight(it.ID))
			cmds := append(m.drainEvents(), cmd)
			return m, tea.Batch(cmds...)
		}
		return m, nil

	case "enter":
		if it, ok := m.selectedItem(); ok {
			m.view = viewDetail
			m.detailID = it.ID
			m.detailField = 0
			m.detailScroll = 0
			m.comments = nil
			m.commentIdx = -1
			return m, m.loadComments(it.ID)
		}
		return m, nil

	case "a":
		m.modal = modalAddItem
		m.focusAdd(addFocusName)
		return m, textinput.Blink

	case "v":
		return m.voteSelected(model.VoteUp)

	case "V":
		return m.voteSelected(model.VoteDown)

	case "d":
		if it, ok := m.selectedItem(); ok {
			m.modal = modalConfirmDelete
			m.confirmDeleteID = it.ID
		}
		return m, nil

	case "i":
		if m.user == nil {
			m.modal = modalLogin
			m.focusLogin(loginFocusUsername)
			return m, textinput.Blink
		}
		backend := m.backend
		return m, func() tea.Msg { return logoutDoneMsg{err: backend.Logout(context.Background())} }

	case "t":
		name := toggleThemePreference()
		if err := m.prefs.SetTheme(context.Background(), name); err != nil {
			debugLogf("persist theme err=%v", err)
		}
		return m, m.showToast(toastInfo, "Theme: "+name)
	}

	return m, nil
}

func (m appModel) voteSelected(dir model.VoteDirection) (tea.Model, tea.Cmd) {
	it, ok := m.selectedItem()
	if !ok {
		return m, nil
	}
	if m.user == nil {
		m.modal = modalLogin
		m.focusLogin(loginFocusUsername)
		return m, textinput.Blink
	}
	backend := m.backend
	id := it.ID
	return m, func() tea.Msg {
		res, err := backend.Vote(context.Background(), id, dir)
		return voteDoneMsg{id: id, result: res, err: err}
	}
}

// --- detail view ---

func (m appModel) updateDetail(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	// An active inline edit captures input first.
	if _, field, ok := m.ctrl.Active(); ok {
		return m.updateActiveEdit(k, field)
	}

	if m.writingComment {
		switch k.String() {
		case "enter":
			text := strings.TrimSpace(m.commentInput.Value())
			m.writingComment = false
			m.commentInput.SetValue("")
			m.commentInput.Blur()
			if text == "" {
				return m, nil
			}
			backend := m.backend
			id := m.detailID
			return m, func() tea.Msg {
				_, err := backend.AddComment(context.Background(), id, text)
				return commentAddedMsg{id: id, err: err}
			}
		case "esc":
			m.writingComment = false
			m.commentInput.SetValue("")
			m.commentInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.commentInput, cmd = m.commentInput.Update(k)
			return m, cmd
		}
	}

	switch k.String() {
	case "q":
		return m, tea.Quit

	case "esc", "backspace":
		m.view = viewBoard
		return m, nil

	case "tab", "down", "j":
		m.detailField++
		if m.detailField >= len(detailFields) {
			m.detailField = 0
		}
		return m, nil

	case "shift+tab", "up", "k":
		m.detailField--
		if m.detailField < 0 {
			m.detailField = len(detailFields) - 1
		}
		return m, nil

	case "pgdown":
		m.detailScroll += 10
		return m, nil

	case "pgup":
		m.detailScroll -= 10
		if m.detailScroll < 0 {
			m.detailScroll = 0
		}
		return m, nil

	case "enter", "e":
		return m.activateSelectedField()

	case "shift+left", "H":
		cmd := wrapEdit(m.ctrl.MoveLeft(m.detailID))
		cmds := append(m.drainEvents(), cmd)
		return m, tea.Batch(cmds...)

	case "shift+right", "L":
		cmd := wrapEdit(m.ctrl.MoveRight(m.detailID))
		cmds := append(m.drainEvents(), cmd)
		return m, tea.Batch(cmds...)

	case "c":
		m.writingComment = true
		m.commentInput.Focus()
		return m, textinput.Blink

	case "x":
		if m.commentIdx >= 0 && m.commentIdx < len(m.comments) {
			c := m.comments[m.commentIdx]
			if m.user == nil {
				m.modal = modalLogin
				m.focusLogin(loginFocusUsername)
				return m, textinput.Blink
			}
			if !m.canDeleteComment(c) {
				return m, m.showToast(toastError, "Only the author or an admin can delete this comment")
			}
			backend := m.backend
			id := m.detailID
			cid := c.ID
			return m, func() tea.Msg {
				return commentDeletedMsg{id: id, err: backend.DeleteComment(context.Background(), id, cid)}
			}
		}
		return m, nil

	case "n":
		if len(m.comments) > 0 {
			m.commentIdx++
			if m.commentIdx >= len(m.comments) {
				m.commentIdx = 0
			}
		}
		return m, nil

	case "v":
		if m.user == nil {
			m.modal = modalLogin
			m.focusLogin(loginFocusUsername)
			return m, textinput.Blink
		}
		backend := m.backend
		id := m.detailID
		return m, func() tea.Msg {
			res, err := backend.Vote(context.Background(), id, model.VoteUp)
			return voteDoneMsg{id: id, result: res, err: err}
		}

	case "d":
		m.modal = modalConfirmDelete
		m.confirmDeleteID = m.detailID
		return m, nil

	case "z":
		it, ok := m.detailItem()
		if ok {
			section := detailFields[m.detailField]
			cur := m.prefs.SectionCollapsed(context.Background(), it.ID, section)
			_ = m.prefs.SetSectionCollapsed(context.Background(), it.ID, section, !cur)
		}
		return m, nil
	}

	return m, nil
}

func (m appModel) activateSelectedField() (tea.Model, tea.Cmd) {
	it, ok := m.detailItem()
	if !ok {
		return m, nil
	}
	name := detailFields[m.detailField]
	field, ok := edit.FieldByName(name)
	if !ok {
		return m, nil
	}

	// Activating a new region force-commits any previous one.
	forced := m.ctrl.Activate(it.ID, field)
	cmds := m.drainEvents()
	if forced != nil {
		cmds = append(cmds, wrapEdit(forced))
	}

	cur := edit.Value(it, field)
	if field.Kind == edit.FieldMultiline {
		m.editingMulti = true
		m.editArea.SetValue(cur)
		m.editArea.Focus()
	} else {
		m.editingMulti = false
		m.editInput.SetValue(cur)
		m.editInput.CursorEnd()
		m.editInput.Focus()
	}
	cmds = append(cmds, textinput.Blink)
	return m, tea.Batch(cmds...)
}

func (m appModel) updateActiveEdit(k tea.KeyMsg, field edit.Field) (tea.Model, tea.Cmd) {
	commit := func() (tea.Model, tea.Cmd) {
		if m.editingMulti {
			m.ctrl.SetDraft(m.editArea.Value())
			m.editArea.Blur()
		} else {
			m.ctrl.SetDraft(m.editInput.Value())
			m.editInput.Blur()
		}
		cmd := wrapEdit(m.ctrl.Commit())
		cmds := append(m.drainEvents(), cmd)
		return m, tea.Batch(cmds...)
	}

	switch k.String() {
	case "esc":
		m.ctrl.Cancel()
		m.editInput.Blur()
		m.editArea.Blur()
		return m, nil
	case "enter":
		// Multiline fields use ctrl+s to commit; enter inserts a newline.
		if !m.editingMulti {
			return commit()
		}
	case "ctrl+s":
		return commit()
	}

	var cmd tea.Cmd
	if m.editingMulti {
		m.editArea, cmd = m.editArea.Update(k)
		m.ctrl.SetDraft(m.editArea.Value())
	} else {
		m.editInput, cmd = m.editInput.Update(k)
		m.ctrl.SetDraft(m.editInput.Value())
	}
	return m, cmd
}

// --- add item modal ---

func (m *appModel) focusAdd(f addFocus) {
	m.addFocus = f
	for i := range m.addInputs {
		if addFocus(i) == f {
			m.addInputs[i].Focus()
		} else {
			m.addInputs[i].Blur()
		}
	}
}

func (m *appModel) resetAddModal() {
	for i := range m.addInputs {
		m.addInputs[i].SetValue("")
		m.addInputs[i].Blur()
	}
	m.addErr = ""
	m.addFocus = addFocusName
}

func (m appModel) updateAddModal(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc":
		m.modal = modalNone
		m.resetAddModal()
		return m, nil

	case "tab", "down":
		next := m.addFocus + 1
		if next > addFocusCancel {
			next = addFocusName
		}
		m.focusAdd(next)
		return m, nil

	case "shift+tab", "up":
		next := m.addFocus - 1
		if next < addFocusName {
			next = addFocusCancel
		}
		m.focusAdd(next)
		return m, nil

	case "enter":
		switch m.addFocus {
		case addFocusCancel:
			m.modal = modalNone
			m.resetAddModal()
			return m, nil
		case addFocusSave:
			return m.submitAdd()
		default:
			m.focusAdd(m.addFocus + 1)
			return m, nil
		}
	}

	if int(m.addFocus) < len(m.addInputs) {
		var cmd tea.Cmd
		m.addInputs[m.addFocus], cmd = m.addInputs[m.addFocus].Update(k)
		return m, cmd
	}
	return m, nil
}

func (m appModel) submitAdd() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.addInputs[addFocusName].Value())
	if name == "" {
		// Reject locally; no request leaves the client.
		m.addErr = "Name is required"
		m.focusAdd(addFocusName)
		return m, nil
	}
	in := api.CreateItemInput{
		Name:     name,
		Category: strings.TrimSpace(m.addInputs[addFocusCategory].Value()),
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(m.addInputs[addFocusImpact].Value()), 64); err == nil {
		in.ImpactScore = &v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(m.addInputs[addFocusEase].Value()), 64); err == nil {
		in.EaseScore = &v
	}
	backend := m.backend
	return m, func() tea.Msg {
		it, err := backend.CreateItem(context.Background(), in)
		return createDoneMsg{item: it, err: err}
	}
}

// --- login modal ---

func (m *appModel) focusLogin(f loginFocus) {
	m.loginFocus = f
	for i := range m.loginInputs {
		if loginFocus(i) == f {
			m.loginInputs[i].Focus()
		} else {
			m.loginInputs[i].Blur()
		}
	}
}

func (m *appModel) resetLoginModal() {
	for i := range m.loginInputs {
		m.loginInputs[i].SetValue("")
		m.loginInputs[i].Blur()
	}
	m.loginErr = ""
	m.loginRemember = false
	m.loginFocus = loginFocusUsername
}

func (m appModel) updateLoginModal(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc":
		m.modal = modalNone
		m.resetLoginModal()
		return m, nil

	case "tab", "down":
		next := m.loginFocus + 1
		if next > loginFocusCancel {
			next = loginFocusUsername
		}
		m.focusLogin(next)
		return m, nil

	case "shift+tab", "up":
		next := m.loginFocus - 1
		if next < loginFocusUsername {
			next = loginFocusCancel
		}
		m.focusLogin(next)
		return m, nil

	case "ctrl+r":
		m.loginRemember = !m.loginRemember
		return m, nil

	case "enter":
		switch m.loginFocus {
		case loginFocusCancel:
			m.modal = modalNone
			m.resetLoginModal()
			return m, nil
		case loginFocusSubmit, loginFocusPassword:
			return m.submitLogin()
		default:
			m.focusLogin(m.loginFocus + 1)
			return m, nil
		}
	}

	if int(m.loginFocus) < len(m.loginInputs) {
		var cmd tea.Cmd
		m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(k)
		return m, cmd
	}
	return m, nil
}

func (m appModel) submitLogin() (tea.Model, tea.Cmd) {
	username := strings.TrimSpace(m.loginInputs[0].Value())
	password := m.loginInputs[1].Value()
	if username == "" || password == "" {
		m.loginErr = "Username and password are required"
		return m, nil
	}
	backend := m.backend
	remember := m.loginRemember
	return m, func() tea.Msg {
		u, err := backend.Login(context.Background(), username, password, remember)
		return loginDoneMsg{user: u, err: err}
	}
}

// --- confirm delete modal ---

func (m appModel) updateConfirmModal(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "y", "enter":
		id := m.confirmDeleteID
		m.modal = modalNone
		m.confirmDeleteID = 0
		backend := m.backend
		return m, func() tea.Msg {
			return deleteDoneMsg{id: id, err: backend.DeleteItem(context.Background(), id)}
		}
	case "n", "esc":
		m.modal = modalNone
		m.confirmDeleteID = 0
		return m, nil
	}
	return m, nil
}
