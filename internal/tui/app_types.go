package tui

import (
	"roadmap-cli/internal/edit"
	"roadmap-cli/internal/model"
)

type view int

const (
	viewBoard view = iota
	viewDetail
)

type modalKind int

const (
	modalNone modalKind = iota
	modalAddItem
	modalLogin
	modalConfirmDelete
)

type addFocus int

const (
	addFocusName addFocus = iota
	addFocusCategory
	addFocusImpact
	addFocusEase
	addFocusSave
	addFocusCancel
)

type loginFocus int

const (
	loginFocusUsername loginFocus = iota
	loginFocusPassword
	loginFocusSubmit
	loginFocusCancel
)

type roadmapLoadedMsg struct {
	roadmap *model.Roadmap
	err     error
}

// editResultMsg carries a finished save/move out of the reconciler's deferred
// work and back into Update.
type editResultMsg struct{ inner edit.Msg }

type userLoadedMsg struct {
	user *model.User
	err  error
}

type loginDoneMsg struct {
	user *model.User
	err  error
}

type logoutDoneMsg struct{ err error }

type createDoneMsg struct {
	item *model.Item
	err  error
}

type deleteDoneMsg struct {
	id  int
	err error
}

type voteDoneMsg struct {
	id     int
	result *model.VoteResult
	err    error
}

type commentsLoadedMsg struct {
	id       int
	comments []model.Comment
	err      error
}

type commentAddedMsg struct {
	id  int
	err error
}

type commentDeletedMsg struct {
	id  int
	err error
}

type toastDoneMsg struct{ seq int }

type celebrateDoneMsg struct{ seq int }

type reloadTickMsg struct{}

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)
