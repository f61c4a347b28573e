package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"roadmap-cli/internal/edit"
	"roadmap-cli/internal/model"
	"roadmap-cli/internal/status"
)

const sessionCookie = "roadmap_session"

// Server is the bundled demo/dev backend: the full REST contract over an
// in-memory roadmap, optionally persisted to a JSON file. It exists so the
// client can be exercised (and tested) without the production deployment.
type Server struct {
	e *echo.Echo

	mu       sync.Mutex
	items    []model.Item
	nextID   int
	comments map[int][]model.Comment
	nextCID  int
	votes    map[int]map[string]model.VoteDirection
	users    map[string]userRecord
	sessions map[string]string // token -> username

	file        string
	lastUpdated string
	now         func() time.Time
}

type userRecord struct {
	ID       int
	Password string
	Name     string
	Email    string
	Role     string
}

type Options struct {
	// File, when set, persists the roadmap JSON across restarts.
	File string
	// Users maps username -> password. Empty seeds admin/admin.
	Users map[string]string
	Seed  []model.Item
}

func New(opts Options) *Server {
	s := &Server{
		comments: map[int][]model.Comment{},
		votes:    map[int]map[string]model.VoteDirection{},
		users:    map[string]userRecord{},
		sessions: map[string]string{},
		file:     strings.TrimSpace(opts.File),
		now:      time.Now,
		nextCID:  1,
	}
	if len(opts.Users) == 0 {
		opts.Users = map[string]string{"admin": "admin"}
	}
	uid := 1
	names := make([]string, 0, len(opts.Users))
	for u := range opts.Users {
		names = append(names, u)
	}
	sort.Strings(names)
	for _, u := range names {
		role := "editor"
		if u == "admin" {
			role = "admin"
		}
		s.users[u] = userRecord{ID: uid, Password: opts.Users[u], Name: u, Role: role}
		uid++
	}

	if s.file != "" {
		s.loadFile()
	}
	for _, it := range opts.Seed {
		if it.ID == 0 {
			it.ID = s.allocID()
		} else if it.ID >= s.nextID {
			s.nextID = it.ID + 1
		}
		s.items = append(s.items, it)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = s.errorHandler

	api := e.Group("/api")
	api.GET("/health", s.health)
	api.GET("/roadmap", s.getRoadmap)
	api.GET("/roadmap/items", s.listItems)
	api.GET("/roadmap/items/:id", s.getItem)
	api.POST("/roadmap/items", s.createItem)
	api.PUT("/roadmap/items/:id", s.updateItem)
	api.DELETE("/roadmap/items/:id", s.deleteItem)
	api.PUT("/roadmap/items/:id/status", s.updateStatus)
	api.POST("/roadmap/items/:id/vote", s.vote)
	api.GET("/roadmap/items/:id/comments", s.listComments)
	api.POST("/roadmap/items/:id/comments", s.addComment)
	api.DELETE("/roadmap/items/:id/comments/:commentId", s.deleteComment)
	api.GET("/auth/me", s.me)
	api.POST("/auth/login", s.login)
	api.POST("/auth/logout", s.logout)

	s.e = e
	return s
}

// Handler exposes the router for httptest.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error { return s.e.Start(addr) }

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}
	_ = c.JSON(code, map[string]string{"error": msg, "endpoint": c.Path()})
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg, "endpoint": c.Path()})
}

func (s *Server) today() string { return s.now().Format("2006-01-02") }

func (s *Server) allocID() int {
	if s.nextID == 0 {
		s.nextID = 1
	}
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) findItem(id int) (int, *model.Item) {
	for i := range s.items {
		if s.items[i].ID == id {
			return i, &s.items[i]
		}
	}
	return -1, nil
}

// currentUser resolves the session cookie, if any.
func (s *Server) currentUser(c echo.Context) (string, *userRecord) {
	ck, err := c.Cookie(sessionCookie)
	if err != nil || ck.Value == "" {
		return "", nil
	}
	username, ok := s.sessions[ck.Value]
	if !ok {
		return "", nil
	}
	u, ok := s.users[username]
	if !ok {
		return "", nil
	}
	return username, &u
}

// render fills the per-viewer vote fields; votes live outside the item so one
// stored copy serves every session.
func (s *Server) render(it model.Item, username string) model.Item {
	byUser := s.votes[it.ID]
	it.VoteCount = len(byUser)
	it.UserVote = nil
	if username != "" {
		if dir, ok := byUser[username]; ok {
			d := dir
			it.UserVote = &d
		}
	}
	return it
}

func (s *Server) categories() []string {
	set := map[string]bool{}
	for _, it := range s.items {
		if c := strings.TrimSpace(it.Category); c != "" {
			set[c] = true
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (s *Server) touchSaved() {
	s.lastUpdated = s.now().UTC().Format("2006-01-02T15:04:05Z")
	if s.file != "" {
		s.saveFile()
	}
}

// --- persistence ---

type fileState struct {
	Items       []model.Item             `json:"items"`
	NextID      int                      `json:"next_id"`
	Comments    map[string][]model.Comment `json:"comments,omitempty"`
	NextCID     int                      `json:"next_comment_id,omitempty"`
	LastUpdated string                   `json:"last_updated,omitempty"`
}

func (s *Server) loadFile() {
	b, err := os.ReadFile(s.file)
	if err != nil {
		return
	}
	var st fileState
	if err := json.Unmarshal(b, &st); err != nil {
		return
	}
	s.items = st.Items
	s.nextID = st.NextID
	s.lastUpdated = st.LastUpdated
	if st.NextCID > 0 {
		s.nextCID = st.NextCID
	}
	for k, v := range st.Comments {
		if id, err := strconv.Atoi(k); err == nil {
			s.comments[id] = v
		}
	}
}

func (s *Server) saveFile() {
	st := fileState{
		Items:       s.items,
		NextID:      s.nextID,
		NextCID:     s.nextCID,
		LastUpdated: s.lastUpdated,
		Comments:    map[string][]model.Comment{},
	}
	for id, cs := range s.comments {
		st.Comments[strconv.Itoa(id)] = cs
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.file), 0o755)
	_ = os.WriteFile(s.file, b, 0o644)
}

// --- handlers ---

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getRoadmap(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, _ := s.currentUser(c)
	items := make([]model.Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, s.render(it, username))
	}
	return c.JSON(http.StatusOK, model.Roadmap{
		Items: items,
		Metadata: model.RoadmapMetadata{
			TotalItems: len(items),
			Categories: s.categories(),
		},
		LastUpdated: s.lastUpdated,
	})
}

func (s *Server) listItems(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, _ := s.currentUser(c)
	st := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	cat := strings.TrimSpace(c.QueryParam("category"))
	out := make([]model.Item, 0, len(s.items))
	for _, it := range s.items {
		if st != "" && it.Status != st {
			continue
		}
		if cat != "" && !strings.EqualFold(it.Category, cat) {
			continue
		}
		out = append(out, s.render(it, username))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getItem(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid item id")
	}
	_, it := s.findItem(id)
	if it == nil {
		return fail(c, http.StatusNotFound, fmt.Sprintf("Item %d not found", id))
	}
	username, _ := s.currentUser(c)
	return c.JSON(http.StatusOK, s.render(*it, username))
}

type itemInput struct {
	Name             string   `json:"name"`
	Category         string   `json:"category"`
	Status           string   `json:"status"`
	Description      *string  `json:"description"`
	BusinessImpact   *string  `json:"business_impact"`
	Outcome          *string  `json:"outcome"`
	SuccessMetric    *string  `json:"success_metric"`
	Owner            *string  `json:"owner"`
	Dependencies     *string  `json:"dependencies"`
	BuildTime        *string  `json:"build_time"`
	ImpactScore      *float64 `json:"impact_score"`
	EaseScore        *float64 `json:"ease_score"`
	PriorityScore    *float64 `json:"priority_score"`
	StartDate        *string  `json:"start_date"`
	CompletedDate    *string  `json:"completed_date"`
	ExpectedDelivery *string  `json:"expected_delivery"`
	EditedBy         string   `json:"edited_by"`
}

func (in itemInput) validate(requireName bool) string {
	if requireName && strings.TrimSpace(in.Name) == "" {
		return `Field "name" is required and cannot be empty`
	}
	if strings.TrimSpace(in.Status) != "" && !status.Valid(in.Status) {
		return fmt.Sprintf("Invalid status. Must be one of: %s", strings.Join(status.All(), ", "))
	}
	scores := map[string]*float64{
		"impact_score":   in.ImpactScore,
		"ease_score":     in.EaseScore,
		"priority_score": in.PriorityScore,
	}
	// Deterministic error order.
	for _, name := range []string{"impact_score", "ease_score", "priority_score"} {
		if v := scores[name]; v != nil && (*v < 0 || *v > 10) {
			return fmt.Sprintf("%s must be between 0 and 10", name)
		}
	}
	return ""
}

func str(p *string, def string) string {
	if p == nil {
		return def
	}
	return strings.TrimSpace(*p)
}

func score(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// applyStatusDates stamps the dates the status transition implies; the client
// must pick these up from the canonical response.
func (s *Server) applyStatusDates(it *model.Item) {
	if it.Status == status.InProgress && it.StartDate == nil {
		d := s.today()
		it.StartDate = &d
	}
	if it.Status == status.Done && it.CompletedDate == nil {
		d := s.today()
		it.CompletedDate = &d
	}
}

func (s *Server) createItem(c echo.Context) error {
	var in itemInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "Request body must be a JSON object")
	}
	if msg := in.validate(true); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := strings.TrimSpace(in.Status)
	if st == "" {
		st = status.Backlog
	} else {
		st, _ = status.Normalize(st)
	}
	cat := strings.TrimSpace(in.Category)
	if cat == "" {
		cat = "Uncategorized"
	}
	it := model.Item{
		ID:               s.allocID(),
		Name:             strings.TrimSpace(in.Name),
		Category:         cat,
		Status:           st,
		Description:      str(in.Description, ""),
		BusinessImpact:   str(in.BusinessImpact, ""),
		Outcome:          str(in.Outcome, "TBD - define after initial build"),
		SuccessMetric:    str(in.SuccessMetric, "TBD"),
		Owner:            str(in.Owner, ""),
		Dependencies:     str(in.Dependencies, ""),
		BuildTime:        str(in.BuildTime, ""),
		ImpactScore:      score(in.ImpactScore),
		EaseScore:        score(in.EaseScore),
		PriorityScore:    score(in.PriorityScore),
		StartDate:        in.StartDate,
		CompletedDate:    in.CompletedDate,
		ExpectedDelivery: in.ExpectedDelivery,
		AddedDate:        s.today(),
	}
	s.applyStatusDates(&it)
	s.items = append(s.items, it)
	s.touchSaved()
	username, _ := s.currentUser(c)
	return c.JSON(http.StatusCreated, s.render(it, username))
}

// historyFields is the diffable surface for the activity log.
var historyFields = []string{
	"name", "category", "status", "description", "business_impact", "outcome",
	"success_metric", "owner", "dependencies", "build_time",
	"impact_score", "ease_score", "priority_score",
	"start_date", "completed_date", "expected_delivery",
}

// diffHistory appends one record per changed field; the server owns the log
// and derives the change set by comparing against its stored prior version.
func (s *Server) diffHistory(old, updated *model.Item, editedBy string) {
	if strings.TrimSpace(editedBy) == "" {
		editedBy = "anonymous"
	}
	for _, name := range historyFields {
		f, ok := edit.FieldByName(name)
		if !ok {
			continue
		}
		ov, nv := edit.Value(*old, f), edit.Value(*updated, f)
		if ov == nv {
			continue
		}
		updated.EditHistory = append(updated.EditHistory, model.EditHistoryRecord{
			Field:     name,
			OldValue:  ov,
			NewValue:  nv,
			EditedBy:  editedBy,
			Timestamp: s.now().UTC(),
		})
	}
}

func (s *Server) updateItem(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid item id")
	}
	var in itemInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "Request body must be a JSON object")
	}
	if msg := in.validate(true); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, existing := s.findItem(id)
	if existing == nil {
		return fail(c, http.StatusNotFound, fmt.Sprintf("Item %d not found", id))
	}

	st := strings.TrimSpace(in.Status)
	if st == "" {
		st = existing.Status
	} else {
		st, _ = status.Normalize(st)
	}
	updated := model.Item{
		ID:               id,
		Name:             strings.TrimSpace(in.Name),
		Category:         str(&in.Category, "Uncategorized"),
		Status:           st,
		Description:      str(in.Description, ""),
		BusinessImpact:   str(in.BusinessImpact, ""),
		Outcome:          str(in.Outcome, ""),
		SuccessMetric:    str(in.SuccessMetric, ""),
		Owner:            str(in.Owner, ""),
		Dependencies:     str(in.Dependencies, ""),
		BuildTime:        str(in.BuildTime, ""),
		ImpactScore:      score(in.ImpactScore),
		EaseScore:        score(in.EaseScore),
		PriorityScore:    score(in.PriorityScore),
		StartDate:        in.StartDate,
		CompletedDate:    in.CompletedDate,
		ExpectedDelivery: in.ExpectedDelivery,
		// Server-owned fields survive the full replace.
		AddedDate:   existing.AddedDate,
		EditHistory: existing.EditHistory,
	}
	if updated.Category == "" {
		updated.Category = "Uncategorized"
	}
	// Carry forward stamps unless explicitly provided.
	if in.StartDate == nil {
		updated.StartDate = existing.StartDate
	}
	if in.CompletedDate == nil {
		updated.CompletedDate = existing.CompletedDate
	}
	s.applyStatusDates(&updated)
	s.diffHistory(existing, &updated, in.EditedBy)
	s.items[idx] = updated
	s.touchSaved()
	username, _ := s.currentUser(c)
	return c.JSON(http.StatusOK, s.render(updated, username))
}

func (s *Server) deleteItem(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid item id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, existing := s.findItem(id)
	if existing == nil {
		return fail(c, http.StatusNotFound, fmt.Sprintf("Item %d not found", id))
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	delete(s.comments, id)
	delete(s.votes, id)
	s.touchSaved()
	return c.JSON(http.StatusOK, map[string]int{"deleted": id})
}

func (s *Server) updateStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid item id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Status) == "" {
		return fail(c, http.StatusBadRequest, `Field "status" is required`)
	}
	st, err := status.Normalize(body.Status)
	if err != nil {
		return fail(c, http.StatusBadRequest, fmt.Sprintf("Invalid status. Must be one of: %s", strings.Join(status.All(), ", ")))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, it := s.findItem(id)
	if it == nil {
		return fail(c, http.StatusNotFound, fmt.Sprintf("Item %d not found", id))
	}
	updated := *it
	old := updated.Status
	updated.Status = st
	s.applyStatusDates(&updated)
	if old != st {
		username, _ := s.currentUser(c)
		if username == "" {
			username = "anonymous"
		}
		updated.EditHistory = append(updated.EditHistory, model.EditHistoryRecord{
			Field: "status", OldValue: old, NewValue: st,
			EditedBy: username, Timestamp: s.now().UTC(),
		})
	}
	s.items[idx] = updated
	s.touchSaved()
	username, _ := s.currentUser(c)
	return c.JSON(http.StatusOK, s.render(updated, username))
}

func (s *Server) vote(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid item id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	username, _ := s.currentUser(c)
	if username == "" {
		return fail(c, http.StatusUnauthorized, "Login required to vote")
	}
	if _, it := s.findItem(id); it == nil {
		return fail(c, http.StatusNotFound, fmt.Sprintf("Item %d not found", id))
	}
	var body struct {
		Vote string `json:"vote"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Request body must be a JSON object")
	}
	dir := model.VoteDirection(strings.ToLower(strings.TrimSpace(body.Vote)))
	if dir != model.VoteUp && dir != model.VoteDown {
		return fail(c, http.StatusBadRequest, `Field "vote" must be "up" or "down"`)
	}
	byUser := s.votes[id]
	if byUser == nil {
		byUser = map[string]model.VoteDirection{}
		s.votes[id] = byUser
	}
	// Voting the same direction again withdraws the vote.
	var userVote *model.VoteDirection
	if prev, ok := byUser[username]; ok && prev == dir {
		delete(byUser, username)
	} else {
		byUser[username] = dir
		d := dir
		userVote = &d
	}
	return c.JSON(http.StatusOK, model.VoteResult{VoteCount: len(byUser), UserVote: userVote})
}

func (s *Server) listComments(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid item id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, it := s.findItem(id); it == nil {
		return fail(c, http.StatusNotFound, fmt.Sprintf("Item %d not found", id))
	}
	cs := s.comments[id]
	if cs == nil {
		cs = []model.Comment{}
	}
	return c.JSON(http.StatusOK, cs)
}

func (s *Server) addComment(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid item id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	username, _ := s.currentUser(c)
	if username == "" {
		return fail(c, http.StatusUnauthorized, "Login required to comment")
	}
	if _, it := s.findItem(id); it == nil {
		return fail(c, http.StatusNotFound, fmt.Sprintf("Item %d not found", id))
	}
	var body struct {
		Comment string `json:"comment"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Comment) == "" {
		return fail(c, http.StatusBadRequest, "Comment text is required")
	}
	cm := model.Comment{
		ID:        s.nextCID,
		Author:    username,
		Comment:   strings.TrimSpace(body.Comment),
		CreatedAt: s.now().UTC(),
	}
	s.nextCID++
	s.comments[id] = append(s.comments[id], cm)
	s.touchSaved()
	return c.JSON(http.StatusCreated, cm)
}

func (s *Server) deleteComment(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid item id")
	}
	cid, err := strconv.Atoi(c.Param("commentId"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid comment id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	username, u := s.currentUser(c)
	if username == "" {
		return fail(c, http.StatusUnauthorized, "Login required")
	}
	cs := s.comments[id]
	for i, cm := range cs {
		if cm.ID != cid {
			continue
		}
		if cm.Author != username && !u.roleAdmin() {
			return fail(c, http.StatusForbidden, "You can only delete your own comments")
		}
		s.comments[id] = append(cs[:i], cs[i+1:]...)
		s.touchSaved()
		return c.JSON(http.StatusOK, map[string]int{"deleted": cid})
	}
	return fail(c, http.StatusNotFound, fmt.Sprintf("Comment %d not found", cid))
}

func (u *userRecord) roleAdmin() bool { return u != nil && u.Role == "admin" }

func (s *Server) me(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, u := s.currentUser(c)
	if username == "" {
		return fail(c, http.StatusUnauthorized, "Not logged in")
	}
	return c.JSON(http.StatusOK, model.User{ID: u.ID, Username: username, Name: u.Name, Email: u.Email, Role: u.Role})
}

func (s *Server) login(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Remember bool   `json:"remember"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Request body must be a JSON object")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.TrimSpace(body.Username)]
	if !ok || u.Password != body.Password {
		return fail(c, http.StatusUnauthorized, "Invalid username or password")
	}
	token := newToken()
	s.sessions[token] = strings.TrimSpace(body.Username)
	ck := &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	}
	if body.Remember {
		ck.Expires = s.now().Add(30 * 24 * time.Hour)
	}
	c.SetCookie(ck)
	return c.JSON(http.StatusOK, map[string]any{
		"user": model.User{ID: u.ID, Username: body.Username, Name: u.Name, Email: u.Email, Role: u.Role},
	})
}

func (s *Server) logout(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ck, err := c.Cookie(sessionCookie); err == nil {
		delete(s.sessions, ck.Value)
	}
	c.SetCookie(&http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
