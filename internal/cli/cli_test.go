package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"roadmap-cli/internal/model"
	"roadmap-cli/internal/server"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// startServer runs the bundled API server on a test listener and isolates the
// config dir so no command reads the developer's real config.yaml.
func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	t.Setenv("ROADMAP_CONFIG_DIR", t.TempDir())

	srv := server.New(server.Options{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func mustRun(t *testing.T, ts *httptest.Server, out any, args ...string) {
	t.Helper()
	full := append([]string{"--server", ts.URL}, args...)
	stdout, stderr, err := runCLI(t, full)
	if err != nil {
		t.Fatalf("command failed: roadmap %v\nerr: %v\nstderr:\n%s", args, err, string(stderr))
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal(stdout, out); err != nil {
		t.Fatalf("unmarshal stdout: %v\nstdout:\n%s\nargs: %v", err, string(stdout), args)
	}
}

func TestItemsLifecycle(t *testing.T) {
	ts := startServer(t)

	var created model.Item
	mustRun(t, ts, &created, "items", "create", "Unified search",
		"--category", "Platform", "--impact", "8", "--ease", "4")
	if created.ID == 0 {
		t.Fatalf("expected created item to have an id; got %+v", created)
	}
	if created.Status != "BACKLOG" {
		t.Fatalf("expected default status BACKLOG; got %q", created.Status)
	}
	if created.ImpactScore != 8 {
		t.Fatalf("expected impact score 8; got %v", created.ImpactScore)
	}

	var listed []model.Item
	mustRun(t, ts, &listed, "items", "list", "--status", "BACKLOG")
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("expected one BACKLOG item %d; got %+v", created.ID, listed)
	}

	var moved model.Item
	mustRun(t, ts, &moved, "items", "move", "1", "in_progress")
	if moved.Status != "IN_PROGRESS" {
		t.Fatalf("expected status normalized to IN_PROGRESS; got %q", moved.Status)
	}
	if moved.StartDate == nil {
		t.Fatalf("expected start_date stamped on move to IN_PROGRESS")
	}

	var empty []model.Item
	mustRun(t, ts, &empty, "items", "list", "--status", "BACKLOG")
	if len(empty) != 0 {
		t.Fatalf("expected BACKLOG to be empty after move; got %+v", empty)
	}

	if _, _, err := runCLI(t, []string{"--server", ts.URL, "items", "delete", "1"}); err == nil {
		t.Fatalf("expected delete without --yes to fail")
	}
	mustRun(t, ts, nil, "items", "delete", "1", "--yes")

	var all []model.Item
	mustRun(t, ts, &all, "items", "list")
	if len(all) != 0 {
		t.Fatalf("expected no items after delete; got %+v", all)
	}
}

func TestItemsSetRecordsHistory(t *testing.T) {
	ts := startServer(t)

	var created model.Item
	mustRun(t, ts, &created, "items", "create", "Billing revamp")

	var saved model.Item
	mustRun(t, ts, &saved, "--as", "jordan", "items", "set", "1", "owner", "Maya")
	if saved.Owner != "Maya" {
		t.Fatalf("expected owner Maya; got %q", saved.Owner)
	}
	if len(saved.EditHistory) != 1 {
		t.Fatalf("expected one history record; got %+v", saved.EditHistory)
	}
	rec := saved.EditHistory[0]
	if rec.Field != "owner" || rec.NewValue != "Maya" || rec.EditedBy != "jordan" {
		t.Fatalf("unexpected history record: %+v", rec)
	}

	// Status edits go through the move path so start/completed dates stamp.
	if _, _, err := runCLI(t, []string{"--server", ts.URL, "items", "set", "1", "status", "DONE"}); err == nil {
		t.Fatalf("expected items set status to be rejected")
	}
	if _, _, err := runCLI(t, []string{"--server", ts.URL, "items", "set", "1", "nonsense", "x"}); err == nil {
		t.Fatalf("expected unknown field to be rejected")
	}
}

func TestItemsShowWithComments(t *testing.T) {
	ts := startServer(t)

	mustRun(t, ts, nil, "items", "create", "Mobile app")

	var shown struct {
		Item     model.Item      `json:"item"`
		Comments []model.Comment `json:"comments"`
	}
	mustRun(t, ts, &shown, "items", "show", "1", "--comments")
	if shown.Item.Name != "Mobile app" {
		t.Fatalf("expected item in payload; got %+v", shown.Item)
	}
	if shown.Comments == nil || len(shown.Comments) != 0 {
		t.Fatalf("expected empty comment list; got %+v", shown.Comments)
	}

	if _, _, err := runCLI(t, []string{"--server", ts.URL, "items", "show", "99"}); err == nil {
		t.Fatalf("expected show of missing item to fail")
	}
}

func TestVoteAndCommentsRequireLogin(t *testing.T) {
	ts := startServer(t)

	mustRun(t, ts, nil, "items", "create", "SSO support")

	if _, stderr, err := runCLI(t, []string{"--server", ts.URL, "items", "vote", "1"}); err == nil {
		t.Fatalf("expected anonymous vote to fail; stderr: %s", stderr)
	}
	if _, _, err := runCLI(t, []string{"--server", ts.URL, "comments", "add", "1", "ship it"}); err == nil {
		t.Fatalf("expected anonymous comment to fail")
	}

	var who map[string]any
	mustRun(t, ts, &who, "whoami")
	if who["user"] != nil {
		t.Fatalf("expected anonymous whoami; got %+v", who)
	}
}

func TestLoginCommand(t *testing.T) {
	ts := startServer(t)

	var u model.User
	mustRun(t, ts, &u, "login", "admin", "--password", "admin")
	if u.Username != "admin" || u.Role != "admin" {
		t.Fatalf("unexpected login response: %+v", u)
	}

	if _, _, err := runCLI(t, []string{"--server", ts.URL, "login", "admin", "--password", "wrong"}); err == nil {
		t.Fatalf("expected bad password to fail")
	}
}

func TestHealthCommand(t *testing.T) {
	ts := startServer(t)

	var out map[string]string
	mustRun(t, ts, &out, "health")
	if out["status"] != "ok" {
		t.Fatalf("expected ok; got %+v", out)
	}
}

func TestConfigSetGet(t *testing.T) {
	ts := startServer(t)

	mustRun(t, ts, nil, "config", "set", "theme", "dark")
	mustRun(t, ts, nil, "config", "set", "identity", "maya")

	var got map[string]string
	mustRun(t, ts, &got, "config", "get")
	if got["theme"] != "dark" || got["identity"] != "maya" {
		t.Fatalf("expected persisted settings; got %+v", got)
	}

	if _, _, err := runCLI(t, []string{"--server", ts.URL, "config", "set", "theme", "purple"}); err == nil {
		t.Fatalf("expected invalid theme to be rejected")
	}
	if _, _, err := runCLI(t, []string{"--server", ts.URL, "config", "set", "nope", "x"}); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestSearchAndSortFlags(t *testing.T) {
	ts := startServer(t)

	mustRun(t, ts, nil, "items", "create", "Alpha work", "--priority", "2")
	mustRun(t, ts, nil, "items", "create", "Beta work", "--priority", "9")
	mustRun(t, ts, nil, "items", "create", "Gamma other", "--priority", "5")

	var found []model.Item
	mustRun(t, ts, &found, "items", "list", "--search", "work")
	if len(found) != 2 {
		t.Fatalf("expected 2 matches for 'work'; got %+v", found)
	}

	var sorted []model.Item
	mustRun(t, ts, &sorted, "items", "list", "--sort", "priority")
	if len(sorted) != 3 || sorted[0].Name != "Beta work" {
		t.Fatalf("expected Beta work first by priority; got %+v", sorted)
	}

	var byName []model.Item
	mustRun(t, ts, &byName, "items", "list", "--sort", "name")
	if byName[0].Name != "Alpha work" {
		t.Fatalf("expected Alpha work first by name; got %+v", byName)
	}
}
