package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"roadmap-cli/internal/model"
)

// Client is the remote data gateway: one method per server interaction, no
// retries. A failed write is surfaced immediately so the user can re-trigger.
// Sessions ride on a cookie jar; callers never touch auth transport directly.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: "unexpected response from server", Endpoint: path}
	}
	return nil
}

// decodeError extracts the JSON error envelope, falling back to a generic
// message when the body is not JSON (proxies, crashes, HTML error pages).
func decodeError(resp *http.Response, path string) error {
	apiErr := &Error{StatusCode: resp.StatusCode, Endpoint: path}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && strings.TrimSpace(env.Error) != "" {
		apiErr.Message = env.Error
		apiErr.Detail = env.Detail
		apiErr.Ref = env.Ref
		if env.Endpoint != "" {
			apiErr.Endpoint = env.Endpoint
		}
		return apiErr
	}
	apiErr.Message = fmt.Sprintf("server error (status %d)", resp.StatusCode)
	return apiErr
}

func (c *Client) FetchRoadmap(ctx context.Context) (*model.Roadmap, error) {
	var rm model.Roadmap
	if err := c.do(ctx, http.MethodGet, "/api/roadmap", nil, &rm); err != nil {
		return nil, err
	}
	return &rm, nil
}

// CreateItemInput is the partial item accepted by the create endpoint; empty
// fields are omitted so the server applies its own defaults.
type CreateItemInput struct {
	Name           string   `json:"name"`
	Category       string   `json:"category,omitempty"`
	Description    string   `json:"description,omitempty"`
	BusinessImpact string   `json:"business_impact,omitempty"`
	Outcome        string   `json:"outcome,omitempty"`
	SuccessMetric  string   `json:"success_metric,omitempty"`
	Owner          string   `json:"owner,omitempty"`
	Dependencies   string   `json:"dependencies,omitempty"`
	BuildTime      string   `json:"build_time,omitempty"`
	Status         string   `json:"status,omitempty"`
	ImpactScore    *float64 `json:"impact_score,omitempty"`
	EaseScore      *float64 `json:"ease_score,omitempty"`
	PriorityScore  *float64 `json:"priority_score,omitempty"`
}

func (c *Client) CreateItem(ctx context.Context, in CreateItemInput) (*model.Item, error) {
	var it model.Item
	if err := c.do(ctx, http.MethodPost, "/api/roadmap/items", in, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// updateItemPayload is the full-item snapshot sent on PUT: everything the
// client knows minus the server-owned history log, plus attribution. The
// server derives "what changed" by diffing against its stored copy.
type updateItemPayload struct {
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Status         string   `json:"status"`
	Description    *string  `json:"description"`
	BusinessImpact *string  `json:"business_impact"`
	Outcome        *string  `json:"outcome"`
	SuccessMetric  *string  `json:"success_metric"`
	Owner          *string  `json:"owner"`
	Dependencies   *string  `json:"dependencies"`
	BuildTime      *string  `json:"build_time"`
	ImpactScore    float64  `json:"impact_score"`
	EaseScore      float64  `json:"ease_score"`
	PriorityScore  float64  `json:"priority_score"`
	StartDate      *string  `json:"start_date"`
	CompletedDate  *string  `json:"completed_date"`
	ExpectedDelivery *string `json:"expected_delivery"`
	EditedBy       string   `json:"edited_by,omitempty"`
}

// nullIfEmpty sends null for cleared text fields so "unset" stays distinct
// from "empty string" at the data layer.
func nullIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func snapshotPayload(it model.Item, editedBy string) updateItemPayload {
	return updateItemPayload{
		Name:             it.Name,
		Category:         it.Category,
		Status:           it.Status,
		Description:      nullIfEmpty(it.Description),
		BusinessImpact:   nullIfEmpty(it.BusinessImpact),
		Outcome:          nullIfEmpty(it.Outcome),
		SuccessMetric:    nullIfEmpty(it.SuccessMetric),
		Owner:            nullIfEmpty(it.Owner),
		Dependencies:     nullIfEmpty(it.Dependencies),
		BuildTime:        nullIfEmpty(it.BuildTime),
		ImpactScore:      it.ImpactScore,
		EaseScore:        it.EaseScore,
		PriorityScore:    it.PriorityScore,
		StartDate:        it.StartDate,
		CompletedDate:    it.CompletedDate,
		ExpectedDelivery: it.ExpectedDelivery,
		EditedBy:         editedBy,
	}
}

// UpdateItem sends the full current snapshot with one (or more) changed fields
// applied. The returned item is the server's canonical copy and must replace
// the local one; the server may have computed derived fields (date stamps).
func (c *Client) UpdateItem(ctx context.Context, it model.Item, editedBy string) (*model.Item, error) {
	var out model.Item
	path := fmt.Sprintf("/api/roadmap/items/%d", it.ID)
	if err := c.do(ctx, http.MethodPut, path, snapshotPayload(it, editedBy), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id int, newStatus string) (*model.Item, error) {
	var out model.Item
	path := fmt.Sprintf("/api/roadmap/items/%d/status", id)
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"status": newStatus}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteItem(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/roadmap/items/%d", id), nil, nil)
}

func (c *Client) Vote(ctx context.Context, id int, dir model.VoteDirection) (*model.VoteResult, error) {
	var out model.VoteResult
	path := fmt.Sprintf("/api/roadmap/items/%d/vote", id)
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"vote": string(dir)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListComments(ctx context.Context, id int) ([]model.Comment, error) {
	var out []model.Comment
	path := fmt.Sprintf("/api/roadmap/items/%d/comments", id)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddComment(ctx context.Context, id int, text string) (*model.Comment, error) {
	var out model.Comment
	path := fmt.Sprintf("/api/roadmap/items/%d/comments", id)
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"comment": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteComment(ctx context.Context, id, commentID int) error {
	path := fmt.Sprintf("/api/roadmap/items/%d/comments/%d", id, commentID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// CurrentUser returns (nil, nil) when no session exists; a missing identity is
// not an error.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var out model.User
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, username, password string, remember bool) (*model.User, error) {
	body := map[string]any{"username": username, "password": password, "remember": remember}
	var out struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return &Error{StatusCode: http.StatusOK, Message: fmt.Sprintf("unexpected health status %q", out.Status), Endpoint: "/api/health"}
	}
	return nil
}
