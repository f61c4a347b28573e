package model

import "time"

type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Item is a roadmap entry. Field names follow the server's JSON contract.
type Item struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Status   string `json:"status"`

	Description    string `json:"description"`
	BusinessImpact string `json:"business_impact"`
	Outcome        string `json:"outcome"`
	SuccessMetric  string `json:"success_metric"`
	Owner          string `json:"owner"`
	Dependencies   string `json:"dependencies"`
	BuildTime      string `json:"build_time,omitempty"`
	Phase          string `json:"phase,omitempty"`

	ImpactScore   float64 `json:"impact_score"`
	EaseScore     float64 `json:"ease_score"`
	PriorityScore float64 `json:"priority_score"`

	// Dates are YYYY-MM-DD; nil means unset.
	StartDate        *string `json:"start_date"`
	CompletedDate    *string `json:"completed_date"`
	ExpectedDelivery *string `json:"expected_delivery,omitempty"`
	AddedDate        string  `json:"added_date,omitempty"`

	// EditHistory is server-owned and append-only; the client only reads it
	// for the activity log. It is stripped from update payloads.
	EditHistory []EditHistoryRecord `json:"edit_history,omitempty"`

	VoteCount int `json:"vote_count"`
	// UserVote is the viewing user's vote, if any.
	UserVote *VoteDirection `json:"user_vote,omitempty"`

	// LastTouched is client-local bookkeeping: set on optimistic mutation so a
	// just-moved or just-created card floats to the top of its column. Never
	// serialized; server responses never carry it.
	LastTouched time.Time `json:"-"`
}

type EditHistoryRecord struct {
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	EditedBy  string    `json:"edited_by"`
	Timestamp time.Time `json:"timestamp"`
}

// Comment is fetched per item on demand; it is not cached with the item.
type Comment struct {
	ID        int       `json:"id"`
	Author    string    `json:"author"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// CanDelete reports whether the user may remove content they do not own.
func (u User) CanDelete() bool { return u.Role == "admin" }

// Roadmap is the full payload returned by GET /api/roadmap.
type Roadmap struct {
	Items       []Item          `json:"items"`
	Metadata    RoadmapMetadata `json:"metadata"`
	LastUpdated string          `json:"last_updated,omitempty"`
}

type RoadmapMetadata struct {
	TotalItems int      `json:"total_items,omitempty"`
	Categories []string `json:"categories"`
}

// VoteResult is the response to POST /roadmap/items/{id}/vote.
type VoteResult struct {
	VoteCount int            `json:"vote_count"`
	UserVote  *VoteDirection `json:"user_vote"`
}
