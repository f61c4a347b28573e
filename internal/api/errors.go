package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAuthRequired is returned when an action needs an identity and none is
// cached. It is a short-circuit, not a failure: callers should open a login
// prompt and treat the action as "not performed".
var ErrAuthRequired = errors.New("authentication required")

// Error is the typed failure for any non-success server response. Message is
// always safe to show to the user; Ref carries the server's correlation token
// when the envelope provided one.
type Error struct {
	StatusCode int
	Message    string
	Detail     string
	Ref        string
	Endpoint   string
}

// Is lets errors.Is(err, ErrAuthRequired) match any 401 response.
func (e *Error) Is(target error) bool {
	return target == ErrAuthRequired && e.StatusCode == 401
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = fmt.Sprintf("request failed (status %d)", e.StatusCode)
	}
	if e.Ref != "" {
		return fmt.Sprintf("%s (ref %s)", msg, e.Ref)
	}
	return msg
}

// errorEnvelope matches the backend's JSON failure shape.
type errorEnvelope struct {
	Error    string `json:"error"`
	Detail   string `json:"detail,omitempty"`
	Ref      string `json:"ref,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}
