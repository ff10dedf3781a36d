// Package session keeps per-chat dialog state. A session exists only
// while a flow is in progress: it is created when a command starts a
// flow and deleted the moment the flow completes, fails, or is
// superseded. The store serializes all work for one chat while keeping
// distinct chats fully independent.
package session

import (
	"time"

	"finbot/internal/flow"
)

// Session is the per-chat record of the current flow, step, and the
// values collected so far.
type Session struct {
	ChatID       int64
	Flow         flow.ID
	Step         int
	Fields       map[string]string
	CreatedAt    time.Time
	LastActivity time.Time
}

// New returns an empty session positioned at the first step of a flow.
func New(chatID int64, id flow.ID, now time.Time) *Session {
	return &Session{
		ChatID:       chatID,
		Flow:         id,
		Step:         0,
		Fields:       make(map[string]string),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Touch records activity for TTL accounting.
func (s *Session) Touch(now time.Time) {
	s.LastActivity = now
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.LastActivity) > ttl
}
