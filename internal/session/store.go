package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"finbot/internal/logger"
)

// Store is a keyed session store with per-chat mutual exclusion.
// Acquire blocks until no other goroutine is processing the same chat;
// operations on distinct chats never contend beyond the map lookup.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	mu   sync.Mutex
	refs int
	sess *Session
}

// NewStore creates a store evicting sessions idle longer than ttl.
// ttl <= 0 disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[int64]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Acquire takes the per-chat lock and returns its release function.
// Get, Replace, and Clear for the same chat must be called with the
// lock held; a second update for the same chat waits here until the
// first one releases.
func (s *Store) Acquire(chatID int64) (release func()) {
	s.mu.Lock()
	e, ok := s.entries[chatID]
	if !ok {
		e = &entry{}
		s.entries[chatID] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		s.mu.Lock()
		e.refs--
		if e.refs == 0 && e.sess == nil {
			delete(s.entries, chatID)
		}
		s.mu.Unlock()
	}
}

// Get returns the live session for a chat. Expired sessions are evicted
// on access and reported as absent. The slot and its activity stamp are
// shared with the background sweeper, so every access stays under s.mu.
func (s *Store) Get(chatID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[chatID]
	if !ok || e.sess == nil {
		return nil, false
	}
	if e.sess.Expired(s.now(), s.ttl) {
		logger.Session.Debug("session expired",
			slog.String("event", "session.expire"),
			slog.Int64("chat_id", chatID),
			slog.String("flow", string(e.sess.Flow)),
		)
		e.sess = nil
		return nil, false
	}
	return e.sess, true
}

// Replace stores the session for its chat, creating the slot if needed.
// The activity stamp is touched under s.mu because Sweep reads it.
func (s *Store) Replace(chatID int64, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[chatID]
	if !ok {
		e = &entry{}
		s.entries[chatID] = e
	}
	sess.Touch(s.now())
	e.sess = sess
}

// Clear drops the session for a chat. Clearing an absent session is a
// no-op.
func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	e, ok := s.entries[chatID]
	if ok {
		e.sess = nil
		if e.refs == 0 {
			delete(s.entries, chatID)
		}
	}
	s.mu.Unlock()
}

// Sweep evicts every expired session and returns the eviction count.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for chatID, e := range s.entries {
		if e.sess != nil && e.sess.Expired(now, s.ttl) {
			e.sess = nil
			evicted++
		}
		if e.sess == nil && e.refs == 0 {
			delete(s.entries, chatID)
		}
	}
	return evicted
}

// Run sweeps expired sessions at the given interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Session.Info("sweep complete",
					slog.String("event", "session.sweep"),
					slog.Int("evicted", n),
				)
			}
		}
	}
}

// Len reports the number of live sessions, expired ones included until
// the next sweep or access.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.sess != nil {
			n++
		}
	}
	return n
}
