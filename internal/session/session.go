// Package session holds the authenticated identity shared by the controllers.
// The session is an explicit value with a defined lifecycle: login sets it,
// logout clears it, and interested components observe changes through
// subscriptions instead of reading ambient state.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ugcmarket/realtime-go/internal/models"
)

// Session is the authenticated identity plus its credentials.
type Session struct {
	User         models.UserProfile
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// Authenticated reports whether the session carries a usable identity.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != "" && s.User.ID != ""
}

// Expired reports whether the access token's exp claim has passed. Sessions
// whose token carries no readable expiry are treated as unexpired; the server
// remains the authority either way.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return true
	}
	claims, err := ParseClaims(s.AccessToken)
	if err != nil || claims.ExpiresAt.IsZero() {
		return false
	}
	return now.After(claims.ExpiresAt)
}

// Store owns the current session and notifies subscribers when it changes.
type Store struct {
	logger zerolog.Logger

	mu       sync.RWMutex
	current  *Session
	nextID   int
	watchers map[int]func(*Session)
}

// NewStore builds an empty session store.
func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		logger:   logger.With().Str("component", "session_store").Logger(),
		watchers: make(map[int]func(*Session)),
	}
}

// Current returns the active session, or nil when logged out.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the active session and notifies subscribers. Subscribers run
// on the caller's goroutine, outside the store lock.
func (s *Store) Set(sess *Session) {
	s.mu.Lock()
	s.current = sess
	watchers := make([]func(*Session), 0, len(s.watchers))
	for _, watcher := range s.watchers {
		watchers = append(watchers, watcher)
	}
	s.mu.Unlock()

	if sess.Authenticated() {
		s.logger.Debug().Str("user_id", sess.User.ID).Msg("session set")
	} else {
		s.logger.Debug().Msg("session cleared")
	}

	for _, watcher := range watchers {
		watcher(sess)
	}
}

// Clear drops the active session.
func (s *Store) Clear() {
	s.Set(nil)
}

// Subscribe registers a watcher invoked on every session change. The returned
// cancel function removes it.
func (s *Store) Subscribe(fn func(*Session)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}
