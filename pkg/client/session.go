package client

import (
	"sync"

	"github.com/picshelf/picshelf/internal/domain"
)

// SessionState tracks whether a current user is known. Unknown is the
// cold-start state before the first session restore resolves; it is
// deliberately distinct from Anonymous so a UI can show a loading state
// instead of flashing logged-out chrome.
type SessionState int

const (
	StateUnknown SessionState = iota
	StateAnonymous
	StateAuthenticated
)

// SessionStore holds the client's single piece of shared session state:
// the safe projection of the current user, or none. It is mutated only
// by the outcomes of signup, login, restore, and logout.
type SessionStore struct {
	mu      sync.RWMutex
	state   SessionState
	user    *domain.SafeUser
	onClear []func()
}

func NewSessionStore() *SessionStore {
	return &SessionStore{state: StateUnknown}
}

// Current returns the current user (nil unless authenticated) and state.
func (s *SessionStore) Current() (*domain.SafeUser, SessionState) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.state
}

// SetUser applies a set-user outcome. A nil user (failed restore) means
// anonymous; per-user caches are left alone since nothing was ever
// loaded for this session.
func (s *SessionStore) SetUser(user *domain.SafeUser) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	if user == nil {
		s.state = StateAnonymous
	} else {
		s.state = StateAuthenticated
	}
}

// Clear applies the remove-user outcome of a logout and notifies
// subscribers so per-user caches drop data belonging to the old session.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	s.user = nil
	s.state = StateAnonymous
	subscribers := make([]func(), len(s.onClear))
	copy(subscribers, s.onClear)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn()
	}
}

// OnClear subscribes fn to the remove-user signal.
func (s *SessionStore) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, fn)
}
