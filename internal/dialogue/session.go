package dialogue

import (
	"sync"

	"github.com/chris/bloom/internal/profile"
)

// State is a step of a conversation.
type State int

const (
	AwaitingAge State = iota + 1
	AwaitingEthnicity
	AwaitingGender
	AwaitingStage
	AwaitingCountry
	AwaitingExperience
	Asking
	Complete
)

func (s State) String() string {
	switch s {
	case AwaitingAge:
		return "awaiting_age"
	case AwaitingEthnicity:
		return "awaiting_ethnicity"
	case AwaitingGender:
		return "awaiting_gender"
	case AwaitingStage:
		return "awaiting_stage"
	case AwaitingCountry:
		return "awaiting_country"
	case AwaitingExperience:
		return "awaiting_experience"
	case Asking:
		return "asking"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Session is one user's in-progress conversation. It lives only in memory.
type Session struct {
	UserID  string
	State   State
	Profile profile.Profile // answers collected so far
}

// Registry holds at most one active session per user.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Begin starts a fresh session, replacing any session the user already had.
func (r *Registry) Begin(userID string, state State) *Session {
	s := &Session{UserID: userID, State: state, Profile: profile.Profile{}}
	r.mu.Lock()
	r.sessions[userID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// End tears down the user's session and marks it complete.
func (r *Registry) End(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if ok {
		s.State = Complete
		delete(r.sessions, userID)
	}
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
