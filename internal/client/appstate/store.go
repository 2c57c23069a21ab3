// Package appstate holds the field client's session, connectivity and user
// notices. A Store is created once and handed to the API client, the offline
// queue and whatever renders the UI.
package appstate

import (
	"sort"
	"sync"
	"time"

	"github.com/gasdist/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// Session is the signed-in user as the client knows it
type Session struct {
	UserID    uuid.UUID
	Username  string
	Role      identity.Role
	BranchID  *uuid.UUID
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the bearer token is past its expiry at now
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// NoticeLevel is the severity of a notice shown to the user
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a message waiting to be shown or dismissed
type Notice struct {
	ID        uuid.UUID
	Level     NoticeLevel
	Message   string
	CreatedAt time.Time
}

// ChangeKind tells subscribers which part of the state moved
type ChangeKind string

const (
	ChangeSession      ChangeKind = "session"
	ChangeConnectivity ChangeKind = "connectivity"
	ChangeNotices      ChangeKind = "notices"
)

// Change is delivered to subscribers after a command changed the state
type Change struct {
	Kind ChangeKind
	// Online is the connectivity after the change; set for every kind
	Online bool
	// WentOnline is true only for the offline -> online transition
	WentOnline bool
}

// Listener receives state changes. Listeners run synchronously after the
// store lock is released and must not block.
type Listener func(Change)

// Store is the client's application state. It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	session    *Session
	online     bool
	notices    []Notice
	listeners  map[int]Listener
	nextID     int
	now        func() time.Time
	maxNotices int
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMaxNotices bounds how many notices are kept; the oldest are dropped first
func WithMaxNotices(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxNotices = n
		}
	}
}

// NewStore creates a Store. The client starts offline until SetOnline(true).
func NewStore(opts ...Option) *Store {
	s := &Store{
		listeners:  make(map[int]Listener),
		now:        time.Now,
		maxNotices: 50,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Queries
// =============================================================================

// Session returns the current session, if any
func (s *Store) Session() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// Token returns the bearer token, or "" when signed out or expired
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil || s.session.Expired(s.now()) {
		return ""
	}
	return s.session.Token
}

// Can mirrors the server's capability check for the signed-in role. It only
// decides what the UI offers; the server still enforces every capability.
func (s *Store) Can(c identity.Capability) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return false
	}
	return s.session.Role.Can(c)
}

// IsOnline reports the last known connectivity
func (s *Store) IsOnline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

// Notices returns pending notices, oldest first
func (s *Store) Notices() []Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notice, len(s.notices))
	copy(out, s.notices)
	return out
}

// =============================================================================
// Commands
// =============================================================================

// SignIn replaces the current session
func (s *Store) SignIn(session Session) {
	s.mu.Lock()
	s.session = &session
	change := Change{Kind: ChangeSession, Online: s.online}
	s.mu.Unlock()
	s.emit(change)
}

// SignOut clears the session
func (s *Store) SignOut() {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return
	}
	s.session = nil
	change := Change{Kind: ChangeSession, Online: s.online}
	s.mu.Unlock()
	s.emit(change)
}

// SetOnline records connectivity. Listeners are only told about transitions.
func (s *Store) SetOnline(online bool) {
	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return
	}
	s.online = online
	change := Change{Kind: ChangeConnectivity, Online: online, WentOnline: online}
	s.mu.Unlock()
	s.emit(change)
}

// Notify adds a notice and returns its id
func (s *Store) Notify(level NoticeLevel, message string) uuid.UUID {
	n := Notice{ID: uuid.New(), Level: level, Message: message}
	s.mu.Lock()
	n.CreatedAt = s.now()
	s.notices = append(s.notices, n)
	if over := len(s.notices) - s.maxNotices; over > 0 {
		s.notices = append([]Notice(nil), s.notices[over:]...)
	}
	change := Change{Kind: ChangeNotices, Online: s.online}
	s.mu.Unlock()
	s.emit(change)
	return n.ID
}

// DismissNotice removes a notice. Unknown ids are ignored.
func (s *Store) DismissNotice(id uuid.UUID) {
	s.mu.Lock()
	idx := -1
	for i, n := range s.notices {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.notices = append(s.notices[:idx], s.notices[idx+1:]...)
	change := Change{Kind: ChangeNotices, Online: s.online}
	s.mu.Unlock()
	s.emit(change)
}

// Subscribe registers a listener and returns a function that removes it
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) emit(change Change) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(change)
	}
}
