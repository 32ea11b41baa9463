// Package auth owns the process's login session.
package auth

import (
	"context"
	"sync"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/blackwell-systems/bookctl/internal/logging"
	"go.uber.org/zap"
)

// Backend is the part of the API client the manager calls.
type Backend interface {
	Login(ctx context.Context, username, password string) (*api.User, error)
	Register(ctx context.Context, username, password string) (*api.User, error)
	OnSessionExpired(fn func(ctx context.Context)) (unsubscribe func())
}

// Store mirrors the session to persistent storage.
type Store interface {
	Token() (string, bool)
	SetToken(token string)
	SetUser(user any)
	LoadUser(dst any) bool
	Clear()
}

// Session is a snapshot of the login state.
type Session struct {
	User  *api.User
	Token string
}

// Authenticated reports whether both a user and a token are present.
func (s Session) Authenticated() bool {
	return s.User != nil && s.Token != ""
}

// Manager is the single writer of the session. All methods are safe for
// concurrent use.
type Manager struct {
	backend Backend
	store   Store
	logger  *zap.Logger

	mu      sync.RWMutex
	session Session

	listenersMu sync.Mutex
	listeners   map[int]func(Session)
	nextID      int

	unsubscribe func()
}

// NewManager builds a manager whose initial state is read from store once.
func NewManager(backend Backend, store Store, logger *zap.Logger) *Manager {
	m := &Manager{
		backend:   backend,
		store:     store,
		logger:    logging.OrNop(logger).Named("auth"),
		listeners: make(map[int]func(Session)),
	}
	m.session = m.restore()
	m.unsubscribe = backend.OnSessionExpired(m.expired)
	return m
}

func (m *Manager) restore() Session {
	var s Session
	if tok, ok := m.store.Token(); ok {
		s.Token = tok
	}
	var u api.User
	if m.store.LoadUser(&u) {
		s.User = &u
	}
	if (s.Token == "") != (s.User == nil) {
		m.logger.Warn("stored session is incomplete, treating as logged out",
			zap.Bool("has_token", s.Token != ""), zap.Bool("has_user", s.User != nil))
	}
	return s
}

// Close detaches the manager from the client's expiry events.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Login authenticates against the backend. On success the username stands
// in as the bearer token, since the backend issues none. On failure the
// session is untouched and the client's error is returned as is.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	user, err := m.backend.Login(ctx, username, password)
	if err != nil {
		return err
	}

	token := user.Username
	m.store.SetToken(token)
	m.store.SetUser(user)

	m.mu.Lock()
	m.session = Session{User: user, Token: token}
	snap := m.session
	m.mu.Unlock()

	m.logger.Info("logged in", zap.String("username", user.Username))
	m.notify(snap)
	return nil
}

// Register creates an account. It never changes the session.
func (m *Manager) Register(ctx context.Context, username, password string) (*api.User, error) {
	return m.backend.Register(ctx, username, password)
}

// Logout clears the session. Calling it while logged out is a no-op
// beyond re-clearing the store.
func (m *Manager) Logout() {
	m.store.Clear()
	if m.reset() {
		m.logger.Info("logged out")
	}
}

// IsAuthenticated is recomputed from the current session on every call.
func (m *Manager) IsAuthenticated() bool {
	return m.Session().Authenticated()
}

// Session returns a copy of the current state.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.session
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// User returns the logged-in user, or nil.
func (m *Manager) User() *api.User {
	return m.Session().User
}

// OnChange registers fn to be called with the new state after every
// transition. The returned func unsubscribes.
func (m *Manager) OnChange(fn func(Session)) (unsubscribe func()) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.listenersMu.Lock()
		delete(m.listeners, id)
		m.listenersMu.Unlock()
	}
}

// expired runs after the client has already cleared the store on a 401.
func (m *Manager) expired(context.Context) {
	if m.reset() {
		m.logger.Info("session expired")
	}
}

// reset moves to the anonymous state and reports whether anything changed.
func (m *Manager) reset() bool {
	m.mu.Lock()
	changed := m.session.User != nil || m.session.Token != ""
	m.session = Session{}
	m.mu.Unlock()

	if changed {
		m.notify(Session{})
	}
	return changed
}

func (m *Manager) notify(s Session) {
	m.listenersMu.Lock()
	fns := make([]func(Session), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenersMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
