package session

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrExists is returned when opening a session
// with an id that is already in use.
var ErrExists = errors.New("session already exists")

// A Manager holds the live SSE sessions, indexed by id.
type Manager struct {
	lock     sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns a new *session.Manager.
func NewManager() *Manager {
	return &Manager{
		sessions: map[string]*Session{},
	}
}

// Open creates and registers a session for sid bound to credsHash.
// If hook is not nil, it receives everything the server writes.
// The session is held once and must be released by the caller.
func (m *Manager) Open(sid string, credsHash uint64, hook chan []byte) (*Session, error) {

	m.lock.Lock()
	defer m.lock.Unlock()

	if _, ok := m.sessions[sid]; ok {
		return nil, ErrExists
	}

	s := New(sid, credsHash)
	if hook != nil {
		s.register(hook)
	}

	m.sessions[sid] = s

	return s, nil
}

// Acquire returns the session with the given sid and holds it,
// or nil if there is none. If hook is not nil, it is registered
// until the matching Release.
func (m *Manager) Acquire(sid string, hook chan []byte) *Session {

	m.lock.Lock()
	defer m.lock.Unlock()

	s, ok := m.sessions[sid]
	if !ok {
		return nil
	}

	s.acquire()
	if hook != nil {
		s.register(hook)
	}

	return s
}

// Release releases a hold on the session with the given sid.
// When nothing holds it anymore, it is closed and forgotten.
// If hook is not nil, it is unregistered.
func (m *Manager) Release(sid string, hook chan []byte) {

	m.lock.Lock()
	defer m.lock.Unlock()

	s, ok := m.sessions[sid]
	if !ok {
		return
	}

	if hook != nil {
		s.unregister(hook)
	}

	if s.release() {
		delete(m.sessions, sid)
	}
}

// CloseAll closes and forgets every session. Holders
// see Done close and their Release become a noop.
func (m *Manager) CloseAll() {

	m.lock.Lock()
	defer m.lock.Unlock()

	if n := len(m.sessions); n > 0 {
		slog.Debug("Closing all sessions", "count", n)
	}

	for sid, s := range m.sessions {
		_ = s.Close()
		delete(m.sessions, sid)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return len(m.sessions)
}
