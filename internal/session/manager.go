package session

import "sync"

// Manager holds the one active session per authenticated user. It replaces
// ambient per-process session state with an explicit owner.
type Manager struct {
	mu     sync.RWMutex
	active map[string]*Session
}

func NewManager() *Manager {
	return &Manager{active: map[string]*Session{}}
}

func (m *Manager) Get(user string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.active[user]
	return s, ok
}

// Put installs a session as the user's active one, replacing any previous.
func (m *Manager) Put(user string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[user] = s
}

func (m *Manager) Drop(user string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, user)
}
