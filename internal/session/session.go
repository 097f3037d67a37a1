// Package session tracks per-user interaction state for the bot's menu.
// Menu actions are honored only when the user's analysis is ready.
package session

import "sync"

// Status is a user's position in the submit/analyze/browse flow.
type Status string

const (
	// StatusNoChat means the user has not submitted a chat link yet.
	StatusNoChat Status = "no-chat-submitted"
	// StatusProcessing means an analysis is running for the user.
	StatusProcessing Status = "processing"
	// StatusReady means results exist and menu actions are available.
	StatusReady Status = "ready"
)

// State is one user's session.
type State struct {
	Status     Status
	ChartPaths map[string]string
}

// Manager is a concurrency-safe session registry keyed by user ID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]State
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]State)}
}

// Get returns the user's session. Users without one get StatusNoChat.
func (m *Manager) Get(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	return State{Status: StatusNoChat}
}

// Set replaces the user's session.
func (m *Manager) Set(userID int64, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = s
}

// Reset clears the user's session, returning them to StatusNoChat.
func (m *Manager) Reset(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
