package exchange

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"tradewire/pkg/core"
	"tradewire/pkg/session"
)

// Manager holds open sessions keyed by exchange name, one session per
// exchange. Programs trading on several venues use one Manager instead of
// threading individual sessions around.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*session.Session),
	}
}

// Open creates a session for the configured exchange and keeps it. Opening
// an exchange that is already open is an error; close it first.
func (m *Manager) Open(config *core.Config) (*session.Session, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[config.Exchange]; exists {
		return nil, fmt.Errorf("exchange %q already open", config.Exchange)
	}

	s, err := Open(config)
	if err != nil {
		return nil, err
	}
	m.sessions[config.Exchange] = s
	return s, nil
}

// Get returns the open session for the named exchange.
func (m *Manager) Get(name string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[name]
	if !ok {
		return nil, fmt.Errorf("exchange %q not open", name)
	}
	return s, nil
}

// Names returns the sorted names of all open exchanges.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseExchange closes and removes the named session. Closing an exchange
// that is not open is a no-op.
func (m *Manager) CloseExchange(name string) error {
	m.mu.Lock()
	s, ok := m.sessions[name]
	delete(m.sessions, name)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Close()
}

// Close shuts down every open session and empties the manager.
func (m *Manager) Close() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*session.Session)
	m.mu.Unlock()

	var errs error
	for name, s := range sessions {
		if err := s.Close(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errs
}
