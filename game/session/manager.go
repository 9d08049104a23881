package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/klondike/game/engine"
	"github.com/wricardo/klondike/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
	ErrNoFreeSessionID      = errors.New("no free session ID")
)

const (
	// idBytes random bytes make one generated ID
	idBytes = 2
	// maxIDLength bounds caller-chosen IDs, which end up in URLs
	maxIDLength = 64
	// maxIDAttempts bounds the retries when a generated ID is already taken
	maxIDAttempts = 16
)

// Manager keeps the sessions of one server process in memory. IDs are
// compared case-insensitively.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*service.Session
	now      func() time.Time
	newID    func() (string, error)
}

// NewManager returns an empty manager
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
		now:      time.Now,
		newID:    randomID,
	}
}

func key(id string) string { return strings.ToLower(id) }

func checkID(id string) error {
	if len(id) > maxIDLength || strings.ContainsAny(id, " /?#%\t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}

func randomID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Create starts a session whose engine is built from config and opts. An empty id
// gets a generated 4-character one.
func (m *Manager) Create(id string, config *engine.GameConfig, opts ...engine.EngineOption) (*service.Session, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		var err error
		if id, err = m.freeID(); err != nil {
			return nil, err
		}
	} else if _, taken := m.sessions[key(id)]; taken {
		return nil, ErrSessionAlreadyExists
	}

	eng, err := engine.NewEngine(config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := m.now()
	sess := &service.Session{
		ID:        id,
		Engine:    eng,
		Config:    eng.GetConfig(),
		CreatedAt: now,
	}
	sess.Touch(now)
	m.sessions[key(id)] = sess
	return sess, nil
}

// freeID draws IDs until one is unused. Callers hold m.mu.
func (m *Manager) freeID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := m.newID()
		if err != nil {
			return "", fmt.Errorf("failed to generate session ID: %w", err)
		}
		if _, taken := m.sessions[key(id)]; !taken {
			return id, nil
		}
	}
	return "", ErrNoFreeSessionID
}

func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[key(id)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// GetOrCreate returns the session named id, creating it from config and opts when
// there is none. opts only apply to a session created here.
func (m *Manager) GetOrCreate(id string, config *engine.GameConfig, opts ...engine.EngineOption) (*service.Session, error) {
	sess, err := m.Get(id)
	if errors.Is(err, ErrSessionNotFound) {
		sess, err = m.Create(id, config, opts...)
		if errors.Is(err, ErrSessionAlreadyExists) {
			// lost a race with another creator
			return m.Get(id)
		}
	}
	return sess, err
}

func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		list = append(list, sess)
	}
	return list
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[key(id)]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, key(id))
	return nil
}

// UpdateLastAccessed marks the session as used now
func (m *Manager) UpdateLastAccessed(id string) error {
	sess, err := m.Get(id)
	if err != nil {
		return err
	}
	sess.Touch(m.now())
	return nil
}

// CleanupExpiredSessions drops every session idle for longer than maxAge and returns
// how many went. A paced deal of a dropped session stops at its next card.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0
	for k, sess := range m.sessions {
		if sess.LastAccessed().Before(cutoff) {
			delete(m.sessions, k)
			removed++
		}
	}
	return removed
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
