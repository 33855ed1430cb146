package game

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

type MemorySessionTracker struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemorySessionTracker() *MemorySessionTracker {
	return &MemorySessionTracker{
		sessions: make(map[string][]byte),
	}
}

func (m *MemorySessionTracker) Load(sessionID string) (*Session, error) {
	m.mu.RLock()
	sessionBytes, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, SessionNotFoundError{SessionID: sessionID}
	}
	session := &Session{}
	err := jsoniter.Unmarshal(sessionBytes, session)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to unmarshal session")
	}
	return session, nil
}

func (m *MemorySessionTracker) Save(sessionID string, session *Session) error {
	sessionBytes, err := jsoniter.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "Unable to marshal session")
	}
	m.mu.Lock()
	m.sessions[sessionID] = sessionBytes
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionTracker) Remove(sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}
