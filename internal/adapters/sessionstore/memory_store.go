package sessionstore

import (
	"context"
	"ratlogger/internal/domain"
	"sync"
)

// MemoryStore keeps the session for the lifetime of the process.
type MemoryStore struct {
	mu   sync.Mutex
	sess domain.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySession(m.sess), nil
}

func (m *MemoryStore) Save(ctx context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Token == "" {
		m.sess = domain.Session{}
		return nil
	}
	m.sess = copySession(s)
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = domain.Session{}
	return nil
}

func copySession(s domain.Session) domain.Session {
	if s.User == nil {
		return s
	}
	u := *s.User
	return domain.Session{Token: s.Token, User: &u}
}
