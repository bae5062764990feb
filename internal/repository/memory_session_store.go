package repository

import (
	"context"
	"sync"

	"sabacc_bot/internal/game"
)

// держит столы в памяти процесса в том же JSON, что и остальные хранилища,
// поэтому загрузка всегда отдает независимую копию
type MemorySessionStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{data: make(map[string][]byte)}
}

func (m *MemorySessionStore) Load(_ context.Context, key string) (*game.Session, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeSession(raw)
}

func (m *MemorySessionStore) Save(_ context.Context, key string, s *game.Session) error {
	raw, err := encodeSession(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
