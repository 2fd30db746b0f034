package state

import (
	"context"
	"sync"

	"github.com/law-makers/appcrawl/pkg/models"
)

// Store persists one PageState per URL. All returns states in the order their
// URL was first stored; overwriting a state keeps its position.
type Store interface {
	Put(ctx context.Context, s models.PageState) error
	Get(ctx context.Context, url string) (models.PageState, bool, error)
	All(ctx context.Context) ([]models.PageState, error)
	Close() error
}

// MemoryStore keeps states for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]models.PageState
	order  []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]models.PageState)}
}

func (m *MemoryStore) Put(_ context.Context, s models.PageState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[s.URL]; !ok {
		m.order = append(m.order, s.URL)
	}
	m.states[s.URL] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, url string) (models.PageState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[url]
	return s, ok, nil
}

func (m *MemoryStore) All(_ context.Context) ([]models.PageState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.PageState, 0, len(m.order))
	for _, u := range m.order {
		out = append(out, m.states[u])
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
