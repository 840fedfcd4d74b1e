package roster

import (
	"context"
	"sync"
)

// MemoryStore keeps the roster in process. Used for tests and when no
// durable backend is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	players []Player
	saves   int
}

func NewMemoryStore(seed ...Player) *MemoryStore {
	m := &MemoryStore{}
	for _, p := range seed {
		m.players = append(m.players, p.Clone())
	}
	return m
}

func (m *MemoryStore) Load(ctx context.Context) ([]Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, players []Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := make([]Player, 0, len(players))
	for _, p := range players {
		cp = append(cp, p.Clone())
	}
	m.mu.Lock()
	m.players = cp
	m.saves++
	m.mu.Unlock()
	return nil
}

// Saves reports how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
