package history

import (
	"context"
	"sort"
	"sync"
)

// memrepo backs history when no DATABASE_URL is configured.
type memrepo struct {
	mu sync.RWMutex

	byID     map[string]*Record
	byPlayer map[string][]*Record
}

func NewMemoryRepository() Repository {
	return &memrepo{
		byID:     make(map[string]*Record),
		byPlayer: make(map[string][]*Record),
	}
}

func (m *memrepo) SaveResult(_ context.Context, rec *Record) error {
	if rec == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, exists := m.byID[rec.ID]; exists {
		m.byPlayer[old.PlayerID] = removeRecord(m.byPlayer[old.PlayerID], old)
	}
	cp := *rec
	m.byID[cp.ID] = &cp
	m.byPlayer[cp.PlayerID] = append(m.byPlayer[cp.PlayerID], &cp)
	return nil
}

func removeRecord(list []*Record, target *Record) []*Record {
	out := list[:0]
	for _, r := range list {
		if r != target {
			out = append(out, r)
		}
	}
	return out
}

func (m *memrepo) Recent(_ context.Context, playerID string, limit int) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.byPlayer[playerID]
	items := make([]*Record, 0, len(list))
	for _, r := range list {
		cp := *r
		items = append(items, &cp)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].EndedAt.After(items[j].EndedAt) })
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) Close() error { return nil }
