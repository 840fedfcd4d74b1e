package archive

import (
    "context"
    "sort"
    "sync"

    "github.com/park285/autobattler-league/internal/domain"
)

// DefaultRecentLimit is used when Recent is called without a positive limit.
const DefaultRecentLimit = 5

// memoryRepository keeps archived tournaments in process memory. It is used
// when no DATABASE_URL is configured.
type memoryRepository struct {
    mu     sync.RWMutex
    nextID int64
    bySess map[string]*domain.TournamentRecord
}

func NewMemoryRepository() Repository {
    return &memoryRepository{bySess: make(map[string]*domain.TournamentRecord)}
}

func (m *memoryRepository) Archive(ctx context.Context, rec *domain.TournamentRecord) error {
    if rec == nil { return ErrNilRecord }
    if err := ctx.Err(); err != nil { return err }

    m.mu.Lock()
    defer m.mu.Unlock()
    if prev, ok := m.bySess[rec.SessionUUID]; ok {
        rec.ID = prev.ID
    } else {
        m.nextID++
        rec.ID = m.nextID
    }
    m.bySess[rec.SessionUUID] = cloneRecord(rec)
    return nil
}

func (m *memoryRepository) Recent(ctx context.Context, limit int) ([]*domain.TournamentRecord, error) {
    if err := ctx.Err(); err != nil { return nil, err }
    if limit <= 0 { limit = DefaultRecentLimit }

    m.mu.RLock()
    items := make([]*domain.TournamentRecord, 0, len(m.bySess))
    for _, rec := range m.bySess {
        items = append(items, cloneRecord(rec))
    }
    m.mu.RUnlock()

    sort.Slice(items, func(i, j int) bool {
        if !items[i].EndedAt.Equal(items[j].EndedAt) {
            return items[i].EndedAt.After(items[j].EndedAt)
        }
        return items[i].ID > items[j].ID
    })
    if len(items) > limit {
        items = items[:limit]
    }
    return items, nil
}

func (m *memoryRepository) Close() error { return nil }

func cloneRecord(rec *domain.TournamentRecord) *domain.TournamentRecord {
    cp := *rec
    cp.Standings = make([]domain.StandingRecord, len(rec.Standings))
    for i, st := range rec.Standings {
        cp.Standings[i] = st
        if st.EliminationRound != nil {
            r := *st.EliminationRound
            cp.Standings[i].EliminationRound = &r
        }
    }
    return &cp
}
