package roster

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/park285/autobattler-league/internal/obslog"
	"go.uber.org/zap"
)

// Result is one session player's contribution to the roster at game over.
type Result struct {
	PlayerID         PlayerID
	Placement        *int
	EliminationRound *int
}

// Registry owns the loaded roster and writes it back through a Store.
type Registry struct {
	mu      sync.RWMutex
	store   Store
	players []Player
	index   map[PlayerID]int
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store, index: make(map[PlayerID]int)}
}

// Load replaces the in-memory roster with the stored document.
func (r *Registry) Load(ctx context.Context) error {
	players, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	r.mu.Lock()
	r.players = nil
	r.index = make(map[PlayerID]int, len(players))
	for _, p := range players {
		if p.ID == "" {
			continue
		}
		if _, dup := r.index[p.ID]; dup {
			obslog.L().Warn("roster_duplicate_id", zap.String("player_id", p.ID.String()))
			continue
		}
		r.index[p.ID] = len(r.players)
		r.players = append(r.players, p)
	}
	n := len(r.players)
	r.mu.Unlock()
	obslog.L().Info("roster_load", zap.Int("players", n))
	return nil
}

// Register adds a new player and saves the roster immediately.
func (r *Registry) Register(ctx context.Context, name string) (Player, error) {
	p, err := NewPlayer(name)
	if err != nil {
		return Player{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	next := append(r.snapshotLocked(), p)
	if err := r.store.Save(ctx, next); err != nil {
		return Player{}, fmt.Errorf("save roster: %w", err)
	}
	r.index[p.ID] = len(r.players)
	r.players = append(r.players, p)
	obslog.L().Info("roster_register", zap.String("player_id", p.ID.String()), zap.String("name", p.Name))
	return p.Clone(), nil
}

// Players returns copies in registration order.
func (r *Registry) Players() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// SortedByName returns copies ordered by case-insensitive name.
func (r *Registry) SortedByName() []Player {
	list := r.Players()
	sort.SliceStable(list, func(i, j int) bool {
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
	return list
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

func (r *Registry) Get(id PlayerID) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return Player{}, false
	}
	return r.players[i].Clone(), true
}

// Lookup resolves a token that is either a player id or a case-insensitive
// player name that matches exactly one player.
func (r *Registry) Lookup(token string) (Player, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Player{}, ErrPlayerNotFound
	}
	if p, ok := r.Get(PlayerID(token)); ok {
		return p, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := -1
	for i, p := range r.players {
		if strings.EqualFold(p.Name, token) {
			if found >= 0 {
				return Player{}, fmt.Errorf("%q: %w", token, ErrAmbiguousName)
			}
			found = i
		}
	}
	if found < 0 {
		return Player{}, fmt.Errorf("%q: %w", token, ErrPlayerNotFound)
	}
	return r.players[found].Clone(), nil
}

// RecordResults folds finished-tournament results into the roster and saves
// it. Unknown ids are skipped. On save failure the previous roster stays.
func (r *Registry) RecordResults(ctx context.Context, results []Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.snapshotLocked()
	for _, res := range results {
		i, ok := r.index[res.PlayerID]
		if !ok {
			obslog.L().Warn("roster_result_unknown_player", zap.String("player_id", res.PlayerID.String()))
			continue
		}
		next[i].Stats.Record(res.Placement, res.EliminationRound)
	}
	if err := r.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save roster: %w", err)
	}
	r.players = next
	obslog.L().Info("roster_record_results", zap.Int("results", len(results)))
	return nil
}

func (r *Registry) snapshotLocked() []Player {
	out := make([]Player, 0, len(r.players)+1)
	for _, p := range r.players {
		out = append(out, p.Clone())
	}
	return out
}
