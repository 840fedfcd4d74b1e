package roster

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxPlacement is the worst rank a table of eight can produce.
const MaxPlacement = 8

// DefaultKey is the record key the roster document is stored under.
const DefaultKey = "autoBattlerPlayers"

var (
	ErrEmptyName      = errors.New("player name is required")
	ErrPlayerNotFound = errors.New("player not found")
	ErrAmbiguousName  = errors.New("player name matches more than one player")
)

// PlayerID identifies a roster entry. Older roster documents stored numeric
// ids; those decode into their decimal string form.
type PlayerID string

func (id PlayerID) String() string { return string(id) }

func (id *PlayerID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = PlayerID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("player id: %w", err)
	}
	*id = PlayerID(n.String())
	return nil
}

// Stats are the cumulative results of a player across finished tournaments.
type Stats struct {
	GamesPlayed       int         `json:"gamesPlayed"`
	Placements        map[int]int `json:"placements"`
	EliminationRounds map[int]int `json:"eliminationRounds"`
}

type Player struct {
	ID    PlayerID `json:"id"`
	Name  string   `json:"name"`
	Stats Stats    `json:"stats"`
}

// NewPlayer builds a fresh roster entry with an empty placement table.
func NewPlayer(name string) (Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, ErrEmptyName
	}
	return Player{
		ID:    PlayerID(uuid.NewString()),
		Name:  name,
		Stats: newStats(),
	}, nil
}

func newStats() Stats {
	s := Stats{
		Placements:        make(map[int]int, MaxPlacement),
		EliminationRounds: make(map[int]int),
	}
	for rank := 1; rank <= MaxPlacement; rank++ {
		s.Placements[rank] = 0
	}
	return s
}

// Clone returns a deep copy.
func (p Player) Clone() Player {
	cp := p
	cp.Stats.Placements = cloneCounts(p.Stats.Placements)
	cp.Stats.EliminationRounds = cloneCounts(p.Stats.EliminationRounds)
	return cp
}

func cloneCounts(m map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Record folds one finished tournament into the stats. placement and
// eliminationRound are nil when the player was not placed or not eliminated.
func (s *Stats) Record(placement, eliminationRound *int) {
	s.normalize()
	s.GamesPlayed++
	if placement != nil {
		s.Placements[*placement]++
	}
	if eliminationRound != nil {
		s.EliminationRounds[*eliminationRound]++
	}
}

func (s *Stats) normalize() {
	if s.Placements == nil {
		s.Placements = make(map[int]int, MaxPlacement)
	}
	if s.EliminationRounds == nil {
		s.EliminationRounds = make(map[int]int)
	}
}

// Wins counts first places.
func (s Stats) Wins() int { return s.Placements[1] }

// WinRate returns wins per game played; ok is false when no games were played.
func (s Stats) WinRate() (rate float64, ok bool) {
	if s.GamesPlayed <= 0 {
		return 0, false
	}
	return float64(s.Wins()) / float64(s.GamesPlayed), true
}

// AvgPlacement averages every recorded placement; ok is false when none exist.
func (s Stats) AvgPlacement() (avg float64, ok bool) {
	total, count := 0, 0
	for rank, n := range s.Placements {
		total += rank * n
		count += n
	}
	if count == 0 {
		return 0, false
	}
	return float64(total) / float64(count), true
}
