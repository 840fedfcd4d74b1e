package league

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/park285/autobattler-league/internal/domain"
	"github.com/park285/autobattler-league/internal/roster"
)

var (
	ErrWrongPlayerCount    = errors.New("selected players do not match the player count")
	ErrDuplicatePlayer     = errors.New("player selected more than once")
	ErrUnknownPlayer       = errors.New("player is not on the roster")
	ErrEmptyName           = roster.ErrEmptyName
	ErrResultsPending      = errors.New("not every pairing has a result")
	ErrInvalidResult       = errors.New("result must be a player in the pairing or draw")
	ErrPairingOutOfRange   = errors.New("pairing index out of range")
	ErrByeLocked           = errors.New("bye pairings resolve automatically")
	ErrSessionInProgress   = errors.New("a tournament is already in progress")
	ErrNoSession           = errors.New("no tournament in progress")
	ErrStructuredNeedsFour = errors.New("structured mode needs exactly four players")
	ErrPlayerCountRange    = errors.New("player count must be between 2 and 8")
	ErrUnknownMode         = errors.New("unknown draft mode")
)

const (
	MinPlayers        = 2
	MaxPlayers        = 8
	StructuredPlayers = 4

	StartHandSize   = 3
	MaxHandSize     = 8
	BattlesPerRound = 3

	EliminationPoison = 10
	WarningPoison     = 6
	RevivePoison      = 9

	StartTreasures = 1
	MaxTreasures   = 5
)

// ResultDraw is the pairing result recorded for a draw.
const ResultDraw = "draw"

// ByeID is the id of the synthetic BYE participant.
const (
	ByeID   roster.PlayerID = "bye"
	ByeName                 = "BYE"
)

type Mode string

const (
	ModeRandom     Mode = "random"
	ModeStructured Mode = "structured"
)

// ParseMode accepts an empty string as random.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeRandom:
		return ModeRandom, nil
	case ModeStructured:
		return ModeStructured, nil
	default:
		return "", ErrUnknownMode
	}
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBattling
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseBattling:
		return "battling"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// SessionPlayer is a roster player's state inside one tournament.
type SessionPlayer struct {
	ID               roster.PlayerID
	Name             string
	Poison           int
	Treasures        int
	Ghost            bool
	Eliminated       bool
	EliminationRound *int
	Placement        *int
}

func (p *SessionPlayer) participant() Participant {
	return Participant{ID: p.ID, Name: p.Name}
}

// Participant is one side of a pairing: a session player or the BYE.
type Participant struct {
	ID   roster.PlayerID
	Name string
}

func (p Participant) IsBye() bool { return p.ID == ByeID }

func byeParticipant() Participant { return Participant{ID: ByeID, Name: ByeName} }

type Pairing struct {
	A      Participant
	B      Participant
	Result string
}

func (p *Pairing) HasBye() bool { return p.A.IsBye() || p.B.IsBye() }

func (p *Pairing) Reported() bool { return p.Result != "" }

// Options lists the results that may be recorded for the pairing.
func (p *Pairing) Options() []string {
	return []string{string(p.A.ID), string(p.B.ID), ResultDraw}
}

func (p *Pairing) accepts(result string) bool {
	return result == ResultDraw || result == string(p.A.ID) || result == string(p.B.ID)
}

type EventKind string

const EventElimination EventKind = "elimination"

// Event is one entry of the session history.
type Event struct {
	Kind     EventKind
	PlayerID roster.PlayerID
	Round    int
	Battle   int
}

// Session is the state of one tournament from draft to game over.
type Session struct {
	ID        string
	Mode      Mode
	Phase     Phase
	Round     int
	Battle    int
	HandSize  int
	Players   []*SessionPlayer
	Pairings  []*Pairing
	History   []Event
	Notices   []Notice
	StartedAt time.Time
	EndedAt   time.Time

	index map[roster.PlayerID]*SessionPlayer
}

func newSession(id string, mode Mode, players []roster.Player, now time.Time) *Session {
	s := &Session{
		ID:        id,
		Mode:      mode,
		Phase:     PhaseBattling,
		Round:     1,
		Battle:    1,
		HandSize:  StartHandSize,
		StartedAt: now,
		index:     make(map[roster.PlayerID]*SessionPlayer, len(players)),
	}
	for _, rp := range players {
		sp := &SessionPlayer{ID: rp.ID, Name: rp.Name, Treasures: StartTreasures}
		s.Players = append(s.Players, sp)
		s.index[sp.ID] = sp
	}
	return s
}

// Player returns the session player with the given id.
func (s *Session) Player(id roster.PlayerID) (*SessionPlayer, bool) {
	p, ok := s.index[id]
	return p, ok
}

// Remaining returns the players that are not eliminated, in draft order.
func (s *Session) Remaining() []*SessionPlayer {
	var out []*SessionPlayer
	for _, p := range s.Players {
		if !p.Eliminated {
			out = append(out, p)
		}
	}
	return out
}

// BattleInRound is the 1-based battle number within the current round.
func (s *Session) BattleInRound() int { return (s.Battle-1)%BattlesPerRound + 1 }

// NewRound reports whether the current battle opens a round after the first.
func (s *Session) NewRound() bool { return s.Battle > 1 && s.BattleInRound() == 1 }

// Ready reports whether every pairing of the current battle has a result.
func (s *Session) Ready() bool {
	if s.Phase != PhaseBattling || len(s.Pairings) == 0 {
		return false
	}
	for _, p := range s.Pairings {
		if !p.Reported() {
			return false
		}
	}
	return true
}

// Champion returns the player placed first, if any.
func (s *Session) Champion() *SessionPlayer {
	for _, p := range s.Players {
		if p.Placement != nil && *p.Placement == 1 {
			return p
		}
	}
	return nil
}

// Standings orders placed players by placement, unplaced players last.
func (s *Session) Standings() []*SessionPlayer {
	out := append([]*SessionPlayer(nil), s.Players...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Placement, out[j].Placement
		switch {
		case pi == nil:
			return false
		case pj == nil:
			return true
		default:
			return *pi < *pj
		}
	})
	return out
}

func (s *Session) lastElimination() (roster.PlayerID, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Kind == EventElimination {
			return s.History[i].PlayerID, true
		}
	}
	return "", false
}

func (s *Session) dropEliminations(ids map[roster.PlayerID]bool) {
	kept := s.History[:0]
	for _, ev := range s.History {
		if ev.Kind == EventElimination && ids[ev.PlayerID] {
			continue
		}
		kept = append(kept, ev)
	}
	s.History = kept
}

// Record summarises a finished session for the archive.
func (s *Session) Record() domain.TournamentRecord {
	rec := domain.TournamentRecord{
		SessionUUID: s.ID,
		Mode:        string(s.Mode),
		Rounds:      s.Round,
		Battles:     s.Battle,
		FinalHand:   s.HandSize,
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
	}
	if !s.EndedAt.IsZero() {
		rec.Duration = s.EndedAt.Sub(s.StartedAt)
	}
	if c := s.Champion(); c != nil {
		rec.ChampionID = c.ID.String()
		rec.ChampionName = c.Name
	}
	for _, p := range s.Standings() {
		st := domain.StandingRecord{
			PlayerID:    p.ID.String(),
			Name:        p.Name,
			FinalPoison: p.Poison,
			Treasures:   p.Treasures,
		}
		if p.Placement != nil {
			st.Placement = *p.Placement
		}
		if p.EliminationRound != nil {
			r := *p.EliminationRound
			st.EliminationRound = &r
		}
		rec.Standings = append(rec.Standings, st)
	}
	return rec
}

func intPtr(v int) *int { return &v }
