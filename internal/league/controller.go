package league

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/park285/autobattler-league/internal/domain"
	"github.com/park285/autobattler-league/internal/obslog"
	"github.com/park285/autobattler-league/internal/roster"
	"go.uber.org/zap"
)

// Roster is the part of the player registry the controller needs.
type Roster interface {
	Get(id roster.PlayerID) (roster.Player, bool)
	RecordResults(ctx context.Context, results []roster.Result) error
}

// Archiver stores finished tournaments.
type Archiver interface {
	Archive(ctx context.Context, rec *domain.TournamentRecord) error
}

type DraftRequest struct {
	Count     int
	Mode      Mode
	PlayerIDs []roster.PlayerID
	RoomHash  string
}

type Option func(*Controller)

// WithRand fixes the pairing shuffle source.
func WithRand(rng *rand.Rand) Option { return func(c *Controller) { c.rng = rng } }

func WithArchiver(a Archiver) Option { return func(c *Controller) { c.archiver = a } }

func WithPhrasebook(pb Phrasebook) Option { return func(c *Controller) { c.phrases = pb } }

func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// Controller drives one tournament at a time. It is not safe for concurrent
// use; callers serialise access.
type Controller struct {
	roster   Roster
	rng      *rand.Rand
	archiver Archiver
	phrases  Phrasebook
	now      func() time.Time

	session  *Session
	roomHash string
}

func NewController(r Roster, opts ...Option) *Controller {
	c := &Controller{roster: r, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the current session, nil when no draft has been made.
func (c *Controller) Session() *Session { return c.session }

func (c *Controller) Phase() Phase {
	if c.session == nil {
		return PhaseIdle
	}
	return c.session.Phase
}

// Ready is the readiness gate for EndBattle.
func (c *Controller) Ready() bool { return c.session != nil && c.session.Ready() }

// BeginDraft validates the draft and starts a new session. On error nothing
// changes.
func (c *Controller) BeginDraft(ctx context.Context, req DraftRequest) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Phase() == PhaseBattling {
		return nil, ErrSessionInProgress
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, fmt.Errorf("%q: %w", req.Mode, err)
	}
	if req.Count < MinPlayers || req.Count > MaxPlayers {
		return nil, ErrPlayerCountRange
	}

	ids := make([]roster.PlayerID, 0, len(req.PlayerIDs))
	for _, id := range req.PlayerIDs {
		if t := strings.TrimSpace(id.String()); t != "" {
			ids = append(ids, roster.PlayerID(t))
		}
	}
	if len(ids) != req.Count {
		return nil, fmt.Errorf("%d selected for %d seats: %w", len(ids), req.Count, ErrWrongPlayerCount)
	}
	if mode == ModeStructured && req.Count != StructuredPlayers {
		return nil, ErrStructuredNeedsFour
	}

	seen := make(map[roster.PlayerID]bool, len(ids))
	players := make([]roster.Player, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("%s: %w", id, ErrDuplicatePlayer)
		}
		seen[id] = true
		p, ok := c.roster.Get(id)
		if !ok {
			return nil, fmt.Errorf("%s: %w", id, ErrUnknownPlayer)
		}
		players = append(players, p)
	}

	s := newSession(uuid.NewString(), mode, players, c.now())
	c.notify(s, draftStartNotice(len(players)))
	GeneratePairings(s, c.rng)

	c.session = s
	c.roomHash = req.RoomHash
	obslog.L().Info("league_draft_begin",
		zap.String("session_id", s.ID),
		zap.String("mode", string(mode)),
		zap.Int("players", len(players)),
		zap.Int("pairings", len(s.Pairings)),
	)
	return s, nil
}

// SetResult records the result of the pairing at index (0-based) and reports
// whether the battle is ready to end.
func (c *Controller) SetResult(index int, result string) (bool, error) {
	s := c.session
	if s == nil || s.Phase != PhaseBattling {
		return false, ErrNoSession
	}
	if index < 0 || index >= len(s.Pairings) {
		return false, fmt.Errorf("%d of %d: %w", index+1, len(s.Pairings), ErrPairingOutOfRange)
	}
	pr := s.Pairings[index]
	if pr.HasBye() {
		return false, ErrByeLocked
	}
	result = strings.TrimSpace(result)
	if strings.EqualFold(result, ResultDraw) {
		result = ResultDraw
	}
	if !pr.accepts(result) {
		return false, fmt.Errorf("%q: %w", result, ErrInvalidResult)
	}
	pr.Result = result
	return s.Ready(), nil
}

// EndBattle resolves the current battle. On game over the roster is updated
// and the tournament archived; otherwise, sudden death included, the session
// advances and new pairings are drawn. A roster save failure is returned together with the
// resolution; the session still ends.
func (c *Controller) EndBattle(ctx context.Context) (*Resolution, error) {
	s := c.session
	if s == nil || s.Phase != PhaseBattling {
		return nil, ErrNoSession
	}
	if !s.Ready() {
		return nil, ErrResultsPending
	}

	res := ResolveBattle(s)
	for i, n := range res.Notices {
		res.Notices[i] = n.localize(c.phrases)
	}
	s.Notices = append(s.Notices, res.Notices...)
	obslog.L().Info("league_battle_end",
		zap.String("session_id", s.ID),
		zap.Int("round", s.Round),
		zap.Int("battle", s.Battle),
		zap.Int("damage", res.Damage),
		zap.Int("eliminated", len(res.Eliminated)),
		zap.Bool("sudden_death", res.SuddenDeath),
	)

	if res.GameOver {
		return res, c.finish(ctx, s)
	}

	if n, ok := c.advance(s); ok {
		res.Notices = append(res.Notices, n)
		s.Notices = append(s.Notices, n)
	}
	GeneratePairings(s, c.rng)
	return res, nil
}

// advance moves to the next battle, opening a new round every third battle.
func (c *Controller) advance(s *Session) (Notice, bool) {
	s.Battle++
	if (s.Battle-1)%BattlesPerRound != 0 {
		return Notice{}, false
	}
	s.Round++
	if s.HandSize >= MaxHandSize {
		return Notice{}, false
	}
	s.HandSize++
	return roundAdvanceNotice(s.Round, s.HandSize).localize(c.phrases), true
}

func (c *Controller) finish(ctx context.Context, s *Session) error {
	s.Phase = PhaseGameOver
	s.Pairings = nil
	s.EndedAt = c.now()

	results := make([]roster.Result, 0, len(s.Players))
	for _, p := range s.Players {
		results = append(results, roster.Result{
			PlayerID:         p.ID,
			Placement:        p.Placement,
			EliminationRound: p.EliminationRound,
		})
	}
	champion := ""
	if ch := s.Champion(); ch != nil {
		champion = ch.ID.String()
	}
	obslog.L().Info("league_game_over",
		zap.String("session_id", s.ID),
		zap.String("champion_id", champion),
		zap.Int("rounds", s.Round),
		zap.Int("battles", s.Battle),
	)

	if c.archiver != nil {
		rec := s.Record()
		rec.RoomHash = c.roomHash
		if err := c.archiver.Archive(ctx, &rec); err != nil {
			obslog.L().Warn("league_archive_failed", zap.String("session_id", s.ID), zap.Error(err))
		}
	}

	if err := c.roster.RecordResults(ctx, results); err != nil {
		obslog.L().Error("league_roster_save_failed", zap.String("session_id", s.ID), zap.Error(err))
		return fmt.Errorf("record results: %w", err)
	}
	return nil
}

// Abandon drops the current session without persisting anything.
func (c *Controller) Abandon() bool {
	if c.session == nil {
		return false
	}
	obslog.L().Info("league_abandon",
		zap.String("session_id", c.session.ID),
		zap.String("phase", c.session.Phase.String()),
	)
	c.session = nil
	c.roomHash = ""
	return true
}

// RoomHash is the room the current session was drafted from.
func (c *Controller) RoomHash() string { return c.roomHash }

func (c *Controller) notify(s *Session, n Notice) {
	s.Notices = append(s.Notices, n.localize(c.phrases))
}
