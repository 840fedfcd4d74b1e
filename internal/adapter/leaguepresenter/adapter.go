package leaguepresenter

import (
	"errors"
	"sort"
	"strings"

	"github.com/park285/autobattler-league/internal/domain"
	"github.com/park285/autobattler-league/internal/league"
	"github.com/park285/autobattler-league/internal/roster"
	"github.com/park285/autobattler-league/pkg/leaguedto"
)

// ToGameView snapshots s. Players are listed active first, then by name.
func ToGameView(s *league.Session) *leaguedto.GameView {
	if s == nil {
		return nil
	}
	v := &leaguedto.GameView{
		SessionID:     s.ID,
		Mode:          string(s.Mode),
		Phase:         s.Phase.String(),
		Round:         s.Round,
		Battle:        s.Battle,
		BattleInRound: s.BattleInRound(),
		HandSize:      s.HandSize,
		NewRound:      s.NewRound(),
		Ready:         s.Ready(),
	}

	players := append([]*league.SessionPlayer(nil), s.Players...)
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Eliminated != players[j].Eliminated {
			return !players[i].Eliminated
		}
		return lessName(players[i].Name, players[j].Name)
	})
	for _, p := range players {
		v.Players = append(v.Players, toPlayerStatus(p))
	}

	for i, pr := range s.Pairings {
		v.Pairings = append(v.Pairings, leaguedto.Pairing{
			Number:  i + 1,
			A:       toParticipant(pr.A),
			B:       toParticipant(pr.B),
			Result:  pr.Result,
			Options: pr.Options(),
			Bye:     pr.HasBye(),
		})
	}

	if s.Phase == league.PhaseGameOver {
		for _, p := range s.Standings() {
			if p.Placement == nil {
				continue
			}
			v.Standings = append(v.Standings, leaguedto.Standing{Placement: *p.Placement, ID: p.ID.String(), Name: p.Name})
		}
		if c := s.Champion(); c != nil {
			v.Champion = &leaguedto.Standing{Placement: 1, ID: c.ID.String(), Name: c.Name}
		}
	}

	for _, n := range s.Notices {
		v.Notices = append(v.Notices, ToNotice(n))
	}
	return v
}

func ToNotice(n league.Notice) leaguedto.Notice {
	return leaguedto.Notice{Kind: string(n.Kind), Text: n.Text}
}

func ToNotices(list []league.Notice) []leaguedto.Notice {
	out := make([]leaguedto.Notice, 0, len(list))
	for _, n := range list {
		out = append(out, ToNotice(n))
	}
	return out
}

func toPlayerStatus(p *league.SessionPlayer) leaguedto.PlayerStatus {
	ps := leaguedto.PlayerStatus{
		ID:         p.ID.String(),
		Name:       p.Name,
		Poison:     p.Poison,
		Treasures:  p.Treasures,
		Ghost:      p.Ghost,
		Eliminated: p.Eliminated,
	}
	if p.EliminationRound != nil {
		ps.EliminationRound = *p.EliminationRound
	}
	if p.Placement != nil {
		ps.Placement = *p.Placement
	}
	return ps
}

func toParticipant(p league.Participant) leaguedto.Participant {
	return leaguedto.Participant{ID: p.ID.String(), Name: p.Name, Bye: p.IsBye()}
}

// ToStats lists roster players by name with their derived statistics.
func ToStats(players []roster.Player) []leaguedto.PlayerStats {
	sorted := append([]roster.Player(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool { return lessName(sorted[i].Name, sorted[j].Name) })

	out := make([]leaguedto.PlayerStats, 0, len(sorted))
	for _, p := range sorted {
		st := leaguedto.PlayerStats{
			ID:          p.ID.String(),
			Name:        p.Name,
			GamesPlayed: p.Stats.GamesPlayed,
			Wins:        p.Stats.Wins(),
		}
		st.WinRate, st.HasWinRate = p.Stats.WinRate()
		st.AvgPlacement, st.HasPlacement = p.Stats.AvgPlacement()
		if len(p.Stats.EliminationRounds) > 0 {
			st.Eliminations = make(map[int]int, len(p.Stats.EliminationRounds))
			for r, n := range p.Stats.EliminationRounds {
				st.Eliminations[r] = n
			}
		}
		out = append(out, st)
	}
	return out
}

func ToTournaments(list []*domain.TournamentRecord) []leaguedto.Tournament {
	out := make([]leaguedto.Tournament, 0, len(list))
	for _, rec := range list {
		if rec == nil {
			continue
		}
		out = append(out, leaguedto.Tournament{
			ID:           rec.ID,
			Mode:         rec.Mode,
			ChampionName: rec.ChampionName,
			Players:      len(rec.Standings),
			Rounds:       rec.Rounds,
			Battles:      rec.Battles,
			EndedAt:      rec.EndedAt,
			Duration:     rec.Duration,
		})
	}
	return out
}

var errorCodes = []struct {
	err  error
	code string
}{
	{league.ErrWrongPlayerCount, "wrong_player_count"},
	{league.ErrDuplicatePlayer, "duplicate_player"},
	{league.ErrUnknownPlayer, "unknown_player"},
	{roster.ErrPlayerNotFound, "unknown_player"},
	{roster.ErrAmbiguousName, "ambiguous_player"},
	{roster.ErrEmptyName, "empty_name"},
	{league.ErrResultsPending, "results_pending"},
	{league.ErrInvalidResult, "invalid_result"},
	{league.ErrPairingOutOfRange, "pairing_out_of_range"},
	{league.ErrByeLocked, "bye_locked"},
	{league.ErrSessionInProgress, "session_in_progress"},
	{league.ErrNoSession, "no_session"},
	{league.ErrStructuredNeedsFour, "structured_needs_four"},
	{league.ErrPlayerCountRange, "player_count_range"},
	{league.ErrUnknownMode, "unknown_mode"},
}

// ToDomainError classifies err by the sentinel it wraps. Anything unknown is
// an internal, retryable error.
func ToDomainError(err error) leaguedto.DomainError {
	var de leaguedto.DomainError
	if errors.As(err, &de) {
		return de
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return leaguedto.DomainError{Code: ec.code, Message: ec.err.Error()}
		}
	}
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return leaguedto.DomainError{Code: "internal", Message: msg, Retryable: true}
}

func lessName(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
