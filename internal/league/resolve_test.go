package league

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/park285/autobattler-league/internal/roster"
)

func newTestSession(t *testing.T, names ...string) *Session {
	t.Helper()
	players := make([]roster.Player, 0, len(names))
	for _, n := range names {
		players = append(players, roster.Player{ID: roster.PlayerID(strings.ToLower(n)), Name: n})
	}
	return newSession("test-session", ModeRandom, players, time.Unix(0, 0))
}

func participantOf(t *testing.T, s *Session, id roster.PlayerID) Participant {
	t.Helper()
	if id == ByeID {
		return byeParticipant()
	}
	p, ok := s.Player(id)
	if !ok {
		t.Fatalf("no session player %q", id)
	}
	return p.participant()
}

func setPairings(t *testing.T, s *Session, rows ...[3]string) {
	t.Helper()
	s.Pairings = nil
	for _, r := range rows {
		s.Pairings = append(s.Pairings, &Pairing{
			A:      participantOf(t, s, roster.PlayerID(r[0])),
			B:      participantOf(t, s, roster.PlayerID(r[1])),
			Result: r[2],
		})
	}
}

func mustPlayer(t *testing.T, s *Session, id roster.PlayerID) *SessionPlayer {
	t.Helper()
	p, ok := s.Player(id)
	if !ok {
		t.Fatalf("no session player %q", id)
	}
	return p
}

func hasNotice(res *Resolution, kind NoticeKind) bool {
	for _, n := range res.Notices {
		if n.Kind == kind {
			return true
		}
	}
	return false
}

func TestPoisonDamageTable(t *testing.T) {
	cases := map[int]int{3: 1, 4: 1, 5: 2, 6: 3, 7: 5, 8: 5, 9: 5, 0: 5}
	for hand, want := range cases {
		if got := PoisonDamage(hand); got != want {
			t.Fatalf("PoisonDamage(%d) = %d, want %d", hand, got, want)
		}
	}
}

func TestResolveDecisiveResult(t *testing.T) {
	s := newTestSession(t, "Ann", "Ben")
	setPairings(t, s, [3]string{"ann", "ben", "ann"})

	res := ResolveBattle(s)
	if res.Damage != 1 { t.Fatalf("damage at hand 3 = %d", res.Damage) }
	if got := mustPlayer(t, s, "ben").Poison; got != 1 { t.Fatalf("loser poison = %d, want 1", got) }
	if got := mustPlayer(t, s, "ann").Poison; got != 0 { t.Fatalf("winner poison = %d, want 0", got) }
	if got := mustPlayer(t, s, "ann").Treasures; got != 2 { t.Fatalf("treasures = %d, want 2", got) }
}

func TestResolveDrawDamagesBoth(t *testing.T) {
	s := newTestSession(t, "Ann", "Ben")
	s.HandSize = 6
	setPairings(t, s, [3]string{"ann", "ben", ResultDraw})

	ResolveBattle(s)
	for _, id := range []roster.PlayerID{"ann", "ben"} {
		if got := mustPlayer(t, s, id).Poison; got != 3 {
			t.Fatalf("%s poison = %d, want 3", id, got)
		}
	}
}

func TestResolveEliminationRecordsRound(t *testing.T) {
	s := newTestSession(t, "Ann", "Ben", "Cal")
	s.HandSize = 7
	s.Round, s.Battle = 3, 7
	mustPlayer(t, s, "ann").Poison = 9
	setPairings(t, s,
		[3]string{"ann", "ben", "ben"},
		[3]string{"cal", string(ByeID), "cal"},
	)

	res := ResolveBattle(s)
	ann := mustPlayer(t, s, "ann")
	if ann.Poison != 14 || !ann.Eliminated { t.Fatalf("ann should be eliminated at 14 poison: %+v", ann) }
	if ann.EliminationRound == nil || *ann.EliminationRound != 3 { t.Fatalf("elimination round: %v", ann.EliminationRound) }
	if ann.Placement == nil || *ann.Placement != 3 { t.Fatalf("placement = %v, want 3", ann.Placement) }
	if res.GameOver { t.Fatalf("two players remain; game must continue") }
	if len(s.History) != 1 || s.History[0].PlayerID != "ann" { t.Fatalf("history: %+v", s.History) }
	if !hasNotice(res, NoticeElimination) { t.Fatalf("missing elimination notice: %+v", res.Notices) }
	if ann.Treasures != 1 { t.Fatalf("eliminated player must not gain treasures") }
}

func TestResolveByeTakesNoPoison(t *testing.T) {
	s := newTestSession(t, "Ann", "Ben", "Cal")
	pairings := GeneratePairings(s, rand.New(rand.NewPCG(1, 2)))
	if len(pairings) != 2 { t.Fatalf("want 2 pairings, got %d", len(pairings)) }

	var bye *Pairing
	for _, pr := range pairings {
		if pr.HasBye() {
			bye = pr
			continue
		}
		pr.Result = string(pr.A.ID)
	}
	if bye == nil { t.Fatalf("three players without eliminations need a BYE") }
	seated := bye.A
	if seated.IsBye() {
		seated = bye.B
	}
	if bye.Result != string(seated.ID) { t.Fatalf("BYE pairing should auto-resolve to %s, got %q", seated.ID, bye.Result) }

	ResolveBattle(s)
	if got := mustPlayer(t, s, seated.ID).Poison; got != 0 { t.Fatalf("player facing BYE took %d poison", got) }
}

func TestResolveSuddenDeathRevives(t *testing.T) {
	s := newTestSession(t, "Ann", "Ben")
	mustPlayer(t, s, "ann").Poison = 9
	mustPlayer(t, s, "ben").Poison = 9
	setPairings(t, s, [3]string{"ann", "ben", ResultDraw})

	res := ResolveBattle(s)
	if !res.SuddenDeath || res.GameOver { t.Fatalf("expected sudden death without game over: %+v", res) }
	for _, p := range s.Players {
		if p.Eliminated || p.Poison != RevivePoison || p.Placement != nil || p.EliminationRound != nil || p.Treasures != 2 {
			t.Fatalf("player not revived cleanly: %+v", p)
		}
	}
	if len(s.History) != 0 { t.Fatalf("revived eliminations must leave history: %+v", s.History) }
	if len(res.Revived) != 2 { t.Fatalf("revived = %v", res.Revived) }
	var text string
	for _, n := range res.Notices {
		if n.Kind == NoticeSuddenDeath {
			text = n.Text
		}
	}
	if !strings.Contains(text, "Ann and Ben were both eliminated") { t.Fatalf("sudden death text: %q", text) }
}

func ghostSession(t *testing.T) *Session {
	t.Helper()
	s := newTestSession(t, "Ann", "Ben", "Cal", "Dee")
	dee := mustPlayer(t, s, "dee")
	dee.Eliminated = true
	dee.Placement = intPtr(4)
	dee.EliminationRound = intPtr(1)
	dee.Ghost = true
	s.History = append(s.History, Event{Kind: EventElimination, PlayerID: "dee", Round: 1, Battle: 2})
	s.Battle = 3
	return s
}

func TestResolveGhostWinPoisonsOpponent(t *testing.T) {
	s := ghostSession(t)
	setPairings(t, s,
		[3]string{"dee", "ann", "dee"},
		[3]string{"ben", "cal", "ben"},
	)

	ResolveBattle(s)
	if got := mustPlayer(t, s, "ann").Poison; got != 1 { t.Fatalf("ann poison = %d, want 1", got) }
	if got := mustPlayer(t, s, "dee").Poison; got != 0 { t.Fatalf("winning ghost took %d poison", got) }
}

func TestResolveGhostLossKeepsPlacement(t *testing.T) {
	s := ghostSession(t)
	dee := mustPlayer(t, s, "dee")
	dee.Poison = 9
	setPairings(t, s,
		[3]string{"dee", "ann", "ann"},
		[3]string{"ben", "cal", "ben"},
	)

	res := ResolveBattle(s)
	if dee.Poison != 10 { t.Fatalf("losing ghost poison = %d, want 10", dee.Poison) }
	if !dee.Eliminated || dee.Placement == nil || *dee.Placement != 4 || *dee.EliminationRound != 1 { t.Fatalf("ghost record changed: %+v", dee) }
	if len(res.Eliminated) != 0 || len(s.History) != 1 { t.Fatalf("ghost eliminated twice: res=%v history=%+v", res.Eliminated, s.History) }
	if hasNotice(res, NoticeElimination) || hasNotice(res, NoticeUnhealthy) { t.Fatalf("no notices expected for the ghost: %+v", res.Notices) }
	if dee.Treasures != StartTreasures { t.Fatalf("ghost gained treasure: %d", dee.Treasures) }
}

func TestResolveSharedPlacement(t *testing.T) {
	s := newTestSession(t, "Ann", "Ben", "Cal", "Dee")
	mustPlayer(t, s, "ann").Poison = 9
	mustPlayer(t, s, "cal").Poison = 9
	setPairings(t, s,
		[3]string{"ann", "ben", "ben"},
		[3]string{"cal", "dee", "dee"},
	)

	ResolveBattle(s)
	for _, id := range []roster.PlayerID{"ann", "cal"} {
		p := mustPlayer(t, s, id)
		if p.Placement == nil || *p.Placement != 3 {
			t.Fatalf("%s placement = %v, want 3", id, p.Placement)
		}
	}
	if len(s.History) != 2 || s.History[1].PlayerID != "cal" { t.Fatalf("history order: %+v", s.History) }
}

func TestResolveChampion(t *testing.T) {
	s := newTestSession(t, "Ann", "Ben")
	mustPlayer(t, s, "ben").Poison = 9
	mustPlayer(t, s, "ann").Treasures = 3
	setPairings(t, s, [3]string{"ann", "ben", "ann"})

	res := ResolveBattle(s)
	if !res.GameOver || res.Champion == nil || res.Champion.ID != "ann" { t.Fatalf("ann should be champion: %+v", res) }
	if p := mustPlayer(t, s, "ben").Placement; p == nil || *p != 2 { t.Fatalf("runner-up placement = %v", p) }
	if mustPlayer(t, s, "ann").Treasures != 3 { t.Fatalf("no treasure step after game over") }
	if !hasNotice(res, NoticeChampion) { t.Fatalf("missing champion notice") }
}

func TestResolveUnhealthyWarning(t *testing.T) {
	s := newTestSession(t, "Ann", "Ben")
	mustPlayer(t, s, "ann").Poison = 6
	mustPlayer(t, s, "ben").Poison = 6
	setPairings(t, s, [3]string{"ann", "ben", "ann"})

	res := ResolveBattle(s)
	var warned []roster.PlayerID
	for _, n := range res.Notices {
		if n.Kind == NoticeUnhealthy {
			warned = append(warned, n.PlayerIDs...)
		}
	}
	if len(warned) != 1 || warned[0] != "ben" { t.Fatalf("only ben at 7 poison should be warned, got %v", warned) }
}

func TestTreasuresCapAtFive(t *testing.T) {
	s := newTestSession(t, "Ann", "Ben")
	mustPlayer(t, s, "ann").Treasures = MaxTreasures
	setPairings(t, s, [3]string{"ann", "ben", "ann"})
	ResolveBattle(s)
	if got := mustPlayer(t, s, "ann").Treasures; got != MaxTreasures { t.Fatalf("treasures = %d", got) }
}
