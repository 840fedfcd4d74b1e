package league

import (
	"math/rand/v2"
	"testing"

	"github.com/park285/autobattler-league/internal/roster"
)

func seeded() *rand.Rand { return rand.New(rand.NewPCG(7, 11)) }

func pairedIDs(pairings []*Pairing) map[roster.PlayerID]int {
	seen := make(map[roster.PlayerID]int)
	for _, pr := range pairings {
		seen[pr.A.ID]++
		seen[pr.B.ID]++
	}
	return seen
}

func TestGeneratePairingsEvenPool(t *testing.T) {
	s := newTestSession(t, "Ann", "Ben", "Cal", "Dee", "Eve", "Fay")
	pairings := GeneratePairings(s, seeded())
	if len(pairings) != 3 { t.Fatalf("want 3 pairings, got %d", len(pairings)) }
	seen := pairedIDs(pairings)
	for _, p := range s.Players {
		if seen[p.ID] != 1 {
			t.Fatalf("%s appears %d times", p.ID, seen[p.ID])
		}
	}
	if seen[ByeID] != 0 { t.Fatalf("even pool must not use a BYE") }
	for _, pr := range pairings {
		if pr.Reported() {
			t.Fatalf("fresh pairings start unreported: %+v", pr)
		}
	}
	if len(s.Pairings) != 3 { t.Fatalf("pairings not stored on session") }
}

func TestGeneratePairingsGhostIsLatestElimination(t *testing.T) {
	s := newTestSession(t, "Ann", "Ben", "Cal", "Dee", "Eve")
	for _, id := range []roster.PlayerID{"ann", "ben"} {
		p := mustPlayer(t, s, id)
		p.Eliminated = true
		p.Poison = 12
		s.History = append(s.History, Event{Kind: EventElimination, PlayerID: id, Round: 2})
	}
	// pool of three: cal, dee, eve

	pairings := GeneratePairings(s, seeded())
	ben := mustPlayer(t, s, "ben")
	if !ben.Ghost || ben.Poison != 0 { t.Fatalf("ben should be the ghost with no poison: %+v", ben) }
	if !ben.Eliminated { t.Fatalf("ghost stays eliminated") }
	if mustPlayer(t, s, "ann").Ghost { t.Fatalf("only the latest elimination becomes the ghost") }
	seen := pairedIDs(pairings)
	if seen[ByeID] != 0 || seen["ben"] != 1 || seen["ann"] != 0 { t.Fatalf("unexpected pool: %v", seen) }
	for _, pr := range pairings {
		if pr.Reported() {
			t.Fatalf("ghost pairings are played, not auto-resolved: %+v", pr)
		}
	}

	// The ghost flag does not carry over to the next battle.
	mustPlayer(t, s, "eve").Eliminated = true
	s.History = append(s.History, Event{Kind: EventElimination, PlayerID: "eve", Round: 2})
	GeneratePairings(s, seeded())
	if ben.Ghost { t.Fatalf("previous ghost must be cleared") }
	if seen := pairedIDs(s.Pairings); seen["cal"] != 1 || seen["dee"] != 1 || len(s.Pairings) != 1 {
		t.Fatalf("even pool after clearing ghost: %v", seen)
	}
}

func TestGeneratePairingsByeWithoutEliminations(t *testing.T) {
	s := newTestSession(t, "Ann", "Ben", "Cal", "Dee", "Eve")
	pairings := GeneratePairings(s, seeded())
	if len(pairings) != 3 { t.Fatalf("want 3 pairings, got %d", len(pairings)) }
	byes := 0
	for _, pr := range pairings {
		if pr.HasBye() {
			byes++
			if pr.Result == "" || pr.Result == string(ByeID) {
				t.Fatalf("BYE pairing must resolve to the seated player: %+v", pr)
			}
		}
	}
	if byes != 1 { t.Fatalf("want exactly one BYE pairing, got %d", byes) }
}

func TestGeneratePairingsDeterministicWithSeed(t *testing.T) {
	a := newTestSession(t, "Ann", "Ben", "Cal", "Dee")
	b := newTestSession(t, "Ann", "Ben", "Cal", "Dee")
	pa := GeneratePairings(a, seeded())
	pb := GeneratePairings(b, seeded())
	for i := range pa {
		if pa[i].A.ID != pb[i].A.ID || pa[i].B.ID != pb[i].B.ID {
			t.Fatalf("same seed produced different pairings at %d", i)
		}
	}
}
