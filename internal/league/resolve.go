package league

import "github.com/park285/autobattler-league/internal/roster"

// PoisonDamage is the poison a battle loser takes at the given hand size.
func PoisonDamage(handSize int) int {
	switch handSize {
	case 3, 4:
		return 1
	case 5:
		return 2
	case 6:
		return 3
	default:
		return 5
	}
}

// Resolution is the outcome of one resolved battle.
type Resolution struct {
	Damage      int
	Eliminated  []roster.PlayerID
	Revived     []roster.PlayerID
	Champion    *SessionPlayer
	GameOver    bool
	SuddenDeath bool
	Notices     []Notice
}

// ResolveBattle applies the reported results of the current pairings to the
// session: poison, eliminations, placements, sudden death and treasures.
// Callers must make sure every pairing has a result.
func ResolveBattle(s *Session) *Resolution {
	res := &Resolution{Damage: PoisonDamage(s.HandSize)}

	for _, pr := range s.Pairings {
		switch pr.Result {
		case ResultDraw:
			s.poison(pr.A, res.Damage)
			s.poison(pr.B, res.Damage)
		case string(pr.A.ID):
			s.poison(pr.B, res.Damage)
		case string(pr.B.ID):
			s.poison(pr.A, res.Damage)
		}
	}

	var fallen []*SessionPlayer
	for _, p := range s.Players {
		if p.Eliminated {
			continue
		}
		switch {
		case p.Poison >= EliminationPoison:
			p.Eliminated = true
			p.EliminationRound = intPtr(s.Round)
			s.History = append(s.History, Event{
				Kind:     EventElimination,
				PlayerID: p.ID,
				Round:    s.Round,
				Battle:   s.Battle,
			})
			fallen = append(fallen, p)
			res.Eliminated = append(res.Eliminated, p.ID)
			res.Notices = append(res.Notices, eliminationNotice(p))
		case p.Poison > WarningPoison:
			res.Notices = append(res.Notices, unhealthyNotice(p))
		}
	}

	remaining := s.Remaining()
	if len(remaining) == 0 {
		revived := make(map[roster.PlayerID]bool, len(fallen))
		for _, p := range fallen {
			p.Eliminated = false
			p.Poison = RevivePoison
			p.EliminationRound = nil
			revived[p.ID] = true
			res.Revived = append(res.Revived, p.ID)
		}
		s.dropEliminations(revived)
		res.SuddenDeath = true
		res.Notices = append(res.Notices, suddenDeathNotice(fallen))
	} else {
		for _, p := range fallen {
			p.Placement = intPtr(len(remaining) + 1)
		}
		if len(remaining) == 1 {
			champ := remaining[0]
			champ.Placement = intPtr(1)
			res.Champion = champ
			res.GameOver = true
			res.Notices = append(res.Notices, championNotice(champ))
			return res
		}
	}

	s.addTreasures()
	return res
}

func (s *Session) poison(p Participant, amount int) {
	if p.IsBye() {
		return
	}
	sp, ok := s.Player(p.ID)
	if !ok {
		return
	}
	sp.Poison += amount
}

func (s *Session) addTreasures() {
	for _, p := range s.Players {
		if !p.Eliminated && p.Treasures < MaxTreasures {
			p.Treasures++
		}
	}
}
