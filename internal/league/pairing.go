package league

import "math/rand/v2"

// GeneratePairings builds the pairings for the current battle and stores them
// on the session.
//
// Any ghost from the previous battle loses its flag first. The pool is every
// player still in the game; when it is odd, the most recently eliminated
// player returns as a ghost with its poison cleared, or the BYE joins when
// nobody has been eliminated yet. Pairings containing the BYE are resolved in
// favour of the real participant.
func GeneratePairings(s *Session, rng *rand.Rand) []*Pairing {
	for _, p := range s.Players {
		p.Ghost = false
	}

	pool := make([]Participant, 0, len(s.Players)+1)
	for _, p := range s.Players {
		if !p.Eliminated && !p.Ghost {
			pool = append(pool, p.participant())
		}
	}

	if len(pool)%2 == 1 {
		if ghost := s.ghostCandidate(); ghost != nil {
			ghost.Ghost = true
			ghost.Poison = 0
			pool = append(pool, ghost.participant())
		} else {
			pool = append(pool, byeParticipant())
		}
	}

	if rng != nil {
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	} else {
		rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}

	pairings := make([]*Pairing, 0, (len(pool)+1)/2)
	for i := 0; i < len(pool); i += 2 {
		pr := &Pairing{A: pool[i], B: byeParticipant()}
		if i+1 < len(pool) {
			pr.B = pool[i+1]
		}
		switch {
		case pr.A.IsBye():
			pr.Result = string(pr.B.ID)
		case pr.B.IsBye():
			pr.Result = string(pr.A.ID)
		}
		pairings = append(pairings, pr)
	}
	s.Pairings = pairings
	return pairings
}

// ghostCandidate is the player named by the latest elimination event, if that
// player is still out of the game.
func (s *Session) ghostCandidate() *SessionPlayer {
	id, ok := s.lastElimination()
	if !ok {
		return nil
	}
	p, ok := s.Player(id)
	if !ok || !p.Eliminated {
		return nil
	}
	return p
}
