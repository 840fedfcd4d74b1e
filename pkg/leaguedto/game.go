package leaguedto

type Participant struct {
	ID   string
	Name string
	Bye  bool
}

type PlayerStatus struct {
	ID               string
	Name             string
	Poison           int
	Treasures        int
	Ghost            bool
	Eliminated       bool
	EliminationRound int
	Placement        int
}

type Pairing struct {
	Number  int
	A       Participant
	B       Participant
	Result  string
	Options []string
	Bye     bool
}

type Standing struct {
	Placement int
	ID        string
	Name      string
}

type Notice struct {
	Kind string
	Text string
}

// GameView is a read-only snapshot of the running tournament.
type GameView struct {
	SessionID     string
	Mode          string
	Phase         string
	Round         int
	Battle        int
	BattleInRound int
	HandSize      int
	NewRound      bool
	Ready         bool
	Players       []PlayerStatus
	Pairings      []Pairing
	Standings     []Standing
	Champion      *Standing
	Notices       []Notice
	StatusImage   []byte
}

// Pending counts pairings still waiting for a result.
func (v *GameView) Pending() int {
	if v == nil {
		return 0
	}
	n := 0
	for _, p := range v.Pairings {
		if p.Result == "" {
			n++
		}
	}
	return n
}
