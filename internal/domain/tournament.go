package domain

import "time"

// TournamentRecord is the archived summary of one finished tournament.
type TournamentRecord struct {
	ID           int64
	SessionUUID  string
	Mode         string
	RoomHash     string
	ChampionID   string
	ChampionName string
	Rounds       int
	Battles      int
	FinalHand    int
	Standings    []StandingRecord
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
}

type StandingRecord struct {
	PlayerID         string `json:"playerId"`
	Name             string `json:"name"`
	Placement        int    `json:"placement"`
	EliminationRound *int   `json:"eliminationRound,omitempty"`
	FinalPoison      int    `json:"finalPoison"`
	Treasures        int    `json:"treasures"`
}
