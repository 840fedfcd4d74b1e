package leaguedto

import "time"

type PlayerStats struct {
	ID           string
	Name         string
	GamesPlayed  int
	Wins         int
	WinRate      float64
	HasWinRate   bool
	AvgPlacement float64
	HasPlacement bool
	Eliminations map[int]int
}

type Tournament struct {
	ID           int64
	Mode         string
	ChampionName string
	Players      int
	Rounds       int
	Battles      int
	EndedAt      time.Time
	Duration     time.Duration
}
