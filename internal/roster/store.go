package roster

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store persists the whole roster as one document.
type Store interface {
	Load(ctx context.Context) ([]Player, error)
	Save(ctx context.Context, players []Player) error
}

func encodeDocument(players []Player) ([]byte, error) {
	if players == nil {
		players = []Player{}
	}
	raw, err := json.Marshal(players)
	if err != nil {
		return nil, fmt.Errorf("encode roster: %w", err)
	}
	return raw, nil
}

func decodeDocument(raw []byte) ([]Player, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var players []Player
	if err := json.Unmarshal(raw, &players); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	for i := range players {
		players[i].Stats.normalize()
	}
	return players, nil
}
