package league

import (
	"fmt"
	"strings"

	"github.com/park285/autobattler-league/internal/roster"
)

type NoticeKind string

const (
	NoticeDraftStart   NoticeKind = "draft_start"
	NoticeElimination  NoticeKind = "elimination"
	NoticeUnhealthy    NoticeKind = "unhealthy"
	NoticeRoundAdvance NoticeKind = "round_advance"
	NoticeSuddenDeath  NoticeKind = "sudden_death"
	NoticeChampion     NoticeKind = "champion"
)

// NoticeKinds lists every notice the controller emits.
var NoticeKinds = []NoticeKind{
	NoticeDraftStart,
	NoticeElimination,
	NoticeUnhealthy,
	NoticeRoundAdvance,
	NoticeSuddenDeath,
	NoticeChampion,
}

// Notice is a human-readable game event.
type Notice struct {
	Kind      NoticeKind
	Text      string
	PlayerIDs []roster.PlayerID

	data map[string]any
}

// Phrasebook renders message templates by key. *msgcat.Catalog satisfies it.
type Phrasebook interface {
	Render(key string, data any) (string, error)
}

// NoticeKey is the catalog key a notice kind is rendered from.
func NoticeKey(kind NoticeKind) string { return "league.notice." + string(kind) }

// localize re-renders the notice text through pb, keeping the English text
// when the catalog has no usable template.
func (n Notice) localize(pb Phrasebook) Notice {
	if pb == nil || n.data == nil {
		return n
	}
	if text, err := pb.Render(NoticeKey(n.Kind), n.data); err == nil && strings.TrimSpace(text) != "" {
		n.Text = text
	}
	return n
}

func draftStartNotice(count int) Notice {
	return Notice{
		Kind: NoticeDraftStart,
		Text: fmt.Sprintf("A new draft has begun with %d players!", count),
		data: map[string]any{"Count": count},
	}
}

func eliminationNotice(p *SessionPlayer) Notice {
	return Notice{
		Kind:      NoticeElimination,
		Text:      fmt.Sprintf("%s has been eliminated!", p.Name),
		PlayerIDs: []roster.PlayerID{p.ID},
		data:      map[string]any{"Name": p.Name, "Poison": p.Poison},
	}
}

func unhealthyNotice(p *SessionPlayer) Notice {
	return Notice{
		Kind:      NoticeUnhealthy,
		Text:      fmt.Sprintf("%s is looking unhealthy with %d poison...", p.Name, p.Poison),
		PlayerIDs: []roster.PlayerID{p.ID},
		data:      map[string]any{"Name": p.Name, "Poison": p.Poison},
	}
}

func roundAdvanceNotice(round, handSize int) Notice {
	return Notice{
		Kind: NoticeRoundAdvance,
		Text: fmt.Sprintf("A new round begins! Hand size has increased to %d!", handSize),
		data: map[string]any{"Round": round, "HandSize": handSize},
	}
}

func suddenDeathNotice(players []*SessionPlayer) Notice {
	names := make([]string, 0, len(players))
	ids := make([]roster.PlayerID, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
		ids = append(ids, p.ID)
	}
	joined := joinNames(names)
	quantifier := "all"
	if len(players) == 2 {
		quantifier = "both"
	}
	return Notice{
		Kind: NoticeSuddenDeath,
		Text: fmt.Sprintf("SUDDEN DEATH! %s were %s eliminated! Their poison is reset to %d. Battle again!",
			joined, quantifier, RevivePoison),
		PlayerIDs: ids,
		data: map[string]any{
			"Names":      joined,
			"Count":      len(players),
			"Quantifier": quantifier,
			"Poison":     RevivePoison,
		},
	}
}

func championNotice(p *SessionPlayer) Notice {
	return Notice{
		Kind:      NoticeChampion,
		Text:      fmt.Sprintf("%s is the Champion!", p.Name),
		PlayerIDs: []roster.PlayerID{p.ID},
		data:      map[string]any{"Name": p.Name},
	}
}

// joinNames renders "A", "A and B", "A, B and C".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
