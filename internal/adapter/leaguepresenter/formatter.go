package leaguepresenter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/park285/autobattler-league/internal/util"
	"github.com/park285/autobattler-league/pkg/leaguedto"
)

const (
	helpInstruction    = "⚔️ League commands"
	statsInstruction   = "📊 League stats"
	historyInstruction = "🏆 Recent tournaments"
	playersHeader      = "👥 Roster"
)

// PrefixProvider exposes the command prefix replies should mention.
type PrefixProvider interface {
	Prefix() string
}

// Phrasebook renders catalog templates. *msgcat.Catalog satisfies it.
type Phrasebook interface {
	Render(key string, data any) (string, error)
}

// Formatter renders league DTOs into chat-friendly text blocks.
type Formatter struct {
	prefixProvider PrefixProvider
	phrases        Phrasebook
}

func NewFormatter(provider PrefixProvider, phrases Phrasebook) *Formatter {
	return &Formatter{prefixProvider: provider, phrases: phrases}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

// text renders key from the catalog, falling back to the given English text.
func (f *Formatter) text(key string, data map[string]any, fallback string) string {
	if f == nil || f.phrases == nil {
		return fallback
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Prefix"]; !ok {
		data["Prefix"] = f.Prefix()
	}
	out, err := f.phrases.Render(key, data)
	if err != nil || strings.TrimSpace(out) == "" {
		return fallback
	}
	return out
}

func (f *Formatter) Help() string {
	p := f.Prefix()
	content := fmt.Sprintf(`%s
• %[2]s register <name>
  add a player to the roster
• %[2]s players
  list registered players and ids
• %[2]s stats
  games, win rate and average placement
• %[2]s draft <count> [random|structured] <player...>
  start a tournament (players by id or name)
• %[2]s status
  current round, poison and pairings
• %[2]s result <match#> <player|draw>
  report a match result
• %[2]s end
  resolve the battle once every result is in
• %[2]s abandon
  drop the running tournament
• %[2]s history
  recently finished tournaments`, helpInstruction, p)

	return util.ApplySeeMoreWithHeader(content, helpInstruction, helpInstruction, "")
}

func (f *Formatter) UnknownCommand() string {
	return f.text("bot.unknown_command", nil, fmt.Sprintf("Unknown command. Try `%s help`.", f.Prefix()))
}

func (f *Formatter) Usage(command string) string {
	fallback := map[string]string{
		"register": "Usage: %s register <name>",
		"draft":    "Usage: %s draft <count> [random|structured] <player...>",
		"result":   "Usage: %s result <match#> <player|draw>",
	}[command]
	if fallback == "" {
		return f.Help()
	}
	return f.text("bot.usage."+command, nil, fmt.Sprintf(fallback, f.Prefix()))
}

func (f *Formatter) Registered(name, id string) string {
	return f.text("bot.registered", map[string]any{"Name": name, "ID": id},
		fmt.Sprintf("Registered %s. Player id: %s", name, id))
}

func (f *Formatter) Players(players []leaguedto.PlayerStats) string {
	if len(players) == 0 {
		return f.RosterEmpty()
	}
	var sb strings.Builder
	sb.WriteString(playersHeader)
	sb.WriteByte('\n')
	for _, p := range players {
		sb.WriteString(fmt.Sprintf("• %s (%s)\n", p.Name, p.ID))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) RosterEmpty() string {
	return f.text("bot.roster_empty", nil,
		fmt.Sprintf("No players registered yet. Add one with `%s register <name>`.", f.Prefix()))
}

// Stats renders the roster table sorted by name.
func (f *Formatter) Stats(players []leaguedto.PlayerStats) string {
	if len(players) == 0 {
		return f.RosterEmpty()
	}
	var sb strings.Builder
	sb.WriteString(statsInstruction)
	sb.WriteByte('\n')
	for _, p := range players {
		sb.WriteString(fmt.Sprintf("• %s\n  games %d | win rate %s | avg placement %s\n",
			p.Name, p.GamesPlayed, FormatWinRate(p), FormatAvgPlacement(p)))
		if line := formatEliminations(p.Eliminations); line != "" {
			sb.WriteString("  eliminated in " + line + "\n")
		}
	}
	content := strings.TrimRight(sb.String(), "\n")
	return util.ApplySeeMoreWithHeader(content, statsInstruction, statsInstruction, "")
}

// FormatWinRate prints wins per game as a percentage with one decimal.
func FormatWinRate(p leaguedto.PlayerStats) string {
	if !p.HasWinRate {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", p.WinRate*100)
}

// FormatAvgPlacement prints the mean placement with two decimals.
func FormatAvgPlacement(p leaguedto.PlayerStats) string {
	if !p.HasPlacement {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", p.AvgPlacement)
}

func formatEliminations(m map[int]int) string {
	if len(m) == 0 {
		return ""
	}
	rounds := make([]int, 0, len(m))
	for r := range m {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)
	parts := make([]string, 0, len(rounds))
	for _, r := range rounds {
		parts = append(parts, fmt.Sprintf("R%d×%d", r, m[r]))
	}
	return strings.Join(parts, ", ")
}

// GameInfo is the round header with the phase instruction.
func (f *Formatter) GameInfo(view *leaguedto.GameView) string {
	if view == nil {
		return f.NoSession()
	}
	instruction := fmt.Sprintf("Report results for Battle %d of 3.", view.BattleInRound)
	if view.NewRound {
		instruction = fmt.Sprintf("This is a new round! First, draft new cards. Then, report results for Battle %d of 3.", view.BattleInRound)
	}
	return fmt.Sprintf("Round %d (Battle %d/3)\nCurrent Hand Size: %d\n%s",
		view.Round, view.BattleInRound, view.HandSize, instruction)
}

// Status renders the full state of a running tournament.
func (f *Formatter) Status(view *leaguedto.GameView) string {
	if view == nil {
		return f.NoSession()
	}
	if view.Phase == "game_over" {
		return f.Standings(view)
	}
	var sb strings.Builder
	sb.WriteString(f.GameInfo(view))
	sb.WriteString("\n\nPlayer Status\n")
	for _, p := range view.Players {
		sb.WriteString(formatPlayerLine(p))
		sb.WriteByte('\n')
	}
	sb.WriteString("\nBattle Pairings\n")
	sb.WriteString(f.Pairings(view))
	return sb.String()
}

func formatPlayerLine(p leaguedto.PlayerStatus) string {
	line := fmt.Sprintf("• %s: poison %d, treasures %d", p.Name, p.Poison, p.Treasures)
	switch {
	case p.Ghost:
		line += " 👻"
	case p.Eliminated:
		line += " (eliminated)"
	}
	return line
}

// Pairings lists every match with its number and, if known, its result.
func (f *Formatter) Pairings(view *leaguedto.GameView) string {
	if view == nil || len(view.Pairings) == 0 {
		return ""
	}
	lines := make([]string, 0, len(view.Pairings)+1)
	for _, pr := range view.Pairings {
		lines = append(lines, formatPairing(pr))
	}
	if pending := view.Pending(); pending > 0 {
		lines = append(lines, "", f.text("bot.results_waiting", map[string]any{"Pending": pending},
			fmt.Sprintf("%d match(es) still waiting for a result.", pending)))
	} else if view.Ready {
		lines = append(lines, "", f.ResultsReady())
	}
	return strings.Join(lines, "\n")
}

func formatPairing(pr leaguedto.Pairing) string {
	if pr.Bye {
		name := pr.A.Name
		if pr.A.Bye {
			name = pr.B.Name
		}
		return fmt.Sprintf("%d. %s has a BYE", pr.Number, name)
	}
	line := fmt.Sprintf("%d. %s vs. %s", pr.Number, pr.A.Name, pr.B.Name)
	if r := resultLabel(pr); r != "" {
		return line + " → " + r
	}
	return line
}

func resultLabel(pr leaguedto.Pairing) string {
	switch pr.Result {
	case "":
		return ""
	case "draw":
		return "draw"
	case pr.A.ID:
		return pr.A.Name + " wins"
	case pr.B.ID:
		return pr.B.Name + " wins"
	default:
		return pr.Result
	}
}

func (f *Formatter) ResultRecorded(view *leaguedto.GameView, number int) string {
	if view == nil || number < 1 || number > len(view.Pairings) {
		return ""
	}
	pr := view.Pairings[number-1]
	text := f.text("bot.result_recorded", map[string]any{"Match": number, "Result": resultLabel(pr)},
		fmt.Sprintf("Match %d: %s", number, resultLabel(pr)))
	if view.Ready {
		return text + "\n" + f.ResultsReady()
	}
	pending := view.Pending()
	return text + "\n" + f.text("bot.results_waiting", map[string]any{"Pending": pending},
		fmt.Sprintf("%d match(es) still waiting for a result.", pending))
}

func (f *Formatter) ResultsReady() string {
	return f.text("bot.results_ready", nil,
		fmt.Sprintf("All results are in. Finish the battle with `%s end`.", f.Prefix()))
}

// Notices joins event texts one per line.
func (f *Formatter) Notices(notices []leaguedto.Notice) string {
	lines := make([]string, 0, len(notices))
	for _, n := range notices {
		if t := strings.TrimSpace(n.Text); t != "" {
			lines = append(lines, "📣 "+t)
		}
	}
	return strings.Join(lines, "\n")
}

// Standings renders the final placements.
func (f *Formatter) Standings(view *leaguedto.GameView) string {
	if view == nil {
		return ""
	}
	var sb strings.Builder
	if view.Champion != nil {
		sb.WriteString(fmt.Sprintf("🏆 %s is the Champion!\n", view.Champion.Name))
	}
	sb.WriteString("Final Standings\n")
	for _, st := range view.Standings {
		sb.WriteString(fmt.Sprintf("#%d %s\n", st.Placement, st.Name))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) History(list []leaguedto.Tournament) string {
	if len(list) == 0 {
		return "No finished tournaments yet."
	}
	var sb strings.Builder
	sb.WriteString(historyInstruction)
	sb.WriteByte('\n')
	for _, t := range list {
		champion := t.ChampionName
		if champion == "" {
			champion = "-"
		}
		sb.WriteString(fmt.Sprintf("• #%d %s %s, %d players, champion %s\n",
			t.ID, formatShortTime(t.EndedAt), t.Mode, t.Players, champion))
		sb.WriteString(fmt.Sprintf("  %d rounds, %d battles", t.Rounds, t.Battles))
		if d := formatDuration(t.Duration); d != "" {
			sb.WriteString(", " + d)
		}
		sb.WriteByte('\n')
	}
	content := strings.TrimRight(sb.String(), "\n")
	return util.ApplySeeMoreWithHeader(content, historyInstruction, historyInstruction, "")
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("01/02 15:04")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Minute)
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}

func (f *Formatter) NoSession() string {
	return f.text("bot.error.no_session", nil,
		fmt.Sprintf("No tournament is in progress. Start one with `%s draft`.", f.Prefix()))
}

func (f *Formatter) Abandoned(ok bool) string {
	if !ok {
		return f.text("bot.nothing_to_abandon", nil, "There is no tournament to abandon.")
	}
	return f.text("bot.abandoned", nil, "The tournament was abandoned. Nothing was saved.")
}

func (f *Formatter) OtherRoom() string {
	return f.text("bot.other_room", nil, "A tournament is running in another room.")
}

func (f *Formatter) SaveFailed() string {
	return f.text("bot.save_failed", nil,
		"The tournament ended but the roster could not be saved. Check the store and try again later.")
}

// Error maps err to its catalog message.
func (f *Formatter) Error(err error) string {
	if err == nil {
		return ""
	}
	de := ToDomainError(err)
	fallback := de.Message
	if de.Code == "internal" {
		fallback = "Something went wrong. Please try again."
	}
	return f.text("bot.error."+de.Code, nil, fallback)
}
