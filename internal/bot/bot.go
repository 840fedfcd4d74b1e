package bot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/park285/autobattler-league/internal/adapter/leaguepresenter"
	"github.com/park285/autobattler-league/internal/archive"
	"github.com/park285/autobattler-league/internal/domain"
	"github.com/park285/autobattler-league/internal/irisfast"
	"github.com/park285/autobattler-league/internal/league"
	"github.com/park285/autobattler-league/internal/obslog"
	"github.com/park285/autobattler-league/internal/render"
	"github.com/park285/autobattler-league/internal/roster"
	"github.com/park285/autobattler-league/pkg/leaguedto"
	"go.uber.org/zap"
)

// Roster is the player registry as seen by chat commands.
type Roster interface {
	Register(ctx context.Context, name string) (roster.Player, error)
	SortedByName() []roster.Player
	Lookup(token string) (roster.Player, error)
}

// History lists finished tournaments.
type History interface {
	Recent(ctx context.Context, limit int) ([]*domain.TournamentRecord, error)
}

type Config struct {
	Prefix      string
	Roster      Roster
	Controller  *league.Controller
	History     History
	Renderer    render.StatusRenderer
	Formatter   *leaguepresenter.Formatter
	Egress      irisfast.Egress
	RoomAllowed func(room string) bool
}

// Bot routes prefixed chat commands to the league controller. Commands run
// one at a time.
type Bot struct {
	mu sync.Mutex

	prefix      string
	roster      Roster
	league      *league.Controller
	history     History
	renderer    render.StatusRenderer
	formatter   *leaguepresenter.Formatter
	presenter   *leaguepresenter.Presenter
	roomAllowed func(string) bool

	draftRoom string
}

func New(cfg Config) *Bot {
	b := &Bot{
		prefix:      strings.TrimSpace(cfg.Prefix),
		roster:      cfg.Roster,
		league:      cfg.Controller,
		history:     cfg.History,
		renderer:    cfg.Renderer,
		formatter:   cfg.Formatter,
		roomAllowed: cfg.RoomAllowed,
	}
	if b.formatter == nil {
		b.formatter = leaguepresenter.NewFormatter(b, nil)
	}
	if cfg.Egress != nil {
		b.presenter = leaguepresenter.NewPresenter(cfg.Egress.SendText, cfg.Egress.SendImage)
	}
	return b
}

// Prefix lets the bot act as the formatter's prefix provider.
func (b *Bot) Prefix() string { return b.prefix }

// HandleMessage answers one chat message. Messages without the prefix or from
// rooms outside the allow list are ignored.
func (b *Bot) HandleMessage(ctx context.Context, msg *irisfast.Message) {
	if msg == nil {
		return
	}
	text := strings.TrimSpace(msg.Msg)
	if text == "" || !b.hasPrefix(text) {
		return
	}
	if b.roomAllowed != nil && !b.roomAllowed(msg.Room) {
		obslog.L().Debug("bot_room_ignored", zap.String("room", msg.Room))
		return
	}
	if err := b.Handle(ctx, msg.Room, strings.TrimSpace(text[len(b.prefix):])); err != nil {
		obslog.L().Warn("bot_reply_failed", zap.String("room", msg.Room), zap.Error(err))
	}
}

func (b *Bot) hasPrefix(text string) bool {
	if b.prefix == "" || !strings.HasPrefix(text, b.prefix) {
		return false
	}
	rest := text[len(b.prefix):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n'
}

// Handle runs the command line raw (prefix already removed) for room. The
// returned error is a delivery failure; command errors are replied to the room.
func (b *Bot) Handle(ctx context.Context, room, raw string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return b.reply(ctx, room, b.formatter.Help())
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	obslog.L().Info("bot_command", zap.String("cmd", cmd), zap.String("room", room), zap.Int("args", len(args)))

	switch cmd {
	case "help":
		return b.reply(ctx, room, b.formatter.Help())
	case "register":
		return b.register(ctx, room, args)
	case "players":
		return b.reply(ctx, room, b.formatter.Players(leaguepresenter.ToStats(b.roster.SortedByName())))
	case "stats":
		return b.reply(ctx, room, b.formatter.Stats(leaguepresenter.ToStats(b.roster.SortedByName())))
	case "draft":
		return b.draft(ctx, room, args)
	case "status":
		return b.status(ctx, room)
	case "result":
		return b.result(ctx, room, args)
	case "end":
		return b.endBattle(ctx, room)
	case "abandon":
		if b.otherRoom(room) {
			return b.reply(ctx, room, b.formatter.OtherRoom())
		}
		ok := b.league.Abandon()
		b.draftRoom = ""
		return b.reply(ctx, room, b.formatter.Abandoned(ok))
	case "history":
		return b.recent(ctx, room)
	default:
		return b.reply(ctx, room, b.formatter.UnknownCommand())
	}
}

func (b *Bot) register(ctx context.Context, room string, args []string) error {
	if len(args) == 0 {
		return b.reply(ctx, room, b.formatter.Usage("register"))
	}
	p, err := b.roster.Register(ctx, strings.Join(args, " "))
	if err != nil {
		return b.replyError(ctx, room, err)
	}
	return b.reply(ctx, room, b.formatter.Registered(p.Name, p.ID.String()))
}

// draft parses "<count> [random|structured] <player...>". Players are split on
// commas when any are present so names may contain spaces.
func (b *Bot) draft(ctx context.Context, room string, args []string) error {
	if len(args) < 2 {
		return b.reply(ctx, room, b.formatter.Usage("draft"))
	}
	count, err := strconv.Atoi(args[0])
	if err != nil {
		return b.reply(ctx, room, b.formatter.Usage("draft"))
	}
	mode, rest := b.draftMode(count, args[1:])

	ids := make([]roster.PlayerID, 0, len(rest))
	for _, token := range splitPlayers(rest) {
		p, err := b.roster.Lookup(token)
		if err != nil {
			return b.replyError(ctx, room, err)
		}
		ids = append(ids, p.ID)
	}

	s, err := b.league.BeginDraft(ctx, league.DraftRequest{
		Count:     count,
		Mode:      mode,
		PlayerIDs: ids,
		RoomHash:  hashRoom(room),
	})
	if err != nil {
		return b.replyError(ctx, room, err)
	}
	b.draftRoom = room
	view := leaguepresenter.ToGameView(s)
	text := b.formatter.Notices(view.Notices) + "\n\n" + b.formatter.Status(view)
	return b.board(ctx, room, text, view)
}

// draftMode takes a leading mode word off the player list. A player who is
// named like a mode stays a player when the list only adds up with them in it.
func (b *Bot) draftMode(count int, rest []string) (league.Mode, []string) {
	m, err := league.ParseMode(rest[0])
	if err != nil {
		return league.ModeRandom, rest
	}
	if len(splitPlayers(rest[1:])) == count {
		return m, rest[1:]
	}
	if _, err := b.roster.Lookup(firstPlayer(rest)); err == nil {
		return league.ModeRandom, rest
	}
	return m, rest[1:]
}

func firstPlayer(tokens []string) string {
	if players := splitPlayers(tokens); len(players) > 0 {
		return players[0]
	}
	return ""
}

func splitPlayers(tokens []string) []string {
	joined := strings.Join(tokens, " ")
	if !strings.Contains(joined, ",") {
		return tokens
	}
	var out []string
	for _, part := range strings.Split(joined, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (b *Bot) status(ctx context.Context, room string) error {
	s := b.league.Session()
	if s == nil {
		return b.reply(ctx, room, b.formatter.NoSession())
	}
	view := leaguepresenter.ToGameView(s)
	return b.board(ctx, room, b.formatter.Status(view), view)
}

func (b *Bot) result(ctx context.Context, room string, args []string) error {
	if len(args) < 2 {
		return b.reply(ctx, room, b.formatter.Usage("result"))
	}
	if b.otherRoom(room) {
		return b.reply(ctx, room, b.formatter.OtherRoom())
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return b.reply(ctx, room, b.formatter.Usage("result"))
	}
	outcome := strings.Join(args[1:], " ")
	if !strings.EqualFold(outcome, league.ResultDraw) {
		if p, err := b.roster.Lookup(outcome); err == nil {
			outcome = p.ID.String()
		}
	}
	if _, err := b.league.SetResult(number-1, outcome); err != nil {
		return b.replyError(ctx, room, err)
	}
	view := leaguepresenter.ToGameView(b.league.Session())
	return b.reply(ctx, room, b.formatter.ResultRecorded(view, number))
}

func (b *Bot) endBattle(ctx context.Context, room string) error {
	if b.otherRoom(room) {
		return b.reply(ctx, room, b.formatter.OtherRoom())
	}
	res, err := b.league.EndBattle(ctx)
	if res == nil {
		return b.replyError(ctx, room, err)
	}

	view := leaguepresenter.ToGameView(b.league.Session())
	var sb strings.Builder
	if notices := b.formatter.Notices(leaguepresenter.ToNotices(res.Notices)); notices != "" {
		sb.WriteString(notices)
		sb.WriteString("\n\n")
	}
	sb.WriteString(b.formatter.Status(view))
	if err != nil {
		obslog.L().Error("bot_game_over_save_failed", zap.Error(err))
		sb.WriteString("\n\n")
		sb.WriteString(b.formatter.SaveFailed())
	}
	return b.board(ctx, room, sb.String(), view)
}

func (b *Bot) recent(ctx context.Context, room string) error {
	if b.history == nil {
		return b.reply(ctx, room, b.formatter.History(nil))
	}
	list, err := b.history.Recent(ctx, archive.DefaultRecentLimit)
	if err != nil {
		obslog.L().Warn("bot_history_failed", zap.Error(err))
		return b.replyError(ctx, room, err)
	}
	return b.reply(ctx, room, b.formatter.History(leaguepresenter.ToTournaments(list)))
}

// otherRoom reports whether a running tournament belongs to a different room.
func (b *Bot) otherRoom(room string) bool {
	return b.league.Phase() == league.PhaseBattling && b.draftRoom != "" && b.draftRoom != room
}

func (b *Bot) board(ctx context.Context, room, text string, view *leaguedto.GameView) error {
	var image []byte
	if b.renderer != nil && view != nil {
		img, err := b.renderer.RenderStatus(ctx, view)
		if err != nil {
			obslog.L().Warn("bot_status_render_failed", zap.Error(err))
		} else {
			image = img
		}
	}
	if b.presenter == nil {
		return errors.New("bot: no egress configured")
	}
	return b.presenter.Board(ctx, room, text, image)
}

func (b *Bot) reply(ctx context.Context, room, text string) error {
	if b.presenter == nil {
		return errors.New("bot: no egress configured")
	}
	return b.presenter.Text(ctx, room, text)
}

func (b *Bot) replyError(ctx context.Context, room string, err error) error {
	if leaguepresenter.ToDomainError(err).Code == "internal" {
		obslog.L().Error("bot_command_failed", zap.String("room", room), zap.Error(err))
	}
	return b.reply(ctx, room, b.formatter.Error(err))
}

func hashRoom(room string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(room)))
	return hex.EncodeToString(sum[:8])
}
