package irisfast

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Egress delivers bot replies to a room.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

// Egress modes accepted by NewEgress.
const (
	EgressHTTP = "http"
	EgressWS   = "ws"
	EgressAuto = "auto"
)

const socketWriteTimeout = 5 * time.Second

type replier interface {
	reply(ctx context.Context, kind, room, data string) error
}

// NewEgress picks the reply transport. auto writes to the socket while it is
// connected and falls back to HTTP when a socket write fails. With dryRun
// nothing is sent; replies are only logged.
func NewEgress(mode string, dryRun bool, c *Client, ws *WebSocket, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dryRun {
		return &egress{r: dryRunReplier{mode: mode, logger: logger}}
	}
	sock := &socketReplier{ws: ws}
	switch mode {
	case EgressWS:
		return &egress{r: sock}
	case EgressAuto:
		return &egress{r: &fallbackReplier{socket: sock, http: c, logger: logger}}
	default:
		return &egress{r: c}
	}
}

type egress struct{ r replier }

func (e *egress) SendText(ctx context.Context, room, message string) error {
	return e.r.reply(ctx, ReplyText, room, message)
}

func (e *egress) SendImage(ctx context.Context, room, imageBase64 string) error {
	return e.r.reply(ctx, ReplyImage, room, imageBase64)
}

type socketReplier struct{ ws *WebSocket }

func (s *socketReplier) ready() bool { return s.ws != nil && s.ws.Connected() }

func (s *socketReplier) reply(ctx context.Context, kind, room, data string) error {
	if s.ws == nil {
		return ErrNotConnected
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, socketWriteTimeout)
		defer cancel()
	}
	return s.ws.WriteJSON(ctx, &ReplyRequest{Type: kind, Room: room, Data: data})
}

type fallbackReplier struct {
	socket *socketReplier
	http   *Client
	logger *zap.Logger
}

func (f *fallbackReplier) reply(ctx context.Context, kind, room, data string) error {
	if f.socket.ready() {
		err := f.socket.reply(ctx, kind, room, data)
		if err == nil {
			return nil
		}
		f.logger.Warn("egress_fallback", zap.String("type", kind), zap.String("room", room), zap.Error(err))
	}
	return f.http.reply(ctx, kind, room, data)
}

type dryRunReplier struct {
	mode   string
	logger *zap.Logger
}

func (d dryRunReplier) reply(_ context.Context, kind, room, data string) error {
	d.logger.Info("egress_dryrun",
		zap.String("mode", d.mode),
		zap.String("type", kind),
		zap.String("room", room),
		zap.Int("bytes", len(data)),
	)
	return nil
}
