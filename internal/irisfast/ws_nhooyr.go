package irisfast

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/park285/autobattler-league/internal/obslog"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

var ErrNotConnected = errors.New("iris socket not connected")

const (
	dialTimeout   = 10 * time.Second
	pingInterval  = 30 * time.Second
	pingTimeout   = 3 * time.Second
	maxPingMisses = 2
)

type WebSocketState int

const (
	WSStateDisconnected WebSocketState = iota
	WSStateConnecting
	WSStateConnected
	WSStateReconnecting
	WSStateFailed
)

func (s WebSocketState) String() string {
	switch s {
	case WSStateDisconnected:
		return "disconnected"
	case WSStateConnecting:
		return "connecting"
	case WSStateConnected:
		return "connected"
	case WSStateReconnecting:
		return "reconnecting"
	case WSStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// WebSocket is the Iris push channel. Chat messages are fanned out to the
// registered callbacks; replies can be written back when egress runs over
// the socket. A dropped connection is redialled up to attempts times,
// waiting delay, 2*delay, ... between tries.
type WebSocket struct {
	url      string
	attempts int
	delay    time.Duration
	headers  HeaderProvider

	mu    sync.RWMutex
	conn  *websocket.Conn
	state WebSocketState

	writeMu sync.Mutex

	cbMu    sync.RWMutex
	onMsg   []MessageCallback
	onState []StateCallback

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWebSocket(url string, attempts int, delay time.Duration) *WebSocket {
	if delay <= 0 {
		delay = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocket{
		url:      url,
		attempts: attempts,
		delay:    delay,
		state:    WSStateDisconnected,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetHeaderProvider sets the headers sent with the handshake.
func (ws *WebSocket) SetHeaderProvider(h HeaderProvider) { ws.headers = h }

func (ws *WebSocket) OnMessage(cb MessageCallback) {
	if cb == nil {
		return
	}
	ws.cbMu.Lock()
	ws.onMsg = append(ws.onMsg, cb)
	ws.cbMu.Unlock()
}

func (ws *WebSocket) OnStateChange(cb StateCallback) {
	if cb == nil {
		return
	}
	ws.cbMu.Lock()
	ws.onState = append(ws.onState, cb)
	ws.cbMu.Unlock()
}

// Connect dials once. On failure the dial error is returned and redialling
// continues in the background.
func (ws *WebSocket) Connect(ctx context.Context) error {
	switch ws.State() {
	case WSStateConnected, WSStateConnecting, WSStateReconnecting:
		return nil
	}
	ws.setState(WSStateConnecting)
	if err := ws.open(ctx); err != nil {
		obslog.L().Warn("iris_ws_dial_failed", zap.String("url", ws.url), zap.Error(err))
		ws.setState(WSStateFailed)
		ws.redial()
		return err
	}
	return nil
}

func (ws *WebSocket) open(ctx context.Context) error {
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	hdr := http.Header{}
	eachHeader(ws.headers, hdr.Set)
	conn, _, err := websocket.Dial(dctx, ws.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      hdr,
	})
	if err != nil {
		return err
	}
	if ws.stopping() {
		_ = conn.Close(websocket.StatusNormalClosure, "closing")
		return context.Canceled
	}

	ws.mu.Lock()
	ws.conn = conn
	ws.mu.Unlock()
	ws.setState(WSStateConnected)

	ws.wg.Add(2)
	go ws.readLoop(conn)
	go ws.pingLoop(conn)
	return nil
}

func (ws *WebSocket) readLoop(conn *websocket.Conn) {
	defer ws.wg.Done()
	for {
		var msg Message
		if err := wsjson.Read(ws.ctx, conn, &msg); err != nil {
			ws.drop(conn, "read: "+err.Error())
			return
		}
		ws.cbMu.RLock()
		cbs := append([]MessageCallback(nil), ws.onMsg...)
		ws.cbMu.RUnlock()
		for _, cb := range cbs {
			cb(&msg)
		}
	}
}

func (ws *WebSocket) pingLoop(conn *websocket.Conn) {
	defer ws.wg.Done()
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	misses := 0
	for {
		select {
		case <-ws.ctx.Done():
			return
		case <-t.C:
		}
		if ws.current() != conn {
			return
		}
		ctx, cancel := context.WithTimeout(ws.ctx, pingTimeout)
		err := conn.Ping(ctx)
		cancel()
		if err == nil {
			misses = 0
			continue
		}
		if misses++; misses >= maxPingMisses {
			ws.drop(conn, "ping: "+err.Error())
			return
		}
	}
}

// drop closes conn if it is still the live connection and starts redialling.
func (ws *WebSocket) drop(conn *websocket.Conn, reason string) {
	ws.mu.Lock()
	if ws.conn != conn {
		ws.mu.Unlock()
		return
	}
	ws.conn = nil
	ws.mu.Unlock()
	_ = conn.Close(websocket.StatusGoingAway, "reconnect")
	if ws.stopping() {
		return
	}
	obslog.L().Warn("iris_ws_dropped", zap.String("reason", reason))
	ws.setState(WSStateDisconnected)
	ws.redial()
}

func (ws *WebSocket) redial() {
	if ws.attempts <= 0 {
		return
	}
	ws.setState(WSStateReconnecting)
	go func() {
		for attempt := 1; attempt <= ws.attempts; attempt++ {
			t := time.NewTimer(backoff(attempt, ws.delay))
			select {
			case <-ws.ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			if err := ws.open(ws.ctx); err != nil {
				obslog.L().Warn("iris_ws_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			return
		}
		obslog.L().Error("iris_ws_reconnect_exhausted", zap.Int("attempts", ws.attempts))
		ws.setState(WSStateFailed)
	}()
}

func (ws *WebSocket) current() *websocket.Conn {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.conn
}

func (ws *WebSocket) State() WebSocketState {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state
}

// Connected reports whether the socket is usable for writes.
func (ws *WebSocket) Connected() bool {
	return ws.State() == WSStateConnected && ws.current() != nil
}

// WriteJSON sends one frame. Writes are serialised across goroutines.
func (ws *WebSocket) WriteJSON(ctx context.Context, v any) error {
	conn := ws.current()
	if conn == nil {
		return ErrNotConnected
	}
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	return wsjson.Write(ctx, conn, v)
}

func (ws *WebSocket) setState(state WebSocketState) {
	ws.mu.Lock()
	prev := ws.state
	ws.state = state
	ws.mu.Unlock()
	if prev == state {
		return
	}
	obslog.L().Info("iris_ws_state", zap.String("from", prev.String()), zap.String("to", state.String()))

	ws.cbMu.RLock()
	cbs := append([]StateCallback(nil), ws.onState...)
	ws.cbMu.RUnlock()
	for _, cb := range cbs {
		cb(state)
	}
}

// Close stops redialling, closes the live connection and waits for the read
// and ping loops to exit.
func (ws *WebSocket) Close(ctx context.Context) error {
	ws.cancel()
	ws.mu.Lock()
	conn := ws.conn
	ws.conn = nil
	ws.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "shutdown")
	}

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}
	ws.setState(WSStateDisconnected)
	return nil
}

func (ws *WebSocket) stopping() bool { return ws.ctx.Err() != nil }
