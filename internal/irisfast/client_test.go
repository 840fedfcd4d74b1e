package irisfast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClientSendMessage(t *testing.T) {
	var got ReplyRequest
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reply" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		header = r.Header.Get("X-User-Id")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", Settings{Headers: func() map[string]string {
		return map[string]string{"X-User-Id": "league-bot", "X-Empty": " "}
	}})
	if err := c.SendMessage(context.Background(), "room-1", "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if got.Type != "text" || got.Room != "room-1" || got.Data != "hello" {
		t.Fatalf("payload: %+v", got)
	}
	if header != "league-bot" {
		t.Fatalf("header not forwarded: %q", header)
	}
}

func TestClientPingRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(Config{BotName: "iris", Port: 3000})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, Settings{Timeout: 2 * time.Second})
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected one retry, calls=%d", n)
	}
}

func TestClientRetriesStopAtLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, Settings{Retries: 2}).GetConfig(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 APIError, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("calls=%d, want 2", n)
	}
}

func TestClientReplyIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, Settings{}).SendImage(context.Background(), "room", "aGVsbG8="); err == nil {
		t.Fatalf("expected error for 503")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("reply sent %d times", n)
	}
}

func TestClientBadRequestNotTemporary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, Settings{}).Ping(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Temporary() {
		t.Fatalf("expected permanent APIError, got %v", err)
	}
}

func TestEgressDryRunSkipsSocket(t *testing.T) {
	ws := NewWebSocket("ws://127.0.0.1:1/ws", 0, time.Millisecond)
	e := NewEgress(EgressWS, true, nil, ws, nil)
	if err := e.SendText(context.Background(), "room", "hi"); err != nil {
		t.Fatalf("dry-run send: %v", err)
	}
	live := NewEgress(EgressWS, false, nil, ws, nil)
	if err := live.SendText(context.Background(), "room", "hi"); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestEgressAutoFallsBackToHTTP(t *testing.T) {
	var got ReplyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	ws := NewWebSocket("ws://127.0.0.1:1/ws", 0, time.Millisecond)
	e := NewEgress(EgressAuto, false, NewClient(srv.URL, Settings{}), ws, nil)
	if err := e.SendImage(context.Background(), "room-2", "aGVsbG8="); err != nil {
		t.Fatalf("auto send: %v", err)
	}
	if got.Type != ReplyImage || got.Room != "room-2" || got.Data != "aGVsbG8=" {
		t.Fatalf("http fallback payload: %+v", got)
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	base := 10 * time.Millisecond
	if backoff(1, base) != base || backoff(3, base) != 4*base || backoff(20, base) != 32*base {
		t.Fatalf("backoff: %v %v %v", backoff(1, base), backoff(3, base), backoff(20, base))
	}
}
