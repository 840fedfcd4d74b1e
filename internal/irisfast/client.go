package irisfast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// HeaderProvider returns the headers sent with every Iris request and the
// socket handshake.
type HeaderProvider func() map[string]string

// Settings tune the REST client. Zero values keep the defaults.
type Settings struct {
	Timeout time.Duration
	// Retries is the number of attempts for reads. Replies are sent once.
	Retries int
	Headers HeaderProvider
}

const (
	defaultTimeout = 10 * time.Second
	defaultRetries = 3
	retryBase      = 100 * time.Millisecond
	maxErrorBody   = 512
)

var errTransport = errors.New("iris request failed")

// APIError is a non-2xx answer from the bridge.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("iris api error: status=%d body=%s", e.Status, e.Body)
}

// Temporary reports whether the same request may succeed later.
func (e *APIError) Temporary() bool {
	switch e.Status {
	case fasthttp.StatusInternalServerError, fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	}
	return false
}

// Client talks to the Iris REST endpoints: GET /config for health and
// POST /reply for outgoing room messages.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider
	timeout time.Duration
	retries int
}

func NewClient(baseURL string, s Settings) *Client {
	if s.Timeout <= 0 {
		s.Timeout = defaultTimeout
	}
	if s.Retries <= 0 {
		s.Retries = defaultRetries
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &fasthttp.Client{
			Name:         "league-bot",
			ReadTimeout:  s.Timeout,
			WriteTimeout: s.Timeout,
		},
		headers: s.Headers,
		timeout: s.Timeout,
		retries: s.Retries,
	}
}

func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	err := c.withRetry(ctx, func() error {
		return c.do(ctx, fasthttp.MethodGet, "/config", nil, &cfg)
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Ping checks that the bridge answers GET /config.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.GetConfig(ctx); err != nil {
		return fmt.Errorf("iris ping: %w", err)
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, room, message string) error {
	return c.reply(ctx, ReplyText, room, message)
}

func (c *Client) SendImage(ctx context.Context, room, imageBase64 string) error {
	return c.reply(ctx, ReplyImage, room, imageBase64)
}

func (c *Client) reply(ctx context.Context, kind, room, data string) error {
	if c == nil {
		return errors.New("iris http client not configured")
	}
	return c.do(ctx, fasthttp.MethodPost, "/reply", &ReplyRequest{Type: kind, Room: room, Data: data}, nil)
}

func (c *Client) withRetry(ctx context.Context, call func() error) error {
	var err error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			if err == nil {
				err = cerr
			}
			return err
		}
		err = call()
		if err == nil || !retryable(err) || attempt == c.retries {
			return err
		}
		t := time.NewTimer(backoff(attempt, retryBase))
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
	return err
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return errors.Is(err, errTransport)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	eachHeader(c.headers, req.Header.Set)
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", path, err)
		}
		req.SetBodyRaw(body)
	}

	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return fmt.Errorf("%w: %s %s: %w", errTransport, method, path, err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		body := resp.Body()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &APIError{Status: status, Body: string(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// deadline is the earlier of the context deadline and the client timeout.
func (c *Client) deadline(ctx context.Context) time.Time {
	dl := time.Now().Add(c.timeout)
	if ctxDL, ok := ctx.Deadline(); ok && ctxDL.Before(dl) {
		return ctxDL
	}
	return dl
}

// backoff doubles base per attempt, capped at 32x.
func backoff(attempt int, base time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return base << (attempt - 1)
}

func eachHeader(h HeaderProvider, set func(k, v string)) {
	if h == nil {
		return
	}
	for k, v := range h() {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			set(k, v)
		}
	}
}
