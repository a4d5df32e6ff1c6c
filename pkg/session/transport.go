package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// HTTPTransport talks to a running identity server: HTTP for snapshots and
// token exchange, WebSocket for the realtime stream.
type HTTPTransport struct {
	client  *resty.Client
	baseURL string
	wsURL   string
}

// envelope mirrors the server's response format.
type envelope[T any] struct {
	Code   int    `json:"code"`
	Detail T      `json:"detail"`
	Msg    string `json:"msg"`
}

type tokenDetail struct {
	Token string `json:"token"`
}

// meDetail mirrors /api/auth/me: user is null for anonymous callers, the
// endpoint itself never returns 401.
type meDetail struct {
	User *Snapshot `json:"user"`
}

// NewHTTPTransport builds a transport against baseURL. The session cookie
// must already be present in the cookie jar, or set via SetCookie.
func NewHTTPTransport(baseURL string) *HTTPTransport {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)

	wsURL := strings.Replace(baseURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)

	return &HTTPTransport{
		client:  client,
		baseURL: baseURL,
		wsURL:   wsURL,
	}
}

// SetCookie attaches the session cookie to subsequent requests.
func (t *HTTPTransport) SetCookie(cookie *http.Cookie) *HTTPTransport {
	t.client.SetCookie(cookie)
	return t
}

func (t *HTTPTransport) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	var body envelope[meDetail]
	resp, err := t.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/api/auth/me")
	if err != nil {
		return nil, errors.Wrap(err, "session: fetch snapshot")
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, ErrUnauthenticated
	}
	if resp.IsError() {
		return nil, errors.Errorf("session: snapshot request failed: %s", resp.Status())
	}
	if body.Detail.User == nil {
		return nil, ErrUnauthenticated
	}
	return body.Detail.User, nil
}

func (t *HTTPTransport) ExchangeToken(ctx context.Context) (string, error) {
	var body envelope[tokenDetail]
	resp, err := t.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/api/realtime/token")
	if err != nil {
		return "", errors.Wrap(err, "session: exchange token")
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return "", ErrUnauthenticated
	}
	if resp.IsError() {
		return "", errors.Errorf("session: token request failed: %s", resp.Status())
	}
	if body.Detail.Token == "" {
		return "", errors.New("session: empty realtime token")
	}
	return body.Detail.Token, nil
}

func (t *HTTPTransport) SwitchOrg(ctx context.Context, orgId string) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"orgId": orgId}).
		Post("/api/orgs/switch")
	if err != nil {
		return errors.Wrap(err, "session: switch org")
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	if resp.IsError() {
		return errors.Errorf("session: switch org failed: %s", resp.Status())
	}
	return nil
}

func (t *HTTPTransport) Logout(ctx context.Context) error {
	resp, err := t.client.R().
		SetContext(ctx).
		Post("/api/auth/logout")
	if err != nil {
		return errors.Wrap(err, "session: logout")
	}
	if resp.IsError() && resp.StatusCode() != http.StatusUnauthorized {
		return errors.Errorf("session: logout failed: %s", resp.Status())
	}
	return nil
}

func (t *HTTPTransport) Dial(ctx context.Context, token string) (Stream, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, t.wsURL+"/api/realtime/ws", header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "session: dial realtime")
	}
	return &wsStream{conn: conn}, nil
}

type wsStream struct {
	conn *websocket.Conn
}

// streamFrame is one identity push from the server.
type streamFrame struct {
	Kind     string    `json:"kind"`
	Identity *Snapshot `json:"identity"`
}

func (s *wsStream) Next(ctx context.Context) (*Snapshot, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetReadDeadline(deadline)
	}
	for {
		var frame streamFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			return nil, err
		}
		// skip non-identity frames (pings are handled by the dialer)
		if frame.Kind == "identity" && frame.Identity != nil {
			return frame.Identity, nil
		}
	}
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}
