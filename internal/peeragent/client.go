package peeragent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/yndnr/peerhub-go/internal/server/httpserver/handler"
)

// ErrPeerOffline is returned by Connect when the tracker does not know the
// peer.
var ErrPeerOffline = errors.New("peer not online")

// StatusError is a non-200 tracker response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tracker returned %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Client calls the tracker's peer routes.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient creates a client for the tracker at addr ("host:port" or a
// full http:// URL). The client keeps the session cookie set by Login.
func NewClient(addr string, timeout time.Duration) (*Client, error) {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	base, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parse tracker address: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

// Login authenticates with the tracker and keeps the session cookie.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{"username": {username}, "password": {password}}
	_, err := c.do(ctx, http.MethodPost, "/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	return err
}

// Register announces this peer's endpoint.
func (c *Client) Register(ctx context.Context, name, item, host string, port int) error {
	_, err := c.postJSON(ctx, "/add-list", handler.AddListRequest{User: name, Item: item, Host: host, Port: port})
	return err
}

// List returns the tracker's peer directory.
func (c *Client) List(ctx context.Context) (handler.GetListResponse, error) {
	var out handler.GetListResponse
	body, err := c.do(ctx, http.MethodGet, "/get-list", "", nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode peer list: %w", err)
	}
	return out, nil
}

// Connect asks the tracker to make peer reachable for messages.
func (c *Client) Connect(ctx context.Context, peer string) (handler.ConnectPeerResponse, error) {
	var out handler.ConnectPeerResponse
	body, err := c.postJSON(ctx, "/connect-peer", handler.ConnectPeerRequest{Peer: peer})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode connect response: %w", err)
	}
	if out.PeerUser == "" {
		return out, fmt.Errorf("%w: %s", ErrPeerOffline, peer)
	}
	return out, nil
}

// Send relays a private message through the tracker.
func (c *Client) Send(ctx context.Context, from, to, message string) error {
	_, err := c.postJSON(ctx, "/send-peer", handler.SendRequest{From: from, To: to, Message: message})
	return err
}

// Broadcast relays a message to every connected peer and returns the
// tracker's confirmation.
func (c *Client) Broadcast(ctx context.Context, from, message string) (string, error) {
	body, err := c.postJSON(ctx, "/broadcast-peer", handler.BroadcastRequest{From: from, Message: message})
	return string(body), err
}

func (c *Client) postJSON(ctx context.Context, path string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(payload))
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return data, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
