package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/smartmark/smartmark"
)

const (
	defaultTimeout  = 3 * time.Second
	sessionCacheKey = "session"
)

// Client talks to a smartmark server over its REST and realtime
// endpoints. It implements the ports of the live package, so a CLI can
// drive a live.Engine against a remote server the same way the server
// tests drive it against mocks.
type Client struct {
	client    *http.Client
	cache     *cache.Cache
	userAgent string
	baseURL   string

	mutex    sync.Mutex
	token    string
	handlers []func(*smartmark.Session)
}

func New(baseURL string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    &httpClient,
		cache:     cache.New(5*time.Minute, 10*time.Minute),
		userAgent: "smartmark-client",
		baseURL:   strings.TrimSuffix(baseURL, "/"),
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

// SetToken installs a session token and notifies auth subscribers with
// the session it resolves to. An invalid token is rejected.
func (c *Client) SetToken(ctx context.Context, token string) (*smartmark.Session, error) {
	c.mutex.Lock()
	c.token = token
	c.mutex.Unlock()
	c.cache.Delete(sessionCacheKey)

	session, err := c.GetCurrentSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %v", err)
	}
	if session == nil {
		c.mutex.Lock()
		c.token = ""
		c.mutex.Unlock()
		return nil, fmt.Errorf("server rejected token")
	}

	c.emitAuthChange(session)
	return session, nil
}

// RestoreToken installs a previously issued token without contacting
// the server. Requests fail with an unauthorized status if it has
// expired in the meantime.
func (c *Client) RestoreToken(token string) {
	c.mutex.Lock()
	c.token = token
	c.mutex.Unlock()
	c.cache.Delete(sessionCacheKey)
}

func (c *Client) Token() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.token
}

func (c *Client) GetCurrentSession(ctx context.Context) (*smartmark.Session, error) {
	if c.Token() == "" {
		return nil, nil
	}

	x, found := c.cache.Get(sessionCacheKey)
	if found {
		session := x.(smartmark.Session)
		return &session, nil
	}

	var session smartmark.Session
	err := c.httpRequest(ctx, "GET", "/api/v1/session", nil, &session)
	if err != nil {
		if isUnauthorized(err) {
			return nil, nil
		}
		return nil, err
	}

	c.cache.Set(sessionCacheKey, session, cache.DefaultExpiration)
	return &session, nil
}

func (c *Client) SubscribeToAuthChanges(handler func(*smartmark.Session)) func() {
	c.mutex.Lock()
	c.handlers = append(c.handlers, handler)
	index := len(c.handlers) - 1
	c.mutex.Unlock()

	return func() {
		c.mutex.Lock()
		c.handlers[index] = nil
		c.mutex.Unlock()
	}
}

// SignInWithOAuth cannot complete a browser flow by itself; it reports
// the URL the user has to visit. The token from the callback page goes
// back in through SetToken.
func (c *Client) SignInWithOAuth(ctx context.Context, provider string) error {
	return fmt.Errorf("open %s/auth/%s in a browser, then pass the issued token back", c.baseURL, provider)
}

// AuthURL is the address SignInWithOAuth points the user at.
func (c *Client) AuthURL(provider string) string {
	return c.baseURL + "/auth/" + provider
}

func (c *Client) SignOut(ctx context.Context) error {
	err := c.httpRequest(ctx, "POST", "/api/v1/signout", nil, nil)
	if err != nil && !isUnauthorized(err) {
		return err
	}

	c.mutex.Lock()
	c.token = ""
	c.mutex.Unlock()
	c.cache.Delete(sessionCacheKey)

	c.emitAuthChange(nil)
	return nil
}

func (c *Client) ListBookmarks(ctx context.Context, ownerID string) ([]smartmark.Bookmark, error) {
	var bookmarks []smartmark.Bookmark
	err := c.httpRequest(ctx, "GET", "/api/v1/bookmarks", nil, &bookmarks)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %v", err)
	}
	return bookmarks, nil
}

func (c *Client) InsertBookmark(ctx context.Context, title string, url string, ownerID string) error {
	req := smartmark.CreateBookmarkRequest{
		Title: title,
		URL:   url,
	}
	err := c.httpRequest(ctx, "POST", "/api/v1/bookmarks", req, nil)
	if err != nil {
		return fmt.Errorf("failed to create bookmark: %v", err)
	}
	return nil
}

func (c *Client) DeleteBookmark(ctx context.Context, id string) error {
	err := c.httpRequest(ctx, "DELETE", "/api/v1/bookmarks/"+id, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %v", err)
	}
	return nil
}

func (c *Client) emitAuthChange(session *smartmark.Session) {
	c.mutex.Lock()
	handlers := append(([]func(*smartmark.Session))(nil), c.handlers...)
	c.mutex.Unlock()

	for _, handler := range handlers {
		if handler != nil {
			handler(session)
		}
	}
}

type statusError struct {
	code int
	body string
}

func (e statusError) Error() string {
	if e.body != "" {
		return fmt.Sprintf("unexpected status code %d: %s", e.code, e.body)
	}
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

func isUnauthorized(err error) bool {
	se, ok := err.(statusError)
	return ok && se.code == http.StatusUnauthorized
}

func (c *Client) httpRequest(ctx context.Context, method, path string, payload any, response any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return statusError{code: resp.StatusCode, body: apiErr.Error}
	}

	if response == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	err = json.NewDecoder(resp.Body).Decode(&response)
	if err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}

	return nil
}
