// Package bluesky is a minimal AT Protocol XRPC client covering what the bot
// needs: password sessions, blob upload and post creation.
package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	nsidCreateSession  = "com.atproto.server.createSession"
	nsidRefreshSession = "com.atproto.server.refreshSession"
	nsidUploadBlob     = "com.atproto.repo.uploadBlob"
	nsidCreateRecord   = "com.atproto.repo.createRecord"

	collectionPost = "app.bsky.feed.post"
	typeImages     = "app.bsky.embed.images"
)

// ErrNotLoggedIn is returned by authenticated calls made before Login.
var ErrNotLoggedIn = errors.New("bluesky: not logged in")

// APIError is an XRPC error response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bluesky: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsAuthError reports whether err is a credential rejection that retrying
// will not fix.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Code == "AuthenticationRequired" || apiErr.Code == "AccountTakedown"
}

func isExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "ExpiredToken"
}

// isSessionDead reports whether a refresh failure means the refresh token
// itself is no longer accepted and only a new login can recover.
func isSessionDead(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Code == "ExpiredToken" || apiErr.Code == "InvalidToken"
}

// Session is the result of createSession / refreshSession.
type Session struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	DID        string `json:"did"`
}

// Blob is the opaque blob reference returned by uploadBlob.
type Blob = json.RawMessage

// ImageEmbed describes one image attached to a post.
type ImageEmbed struct {
	Blob   Blob
	Alt    string
	Width  int
	Height int
}

// PostRef identifies a created record.
type PostRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// Client talks to a single PDS.
type Client struct {
	service string
	http    *http.Client
	now     func() time.Time
	logger  *slog.Logger

	mu         sync.Mutex
	session    *Session
	identifier string
	password   string
}

// NewClient creates a client for the PDS at service, e.g. https://bsky.social.
func NewClient(service string, timeout time.Duration) *Client {
	return &Client{
		service: strings.TrimRight(service, "/"),
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
		logger:  slog.Default().With("component", "bluesky"),
	}
}

// Login creates a session with an identifier (handle or email) and password.
// The credentials are kept so later calls can log in again if the session is
// lost.
func (c *Client) Login(ctx context.Context, identifier, password string) (*Session, error) {
	c.mu.Lock()
	c.identifier, c.password = identifier, password
	c.mu.Unlock()
	body, err := json.Marshal(map[string]string{"identifier": identifier, "password": password})
	if err != nil {
		return nil, err
	}
	var s Session
	if err := c.call(ctx, nsidCreateSession, bytes.NewReader(body), "application/json", "", &s); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()
	c.logger.Info("session created", "handle", s.Handle, "did", s.DID)
	return &s, nil
}

// Session returns the current session, or nil before Login.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// UploadBlob stores data on the PDS and returns its blob reference.
func (c *Client) UploadBlob(ctx context.Context, data []byte, mimeType string) (Blob, error) {
	var out struct {
		Blob json.RawMessage `json:"blob"`
	}
	err := c.authed(ctx, func(s *Session) error {
		return c.call(ctx, nsidUploadBlob, bytes.NewReader(data), mimeType, s.AccessJwt, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("uploading blob: %w", err)
	}
	return out.Blob, nil
}

// CreatePost publishes a post with text and optional images.
func (c *Client) CreatePost(ctx context.Context, text string, images ...ImageEmbed) (*PostRef, error) {
	record := map[string]any{
		"$type":     collectionPost,
		"text":      text,
		"createdAt": c.now().UTC().Format(time.RFC3339Nano),
	}
	if len(images) > 0 {
		embedded := make([]map[string]any, 0, len(images))
		for _, img := range images {
			e := map[string]any{"alt": img.Alt, "image": img.Blob}
			if img.Width > 0 && img.Height > 0 {
				e["aspectRatio"] = map[string]int{"width": img.Width, "height": img.Height}
			}
			embedded = append(embedded, e)
		}
		record["embed"] = map[string]any{"$type": typeImages, "images": embedded}
	}

	var ref PostRef
	err := c.authed(ctx, func(s *Session) error {
		body, err := json.Marshal(map[string]any{
			"repo":       s.DID,
			"collection": collectionPost,
			"record":     record,
		})
		if err != nil {
			return fmt.Errorf("encoding post: %w", err)
		}
		return c.call(ctx, nsidCreateRecord, bytes.NewReader(body), "application/json", s.AccessJwt, &ref)
	})
	if err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	return &ref, nil
}

// authed runs fn with the current session, logging in first if an earlier
// Login left no session, and refreshing once if the PDS reports the access
// token expired.
func (c *Client) authed(ctx context.Context, fn func(s *Session) error) error {
	s := c.Session()
	if s == nil {
		c.mu.Lock()
		identifier, password := c.identifier, c.password
		c.mu.Unlock()
		if identifier == "" {
			return ErrNotLoggedIn
		}
		var err error
		if s, err = c.Login(ctx, identifier, password); err != nil {
			return err
		}
	}
	err := fn(s)
	if !isExpired(err) {
		return err
	}
	c.logger.Info("access token expired, refreshing session")
	err = c.refresh(ctx, s.RefreshJwt)
	if err == nil {
		return fn(c.Session())
	}
	if !isSessionDead(err) {
		return err
	}
	c.logger.Warn("refresh token rejected, logging in again", "error", err)
	c.mu.Lock()
	c.session = nil
	identifier, password := c.identifier, c.password
	c.mu.Unlock()
	if identifier == "" {
		return err
	}
	if s, err = c.Login(ctx, identifier, password); err != nil {
		return err
	}
	return fn(s)
}

func (c *Client) refresh(ctx context.Context, refreshJwt string) error {
	var s Session
	if err := c.call(ctx, nsidRefreshSession, nil, "", refreshJwt, &s); err != nil {
		return fmt.Errorf("refreshing session: %w", err)
	}
	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()
	return nil
}

func (c *Client) call(ctx context.Context, nsid string, body io.Reader, contentType, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.service+"/xrpc/"+nsid, body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", nsid, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", nsid, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", nsid, err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", nsid, err)
	}
	return nil
}
