// Package client is a Go client for the PicShelf API. It owns a cookie
// jar (session + CSRF cookies), echoes the CSRF token on state-changing
// requests, and keeps a session store and image cache consistent with
// the server through the four session operations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/picshelf/picshelf/internal/domain"
)

const (
	csrfCookieName = "XSRF-TOKEN"
	csrfHeaderName = "X-CSRF-Token"
)

// APIError is a non-2xx response, carrying the server's itemized error
// messages when the body had any.
type APIError struct {
	Status   int
	Messages []string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("api error %d: %s", e.Status, strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("api error %d", e.Status)
}

type Client struct {
	base    *url.URL
	http    *http.Client
	session *SessionStore
	images  *ImageCache
}

func New(baseURL string) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	session := NewSessionStore()
	return &Client{
		base:    base,
		http:    &http.Client{Jar: jar},
		session: session,
		images:  NewImageCache(session),
	}, nil
}

// Session exposes the client-side session store.
func (c *Client) Session() *SessionStore { return c.session }

// Images exposes the per-session image cache.
func (c *Client) Images() *ImageCache { return c.images }

// Signup creates an account and authenticates the session.
func (c *Client) Signup(ctx context.Context, username, password string) (*domain.SafeUser, error) {
	var out struct {
		User *domain.SafeUser `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/users", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}

	c.session.SetUser(out.User)
	return out.User, nil
}

// Login authenticates with existing credentials.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.SafeUser, error) {
	var out struct {
		User *domain.SafeUser `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/session", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}

	c.session.SetUser(out.User)
	return out.User, nil
}

// Restore asks the server who the cookie belongs to. Run once at client
// start; until it returns, the session state is Unknown. A nil user is
// not an error, it means anonymous.
func (c *Client) Restore(ctx context.Context) (*domain.SafeUser, error) {
	var out struct {
		User *domain.SafeUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/session", nil, &out); err != nil {
		return nil, err
	}

	c.session.SetUser(out.User)
	return out.User, nil
}

// Logout ends the session and fires the remove-user signal, resetting
// every subscribed per-user cache.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/api/session", nil, nil); err != nil {
		return err
	}

	c.session.Clear()
	return nil
}

// FetchImages loads the user's images into the cache.
func (c *Client) FetchImages(ctx context.Context, userID uuid.UUID) ([]domain.Image, error) {
	var out struct {
		Images []domain.Image `json:"images"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/images/"+userID.String(), nil, &out); err != nil {
		return nil, err
	}

	c.images.Receive(out.Images)
	return out.Images, nil
}

// RequestUpload asks the server for a presigned upload slot.
func (c *Client) RequestUpload(ctx context.Context, userID uuid.UUID) (*domain.Image, string, error) {
	var out struct {
		Image     *domain.Image `json:"image"`
		UploadURL string        `json:"uploadUrl"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/images/"+userID.String(), nil, &out); err != nil {
		return nil, "", err
	}
	return out.Image, out.UploadURL, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var buf *bytes.Buffer
	if body != nil {
		buf = &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	u := c.base.JoinPath(path)
	var req *http.Request
	var err error
	if buf != nil {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), buf)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), nil)
	}
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if method != http.MethodGet && method != http.MethodHead {
		if tok := c.csrfToken(); tok != "" {
			req.Header.Set(csrfHeaderName, tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody struct {
			Errors []string `json:"errors"`
		}
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil {
			apiErr.Messages = errBody.Errors
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response body: %w", err)
		}
	}
	return nil
}

// csrfToken reads the double-submit token the server left in the jar.
// The raw session token cookie is never read by client code; only the
// jar touches it.
func (c *Client) csrfToken() string {
	for _, cookie := range c.http.Jar.Cookies(c.base) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}
