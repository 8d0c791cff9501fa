// Package api is the REST client for the notification server.
package api

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

	"github.com/colonyops/beacon/internal/core/logging"
	"github.com/rs/zerolog"
)

var (
	// ErrUnauthorized wraps 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound wraps 404 responses.
	ErrNotFound = errors.New("not found")
)

const (
	csrfCookie    = "csrftoken"
	sessionCookie = "sessionid"
	maxErrorBody  = 512
)

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Options configure a Client.
type Options struct {
	BaseURL       string
	Prefix        string
	Token         string
	CSRFToken     string
	SessionCookie string
	UserID        string
	PageSize      int
	Timeout       time.Duration
	// HTTPClient overrides the default client. Its Jar is replaced when nil.
	HTTPClient *http.Client
}

// Client talks to one notification server on behalf of one user.
type Client struct {
	base     *url.URL
	prefix   string
	token    string
	csrf     string
	userID   string
	pageSize int
	http     *http.Client
	log      zerolog.Logger
}

// New builds a client. The session cookie, when set, is seeded into the jar.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc.Jar = jar
	}
	if opts.SessionCookie != "" {
		hc.Jar.SetCookies(base, []*http.Cookie{{Name: sessionCookie, Value: opts.SessionCookie, Path: "/"}})
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "/api/v1/notifications/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &Client{
		base:     base,
		prefix:   prefix,
		token:    opts.Token,
		csrf:     opts.CSRFToken,
		userID:   opts.UserID,
		pageSize: opts.PageSize,
		http:     hc,
		log:      logging.Component("api"),
	}, nil
}

// UserID is the account the client acts for.
func (c *Client) UserID() string { return c.userID }

// endpoint resolves a path under the API prefix to an absolute URL.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + c.prefix + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// HandshakeHeader carries the client's credentials for the live channel
// upgrade request: the bearer token and the session cookies.
func (c *Client) HandshakeHeader() http.Header {
	h := http.Header{}
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	cookies := c.http.Jar.Cookies(c.base)
	parts := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	if len(parts) > 0 {
		h.Set("Cookie", strings.Join(parts, "; "))
	}
	h.Set("Origin", c.base.String())
	return h
}

func (c *Client) csrfToken() string {
	if c.csrf != "" {
		return c.csrf
	}
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == csrfCookie {
			return ck.Value
		}
	}
	return ""
}

// do sends body as JSON to the absolute rawURL and decodes the reply into
// result when result is non-nil.
func (c *Client) do(ctx context.Context, method, rawURL string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if method != http.MethodGet && method != http.MethodHead {
		if tok := c.csrfToken(); tok != "" {
			req.Header.Set("X-CSRFToken", tok)
		}
		req.Header.Set("Referer", c.base.String()+"/")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Ctx(ctx).
		Str("method", method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: method,
			Path:   req.URL.Path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, req.URL.Path, err)
	}
	return nil
}
