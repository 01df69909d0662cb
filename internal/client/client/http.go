package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/client/models"
	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// HTTPClient talks to the authkeeper REST API. Tokens are passed in by the
// caller; the client itself is stateless and safe for concurrent use.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url: unsupported scheme %q", u.Scheme)
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type requestOption func(*http.Request)

func withBearer(token string) requestOption {
	return func(r *http.Request) {
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// withCSRF sends the token both as cookie and header, as a browser would.
func withCSRF(token string) requestOption {
	return func(r *http.Request) {
		if token != "" {
			r.AddCookie(&http.Cookie{Name: common.CSRFTokenCookieName, Value: token})
			r.Header.Set(common.CSRFTokenHeaderName, token)
		}
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any, opts ...requestOption) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string   `json:"message"`
			Errors  []string `json:"errors"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Message = payload.Message
			apiErr.Errors = payload.Errors
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/ping", nil, nil)
}

func (c *HTTPClient) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPost, "/users/register", r, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*models.Tokens, error) {
	in := map[string]string{"username": username, "password": password}
	var t models.Tokens
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, cur models.Tokens) (*models.Tokens, error) {
	in := map[string]string{"refresh_token": cur.RefreshToken}
	var t models.Tokens
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", in, &t, withCSRF(cur.CSRFToken)); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) Logout(ctx context.Context, cur models.Tokens) error {
	in := map[string]string{"refresh_token": cur.RefreshToken}
	return c.do(ctx, http.MethodPost, "/auth/logout", in, nil, withCSRF(cur.CSRFToken))
}

func (c *HTTPClient) Me(ctx context.Context, cur models.Tokens) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &u, withBearer(cur.AccessToken)); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) User(ctx context.Context, cur models.Tokens, username string) (*models.User, error) {
	var u models.User
	path := "/users/" + url.PathEscape(username)
	if err := c.do(ctx, http.MethodGet, path, nil, &u, withBearer(cur.AccessToken)); err != nil {
		return nil, err
	}
	return &u, nil
}
