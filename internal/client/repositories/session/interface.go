// Package session persists the CLI's login session as key/value pairs.
package session

import "context"

// Keys stored by the CLI.
const (
	KeyServerURL    = "server_url"
	KeyUsername     = "username"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyCSRFToken    = "csrf_token"
)

type Repository interface {
	// Get returns "" for a missing key.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}
