package common

// Cookie and header names shared by the HTTP server and the CLI client.
const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
	CSRFTokenCookieName    = "csrf_token"

	CSRFTokenHeaderName = "X-CSRF-Token"

	// TokenTypeBearer is reported as token_type in token responses.
	TokenTypeBearer = "bearer"
)
