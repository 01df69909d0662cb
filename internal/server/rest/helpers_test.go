package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	cfg    *config.Config
	codec  *auth.TokenCodec
	server *HTTPServer
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.EndpointAddrHTTP = "127.0.0.1:0"
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 1000
	return cfg
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = newTestConfig()
	}

	m := repomanager.NewMemoryRepositoryManager()
	codec, err := auth.NewTokenCodec([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration)
	require.NoError(t, err)
	hasher, err := cryptox.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	log := logging.Nop{}
	srv := NewHTTPServer(cfg, log,
		services.NewAuthService(nil, m, codec, hasher, log),
		services.NewAuthenticator(nil, m, codec, log),
		services.NewUserService(nil, m, hasher, log),
		ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	return &testEnv{cfg: cfg, codec: codec, server: srv}
}

// browser keeps cookies between requests and echoes the CSRF cookie in the
// header, the way the web frontend does.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
	noCSRF  bool
}

func (e *testEnv) browser(t *testing.T) *browser {
	return &browser{t: t, handler: e.server.Handler(), cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, path string, body any) *httptest.ResponseRecorder {
	b.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(b.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range b.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	if c, ok := b.cookies[common.CSRFTokenCookieName]; ok && !b.noCSRF {
		req.Header.Set(common.CSRFTokenHeaderName, c.Value)
	}

	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var aliceRegistration = map[string]any{
	"username":      "alice",
	"email":         "alice@example.com",
	"password":      "Secure1!x",
	"date_of_birth": "2000-01-01",
}

func mustLogin(t *testing.T, b *browser, username, password string) tokenResponse {
	t.Helper()
	rec := b.do(http.MethodPost, "/auth/login", loginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[tokenResponse](t, rec)
}

const testTimeout = 2 * time.Second

func newRawRequest(method, path, contentType, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", contentType)
	return req
}

func newFormRequest(path, body string) *http.Request {
	return newRawRequest(http.MethodPost, path, "application/x-www-form-urlencoded", body)
}

func newBearerRequest(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// withCSRF attaches a matching CSRF cookie and header.
func withCSRF(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: common.CSRFTokenCookieName, Value: token})
	req.Header.Set(common.CSRFTokenHeaderName, token)
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
