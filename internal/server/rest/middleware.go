package rest

import (
	"context"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/oklog/ulid/v2"
)

type ctxKey string

const (
	userKey      ctxKey = "user"
	requestIDKey ctxKey = "request_id"

	requestIDHeader = "X-Request-ID"
)

// paths that open a session and so carry no ambient credentials
var csrfExempt = map[string]bool{
	"/auth/login":       true,
	"/auth/login/oauth": true,
	"/users/register":   true,
}

func userFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// RequestIDFromContext returns the id assigned to the current request, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *HTTPServer) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error(r.Context(), "panic in handler", "panic", rec, "path", r.URL.Path)
				writeMessage(w, http.StatusInternalServerError, msgInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ulid.Make().String()
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		ctx = logging.ContextWith(ctx, "request_id", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.logger.Info(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type corsPolicy struct {
	origins []string
	methods string
	headers string
}

func newCORSPolicy(origins []string) corsPolicy {
	return corsPolicy{
		origins: origins,
		methods: strings.Join([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		}, ", "),
		headers: strings.Join([]string{"Authorization", "Content-Type", common.CSRFTokenHeaderName}, ", "),
	}
}

func (p corsPolicy) allowed(origin string) bool {
	return origin != "" && slices.Contains(p.origins, origin)
}

func (s *HTTPServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")

		if s.cors.allowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", s.cors.methods)
				h.Set("Access-Control-Allow-Headers", s.cors.headers)
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddress is the peer IP; forwarding headers are not trusted.
func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	return host
}

func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientAddress(r)) {
			w.Header().Set("Retry-After", "1")
			writeMessage(w, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func stateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func (s *HTTPServer) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if stateChanging(r.Method) && !csrfExempt[r.URL.Path] {
			var cookie string
			if c, err := r.Cookie(common.CSRFTokenCookieName); err == nil {
				cookie = c.Value
			}
			if !s.auth.VerifyCSRF(cookie, r.Header.Get(common.CSRFTokenHeaderName)) {
				s.logger.Warn(r.Context(), "csrf check failed", "path", r.URL.Path)
				s.writeError(w, r, common.ErrCSRFTokenMismatch)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// accessToken prefers the access_token cookie over an Authorization: Bearer header.
func accessToken(r *http.Request) string {
	if c, err := r.Cookie(common.AccessTokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, common.TokenTypeBearer) {
		return strings.TrimSpace(token)
	}
	return ""
}

// authenticated resolves the caller and rejects anonymous requests with 401.
func (s *HTTPServer) authenticated(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.authn.Authenticate(r.Context(), accessToken(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if user == nil {
			writeUnauthorized(w, msgNotAuthenticated)
			return
		}
		h(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}
