// Package rest exposes the auth core and the user service over HTTP/JSON.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	address string
	logger  logging.Logger
	auth    *services.AuthService
	authn   *services.Authenticator
	users   *services.UserService
	limiter *ratelimit.Limiter
	cookies cookieJar
	cors    corsPolicy
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, as *services.AuthService, an *services.Authenticator,
	us *services.UserService, limiter *ratelimit.Limiter) *HTTPServer {
	return &HTTPServer{
		address: cfg.EndpointAddrHTTP,
		logger:  l.With("module", "http_server"),
		auth:    as,
		authn:   an,
		users:   us,
		limiter: limiter,
		cookies: cookieJar{
			secure:     cfg.IsProduction(),
			accessTTL:  cfg.AccessTokenValidityDuration,
			refreshTTL: cfg.RefreshTokenValidityDuration,
		},
		cors: newCORSPolicy(cfg.AllowedOrigins),
	}
}

// Handler returns the routes wrapped in the middleware chain:
// recover, request id and logging, CORS, rate limit, CSRF.
func (s *HTTPServer) Handler() http.Handler {
	var h http.Handler = s.routes()
	h = s.csrfMiddleware(h)
	h = s.rateLimitMiddleware(h)
	h = s.corsMiddleware(h)
	h = s.requestLogMiddleware(h)
	h = s.recoverMiddleware(h)
	return h
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *HTTPServer) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	limiterCtx, stopLimiter := context.WithCancel(ctx)
	defer stopLimiter()
	go s.limiter.Run(limiterCtx)

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
