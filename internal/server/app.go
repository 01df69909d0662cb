// Package server assembles the authkeeper service: configuration, logging,
// storage, the optional user cache and the HTTP API.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/cache"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/rest"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

const connectAttempts = 5

// connectBackoff is the first delay between database pings; it doubles on each attempt.
var connectBackoff = 500 * time.Millisecond

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	server *rest.HTTPServer
}

// openDB is replaced in tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewLogger(c.Environment, os.Stdout)
	app := &App{config: c, logger: logger}

	var opts []repomanager.Option
	if c.RedisURL != "" {
		rdb, err := cache.Connect(ctx, c.RedisURL)
		if err != nil {
			logger.Warn(ctx, "redis unavailable, continuing without user cache", "error", err)
		} else {
			app.redis = rdb
			opts = append(opts, repomanager.WithUserCache(cache.NewRedisUserCache(rdb, c.CacheTTL), logger))
		}
	}

	var rm repomanager.RepositoryManager
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, using in-memory store")
		rm = repomanager.NewMemoryRepositoryManager(opts...)
	} else {
		db, err := connectDB(ctx, c.DatabaseDSN, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.db = db

		rm = repomanager.NewPostgresRepositoryManager(opts...)
		if err := rm.RunMigrations(ctx, db); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	codec, err := auth.NewTokenCodec([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		app.Close()
		return nil, err
	}
	hasher, err := cryptox.NewBcryptHasher(c.BcryptCost)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.server = rest.NewHTTPServer(c, logger,
		services.NewAuthService(app.db, rm, codec, hasher, logger),
		services.NewAuthenticator(app.db, rm, codec, logger),
		services.NewUserService(app.db, rm, hasher, logger),
		ratelimit.New(c.RateLimitRPS, c.RateLimitBurst),
	)

	return app, nil
}

// connectDB opens the pool and pings it with exponential backoff, so the
// service can start alongside its database.
func connectDB(ctx context.Context, dsn string, logger logging.Logger) (*sql.DB, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, oops.Code("DB_OPEN_FAILED").Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectAttempts, retry.NewExponential(connectBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn(ctx, "database not ready", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	return db, nil
}

// Close releases the database pool and the redis client.
func (app *App) Close() {
	if app.db != nil {
		_ = app.db.Close()
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a termination signal arrives or the server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(ctx, "App stopped")
}
