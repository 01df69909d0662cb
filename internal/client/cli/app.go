package cli

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/client/services"
)

// App carries what the commands need for one invocation.
type App struct {
	auth   services.AuthService
	closer func() error
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

// newApp is replaced in tests.
var newApp = func(ctx context.Context, opts *rootOptions) (*App, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.server != "" {
		cfg.ServerURL = opts.server
	}

	apiClient, err := client.NewHTTPClient(cfg.ServerURL, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, cfg.SessionPath)
	if err != nil {
		return nil, err
	}

	return &App{
		auth:   services.NewAuthService(apiClient, db, cfg.ServerURL),
		closer: db.Close,
	}, nil
}
