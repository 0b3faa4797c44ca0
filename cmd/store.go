// File: cmd/store.go
package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xkilldash9x/seeqlo-runner/internal/config"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
	"github.com/xkilldash9x/seeqlo-runner/internal/store"
)

// storeProvider opens the run history store. Tests substitute it.
type storeProvider interface {
	Create(ctx context.Context, cfg config.Interface) (*store.Store, func(), error)
}

type defaultStoreProvider struct{}

// Create connects to PostgreSQL, ensures the schema exists and returns the
// store with a cleanup function that closes the pool.
func (defaultStoreProvider) Create(ctx context.Context, cfg config.Interface) (*store.Store, func(), error) {
	logger := observability.GetLogger()
	if !cfg.Database().Enabled() {
		return nil, nil, fmt.Errorf("database URL is not configured (%s_DATABASE_URL)", envPrefix)
	}

	pool, err := pgxpool.New(ctx, cfg.Database().URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	st, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to initialize store service: %w", err)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		logger.Debug("Database connection pool closed.")
	}
	return st, cleanup, nil
}
