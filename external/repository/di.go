package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/foxseedlab/meetingbuddy/internal/config"
	"github.com/foxseedlab/meetingbuddy/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
)

const databaseInitTimeout = 15 * time.Second

// RegisterDI provides a repository.Repository for the configured driver. With
// REPOSITORY_DRIVER=none the provider yields nil and no relay is wired.
func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (repository.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), databaseInitTimeout)
		defer cancel()

		switch cfg.RepositoryDriver {
		case config.RepositoryDriverPostgres:
			return openPostgres(ctx, cfg.DatabaseURL)
		case config.RepositoryDriverSQLite:
			repo, err := OpenSQLite(ctx, cfg.SQLiteFile())
			if err != nil {
				return nil, err
			}
			return repo, nil
		default:
			return nil, nil
		}
	})
}

func openPostgres(ctx context.Context, databaseURL string) (repository.Repository, error) {
	p, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := RunMigration(ctx, p); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to run migration: %w", err)
	}
	return NewPostgresRepository(p), nil
}
