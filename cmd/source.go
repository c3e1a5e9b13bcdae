package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/unimatch/internal/backend"
	"github.com/spigell/unimatch/internal/catalog"
	"github.com/spigell/unimatch/internal/secrets"
	"github.com/spigell/unimatch/internal/store"
)

// openSource builds the configured data source. The returned closer is never nil.
func openSource(ctx context.Context, config *Config, logger *zap.Logger) (catalog.Source, func(), error) {
	noop := func() {}

	switch strings.ToLower(strings.TrimSpace(config.Source)) {
	case "", SourceSnapshot:
		snapshot, err := catalog.OpenSnapshot(config.Snapshot)
		if err != nil {
			return nil, noop, err
		}
		if config.StudentID == "" {
			config.StudentID = snapshot.StudentID()
		}
		return snapshot, noop, nil

	case SourceBackend:
		client, err := newBackend(config, logger)
		if err != nil {
			return nil, noop, err
		}
		return client, noop, nil

	case SourcePostgres:
		pg := config.Postgres
		if pg == nil {
			pg = &PostgresConfig{}
		}

		dsn, err := secrets.Load(secrets.Source{
			Name: "postgres dsn",
			File: pg.DSNFile,
			Env:  "UNIMATCH_POSTGRES_DSN",
		})
		if err != nil {
			return nil, noop, err
		}

		db, err := store.Open(dsn, pg.Config, logger)
		if err != nil {
			return nil, noop, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("ping postgres: %w", err)
		}

		return db, func() { db.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unsupported source: %s", config.Source)
	}
}

func newBackend(config *Config, logger *zap.Logger) (*backend.Client, error) {
	cfg := config.Backend
	if cfg == nil || strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("backend url is not configured (set backend.url or UNIMATCH_BACKEND_URL)")
	}

	key, err := secrets.Load(secrets.Source{
		Name: "backend api key",
		File: cfg.KeyFile,
		Env:  "UNIMATCH_BACKEND_KEY",
	})
	if err != nil {
		return nil, err
	}

	var token string
	if cfg.AccessTokenFile != "" {
		token, err = secrets.Load(secrets.Source{
			Name: "backend access token",
			File: cfg.AccessTokenFile,
		})
		if err != nil {
			return nil, err
		}
	}

	client := backend.New(logger, cfg.URL, key, token)
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}

	return client, nil
}
