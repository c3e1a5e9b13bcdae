package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/spigell/unimatch/internal/catalog"
)

// Config holds connection pool settings for the postgres source.
type Config struct {
	MaxConnections int `mapstructure:"max-connections"`
	MaxIdle        int `mapstructure:"max-idle"`
}

// Postgres reads the catalog tables directly from the database.
type Postgres struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ catalog.Source = (*Postgres)(nil)

// Open connects to postgres using the lib/pq driver.
func Open(dsn string, cfg Config, logger *zap.Logger) (*Postgres, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return New(db, logger), nil
}

// New wraps an existing connection.
func New(db *sql.DB, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{db: db, logger: logger}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
