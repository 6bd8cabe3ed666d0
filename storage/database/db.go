// Package database manages the PostgreSQL connection pool and schema
// migrations.
package database

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/codesage/codesage/core"
	appfs "github.com/codesage/codesage/fs"
)

const migrationRoot = "migrations"

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// Open creates the connection pool and verifies connectivity.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(conf.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing database url")
	}
	cfg.MaxConns = int32(conf.Database.MaxConns)
	cfg.MinConns = int32(conf.Database.MinConns)
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating connection pool")
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "pinging database")
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Migrate applies the embedded schema migrations in filename order. Applied
// migrations are tracked in schema_migrations; reapplying is a no-op.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       text PRIMARY KEY,
			applied_at timestamptz NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return errors.Wrap(err, "creating schema_migrations")
	}

	entries, err := fs.ReadDir(appfs.FS, migrationRoot)
	if err != nil {
		return errors.Wrap(err, "reading migrations dir")
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var applied bool
		err = db.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name).Scan(&applied)
		if err != nil {
			return errors.Wrapf(err, "checking migration %s", name)
		}
		if applied {
			continue
		}

		sql, err := fs.ReadFile(appfs.FS, path.Join(migrationRoot, name))
		if err != nil {
			return errors.Wrapf(err, "reading migration %s", name)
		}

		tx, err := db.Pool.Begin(ctx)
		if err != nil {
			return errors.Wrapf(err, "beginning migration %s", name)
		}
		if _, err = tx.Exec(ctx, string(sql)); err != nil {
			_ = tx.Rollback(ctx)
			return errors.Wrapf(err, "applying migration %s", name)
		}
		if _, err = tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback(ctx)
			return errors.Wrapf(err, "recording migration %s", name)
		}
		if err = tx.Commit(ctx); err != nil {
			return errors.Wrapf(err, "committing migration %s", name)
		}
	}
	return nil
}
