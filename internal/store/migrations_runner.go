package store

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/docsched/docsched/internal/migrations"
)

// PgxPool is the pool subset the migration runner touches, so tests can
// substitute a mock without the store's public surface changing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// execer is satisfied by both PgxPool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// ApplyMigrations brings the schema up to date from the embedded SQL files.
// A database that already has objects but no schema_migrations table is
// assumed to predate tracking: the initial migration is marked applied
// rather than replayed, and only newer files run.
func ApplyMigrations(ctx context.Context, pool PgxPool) error {
	versions, err := migrationVersions()
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return nil
	}

	if err := ensureTracking(ctx, pool, versions[0]); err != nil {
		return err
	}

	for _, version := range versions {
		var applied bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version=$1)`, version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if applied {
			continue
		}
		if err := runMigration(ctx, pool, version); err != nil {
			return err
		}
	}
	return nil
}

func migrationVersions() ([]string, error) {
	names, err := fs.Glob(migrations.Files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// ensureTracking creates the schema_migrations table if it is missing. When
// the database already holds objects without tracking, firstVersion is
// recorded as applied so its CREATE statements are not replayed.
func ensureTracking(ctx context.Context, pool PgxPool, firstVersion string) error {
	var tracked bool
	err := pool.QueryRow(ctx, `SELECT EXISTS (
        SELECT 1 FROM information_schema.tables
        WHERE table_schema='public' AND table_name='schema_migrations'
)`).Scan(&tracked)
	if err != nil {
		return fmt.Errorf("check migration table: %w", err)
	}
	if tracked {
		return nil
	}

	var tableCount int
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM information_schema.tables
WHERE table_schema NOT IN ('pg_catalog', 'information_schema')`).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("count tables: %w", err)
	}

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        version TEXT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	if tableCount > 0 {
		return recordVersion(ctx, pool, firstVersion)
	}
	return nil
}

func runMigration(ctx context.Context, pool PgxPool, version string) error {
	contents, err := migrations.Files.ReadFile(version)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", version, err)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	if _, err := tx.Exec(ctx, string(contents)); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if err := recordVersion(ctx, tx, version); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}

func recordVersion(ctx context.Context, db execer, version string) error {
	_, err := db.Exec(ctx,
		`INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING`, version)
	if err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	return nil
}
