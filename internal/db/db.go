// Package db opens the SQLite store and keeps its schema current.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/vytor/tenxcards/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsTable = "schema_migrations"

var pragmas = url.Values{
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
}

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

type DB struct {
	*sql.DB
	log *logger.Logger
}

// Open opens the SQLite database at path and migrates it. ":memory:" gives a
// private in-memory database.
func Open(path string) (*DB, error) {
	log := logger.Default().WithPrefix("db")

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	sqlDB, err := sql.Open("sqlite3", path+sep+pragmas.Encode())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection: a single writer, and one shared in-memory database.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{DB: sqlDB, log: log}
	n, err := db.Migrate(context.Background())
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	log.Info("flashcard store %s ready, %d migrations applied", path, n)
	return db, nil
}

// Migrate applies every embedded migration not yet recorded, each in its own
// transaction together with its version row. It returns how many ran.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationsTable+` (version TEXT PRIMARY KEY, applied_at DATETIME DEFAULT CURRENT_TIMESTAMP)`); err != nil {
		return 0, fmt.Errorf("create %s: %w", migrationsTable, err)
	}

	pending, err := db.pending(ctx)
	if err != nil {
		return 0, err
	}
	for _, version := range pending {
		script, err := fs.ReadFile(migrationsFS, "migrations/"+version)
		if err != nil {
			return 0, err
		}
		err = WithTx(ctx, db.DB, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(script)); err != nil {
				return err
			}
			q, args, err := builder.Insert(migrationsTable).Columns("version").Values(version).ToSql()
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, q, args...)
			return err
		})
		if err != nil {
			return 0, fmt.Errorf("migration %s: %w", version, err)
		}
		db.log.Info("schema migrated to %s", strings.TrimSuffix(version, ".sql"))
	}
	return len(pending), nil
}

// Versions lists recorded migrations in order.
func (db *DB) Versions(ctx context.Context) ([]string, error) {
	q, args, err := builder.Select("version").From(migrationsTable).OrderBy("version").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// pending returns embedded migration files missing from the migrations
// table, sorted by name.
func (db *DB) pending(ctx context.Context) ([]string, error) {
	applied, err := db.Versions(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !done[e.Name()] {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	if len(out) > 0 {
		db.log.Debug("%d of %d migrations pending", len(out), len(entries))
	}
	return out, nil
}

// WithTx runs fn in a transaction, committing when it returns nil.
func WithTx(ctx context.Context, sqlDB *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.FromContext(ctx).Warn("rollback failed: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
