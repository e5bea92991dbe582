package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saturnines/catalog-sync/pkg/catalog"
	"github.com/saturnines/catalog-sync/pkg/config"
	"github.com/saturnines/catalog-sync/pkg/errors"
)

// Sink writes catalog rows into one table.
type Sink struct {
	db      *sql.DB
	dialect Dialect
	table   string
	logger  *slog.Logger

	insertSQL string
}

// New builds a Sink over an open pool. The table name must be a plain or schema-qualified identifier.
// Identifiers are left unquoted so the destination's case folding applies to table and columns alike.
func New(db *sql.DB, dialect Dialect, table string, logger *slog.Logger) (*Sink, error) {
	if !config.ValidIdentifier(table) {
		return nil, errors.WrapError(
			fmt.Errorf("invalid table name %q", table),
			errors.ErrConfiguration,
			"create sink",
		)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		db:      db,
		dialect: dialect,
		table:   table,
		logger:  logger.With("component", "sink", "table", table),
		insertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(catalog.Columns, ", "), dialect.Placeholders(len(catalog.Columns))),
	}, nil
}

// Open opens the configured database, limits it to a single connection and
// pings it until it answers or ConnectAttempts is exhausted.
func Open(ctx context.Context, cfg config.Database, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrPersistence, "open database")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	var pingErr error
ping:
	for attempt := 1; attempt <= attempts; attempt++ {
		if pingErr = db.PingContext(ctx); pingErr == nil {
			logger.Info("database connected", "driver", dialect.Driver, "attempt", attempt)
			return db, nil
		}
		logger.Warn("database ping failed", "driver", dialect.Driver, "attempt", attempt, "error", pingErr)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			pingErr = ctx.Err()
			break ping
		case <-time.After(cfg.ConnectDelay):
		}
	}

	db.Close()
	return nil, errors.WrapError(pingErr, errors.ErrPersistence, fmt.Sprintf("database unreachable after %d attempt(s)", attempts))
}

// EnsureTable creates the catalog table when it does not exist.
func (s *Sink) EnsureTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.CreateTable(s.table, catalog.Columns)); err != nil {
		return errors.WrapError(err, errors.ErrPersistence, "create table")
	}
	return nil
}

// Count returns the number of rows in the table.
func (s *Sink) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.table).Scan(&n); err != nil {
		return 0, errors.WrapError(err, errors.ErrPersistence, "count rows")
	}
	return n, nil
}

// ReplaceAll empties the table and returns the number of rows removed.
// An empty table is left untouched and reports 0. On failure nothing is removed.
func (s *Sink) ReplaceAll(ctx context.Context) (int64, error) {
	existing, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if existing == 0 {
		s.logger.Info("table already empty")
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.WrapError(err, errors.ErrPersistence, "begin clear")
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM "+s.table)
	if err != nil {
		tx.Rollback()
		return 0, errors.WrapError(err, errors.ErrPersistence, "clear table")
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return 0, errors.WrapError(err, errors.ErrPersistence, "clear table")
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.WrapError(err, errors.ErrPersistence, "commit clear")
	}

	s.logger.Info("table cleared", "deleted", deleted)
	return deleted, nil
}

// InsertMany writes rows in one transaction with one prepared statement.
// Any failure rolls back the whole batch and reports 0.
func (s *Sink) InsertMany(ctx context.Context, rows []catalog.CatalogRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.WrapError(err, errors.ErrPersistence, "begin insert")
	}

	stmt, err := tx.PrepareContext(ctx, s.insertSQL)
	if err != nil {
		tx.Rollback()
		return 0, errors.WrapError(err, errors.ErrPersistence, "prepare insert")
	}
	defer stmt.Close()

	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i].Values()...); err != nil {
			tx.Rollback()
			return 0, errors.WrapError(err, errors.ErrPersistence, fmt.Sprintf("insert row %d", i))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.WrapError(err, errors.ErrPersistence, "commit insert")
	}
	return len(rows), nil
}
