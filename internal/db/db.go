package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PSQL is the statement builder used by every repository.
var PSQL = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so query helpers can
// run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool creates a new pgx connection pool using the provided DSN.
// It pings the database to ensure the connection is valid.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	// Use a short-lived context for the initial ping.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Paginate clamps page/pageSize and returns the LIMIT and OFFSET to apply.
func Paginate(page, pageSize int) (limit, offset uint64) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return uint64(pageSize), uint64((page - 1) * pageSize)
}

// OrderBy builds an ORDER BY clause from a whitelisted column map.
// Unknown columns fall back to def; direction is ASC or DESC only.
func OrderBy(columns map[string]string, sortBy, def, direction string) string {
	col, ok := columns[sortBy]
	if !ok {
		col = def
	}
	if direction != "ASC" {
		direction = "DESC"
	}
	return col + " " + direction
}
