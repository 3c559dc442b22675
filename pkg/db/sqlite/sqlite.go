package sqlite

import (
	"context"
	"fmt"

	"github.com/amankumarsingh77/tg-video-relay/pkg/db/postgres"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// NewSqliteDB opens an embedded database at path and creates the schema.
// SQLite allows one writer, so the pool is pinned to a single connection.
func NewSqliteDB(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	if err = postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewInMemoryDB is NewSqliteDB on a private in-memory database.
func NewInMemoryDB(ctx context.Context) (*sqlx.DB, error) {
	return NewSqliteDB(ctx, ":memory:")
}
