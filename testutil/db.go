// Package testutil is the Postgres harness for integration tests. Every
// helper is gated on TEST_DATABASE_URL: tests skip, and Main runs the
// package without touching a database, when it is unset.
package testutil

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/dive-logbook/migrations"
)

const dsnEnv = "TEST_DATABASE_URL"

// Main applies pending migrations once and then runs the package's tests.
// Call it from TestMain:
//
//	func TestMain(m *testing.M) { os.Exit(testutil.Main(m)) }
func Main(m *testing.M) int {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		return m.Run()
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("testutil.Main: open pool: %v", err)
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	_, err = migrations.Up(ctx, sqlDB)
	_ = sqlDB.Close()
	pool.Close()
	if err != nil {
		log.Fatalf("testutil.Main: migrate: %v", err)
	}

	return m.Run()
}

// Pool returns a pool on the test database, closed when t finishes.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skip(dsnEnv + " not set; skipping integration test")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err, "open pool")
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(context.Background()), "ping test database")
	return pool
}

// SQLDB returns a database/sql handle over Pool for goose.
func SQLDB(t *testing.T) *sql.DB {
	t.Helper()
	db := stdlib.OpenDBFromPool(Pool(t))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewTx begins a transaction that is rolled back when t finishes, so each
// test sees the migrated schema and leaves nothing behind.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()
	tx, err := Pool(t).Begin(context.Background())
	require.NoError(t, err, "begin transaction")
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// InSavepoint runs fn in a nested transaction that is always rolled back.
// A constraint violation aborts the enclosing transaction, so tests that
// expect one isolate it here to keep using tx afterwards.
func InSavepoint(t *testing.T, tx pgx.Tx, fn func(sp pgx.Tx) error) error {
	t.Helper()
	ctx := context.Background()
	sp, err := tx.Begin(ctx)
	require.NoError(t, err, "begin savepoint")
	defer func() { _ = sp.Rollback(ctx) }()
	return fn(sp)
}

// CountRows returns the number of rows in table matching where.
func CountRows(t *testing.T, tx pgx.Tx, table, where string, args ...any) int {
	t.Helper()
	var n int
	err := tx.QueryRow(context.Background(), "SELECT count(*) FROM "+table+" WHERE "+where, args...).Scan(&n)
	require.NoError(t, err, "count %s", table)
	return n
}
