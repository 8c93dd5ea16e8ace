// Package db provides a driver-agnostic relational database abstraction.
//
// Goals:
//  1. Isolate callers from the concrete SQL driver (sqlite, postgres, ...)
//  2. Offer one uniform query/exec/transaction surface
//  3. Make persistence code mockable in unit tests
package db

import (
	"context"
	"database/sql"
)

// IDatabase is the generic database handle.
type IDatabase interface {
	Query(ctx context.Context, query string, args ...any) (IRows, error)
	QueryRow(ctx context.Context, query string, args ...any) IRow

	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)

	Begin(ctx context.Context) (ITransaction, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (ITransaction, error)

	Ping(ctx context.Context) error
	Close() error

	// Raw exposes the underlying driver handle for cases this abstraction
	// doesn't cover.
	Raw() any
}

// IDialectNameProvider is an optional capability: implementations that can
// name their underlying driver ("sqlite", "postgres", ...) so callers can
// branch on dialect-specific SQL quirks (upsert syntax, LIMIT support, ...).
type IDialectNameProvider interface {
	GetDialectName() string
}

// ITransaction is an IDatabase bound to one transaction.
type ITransaction interface {
	IDatabase

	Commit() error
	Rollback() error
}

// IRows is a streaming query result set.
type IRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error

	Columns() ([]string, error)
	ColumnTypes() ([]*sql.ColumnType, error)
}

// IRow is a single-row query result.
type IRow interface {
	Scan(dest ...any) error
	Err() error
}

// Config describes how to open a connection pool.
type Config struct {
	Driver   string // sqlite, postgres, mysql, ...
	Database string // DSN / file path

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
	ConnMaxIdleTime int // seconds
}

// NewDatabaseFunc is the factory signature a concrete driver package exposes.
type NewDatabaseFunc func(config Config) (IDatabase, error)
