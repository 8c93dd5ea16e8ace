// Package basic is the minimal database/sql-backed implementation of
// core.IDatabase. It does not register any driver itself — the caller is
// expected to blank-import the driver (e.g. `_ "modernc.org/sqlite"`)
// before calling New.
package basic

import (
	"context"
	"database/sql"
	"time"

	core "ordersaga/data/db"
	"ordersaga/data/db/dialect"
)

// DB is a thin wrapper around *sql.DB satisfying core.IDatabase.
type DB struct {
	db     *sql.DB
	driver string
}

// New opens a connection pool per cfg.
func New(cfg core.Config) (core.IDatabase, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite"
	}

	sqlDB, err := sql.Open(driver, cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &DB{db: sqlDB, driver: driver}, nil
}

func (d *DB) Query(ctx context.Context, query string, args ...any) (core.IRows, error) {
	dial := dialect.New(d.driver)
	rows, err := d.db.QueryContext(ctx, dial.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows}, nil
}

func (d *DB) QueryRow(ctx context.Context, query string, args ...any) core.IRow {
	dial := dialect.New(d.driver)
	return &Row{row: d.db.QueryRowContext(ctx, dial.Rebind(query), args...)}
}

func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	dial := dialect.New(d.driver)
	return d.db.ExecContext(ctx, dial.Rebind(query), args...)
}

func (d *DB) Begin(ctx context.Context) (core.ITransaction, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{db: d.db, tx: tx, dialect: dialect.New(d.driver)}, nil
}

func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.ITransaction, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{db: d.db, tx: tx, dialect: dialect.New(d.driver)}, nil
}

func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }
func (d *DB) Close() error                   { return d.db.Close() }
func (d *DB) Raw() any                       { return d.db }

// GetDialectName implements core.IDialectNameProvider.
func (d *DB) GetDialectName() string {
	return d.driver
}
