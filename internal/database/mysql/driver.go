package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/koustreak/dbverify/internal/database"
	"github.com/koustreak/dbverify/internal/errs"

	_ "github.com/go-sql-driver/mysql" // register "mysql" driver
)

// Conn is a MySQL implementation of database.Conn. It holds one dedicated
// *sql.Conn drawn from a database/sql handle capped at a single connection.
// It is not safe for concurrent use.
type Conn struct {
	db   *sql.DB
	conn *sql.Conn
}

// Open connects to MySQL using the provided Config and returns a Conn.
// The connection is pinged before Open returns.
func Open(ctx context.Context, cfg *database.Config) (*Conn, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid connection settings", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	return connect(ctx, db)
}

// connect takes ownership of db and checks out its only connection.
func connect(ctx context.Context, db *sql.DB) (*Conn, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, mapError(err, errs.ErrKindConnectionFailed, "failed to connect")
	}

	c := &Conn{db: db, conn: conn}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	return c, nil
}

// --- database.Conn implementation ---

func (c *Conn) Ping(ctx context.Context) error {
	if err := c.conn.PingContext(ctx); err != nil {
		return mapError(err, errs.ErrKindConnectionFailed, "ping failed")
	}
	return nil
}

func (c *Conn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, errs.ErrKindQueryFailed, "query failed")
	}
	return &mysqlRows{rows: rows}, nil
}

// Close returns the dedicated connection and shuts the handle down, which
// closes the underlying network connection.
func (c *Conn) Close(_ context.Context) error {
	err := errors.Join(c.conn.Close(), c.db.Close())
	if err != nil {
		return mapError(err, errs.ErrKindUnexpected, "close failed")
	}
	return nil
}

// --- sql.Rows wrapper ---

type mysqlRows struct {
	rows  *sql.Rows
	types []string
}

func (r *mysqlRows) Next() bool { return r.rows.Next() }
func (r *mysqlRows) Close()     { _ = r.rows.Close() }

func (r *mysqlRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, errs.ErrKindQueryFailed, "query failed")
	}
	return nil
}

func (r *mysqlRows) Columns() ([]database.Column, error) {
	cts, err := r.rows.ColumnTypes()
	if err != nil {
		return nil, mapError(err, errs.ErrKindQueryFailed, "failed to read column types")
	}

	cols := make([]database.Column, len(cts))
	r.types = make([]string, len(cts))
	for i, ct := range cts {
		cols[i] = database.Column{Name: ct.Name(), DataType: ct.DatabaseTypeName()}
		r.types[i] = ct.DatabaseTypeName()
	}
	return cols, nil
}

// Values scans the current row into untyped destinations and normalizes
// the text-protocol []byte values by column type.
func (r *mysqlRows) Values() ([]any, error) {
	if r.types == nil {
		if _, err := r.Columns(); err != nil {
			return nil, err
		}
	}

	dest := make([]any, len(r.types))
	ptrs := make([]any, len(r.types))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, mapError(err, errs.ErrKindQueryFailed, "failed to scan row")
	}

	for i, v := range dest {
		dest[i] = normalize(v, r.types[i])
	}
	return dest, nil
}
