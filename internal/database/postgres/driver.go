package postgres

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/koustreak/dbverify/internal/database"
	"github.com/koustreak/dbverify/internal/errs"
)

// Conn is a PostgreSQL implementation of database.Conn backed by a single
// pgx.Conn. It is not safe for concurrent use.
type Conn struct {
	conn *pgx.Conn
}

// Open connects to PostgreSQL using the provided Config and returns a Conn.
// The connection handshake is bounded by cfg.ConnectTimeout and by ctx.
func Open(ctx context.Context, cfg *database.Config) (*Conn, error) {
	connCfg, err := pgx.ParseConfig(buildDSN(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid connection settings", err)
	}
	if cfg.ConnectTimeout > 0 {
		connCfg.ConnectTimeout = cfg.ConnectTimeout
	}

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, mapError(err, errs.ErrKindConnectionFailed, "connect")
	}

	return &Conn{conn: conn}, nil
}

// --- database.Conn implementation ---

// Ping verifies the server still answers on this connection.
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.conn.Ping(ctx); err != nil {
		return mapError(err, errs.ErrKindConnectionFailed, "ping failed")
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, errs.ErrKindQueryFailed, "query failed")
	}
	return &pgxRows{rows: rows}, nil
}

// Close sends a terminate message and closes the network connection.
func (c *Conn) Close(ctx context.Context) error {
	if err := c.conn.Close(ctx); err != nil {
		return mapError(err, errs.ErrKindUnexpected, "close failed")
	}
	return nil
}

// --- pgx type wrappers ---

// pgxRows wraps pgx.Rows to satisfy database.Rows.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool { return r.rows.Next() }
func (r *pgxRows) Close()     { r.rows.Close() }

func (r *pgxRows) Values() ([]any, error) {
	values, err := r.rows.Values()
	if err != nil {
		return nil, mapError(err, errs.ErrKindQueryFailed, "failed to decode row")
	}
	return values, nil
}

func (r *pgxRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, errs.ErrKindQueryFailed, "query failed")
	}
	return nil
}

// Columns resolves each field's type OID to its PostgreSQL type name
// through the connection's type map.
func (r *pgxRows) Columns() ([]database.Column, error) {
	descs := r.rows.FieldDescriptions()
	typeMap := r.rows.Conn().TypeMap()

	cols := make([]database.Column, len(descs))
	for i, d := range descs {
		cols[i] = database.Column{Name: d.Name, DataType: typeName(typeMap, d.DataTypeOID)}
	}
	return cols, nil
}

func typeName(m *pgtype.Map, oid uint32) string {
	if t, ok := m.TypeForOID(oid); ok {
		return t.Name
	}
	return "oid:" + strconv.FormatUint(uint64(oid), 10)
}
