package database

import "context"

// Conn is a single live database session.
// Only verifier.Open imports the postgres and mysql packages; everything
// else works through this interface.
type Conn interface {
	// Ping verifies the session is still usable.
	Ping(ctx context.Context) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// Close ends the session and releases its network resources.
	Close(ctx context.Context) error
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Values returns the current row's column values as Go-native values.
	Values() ([]any, error)

	// Columns describes the result set's columns in order.
	Columns() ([]Column, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Column describes one column of a result set.
type Column struct {
	Name string
	// DataType is the engine's type name, e.g. "int4" or "VARCHAR".
	DataType string
}
