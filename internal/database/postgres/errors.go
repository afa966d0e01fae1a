package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/dbverify/internal/errs"
)

// SQLSTATE classes that mean the session itself is unusable.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
var connectionClasses = map[string]bool{
	"08": true, // connection exception
	"28": true, // invalid authorization specification
	"3D": true, // invalid catalog name (unknown database)
	"53": true, // insufficient resources (too many connections)
	"57": true, // operator intervention (shutdown, cannot connect now)
}

const classSyntaxOrAccess = "42" // syntax error, undefined table, insufficient privilege

// mapError translates pgx / pgconn native errors into *errs.Error.
// kind is used when the error carries no more specific signal.
func mapError(err error, kind errs.ErrKind, msg string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(classifySQLState(pgErr.Code, kind), msg, err)
	}

	// Dial, TLS and startup failures are wrapped in a ConnectError.
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	return errs.Wrap(kind, msg, err)
}

// classifySQLState maps a five-character SQLSTATE to an ErrKind.
func classifySQLState(code string, fallback errs.ErrKind) errs.ErrKind {
	if len(code) < 2 {
		return fallback
	}
	class := code[:2]
	switch {
	case connectionClasses[class]:
		return errs.ErrKindConnectionFailed
	case class == classSyntaxOrAccess:
		return errs.ErrKindQueryFailed
	default:
		return fallback
	}
}
