package mysql

import (
	"database/sql/driver"
	"errors"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbverify/internal/errs"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errTooManyConnections = 1040
	errDBAccessDenied     = 1044
	errAccessDenied       = 1045
	errUnknownDatabase    = 1049
	errBadFieldError      = 1054
	errParseError         = 1064
	errTableAccessDenied  = 1142
	errNoSuchTable        = 1146
	errUserConnLimit      = 1203
	errConnError          = 2002
	errConnRefused        = 2003
	errUnknownHost        = 2005
)

// mapError translates go-sql-driver/mysql errors into *errs.Error.
// kind is used when the error carries no more specific signal.
func mapError(err error, kind errs.ErrKind, msg string) error {
	if err == nil {
		return nil
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(classifyMySQLCode(mysqlErr.Number, kind), msg, err)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, gomysql.ErrInvalidConn) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	return errs.Wrap(kind, msg, err)
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
func classifyMySQLCode(code uint16, fallback errs.ErrKind) errs.ErrKind {
	switch code {
	case errTooManyConnections, errDBAccessDenied, errAccessDenied, errUnknownDatabase,
		errUserConnLimit, errConnError, errConnRefused, errUnknownHost:
		return errs.ErrKindConnectionFailed
	case errBadFieldError, errParseError, errTableAccessDenied, errNoSuchTable:
		return errs.ErrKindQueryFailed
	default:
		return fallback
	}
}
