package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/dbverify/internal/database"
	"github.com/koustreak/dbverify/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cfg := &database.Config{
		Driver:   database.DriverPostgres,
		Host:     "postgres",
		Port:     5433,
		User:     "hackathon",
		Password: "p@ss word/:",
		Database: "hackathon_db",
		SSLMode:  "disable",
	}

	connCfg, err := pgx.ParseConfig(buildDSN(cfg))
	require.NoError(t, err)

	assert.Equal(t, "postgres", connCfg.Host)
	assert.Equal(t, uint16(5433), connCfg.Port)
	assert.Equal(t, "hackathon", connCfg.User)
	assert.Equal(t, "p@ss word/:", connCfg.Password)
	assert.Equal(t, "hackathon_db", connCfg.Database)
	assert.Equal(t, "dbverify", connCfg.RuntimeParams["application_name"])
	assert.Nil(t, connCfg.TLSConfig)
}

func TestBuildDSN_DefaultPortAndRawDSN(t *testing.T) {
	cfg := &database.Config{Driver: database.DriverPostgres, Host: "db", User: "u", Database: "d"}
	connCfg, err := pgx.ParseConfig(buildDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, uint16(5432), connCfg.Port)

	cfg.DSN = "postgres://other@elsewhere:6543/x"
	assert.Equal(t, cfg.DSN, buildDSN(cfg))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback errs.ErrKind
		expected errs.ErrKind
	}{
		{
			name:     "undefined table",
			err:      &pgconn.PgError{Severity: "ERROR", Code: "42P01", Message: `relation "users" does not exist`},
			fallback: errs.ErrKindQueryFailed,
			expected: errs.ErrKindQueryFailed,
		},
		{
			name:     "insufficient privilege",
			err:      &pgconn.PgError{Severity: "ERROR", Code: "42501", Message: "permission denied for table users"},
			fallback: errs.ErrKindQueryFailed,
			expected: errs.ErrKindQueryFailed,
		},
		{
			name:     "password authentication failed",
			err:      &pgconn.PgError{Severity: "FATAL", Code: "28P01", Message: `password authentication failed for user "hackathon"`},
			fallback: errs.ErrKindQueryFailed,
			expected: errs.ErrKindConnectionFailed,
		},
		{
			name:     "unknown database",
			err:      &pgconn.PgError{Severity: "FATAL", Code: "3D000", Message: `database "nope" does not exist`},
			fallback: errs.ErrKindQueryFailed,
			expected: errs.ErrKindConnectionFailed,
		},
		{
			name:     "admin shutdown",
			err:      fmt.Errorf("read: %w", &pgconn.PgError{Severity: "FATAL", Code: "57P01"}),
			fallback: errs.ErrKindQueryFailed,
			expected: errs.ErrKindConnectionFailed,
		},
		{
			name:     "division by zero keeps fallback",
			err:      &pgconn.PgError{Severity: "ERROR", Code: "22012"},
			fallback: errs.ErrKindQueryFailed,
			expected: errs.ErrKindQueryFailed,
		},
		{
			name:     "plain network error",
			err:      errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
			fallback: errs.ErrKindConnectionFailed,
			expected: errs.ErrKindConnectionFailed,
		},
		{
			name:     "deadline keeps fallback",
			err:      context.DeadlineExceeded,
			fallback: errs.ErrKindQueryFailed,
			expected: errs.ErrKindQueryFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, tt.fallback, "op failed")
			require.Error(t, got)
			assert.Equal(t, tt.expected, errs.KindOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, mapError(nil, errs.ErrKindQueryFailed, "unused"))
}

func TestMapError_MessageKeepsServerText(t *testing.T) {
	pgErr := &pgconn.PgError{Severity: "ERROR", Code: "42P01", Message: `relation "users" does not exist`}
	got := mapError(pgErr, errs.ErrKindQueryFailed, "query failed")
	assert.Contains(t, got.Error(), `relation "users" does not exist`)
	assert.Contains(t, got.Error(), "[query_failed] query failed")
}

func TestOpen_Unreachable(t *testing.T) {
	cfg := database.DefaultConfig(database.DriverPostgres)
	cfg.Host = "127.0.0.1"
	cfg.Port = 1 // nothing listens on tcpmux
	cfg.User = "nobody"
	cfg.Database = "nothing"
	cfg.SSLMode = "disable"
	cfg.ConnectTimeout = 2 * time.Second

	conn, err := Open(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, conn)
	assert.True(t, errs.IsConnectionFailed(err))
	assert.True(t, strings.HasPrefix(err.Error(), "[connection_failed] connect: failed to connect to"), err.Error())
	assert.NotContains(t, err.Error(), "failed to connect: failed to connect")
}
