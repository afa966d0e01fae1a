package mysql

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbverify/internal/database"
	"github.com/koustreak/dbverify/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersQuery = "SELECT * FROM users;"

func newMockConn(t *testing.T) (*Conn, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	c, err := connect(context.Background(), db)
	require.NoError(t, err)
	return c, mock
}

func TestConn_QueryAndClose(t *testing.T) {
	c, mock := newMockConn(t)
	ctx := context.Background()

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INT", int64(0)),
		sqlmock.NewColumn("name").OfType("VARCHAR", ""),
	).
		AddRow([]byte("1"), []byte("alice")).
		AddRow([]byte("2"), []byte("bob"))

	mock.ExpectQuery(regexp.QuoteMeta(usersQuery)).WillReturnRows(rows)
	mock.ExpectClose()

	result, err := c.Query(ctx, usersQuery)
	require.NoError(t, err)

	rs, err := database.Collect(result)
	require.NoError(t, err)

	assert.Equal(t, []database.Column{
		{Name: "id", DataType: "INT"},
		{Name: "name", DataType: "VARCHAR"},
	}, rs.Columns)
	assert.Equal(t, [][]any{{int64(1), "alice"}, {int64(2), "bob"}}, rs.Rows)

	require.NoError(t, c.Close(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_QueryMissingTable(t *testing.T) {
	c, mock := newMockConn(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(usersQuery)).WillReturnError(&gomysql.MySQLError{
		Number:  1146,
		Message: "Table 'hackathon_db.users' doesn't exist",
	})
	mock.ExpectClose()

	_, err := c.Query(ctx, usersQuery)
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
	assert.Contains(t, err.Error(), "doesn't exist")

	require.NoError(t, c.Close(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_CloseError(t *testing.T) {
	c, mock := newMockConn(t)

	mock.ExpectClose().WillReturnError(errors.New("connection reset by peer"))

	err := c.Close(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsUnexpected(err))
}

func TestBuildDSN(t *testing.T) {
	cfg := &database.Config{
		Driver:         database.DriverMySQL,
		Host:           "mysql",
		User:           "hackathon",
		Password:       "p@ss:word",
		Database:       "hackathon_db",
		ConnectTimeout: 3 * time.Second,
	}

	dsn, err := buildDSN(cfg)
	require.NoError(t, err)

	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)

	assert.Equal(t, "hackathon", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "mysql:3306", parsed.Addr)
	assert.Equal(t, "hackathon_db", parsed.DBName)
	assert.Equal(t, 3*time.Second, parsed.Timeout)
	assert.True(t, parsed.ParseTime)
}

func TestBuildDSN_RawDSNGetsParseTime(t *testing.T) {
	cfg := &database.Config{Driver: database.DriverMySQL, DSN: "root:root@tcp(localhost:3306)/app"}

	dsn, err := buildDSN(cfg)
	require.NoError(t, err)

	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, "app", parsed.DBName)

	cfg.DSN = "not a dsn"
	_, err = buildDSN(cfg)
	assert.Error(t, err)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback errs.ErrKind
		expected errs.ErrKind
	}{
		{"access denied", &gomysql.MySQLError{Number: 1045}, errs.ErrKindQueryFailed, errs.ErrKindConnectionFailed},
		{"unknown database", &gomysql.MySQLError{Number: 1049}, errs.ErrKindQueryFailed, errs.ErrKindConnectionFailed},
		{"no such table", &gomysql.MySQLError{Number: 1146}, errs.ErrKindConnectionFailed, errs.ErrKindQueryFailed},
		{"syntax", &gomysql.MySQLError{Number: 1064}, errs.ErrKindUnexpected, errs.ErrKindQueryFailed},
		{"unlisted keeps fallback", &gomysql.MySQLError{Number: 1213}, errs.ErrKindQueryFailed, errs.ErrKindQueryFailed},
		{"invalid connection", gomysql.ErrInvalidConn, errs.ErrKindQueryFailed, errs.ErrKindConnectionFailed},
		{"other", errors.New("dial tcp: connection refused"), errs.ErrKindConnectionFailed, errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, tt.fallback, "op failed")
			assert.Equal(t, tt.expected, errs.KindOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, mapError(nil, errs.ErrKindQueryFailed, "unused"))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		dbType   string
		expected any
	}{
		{"int", []byte("42"), "INT", int64(42)},
		{"negative bigint", []byte("-7"), "BIGINT", int64(-7)},
		{"unsigned bigint", []byte("18446744073709551615"), "UNSIGNED BIGINT", uint64(18446744073709551615)},
		{"double", []byte("1.5"), "DOUBLE", 1.5},
		{"decimal stays text", []byte("10.50"), "DECIMAL", "10.50"},
		{"varchar", []byte("alice"), "VARCHAR", "alice"},
		{"blob stays bytes", []byte{0x00, 0xff}, "BLOB", []byte{0x00, 0xff}},
		{"unparsable int", []byte("abc"), "INT", "abc"},
		{"already typed", int64(3), "INT", int64(3)},
		{"null", nil, "VARCHAR", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalize(tt.value, tt.dbType))
		})
	}
}
