package postgres

import (
	"net/url"

	"github.com/koustreak/dbverify/internal/database"
)

// buildDSN constructs the postgres connection URL.
// User, password and database name are escaped, so any characters are allowed.
func buildDSN(cfg *database.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   cfg.Addr(),
		Path:   "/" + cfg.Database,
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else if cfg.User != "" {
		u.User = url.User(cfg.User)
	}

	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	q.Set("application_name", "dbverify")
	u.RawQuery = q.Encode()

	return u.String()
}
