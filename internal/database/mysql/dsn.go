package mysql

import (
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbverify/internal/database"
)

// buildDSN constructs the go-sql-driver DSN.
// parseTime is always enabled so DATE/DATETIME columns scan as time.Time.
func buildDSN(cfg *database.Config) (string, error) {
	var mc *gomysql.Config
	if cfg.DSN != "" {
		parsed, err := gomysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", err
		}
		mc = parsed
	} else {
		mc = gomysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = cfg.Addr()
		mc.DBName = cfg.Database
	}

	mc.ParseTime = true
	if cfg.ConnectTimeout > 0 && mc.Timeout == 0 {
		mc.Timeout = cfg.ConnectTimeout
	}
	return mc.FormatDSN(), nil
}
