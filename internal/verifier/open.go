package verifier

import (
	"context"
	"fmt"

	"github.com/koustreak/dbverify/internal/database"
	"github.com/koustreak/dbverify/internal/database/mysql"
	"github.com/koustreak/dbverify/internal/database/postgres"
	"github.com/koustreak/dbverify/internal/errs"
)

// Opener establishes the single connection a run uses.
type Opener func(ctx context.Context, cfg *database.Config) (database.Conn, error)

// Open dispatches to the driver named by cfg.Driver.
func Open(ctx context.Context, cfg *database.Config) (database.Conn, error) {
	switch cfg.Driver {
	case database.DriverPostgres:
		conn, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case database.DriverMySQL:
		conn, err := mysql.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, errs.New(errs.ErrKindConnectionFailed, fmt.Sprintf("unsupported driver %q", cfg.Driver))
	}
}
