// Package verifier performs the end-to-end database check: open one
// connection, read every row of the users table, report, and close.
package verifier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/koustreak/dbverify/internal/database"
	"github.com/koustreak/dbverify/internal/errs"
	"github.com/koustreak/dbverify/internal/logger"
)

// UsersQuery is the only statement a run executes.
const UsersQuery = "SELECT * FROM users;"

const closeTimeout = 5 * time.Second

// Verifier runs the check against one configured database.
// A Verifier holds no connection between runs and may be reused.
type Verifier struct {
	cfg  *database.Config
	open Opener
	log  *logger.Logger
}

// Option customizes a Verifier.
type Option func(*Verifier)

// WithOpener replaces the driver dispatch, mainly for tests.
func WithOpener(open Opener) Option {
	return func(v *Verifier) { v.open = open }
}

// WithLogger sets the logger used for run diagnostics. Without it, Run logs
// through logger.FromContext.
func WithLogger(l *logger.Logger) Option {
	return func(v *Verifier) { v.log = l }
}

// New returns a Verifier for cfg.
func New(cfg *database.Config, opts ...Option) *Verifier {
	v := &Verifier{cfg: cfg, open: Open}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Run performs one verification. The returned Report is never nil.
// A non-nil error is an *errs.Error of kind connection_failed, query_failed
// or unexpected; the connection, once opened, is closed on every path.
func (v *Verifier) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		ID:        uuid.NewString(),
		Driver:    string(v.cfg.Driver),
		Target:    v.cfg.Target(),
		Query:     UsersQuery,
		StartedAt: time.Now().UTC(),
	}
	base := v.log
	if base == nil {
		base = logger.FromContext(ctx)
	}
	log := base.With().
		Str("run_id", report.ID).
		Str("driver", report.Driver).
		Str("target", report.Target).
		Logger()

	rs, err := v.fetch(ctx, log)
	report.finish(rs, err)

	if err != nil {
		log.ErrorWith("verification failed", err, map[string]interface{}{
			"kind":        report.ErrorKind,
			"duration_ms": report.DurationMS,
		})
		return report, err
	}

	log.InfoWith("verification succeeded", map[string]interface{}{
		"rows":        report.RowCount,
		"duration_ms": report.DurationMS,
	})
	return report, nil
}

func (v *Verifier) fetch(ctx context.Context, log *logger.Logger) (rs *database.ResultSet, err error) {
	connectCtx, cancelConnect := withTimeout(ctx, v.cfg.ConnectTimeout)
	conn, err := v.open(connectCtx, v.cfg)
	cancelConnect()
	if err != nil {
		return nil, errs.Classify(errs.ErrKindConnectionFailed, "failed to connect", err)
	}
	log.Debug("connected")

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()

		cerr := conn.Close(closeCtx)
		switch {
		case cerr == nil:
			log.Debug("connection closed")
		case err == nil:
			rs, err = nil, errs.Classify(errs.ErrKindUnexpected, "close failed", cerr)
		default:
			log.WarnWith("failed to close connection after error", cerr, nil)
		}
	}()

	queryCtx, cancelQuery := withTimeout(ctx, v.cfg.QueryTimeout)
	defer cancelQuery()

	rows, err := conn.Query(queryCtx, UsersQuery)
	if err != nil {
		return nil, errs.Classify(errs.ErrKindQueryFailed, "query failed", err)
	}

	rs, err = database.Collect(rows)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// withTimeout applies d when positive; zero means no extra deadline.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
