package cmd

import (
	"github.com/koustreak/dbverify/internal/archive"
	"github.com/koustreak/dbverify/internal/server"
	"github.com/koustreak/dbverify/internal/verifier"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the check over HTTP (/verify, /healthz, /metrics)",
	Long: `Runs an HTTP health endpoint. Every GET /verify performs one full check with a
fresh connection and answers 200 on success, 503 on failure and 429 when
the rate limit is exceeded. Row data is never included in the response.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)
	ctx := cmd.Context()

	opts := server.Options{
		Addr:        cfg.Server.Addr,
		RateLimit:   cfg.Server.RateLimit,
		Burst:       cfg.Server.Burst,
		CORSOrigins: cfg.Server.CORSOrigins,
	}

	if cfg.Report.Enabled {
		a, err := archive.Connect(ctx, storeConfig(cfg), cfg.Report.Prefix)
		if err != nil {
			log.WarnWith("report archive unavailable, continuing without it", err, nil)
		} else {
			defer a.Close()
			opts.Archiver = a
		}
	}

	// Run logs pick up the per-request logger, and with it request_id.
	v := verifier.New(cfg.DatabaseConfig())
	return server.New(v, opts, log).ListenAndServe(ctx)
}
