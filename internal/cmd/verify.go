package cmd

import (
	"context"

	"github.com/koustreak/dbverify/internal/archive"
	"github.com/koustreak/dbverify/internal/config"
	"github.com/koustreak/dbverify/internal/filestore"
	"github.com/koustreak/dbverify/internal/logger"
	"github.com/koustreak/dbverify/internal/ui"
	"github.com/koustreak/dbverify/internal/verifier"
	"github.com/spf13/cobra"
)

// verifyCmd is the explicit form of the root command.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the check once and print the result line",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&exitZero, "exit-zero", false, "exit 0 even when verification fails")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)
	ctx := cmd.Context()

	report, runErr := verifier.New(cfg.DatabaseConfig(), verifier.WithLogger(log)).Run(ctx)

	u := ui.New(cmd.OutOrStdout())
	if noColor {
		u.SetNoColor(true)
	}
	if err := u.PrintResult(report.Label()); err != nil {
		return err
	}

	archiveReport(ctx, cfg, report, log)

	if runErr != nil && !exitZero {
		return errRunFailed
	}
	return nil
}

// archiveReport uploads report when archiving is enabled. Failures are
// logged and never change the outcome of the run.
func archiveReport(ctx context.Context, cfg *config.Config, report *verifier.Report, log *logger.Logger) {
	if !cfg.Report.Enabled {
		return
	}

	a, err := archive.Connect(ctx, storeConfig(cfg), cfg.Report.Prefix)
	if err != nil {
		log.WarnWith("report archive unavailable", err, nil)
		return
	}
	defer a.Close()

	info, err := a.Archive(ctx, report)
	if err != nil {
		log.WarnWith("failed to archive report", err, map[string]interface{}{"run_id": report.ID})
		return
	}
	log.InfoWith("report archived", map[string]interface{}{
		"bucket": info.Bucket,
		"key":    info.Key,
	})
}

func storeConfig(cfg *config.Config) *filestore.Config {
	rc := cfg.Report
	sc := filestore.DefaultConfig(rc.Endpoint, rc.AccessKey, rc.SecretKey, rc.Bucket)
	sc.UseSSL = rc.UseSSL
	sc.Region = rc.Region
	return sc
}
