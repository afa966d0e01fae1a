package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koustreak/dbverify/internal/config"
	"github.com/koustreak/dbverify/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cfgFile  string
	envFile  string
	noColor  bool
	exitZero bool
)

// errRunFailed is returned after the "Error: ..." result line has already
// been printed, so Execute does not report it a second time.
var errRunFailed = errors.New("verification failed")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dbverify",
	Short: "Verify that a database is reachable and its users table is readable",
	Long: `Connects to a PostgreSQL or MySQL database, runs

  SELECT * FROM users;

and prints exactly one line to stdout:

  Data: [(1, 'alice'), (2, 'bob')]
  Error: <description>

Logs go to stderr. Settings come from flags, DBVERIFY_* environment
variables, a .env file and an optional config file, in that order of
precedence.

Example usage:
  dbverify --host postgres --user hackathon --password hackathon123 --dbname hackathon_db
  dbverify --driver mysql --dsn "app:secret@tcp(mariadb:3306)/shop"
  dbverify serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errRunFailed) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	pf.StringVar(&envFile, "env-file", "", "dotenv file to load (default .env if present)")
	pf.String("log-level", "info", "log level: debug, info, warn, error, disabled")
	pf.String("log-format", "json", "log format: json or console")
	pf.BoolVar(&noColor, "no-color", false, "disable colors")
	addDatabaseFlags(pf)

	rootCmd.Flags().BoolVar(&exitZero, "exit-zero", false, "exit 0 even when verification fails")

	// Silence usage on error - we print our own messages
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func addDatabaseFlags(fs *pflag.FlagSet) {
	fs.String("driver", "postgres", "database driver: postgres or mysql")
	fs.String("host", "localhost", "database host")
	fs.Int("port", 0, "database port (default: driver's standard port)")
	fs.String("user", "", "database user")
	fs.String("password", "", "database password")
	fs.String("dbname", "", "database name")
	fs.String("sslmode", "", "postgres sslmode (disable, require, verify-full, ...)")
	fs.String("dsn", "", "full connection string; overrides host, port, user, password and dbname")
	fs.Duration("connect-timeout", 10*time.Second, "connection timeout")
	fs.Duration("query-timeout", 30*time.Second, "query timeout")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		File:    cfgFile,
		EnvFile: envFile,
		Flags:   cmd.Flags(),
	})
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *logger.Logger {
	lc := cfg.LoggerConfig(noColor)
	lc.Output = cmd.ErrOrStderr()
	return logger.New(lc)
}
