package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/koustreak/dbverify/internal/config"
	"github.com/koustreak/dbverify/internal/filestore"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so tests do not leak
// state through the package-level command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// A closed local port makes the connection fail fast.
var unreachable = []string{
	"--env-file", "testdata/empty.env",
	"--host", "127.0.0.1", "--port", "1",
	"--user", "hackathon", "--password", "hackathon123", "--dbname", "hackathon_db",
	"--connect-timeout", "2s",
}

func TestVerify_ConnectionFailurePrintsErrorLine(t *testing.T) {
	stdout, stderr, err := execute(t, unreachable...)
	require.ErrorIs(t, err, errRunFailed)

	assert.Equal(t, 1, strings.Count(stdout, "\n"), "exactly one result line")
	assert.NotContains(t, stdout, "\t")
	assert.True(t, strings.HasPrefix(stdout, "Error: [connection_failed]"), stdout)
	assert.NotContains(t, stdout, "Data: ")
	assert.NotContains(t, stdout, "hackathon123")
	assert.Contains(t, stderr, "verification failed", "diagnostics go to stderr")
}

func TestVerify_ExitZero(t *testing.T) {
	stdout, _, err := execute(t, append([]string{"verify", "--exit-zero"}, unreachable...)...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Error: "))
}

func TestVerify_InvalidConfig(t *testing.T) {
	stdout, _, err := execute(t, "--env-file", "testdata/empty.env", "--driver", "oracle", "--user", "u", "--dbname", "d")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errRunFailed)
	assert.Contains(t, err.Error(), "database.driver must be one of")
	assert.Empty(t, stdout, "no result line without a run")
}

func TestConfigCommand_Redacts(t *testing.T) {
	stdout, _, err := execute(t, "config",
		"--env-file", "testdata/empty.env",
		"--user", "hackathon", "--password", "hackathon123", "--dbname", "hackathon_db")
	require.NoError(t, err)

	assert.Contains(t, stdout, "user: hackathon")
	assert.Contains(t, stdout, "********")
	assert.NotContains(t, stdout, "hackathon123")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Version:")
	assert.Contains(t, stdout, Version)
}

func TestStoreConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Report = config.ReportConfig{
		Enabled:   true,
		Endpoint:  "minio:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "reports",
		Region:    "eu-west-1",
		UseSSL:    true,
	}

	sc := storeConfig(cfg)
	assert.Equal(t, filestore.ProviderMinIO, sc.Provider)
	assert.Equal(t, "minio:9000", sc.Endpoint)
	assert.Equal(t, "reports", sc.Bucket)
	assert.Equal(t, "eu-west-1", sc.Region)
	assert.True(t, sc.UseSSL)
}
