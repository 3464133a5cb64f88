package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/mailprobe/internal/config"
)

// missingEnvFile clears the variables Load reads and returns a path with no .env file.
func missingEnvFile(t *testing.T) string {
	for _, key := range []string{
		"PORT", "MAILPROBE_HELO", "MAILPROBE_MAIL_FROM", "MAILPROBE_WORKERS",
		"MAILPROBE_ITEM_TIMEOUT", "MAILPROBE_DNS_TIMEOUT", "MAILPROBE_SMTP_TIMEOUT",
		"MAILPROBE_NAMESERVERS", "MAILPROBE_SOCKS5", "MAILPROBE_DNS_CACHE_TTL",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		if _, ok := os.LookupEnv(key); ok {
			t.Setenv(key, "")
		}
	}
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.ItemTimeout)
	assert.Equal(t, 10*time.Second, cfg.SMTPTimeout)
	assert.Zero(t, cfg.DNSCacheTTL)
}

func TestLoad_Environment(t *testing.T) {
	envFile := missingEnvFile(t)
	t.Setenv("PORT", "8080")
	t.Setenv("MAILPROBE_WORKERS", "3")
	t.Setenv("MAILPROBE_ITEM_TIMEOUT", "12s")
	t.Setenv("MAILPROBE_NAMESERVERS", "9.9.9.9, 1.1.1.1:53")
	t.Setenv("MAILPROBE_HELO", "probe.example.net")

	cfg, err := config.Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 12*time.Second, cfg.ItemTimeout)
	assert.Equal(t, []string{"9.9.9.9", "1.1.1.1:53"}, cfg.Nameservers)
	assert.Equal(t, "probe.example.net", cfg.HeloDomain)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MAILPROBE_MAIL_FROM=check@example.net\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("MAILPROBE_MAIL_FROM") })

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "check@example.net", cfg.MailFrom)
}

func TestLoad_InvalidValues(t *testing.T) {
	envFile := missingEnvFile(t)
	t.Setenv("MAILPROBE_WORKERS", "many")
	t.Setenv("MAILPROBE_DNS_TIMEOUT", "soon")

	_, err := config.Load(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAILPROBE_WORKERS")
	assert.Contains(t, err.Error(), "MAILPROBE_DNS_TIMEOUT")
}

func TestApplyFlags(t *testing.T) {
	envFile := missingEnvFile(t)
	t.Setenv("MAILPROBE_WORKERS", "3")
	cfg, err := config.Load(envFile)
	require.NoError(t, err)

	cmd := &cobra.Command{Use: "test"}
	config.RegisterFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--workers=8", "--log-format=json"}))
	require.NoError(t, config.ApplyFlags(cmd, &cfg))

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "5000", cfg.Port, "unset flags keep the environment value")
}

func TestConfig_Logger(t *testing.T) {
	cfg, err := config.Load(missingEnvFile(t))
	require.NoError(t, err)

	cfg.LogLevel, cfg.LogFormat = "debug", "json"
	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	cfg.LogFormat = "xml"
	_, err = cfg.Logger()
	assert.Error(t, err)
}

func TestConfig_Verifier(t *testing.T) {
	cfg, err := config.Load(missingEnvFile(t))
	require.NoError(t, err)
	assert.NotNil(t, cfg.Verifier(logrus.New()))
}
