package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
database:
  url: postgres://localhost:5432/dashboard
  run_migrations: false
redis:
  url: redis://localhost:6379/0
`)

	cfg, err := Load(Options{ConfigFile: path, EnvFile: filepath.Join(t.TempDir(), "absent.env")})
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.ListenAddr)
	require.Equal(t, "UTC", cfg.Reporting.Timezone)
	require.Equal(t, "USD", cfg.Reporting.Currency)
	require.Equal(t, 5*time.Minute, cfg.Reporting.CacheTTL)
	require.Equal(t, "local", cfg.Images.Storage)
	require.Equal(t, 168*time.Hour, cfg.Images.DefaultTTL)
	require.Len(t, cfg.Reporting.Pages, 2)
	require.Equal(t, "firebase", cfg.Reporting.Pages[0].Service)
}

func TestLoadRejectsMissingDatabase(t *testing.T) {
	path := writeConfigFile(t, `
redis:
  url: redis://localhost:6379/0
`)
	_, err := Load(Options{ConfigFile: path, EnvFile: filepath.Join(t.TempDir(), "absent.env")})
	require.ErrorContains(t, err, "DASHBOARD_DATABASE_URL")
}

func TestValidateNormalizesPages(t *testing.T) {
	cfg := &Config{
		Database:  DatabaseConfig{URL: "postgres://x"},
		Redis:     RedisConfig{URL: "redis://x"},
		Reporting: ReportingConfig{Timezone: "America/New_York", Currency: "usd", Pages: []BillingPageEntry{{Service: " Firebase ", Title: "Firebase"}}},
		Images:    ImagesConfig{MaxSizeMB: 10},
	}
	require.NoError(t, cfg.Validate())
	require.Equal(t, "USD", cfg.Reporting.Currency)
	require.Equal(t, "firebase", cfg.Reporting.Pages[0].Service)
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	cfg := &Config{
		Database:  DatabaseConfig{URL: "postgres://x"},
		Redis:     RedisConfig{URL: "redis://x"},
		Reporting: ReportingConfig{Timezone: "Mars/Olympus"},
		Images:    ImagesConfig{MaxSizeMB: 10},
	}
	require.Error(t, cfg.Validate())
}
