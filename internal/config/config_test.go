package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BARAKAH_CONFIG", "")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://dolarapi.com", cfg.DolarAPIURL)
	assert.Equal(t, "@every 15m", cfg.SyncSchedule)
	assert.True(t, cfg.RunMigrations)
	assert.False(t, cfg.MailEnabled())
}

func TestNewConfigEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BARAKAH_CONFIG", "")
	t.Setenv("PORT", "9090")
	t.Setenv("ALADHAN_URL", "http://localhost:1234/")
	t.Setenv("LATITUDE", "21.42")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("LISTEN_HOST", "0.0.0.0")
	t.Setenv("ALLOWED_ORIGINS", " https://app.example.com , ,http://localhost:3000")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://localhost:1234", cfg.AladhanURL)
	assert.Equal(t, 21.42, cfg.Latitude)
	assert.False(t, cfg.RunMigrations)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr())
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestNewConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "barakah.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: \"7070\"\nNOTIFY_EMAIL: me@example.com\nSMTP_HOST: smtp.example.com\nSENDER_EMAIL: bot@example.com\n"), 0o600))
	t.Setenv("BARAKAH_CONFIG", path)

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.True(t, cfg.MailEnabled())
}

func TestNewConfigValidation(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BARAKAH_CONFIG", "")

	t.Run("bad backup key", func(t *testing.T) {
		t.Setenv("BACKUP_KEY", "short")
		_, err := NewConfig()
		assert.ErrorContains(t, err, "BACKUP_KEY")
	})

	t.Run("missing config file", func(t *testing.T) {
		t.Setenv("BARAKAH_CONFIG", "/does/not/exist.yaml")
		_, err := NewConfig()
		assert.Error(t, err)
	})
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
