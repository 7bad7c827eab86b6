package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/prism/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Nil(t, cfg)

	cfg, err = config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultStorePath, cfg.Store.Path)
	assert.Equal(t, config.DefaultMetricsEnabled, cfg.Metrics.Enabled)
	assert.Equal(t, config.DefaultMetricsAddr, cfg.Metrics.Addr)
	assert.Equal(t, config.DefaultCoreWindowDays, cfg.Update.CoreWindowDays)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`store:
  path: /var/lib/prism/store.db
metrics:
  enabled: true
  addr: ":9464"
update:
  core_window_days: 30
logging:
  level: debug
`), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/prism/store.db", cfg.Store.Path)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9464", cfg.Metrics.Addr)
	assert.Equal(t, 30, cfg.Update.CoreWindowDays)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("PRISM_UPDATE_CORE_WINDOW_DAYS", "14")
	t.Setenv("PRISM_LOGGING_LEVEL", "warn")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 14, cfg.Update.CoreWindowDays)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := config.Config{
		Metrics: config.MetricsConfig{Enabled: true, Addr: ":9090"},
		Update:  config.UpdateConfig{CoreWindowDays: 90},
		Logging: config.LoggingConfig{Level: "info"},
	}

	require.NoError(t, valid.Validate())

	badWindow := valid
	badWindow.Update.CoreWindowDays = 0
	assert.ErrorIs(t, badWindow.Validate(), config.ErrInvalidCoreWindow)

	badAddr := valid
	badAddr.Metrics.Addr = ""
	assert.ErrorIs(t, badAddr.Validate(), config.ErrInvalidMetricsAddr)

	badLevel := valid
	badLevel.Logging.Level = "loud"
	assert.ErrorIs(t, badLevel.Validate(), config.ErrInvalidLogLevel)
}

func TestSlogLevel(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Logging: config.LoggingConfig{Level: "warn"}}

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}
