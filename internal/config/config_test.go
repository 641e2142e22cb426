package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.airtable.com/v0", cfg.Airtable.BaseURL)
	assert.Equal(t, "Scraped Leads (Universal)", cfg.Airtable.LeadsTable)
	assert.Equal(t, "Integration Test Log", cfg.Airtable.EventsTable)
	assert.Equal(t, "https://api.apollo.io", cfg.Apollo.BaseURL)
	assert.Equal(t, 10, cfg.Apollo.TimeoutSecs)
	assert.InDelta(t, 5.0, cfg.HubSpot.RateRPS, 0.001)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "leadflow.db", cfg.Store.SQLitePath)
	assert.Equal(t, 1000, cfg.Pipeline.ItemIntervalMS)
	assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 100, cfg.Batch.Limit)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
airtable:
  key: key-from-file
  base_id: appFILE
store:
  driver: postgres
  database_url: postgres://localhost/leadflow
log:
  level: debug
  format: console
pipeline:
  item_interval_ms: 250
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "key-from-file", cfg.Airtable.Key)
	assert.Equal(t, "appFILE", cfg.Airtable.BaseID)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 250, cfg.Pipeline.ItemIntervalMS)
	// Defaults still apply for unset values
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
airtable:
  key: key-from-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADFLOW_AIRTABLE_KEY", "key-from-env")
	t.Setenv("LEADFLOW_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "key-from-env", cfg.Airtable.Key)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestItemInterval(t *testing.T) {
	t.Parallel()

	c := PipelineConfig{ItemIntervalMS: 1000}
	assert.Equal(t, time.Second, c.ItemInterval())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "airtable.key")
	assert.Contains(t, err.Error(), "airtable.base_id")

	cfg.Airtable.Key = "key"
	cfg.Airtable.BaseID = "appX"
	assert.NoError(t, cfg.Validate())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
}

func TestInitLoggerBadLevel(t *testing.T) {
	require.Error(t, InitLogger(LogConfig{Level: "verbose", Format: "json"}))
}
