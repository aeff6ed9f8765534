package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DATA_DIR", "DATASET_FILE", "LEDGER_FILE", "CONFIG_FILE", "DEBUG", "POSTGRES_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, filepath.Join("data", "usedcars_dataset.csv"), cfg.DatasetPath())
	assert.Equal(t, filepath.Join("data", "added_batches.json"), cfg.LedgerPath())
	assert.Equal(t, ".csv", cfg.BatchExt)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.PostgresEnabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATA_DIR", "/srv/cars")
	t.Setenv("DEBUG", "yes")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/cars", cfg.DataDir)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 5, cfg.MaxRetries)
}

func TestLoadAppliesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data:
  dir: /tmp/usedcars
  dataset_file: cars.csv
listing_prefix: /offers/
header_aliases:
  Km_percorsi: Chilometraggio
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATA_DIR", "")
	t.Setenv("LEDGER_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/usedcars", cfg.DataDir)
	assert.Equal(t, "cars.csv", cfg.DatasetFile)
	assert.Equal(t, "added_batches.json", cfg.LedgerFile)
	assert.Equal(t, "/offers/", cfg.ListingPrefix)
	assert.Equal(t, map[string]string{"Km_percorsi": "Chilometraggio"}, cfg.HeaderAliases)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("data: [unclosed"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db", PostgresPort: "5433", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "cars", PostgresSSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=cars sslmode=disable", cfg.DSN())
}
