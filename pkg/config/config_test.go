package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so the host environment does
// not leak into the tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "LOG_LEVEL", "LOG_FORMAT", "PORT",
		"DATASET_PATH", "DATASET_DELIMITER",
		"CLAY_COLUMN", "SILT_COLUMN", "SAND_COLUMN", "TEXTURE_COLUMN",
		"RANDOM_SEED", "NUM_TREES", "TEST_FRACTION", "MAX_DEPTH",
		"HISTORY_DB_PATH", "HISTORY_RETENTION_DAYS", "HISTORY_RETENTION_SCHEDULE",
		"SOIL_CONFIG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, "text", config.LogFormat)
	assert.Equal(t, "8080", config.Port)
	assert.Equal(t, "texture.csv", config.DatasetPath)
	assert.Equal(t, ";", config.Delimiter)
	assert.Equal(t, int64(42), config.Training.RandomSeed)
	assert.Equal(t, 100, config.Training.NumTrees)
	assert.Equal(t, 0.2, config.Training.TestFraction)
	assert.Equal(t, 0, config.Training.MaxDepth)
	assert.Empty(t, config.HistoryDBPath)
	assert.Equal(t, 30, config.HistoryRetentionDays)
	assert.Equal(t, "@daily", config.HistoryRetentionSchedule)

	opts := config.DatasetOptions()
	assert.Equal(t, ';', opts.Delimiter)
	assert.Equal(t, "Argile(%)", opts.ClayColumn)
	assert.Equal(t, "Soil Texture", opts.TextureColumn)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("PORT", "9090")
	t.Setenv("DATASET_PATH", "/data/soils.csv")
	t.Setenv("DATASET_DELIMITER", ",")
	t.Setenv("RANDOM_SEED", "7")
	t.Setenv("NUM_TREES", "250")
	t.Setenv("TEST_FRACTION", "0.3")
	t.Setenv("MAX_DEPTH", "12")
	t.Setenv("HISTORY_DB_PATH", "/var/lib/soil/history.db")
	t.Setenv("HISTORY_RETENTION_DAYS", "7")
	t.Setenv("HISTORY_RETENTION_SCHEDULE", "0 3 * * *")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, "json", config.LogFormat)
	assert.Equal(t, "9090", config.Port)
	assert.Equal(t, "/data/soils.csv", config.DatasetPath)
	assert.Equal(t, ',', config.DatasetOptions().Delimiter)
	assert.Equal(t, int64(7), config.Training.RandomSeed)
	assert.Equal(t, 250, config.Training.NumTrees)
	assert.Equal(t, 0.3, config.Training.TestFraction)
	assert.Equal(t, 12, config.Training.MaxDepth)
	assert.Equal(t, "/var/lib/soil/history.db", config.HistoryDBPath)
	assert.Equal(t, 7, config.HistoryRetentionDays)
	assert.Equal(t, "0 3 * * *", config.HistoryRetentionSchedule)
}

func TestLoadConfigInvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("NUM_TREES", "lots")
	t.Setenv("TEST_FRACTION", "a fifth")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 100, config.Training.NumTrees)
	assert.Equal(t, 0.2, config.Training.TestFraction)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "soil.yaml")
	yaml := `
log_level: debug
dataset_path: /srv/texture.csv
clay_column: clay
training:
  test_fraction: 0.25
  random_seed: 1234
  num_trees: 50
  max_depth: 8
  min_samples_split: 2
  min_samples_leaf: 1
history_db_path: history.db
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("SOIL_CONFIG_FILE", path)
	t.Setenv("NUM_TREES", "75") // environment wins over the file

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "/srv/texture.csv", config.DatasetPath)
	assert.Equal(t, "clay", config.ClayColumn)
	assert.Equal(t, "Limon(%)", config.SiltColumn, "unset keys keep their defaults")
	assert.Equal(t, 0.25, config.Training.TestFraction)
	assert.Equal(t, int64(1234), config.Training.RandomSeed)
	assert.Equal(t, 75, config.Training.NumTrees)
	assert.Equal(t, 8, config.Training.MaxDepth)
	assert.Equal(t, "history.db", config.HistoryDBPath)
}

func TestLoadConfigFileErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("training: [not, a, map]\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty dataset path", func(c *Config) { c.DatasetPath = "" }},
		{"multi-character delimiter", func(c *Config) { c.Delimiter = ";;" }},
		{"empty delimiter", func(c *Config) { c.Delimiter = "" }},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }},
		{"zero test fraction", func(c *Config) { c.Training.TestFraction = 0 }},
		{"whole test fraction", func(c *Config) { c.Training.TestFraction = 1 }},
		{"no trees", func(c *Config) { c.Training.NumTrees = 0 }},
		{"negative depth", func(c *Config) { c.Training.MaxDepth = -1 }},
		{"negative retention", func(c *Config) { c.HistoryRetentionDays = -1 }},
		{"bad schedule", func(c *Config) { c.HistoryRetentionSchedule = "every tuesday" }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
