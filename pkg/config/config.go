package config

import (
	"fmt"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/mimir-aip/soil-texture/pkg/dataset"
	"github.com/mimir-aip/soil-texture/pkg/models"
)

// Config holds the application configuration
type Config struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"` // "json" or "text"
	Port        string `yaml:"port"`

	DatasetPath   string `yaml:"dataset_path"`
	Delimiter     string `yaml:"delimiter"`
	ClayColumn    string `yaml:"clay_column"`
	SiltColumn    string `yaml:"silt_column"`
	SandColumn    string `yaml:"sand_column"`
	TextureColumn string `yaml:"texture_column"`

	Training models.TrainingConfig `yaml:"training"`

	HistoryDBPath            string `yaml:"history_db_path"` // empty disables history
	HistoryRetentionDays     int    `yaml:"history_retention_days"`
	HistoryRetentionSchedule string `yaml:"history_retention_schedule"`
}

// Default returns the built-in configuration
func Default() *Config {
	ds := dataset.DefaultOptions()
	return &Config{
		Environment:              "development",
		LogLevel:                 "info",
		LogFormat:                "text",
		Port:                     "8080",
		DatasetPath:              "texture.csv",
		Delimiter:                string(ds.Delimiter),
		ClayColumn:               ds.ClayColumn,
		SiltColumn:               ds.SiltColumn,
		SandColumn:               ds.SandColumn,
		TextureColumn:            ds.TextureColumn,
		Training:                 models.DefaultTrainingConfig(),
		HistoryRetentionDays:     30,
		HistoryRetentionSchedule: "@daily",
	}
}

// LoadConfig loads configuration from environment variables. When
// SOIL_CONFIG_FILE is set, that YAML file is read first and the
// environment overrides it.
func LoadConfig() (*Config, error) {
	return Load(os.Getenv("SOIL_CONFIG_FILE"))
}

// Load reads the YAML file at path (if non-empty) over the defaults, then
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.Environment = getEnv("ENVIRONMENT", config.Environment)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
	config.LogFormat = getEnv("LOG_FORMAT", config.LogFormat)
	config.Port = getEnv("PORT", config.Port)
	config.DatasetPath = getEnv("DATASET_PATH", config.DatasetPath)
	config.Delimiter = getEnv("DATASET_DELIMITER", config.Delimiter)
	config.ClayColumn = getEnv("CLAY_COLUMN", config.ClayColumn)
	config.SiltColumn = getEnv("SILT_COLUMN", config.SiltColumn)
	config.SandColumn = getEnv("SAND_COLUMN", config.SandColumn)
	config.TextureColumn = getEnv("TEXTURE_COLUMN", config.TextureColumn)
	config.Training.RandomSeed = getEnvAsInt64("RANDOM_SEED", config.Training.RandomSeed)
	config.Training.NumTrees = getEnvAsInt("NUM_TREES", config.Training.NumTrees)
	config.Training.TestFraction = getEnvAsFloat("TEST_FRACTION", config.Training.TestFraction)
	config.Training.MaxDepth = getEnvAsInt("MAX_DEPTH", config.Training.MaxDepth)
	config.HistoryDBPath = getEnv("HISTORY_DB_PATH", config.HistoryDBPath)
	config.HistoryRetentionDays = getEnvAsInt("HISTORY_RETENTION_DAYS", config.HistoryRetentionDays)
	config.HistoryRetentionSchedule = getEnv("HISTORY_RETENTION_SCHEDULE", config.HistoryRetentionSchedule)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration for values the application cannot use
func (c *Config) Validate() error {
	if c.DatasetPath == "" {
		return fmt.Errorf("DATASET_PATH is required")
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got: %q", c.Delimiter)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log format must be json or text, got: %q", c.LogFormat)
	}
	if err := c.Training.Validate(); err != nil {
		return err
	}
	if c.HistoryRetentionDays < 0 {
		return fmt.Errorf("history retention days must not be negative, got %d", c.HistoryRetentionDays)
	}
	if c.HistoryRetentionSchedule != "" {
		if _, err := cron.ParseStandard(c.HistoryRetentionSchedule); err != nil {
			return fmt.Errorf("invalid history retention schedule: %w", err)
		}
	}
	return nil
}

// DatasetOptions returns the dataset layout described by the configuration
func (c *Config) DatasetOptions() dataset.Options {
	delimiter, _ := utf8.DecodeRuneInString(c.Delimiter)
	return dataset.Options{
		Delimiter:     delimiter,
		ClayColumn:    c.ClayColumn,
		SiltColumn:    c.SiltColumn,
		SandColumn:    c.SandColumn,
		TextureColumn: c.TextureColumn,
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
