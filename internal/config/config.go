package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"assesstime/internal/errors"
)

// Config represents the complete process configuration
type Config struct {
	Paths    PathConfig
	Logging  LoggingConfig
	Pipeline PipelineConfig
}

// PathConfig holds file system paths
type PathConfig struct {
	InputFiles   []string
	OutputDir    string
	VariantsFile string
	MetricsFile  string
}

// LoggingConfig holds log settings
type LoggingConfig struct {
	Level string
}

// Load reads configuration from environment variables and validates it.
// Callers load a .env file first if they want one.
func Load() (*Config, error) {
	config := &Config{
		Paths:   *loadPathConfig(),
		Logging: LoggingConfig{Level: getEnvOrDefault("ASSESSTIME_LOG_LEVEL", "info")},
	}

	pipeline, err := loadPipelineConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load pipeline configuration")
	}
	config.Pipeline = *pipeline

	if err := config.Pipeline.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadPathConfig() *PathConfig {
	return &PathConfig{
		InputFiles:   getEnvListOrDefault("ASSESSTIME_INPUT", nil),
		OutputDir:    getEnvOrDefault("ASSESSTIME_OUTPUT_DIR", "out"),
		VariantsFile: getEnvOrDefault("ASSESSTIME_VARIANTS_FILE", ""),
		MetricsFile:  getEnvOrDefault("ASSESSTIME_METRICS_FILE", ""),
	}
}

func loadPipelineConfig() (*PipelineConfig, error) {
	p := Default()

	p.Schema.TimeFormat = getEnvOrDefault("ASSESSTIME_TIME_FORMAT", p.Schema.TimeFormat)
	p.Schema.Timezone = getEnvOrDefault("ASSESSTIME_TIMEZONE", p.Schema.Timezone)
	p.Schema.Delimiter = getEnvOrDefault("ASSESSTIME_DELIMITER", p.Schema.Delimiter)
	p.Schema.Sheet = getEnvOrDefault("ASSESSTIME_SHEET", p.Schema.Sheet)

	p.Funnel.FilterPauses = getEnvBoolOrDefault("ASSESSTIME_FILTER_PAUSES", p.Funnel.FilterPauses)
	p.Funnel.CompleteActionLabel = getEnvOrDefault("ASSESSTIME_COMPLETE_LABEL", p.Funnel.CompleteActionLabel)
	p.Funnel.CompleteMatch = MatchMode(getEnvOrDefault("ASSESSTIME_COMPLETE_MATCH", string(p.Funnel.CompleteMatch)))
	p.Funnel.SameDayOnly = getEnvBoolOrDefault("ASSESSTIME_SAME_DAY", p.Funnel.SameDayOnly)
	p.Funnel.MinDuration = getEnvDurationOrDefault("ASSESSTIME_MIN_DURATION", p.Funnel.MinDuration)
	p.Funnel.MaxDuration = getEnvDurationOrDefault("ASSESSTIME_MAX_DURATION", p.Funnel.MaxDuration)
	p.Funnel.GroupBy = GroupBy(getEnvOrDefault("ASSESSTIME_GROUP_BY", string(p.Funnel.GroupBy)))

	p.Summary.HistogramBinWidth = getEnvDurationOrDefault("ASSESSTIME_BIN_WIDTH", p.Summary.HistogramBinWidth)

	if v := os.Getenv("ASSESSTIME_MIN_DURATION"); v != "" {
		if _, err := time.ParseDuration(v); err != nil {
			return nil, errors.ConfigInvalid("ASSESSTIME_MIN_DURATION is not a duration: " + v)
		}
	}
	if v := os.Getenv("ASSESSTIME_MAX_DURATION"); v != "" {
		if _, err := time.ParseDuration(v); err != nil {
			return nil, errors.ConfigInvalid("ASSESSTIME_MAX_DURATION is not a duration: " + v)
		}
	}

	return &p, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
