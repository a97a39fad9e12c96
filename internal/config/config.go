package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Observatory string
	Year        int
	Month       time.Month

	DataDir   string
	OutputDir string

	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Fusion policy overrides.
	CloudThreshold float64
	MinElevation   int64
}

// Load reads configuration from environment variables, applying defaults where
// unset.
func Load() (*Config, error) {
	year, err := parseIntEnv("OBS_YEAR", 0)
	if err != nil {
		return nil, err
	}
	month, err := parseIntEnv("OBS_MONTH", 0)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	threshold, err := parseFloatEnv("CLOUD_THRESHOLD", 0.5)
	if err != nil {
		return nil, err
	}
	minElevation, err := parseIntEnv("MIN_ELEVATION", 500)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Observatory: envOrDefault("OBSERVATORY", ""),
		Year:        year,
		Month:       time.Month(month),

		DataDir:   envOrDefault("DATA_DIR", "data"),
		OutputDir: envOrDefault("OUTPUT_DIR", "out"),

		KafkaBrokers:   splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "cloud-layer-events"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CloudThreshold: threshold,
		MinElevation:   int64(minElevation),
	}

	if cfg.Observatory == "" {
		return nil, errors.New("OBSERVATORY is required")
	}
	if cfg.Year < 1980 || cfg.Year > 2100 {
		return nil, fmt.Errorf("OBS_YEAR %d outside the supported range", cfg.Year)
	}
	if cfg.Month < time.January || cfg.Month > time.December {
		return nil, fmt.Errorf("OBS_MONTH %d is not a calendar month", int(cfg.Month))
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.CloudThreshold <= 0 || cfg.CloudThreshold > 1 {
		return nil, errors.New("CLOUD_THRESHOLD must be in (0, 1]")
	}
	if cfg.MinElevation < 0 {
		return nil, errors.New("MIN_ELEVATION must not be negative")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIntEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseFloatEnv(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}
