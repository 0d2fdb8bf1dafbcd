package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// loadFromEnv overrides config from TASKLIST_* environment variables.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	set := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}

	if v := os.Getenv("TASKLIST_BASE_URL"); v != "" {
		cfg.BaseURL = v
		set("base_url")
	}
	if v := os.Getenv("TASKLIST_REQUEST_TIMEOUT_SECONDS"); v != "" {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("TASKLIST_REQUEST_TIMEOUT_SECONDS: %w", err)
		}
		cfg.RequestTimeoutSeconds = i
		set("request_timeout_seconds")
	}
	if v := os.Getenv("TASKLIST_STRICT_RESPONSES"); v != "" {
		cfg.StrictResponses = boolFromString(v)
		set("strict_responses")
	}
	if v := os.Getenv("TASKLIST_LOG_DIR"); v != "" {
		cfg.LogDir = v
		set("log_dir")
	}

	// Logging configuration
	if v := os.Getenv("TASKLIST_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
		set("log_level")
	}
	if v := os.Getenv("TASKLIST_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
		set("log_format")
	}
	if v := os.Getenv("TASKLIST_LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
		set("log_timestamps")
	}
	if v := os.Getenv("TASKLIST_LOG_CALLER"); v != "" {
		cfg.LogCaller = boolFromString(v)
		set("log_caller")
	}

	if v := os.Getenv("TASKLIST_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
		set("metrics_addr")
	}
	return nil
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
