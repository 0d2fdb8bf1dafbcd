package config

import "time"

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest priority first.
	Files []string
	// Unknown lists keys found in config files that no field consumes.
	Unknown []string
}

// Default values.
const (
	DefaultBaseURL   = "http://localhost:8080"
	DefaultLogDir    = "~/.tasklist"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config holds the full configuration for tasklist.
type Config struct {
	// Backend
	BaseURL               string `toml:"base_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"` // 0 means no deadline
	StrictResponses       bool   `toml:"strict_responses"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Metrics endpoint, e.g. "127.0.0.1:9091". Empty disables it.
	MetricsAddr string `toml:"metrics_addr"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// RequestTimeout returns the per-request deadline, or zero for none.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"base_url",
		"request_timeout_seconds",
		"strict_responses",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"metrics_addr",
	}
}
