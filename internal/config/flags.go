package config

import (
	"flag"
)

// flagToSource maps flag names to source field names.
var flagToSource = map[string]string{
	"base-url":       "base_url",
	"timeout":        "request_timeout_seconds",
	"strict":         "strict_responses",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
	"metrics-addr":   "metrics_addr",
}

// parseFlags defines and parses CLI flags.
// Flags are bound to temporaries and only applied when set explicitly, so a
// flag's default never masks a value from a file or the environment.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("tasklist", flag.ContinueOnError)
	}

	baseURL := fs.String("base-url", cfg.BaseURL, "Task backend base URL")
	timeout := fs.Int("timeout", cfg.RequestTimeoutSeconds, "Request timeout in seconds (0 = none)")
	strict := fs.Bool("strict", cfg.StrictResponses, "Reject responses that do not match the task schema")
	logDir := fs.String("log-dir", cfg.LogDir, "Log directory")
	logLevel := fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	logTimestamps := fs.Bool("log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	logCaller := fs.Bool("log-caller", cfg.LogCaller, "Show caller location in logs")
	metricsAddr := fs.String("metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Track which flags were set and apply to config
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.BaseURL = *baseURL
		case "timeout":
			cfg.RequestTimeoutSeconds = *timeout
		case "strict":
			cfg.StrictResponses = *strict
		case "log-dir":
			cfg.LogDir = *logDir
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "log-timestamps":
			cfg.LogTimestamps = *logTimestamps
		case "log-caller":
			cfg.LogCaller = *logCaller
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		default:
			return
		}
		if sources != nil {
			sources[flagToSource[f.Name]] = SourceFlag
		}
	})

	return nil
}
