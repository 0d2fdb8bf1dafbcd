package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasklist configuration file
# Values can be overridden by TASKLIST_* environment variables or CLI flags

# Task backend serving GET /todo and POST /add
base_url = "http://localhost:8080"

# Per-request timeout in seconds (0 = wait as long as it takes)
request_timeout_seconds = 0

# Reject backend responses that do not match the task schema
strict_responses = false

# Log directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.tasklist"

# Logging: level (debug, info, warn, error), format (text, json, logfmt)
log_level = "info"
log_format = "text"
log_timestamps = false
log_caller = false

# Serve Prometheus metrics while running (empty = disabled)
# metrics_addr = "127.0.0.1:9091"
`
}
