package config

import (
	"strconv"
)

// Entry is one resolved setting and where its value came from.
type Entry struct {
	Key    string
	Value  string
	Source ConfigSource
}

// Entries lists every setting in file order with its effective value.
func (cws *ConfigWithSources) Entries() []Entry {
	entries := make([]Entry, 0, len(configFields()))
	for _, key := range configFields() {
		source := SourceDefault
		if cws.Sources != nil {
			if s, ok := cws.Sources[key]; ok {
				source = s
			}
		}
		entries = append(entries, Entry{
			Key:    key,
			Value:  cws.Config.value(key),
			Source: source,
		})
	}
	return entries
}

func (c *Config) value(key string) string {
	switch key {
	case "base_url":
		return c.BaseURL
	case "request_timeout_seconds":
		return strconv.Itoa(c.RequestTimeoutSeconds)
	case "strict_responses":
		return strconv.FormatBool(c.StrictResponses)
	case "log_dir":
		return c.LogDir
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return strconv.FormatBool(c.LogTimestamps)
	case "log_caller":
		return strconv.FormatBool(c.LogCaller)
	case "metrics_addr":
		return c.MetricsAddr
	}
	return ""
}
