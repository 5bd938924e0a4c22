package config

import "time"

// Default values applied when the config file leaves a field unset.
const (
	DefaultTimeout              = 30 * time.Second
	DefaultReconnectDelay       = time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "console"
)

// Config is the top-level sitectl configuration.
type Config struct {
	BaseURL  string            `toml:"base_url"`
	Timeout  string            `toml:"timeout,omitempty"`
	Headers  map[string]string `toml:"headers,omitempty"`
	Realtime RealtimeConfig    `toml:"realtime"`
	Log      LogConfig         `toml:"log"`
}

// RealtimeConfig describes the event channel endpoint and its reconnect policy.
type RealtimeConfig struct {
	URL                  string `toml:"url,omitempty"`
	ReconnectDelay       string `toml:"reconnect_delay,omitempty"`
	MaxReconnectAttempts int    `toml:"max_reconnect_attempts,omitempty"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `toml:"level,omitempty"`
	Format string `toml:"format,omitempty"` // "console" or "json"
	File   string `toml:"file,omitempty"`
}

// RequestTimeout returns the parsed HTTP timeout or DefaultTimeout.
// Validate rejects unparsable values, so a parse failure here falls back silently.
func (c *Config) RequestTimeout() time.Duration {
	return parseDurationOr(c.Timeout, DefaultTimeout)
}

// Delay returns the base reconnect delay.
func (r RealtimeConfig) Delay() time.Duration {
	return parseDurationOr(r.ReconnectDelay, DefaultReconnectDelay)
}

// MaxAttempts returns the reconnect ceiling.
func (r RealtimeConfig) MaxAttempts() int {
	if r.MaxReconnectAttempts <= 0 {
		return DefaultMaxReconnectAttempts
	}
	return r.MaxReconnectAttempts
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		BaseURL: "http://localhost:8080",
		Timeout: DefaultTimeout.String(),
		Realtime: RealtimeConfig{
			ReconnectDelay:       DefaultReconnectDelay.String(),
			MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
