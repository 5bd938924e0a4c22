package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// Validate checks configuration invariants and returns actionable errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var errs []error
	errs = append(errs, validateBaseURL(cfg.BaseURL)...)
	errs = append(errs, validateDuration("timeout", cfg.Timeout)...)
	errs = append(errs, validateRealtime(cfg.Realtime)...)
	errs = append(errs, validateLog(cfg.Log)...)
	return errors.Join(errs...)
}

func validateBaseURL(raw string) []error {
	if strings.TrimSpace(raw) == "" {
		return []error{errors.New("base_url: missing, set the site origin (for example https://example.com)")}
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return []error{fmt.Errorf("base_url: invalid URL %q: %w", raw, err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return []error{fmt.Errorf("base_url: scheme must be http or https, got %q", u.Scheme)}
	}
	return nil
}

func validateDuration(field, raw string) []error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)}
	}
	if d <= 0 {
		return []error{fmt.Errorf("%s: must be > 0, got %q", field, raw)}
	}
	return nil
}

func validateRealtime(rt RealtimeConfig) []error {
	var errs []error
	if rt.URL != "" {
		u, err := url.ParseRequestURI(rt.URL)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("realtime.url: invalid URL %q: %w", rt.URL, err))
		case u.Scheme != "ws" && u.Scheme != "wss":
			errs = append(errs, fmt.Errorf("realtime.url: scheme must be ws or wss, got %q", u.Scheme))
		}
	}
	errs = append(errs, validateDuration("realtime.reconnect_delay", rt.ReconnectDelay)...)
	if rt.MaxReconnectAttempts < 0 {
		errs = append(errs, fmt.Errorf("realtime.max_reconnect_attempts: must be >= 0, got %d", rt.MaxReconnectAttempts))
	}
	return errs
}

func validateLog(lc LogConfig) []error {
	var errs []error
	if lc.Level != "" {
		if _, err := zapcore.ParseLevel(lc.Level); err != nil {
			errs = append(errs, fmt.Errorf("log.level: %w", err))
		}
	}
	switch lc.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be console or json, got %q", lc.Format))
	}
	return errs
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of cfg.
func Clone(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	cloned := *cfg
	cloned.Headers = cloneStringMap(cfg.Headers)
	return &cloned
}
