package config

import (
	"fmt"
	"net"
	"time"
)

// Validate checks a loaded config for problems a daemon start would
// otherwise hit halfway through.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if cfg.Endpoint == "" {
		return fmt.Errorf("endpoint is required (host:port of the automation endpoint)")
	}
	if _, _, err := net.SplitHostPort(cfg.Endpoint); err != nil {
		return fmt.Errorf("endpoint %q is not host:port: %w", cfg.Endpoint, err)
	}

	for name, raw := range map[string]string{
		"heartbeat.interval":        cfg.Heartbeat.Interval,
		"heartbeat.timeout":         cfg.Heartbeat.Timeout,
		"reconnect.initial_backoff": cfg.Reconnect.InitialBackoff,
		"reconnect.max_backoff":     cfg.Reconnect.MaxBackoff,
	} {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%s: invalid duration %q", name, raw)
		}
		if d <= 0 {
			return fmt.Errorf("%s: duration must be positive, got %q", name, raw)
		}
	}

	if cfg.HeartbeatTimeout() <= cfg.HeartbeatInterval() {
		return fmt.Errorf("heartbeat.timeout (%s) must exceed heartbeat.interval (%s)",
			cfg.HeartbeatTimeout(), cfg.HeartbeatInterval())
	}

	for key, raw := range cfg.Cache {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("cache.%s: invalid TTL %q", key, raw)
		}
		if d <= 0 {
			return fmt.Errorf("cache.%s: TTL must be positive, got %q", key, raw)
		}
	}
	return nil
}
