package config

import "time"

// Defaults applied when the config file omits a setting.
const (
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultHeartbeatTimeout  = 15 * time.Second
	DefaultInitialBackoff    = time.Second
	DefaultMaxBackoff        = 30 * time.Second
)

// Config is the top-level hostbridge configuration.
type Config struct {
	// Endpoint is the automation endpoint the session manager dials,
	// host:port.
	Endpoint string `toml:"endpoint"`

	// TokenFile overrides the default stored-token path. The
	// HOSTBRIDGE_TOKEN environment variable always wins over the file.
	TokenFile string `toml:"token_file"`

	// Scene is the path to a YAML scene fixture the reference daemon
	// serves. Empty means an empty graph.
	Scene string `toml:"scene"`

	// PendingFile overrides the default pending-command store path.
	PendingFile string `toml:"pending_file"`

	// LogLevel is a zap level string ("debug", "info", "warn", "error").
	LogLevel string `toml:"log_level"`

	Heartbeat HeartbeatConfig `toml:"heartbeat"`
	Reconnect ReconnectConfig `toml:"reconnect"`

	// Cache maps "category.operation" to a TTL string for read-only
	// operations served from the response cache.
	Cache map[string]string `toml:"cache"`
}

// HeartbeatConfig tunes the session keepalive. Durations are strings
// ("5s") so configs stay readable.
type HeartbeatConfig struct {
	Interval string `toml:"interval"`
	Timeout  string `toml:"timeout"`
}

// ReconnectConfig tunes reconnection backoff.
type ReconnectConfig struct {
	InitialBackoff string `toml:"initial_backoff"`
	MaxBackoff     string `toml:"max_backoff"`
}

// HeartbeatInterval returns the parsed interval or the default.
func (c *Config) HeartbeatInterval() time.Duration {
	return durationOr(c.Heartbeat.Interval, DefaultHeartbeatInterval)
}

// HeartbeatTimeout returns the parsed timeout or the default.
func (c *Config) HeartbeatTimeout() time.Duration {
	return durationOr(c.Heartbeat.Timeout, DefaultHeartbeatTimeout)
}

// InitialBackoff returns the parsed initial backoff or the default.
func (c *Config) InitialBackoff() time.Duration {
	return durationOr(c.Reconnect.InitialBackoff, DefaultInitialBackoff)
}

// MaxBackoff returns the parsed backoff cap or the default.
func (c *Config) MaxBackoff() time.Duration {
	return durationOr(c.Reconnect.MaxBackoff, DefaultMaxBackoff)
}

// CacheTTL returns the configured TTL for "category.operation", or
// false when the operation is not cacheable.
func (c *Config) CacheTTL(category, operation string) (time.Duration, bool) {
	raw, ok := c.Cache[category+"."+operation]
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
