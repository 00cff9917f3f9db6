package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// OverrideFileName is the project-local config file merged over the
// user config, so a checked-out project can pin its own endpoint and
// scene without touching $XDG_CONFIG_HOME.
const OverrideFileName = "hostbridge.toml"

// MergeProjectOverride merges a project-local hostbridge.toml (found in
// cwd, or the process working directory when cwd is empty) over cfg.
// Only fields the override file actually sets win; absent fields keep
// the user-config value.
func MergeProjectOverride(cfg *Config, cwd string) error {
	if cfg == nil {
		return nil
	}
	if cwd == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
	}

	path := filepath.Join(cwd, OverrideFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking %s: %w", path, err)
	}

	over, err := LoadFrom(path)
	if err != nil {
		return fmt.Errorf("loading project override: %w", err)
	}

	if over.Endpoint != "" {
		cfg.Endpoint = over.Endpoint
	}
	if over.TokenFile != "" {
		cfg.TokenFile = over.TokenFile
	}
	if over.Scene != "" {
		cfg.Scene = over.Scene
	}
	if over.PendingFile != "" {
		cfg.PendingFile = over.PendingFile
	}
	if over.LogLevel != "" {
		cfg.LogLevel = over.LogLevel
	}
	if over.Heartbeat.Interval != "" {
		cfg.Heartbeat.Interval = over.Heartbeat.Interval
	}
	if over.Heartbeat.Timeout != "" {
		cfg.Heartbeat.Timeout = over.Heartbeat.Timeout
	}
	if over.Reconnect.InitialBackoff != "" {
		cfg.Reconnect.InitialBackoff = over.Reconnect.InitialBackoff
	}
	if over.Reconnect.MaxBackoff != "" {
		cfg.Reconnect.MaxBackoff = over.Reconnect.MaxBackoff
	}
	for key, ttl := range over.Cache {
		cfg.Cache[key] = ttl
	}
	return nil
}
