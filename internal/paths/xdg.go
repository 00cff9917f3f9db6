package paths

import (
	"os"
	"path/filepath"
)

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	h, _ := os.UserHomeDir()
	return h
}

func xdgDir(envVar, fallbackSuffix string) string {
	if v := os.Getenv(envVar); v != "" {
		return filepath.Join(v, "hostbridge")
	}
	return filepath.Join(homeDir(), fallbackSuffix, "hostbridge")
}

// ConfigDir returns the hostbridge config directory ($XDG_CONFIG_HOME/hostbridge).
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// CacheDir returns the hostbridge cache directory ($XDG_CACHE_HOME/hostbridge).
func CacheDir() string {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// StateDir returns the hostbridge state directory ($XDG_STATE_HOME/hostbridge).
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// RuntimeDir returns the hostbridge runtime directory for sockets and state.
// Falls back to $XDG_STATE_HOME/hostbridge if XDG_RUNTIME_DIR is unset.
func RuntimeDir() string {
	if v := os.Getenv("XDG_RUNTIME_DIR"); v != "" {
		return filepath.Join(v, "hostbridge")
	}
	return StateDir()
}

// ConfigFile returns the path to config.toml.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// TokenFile returns the path to the stored bearer token.
func TokenFile() string {
	return filepath.Join(ConfigDir(), "token")
}

// PendingFile returns the default path to the pending-command store.
// Lives under the state dir so it survives cache cleanup.
func PendingFile() string {
	return filepath.Join(StateDir(), "pending.json")
}

// SocketPath returns the path to the daemon control socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "daemon.sock")
}

// StatePath returns the path to the daemon state file (contains nonce).
func StatePath() string {
	return filepath.Join(RuntimeDir(), "daemon.state")
}

// LockPath returns the path to the daemon file lock.
func LockPath() string {
	return filepath.Join(RuntimeDir(), "daemon.lock")
}

// EnsureDir creates a directory and parents if needed.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0700)
}
