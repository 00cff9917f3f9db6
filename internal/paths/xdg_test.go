package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXDGOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/conf")
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	t.Setenv("XDG_RUNTIME_DIR", "/tmp/run")

	assert.Equal(t, filepath.Join("/tmp/conf", "hostbridge"), ConfigDir())
	assert.Equal(t, filepath.Join("/tmp/cache", "hostbridge"), CacheDir())
	assert.Equal(t, filepath.Join("/tmp/state", "hostbridge"), StateDir())
	assert.Equal(t, filepath.Join("/tmp/run", "hostbridge"), RuntimeDir())
}

func TestHomeFallbacks(t *testing.T) {
	t.Setenv("HOME", "/home/u")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("XDG_RUNTIME_DIR", "")

	assert.Equal(t, "/home/u/.config/hostbridge/config.toml", ConfigFile())
	assert.Equal(t, "/home/u/.config/hostbridge/token", TokenFile())
	assert.Equal(t, "/home/u/.local/state/hostbridge/pending.json", PendingFile())
	assert.Equal(t, "/home/u/.local/state/hostbridge/daemon.sock", SocketPath())
}
