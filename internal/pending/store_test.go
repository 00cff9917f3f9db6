package pending

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lydakis/hostbridge/internal/wire"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "pending.json"))
}

func TestEmptyStoreHasNothingPending(t *testing.T) {
	s := testStore(t)
	assert.False(t, s.HasPending())

	list, err := s.TakeAll()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaveTakeAllFIFO(t *testing.T) {
	s := testStore(t)

	for _, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, s.Save(&wire.Command{
			ID:        id,
			Category:  "transform",
			Operation: "set",
			Payload:   map[string]any{"position": map[string]any{"x": 1.0}},
		}))
	}
	assert.True(t, s.HasPending())

	list, err := s.TakeAll()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c1", list[0].CommandID)
	assert.Equal(t, "c2", list[1].CommandID)
	assert.Equal(t, "c3", list[2].CommandID)
	assert.NotZero(t, list[0].EnqueuedAt)

	assert.False(t, s.HasPending(), "TakeAll must clear the store")

	again, err := s.TakeAll()
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestPendingRoundTripToWire(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Save(&wire.Command{
		ID:        "c9",
		Category:  "object",
		Operation: "set",
		Payload:   map[string]any{"health": 50.0},
	}))

	list, err := s.TakeAll()
	require.NoError(t, err)
	require.Len(t, list, 1)

	cmd, err := list[0].ToWire()
	require.NoError(t, err)
	assert.Equal(t, "c9", cmd.ID)
	assert.Equal(t, "object", cmd.Category)
	assert.Equal(t, 50.0, cmd.Payload["health"])
}

func TestSaveWithoutPayload(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Save(&wire.Command{ID: "np", Category: "bridge", Operation: "ping"}))

	list, err := s.TakeAll()
	require.NoError(t, err)
	require.Len(t, list, 1)

	cmd, err := list[0].ToWire()
	require.NoError(t, err)
	assert.Nil(t, cmd.Payload)
}

func TestSaveNilCommand(t *testing.T) {
	s := testStore(t)
	assert.Error(t, s.Save(nil))
}

func TestCorruptStoreQuarantined(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pending.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	s := New(path)
	_, err := s.TakeAll()
	require.Error(t, err)

	_, statErr := os.Stat(path + ".corrupt")
	assert.NoError(t, statErr, "corrupt store must be quarantined, not deleted")
	_, statErr = os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestClear(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Save(&wire.Command{ID: "x", Category: "a", Operation: "b"}))
	require.NoError(t, s.Clear())
	assert.False(t, s.HasPending())
	require.NoError(t, s.Clear(), "clearing an empty store is fine")
}

func TestStoreFilePermissions(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Save(&wire.Command{ID: "x", Category: "a", Operation: "b"}))

	info, err := os.Stat(s.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
