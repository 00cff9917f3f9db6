// Package pending is the durable write-ahead store for commands that
// arrive while the host is about to tear down its runtime state. A
// command saved here survives the reset and is replayed through the
// router once the host signals readiness.
//
// Durability contract: the store file is deleted only after its
// contents have been read, so a crash between read and delete re-delivers
// on the next startup. Replay is therefore at-least-once; callers dedupe
// by command id.
package pending

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lydakis/hostbridge/internal/wire"
)

// Command is the durable, flattened form of a wire command.
type Command struct {
	CommandID   string          `json:"command_id"`
	Category    string          `json:"category"`
	Operation   string          `json:"operation"`
	PayloadJSON json.RawMessage `json:"payload_json,omitempty"`
	EnqueuedAt  int64           `json:"enqueued_at_millis"`
}

// ToWire rebuilds the wire command for replay.
func (c Command) ToWire() (*wire.Command, error) {
	cmd := &wire.Command{
		ID:        c.CommandID,
		Category:  c.Category,
		Operation: c.Operation,
	}
	if len(c.PayloadJSON) > 0 {
		if err := json.Unmarshal(c.PayloadJSON, &cmd.Payload); err != nil {
			return nil, fmt.Errorf("pending command %s: corrupt payload: %w", c.CommandID, err)
		}
	}
	return cmd, nil
}

// Store is a single-file FIFO of pending commands.
type Store struct {
	path string
	now  func() time.Time
}

// New creates a store backed by the given file path.
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Save appends a command to the store, creating the file if needed. The
// write is atomic (temp file + rename) so a crash mid-save never leaves
// a half-written store.
func (s *Store) Save(cmd *wire.Command) error {
	if cmd == nil {
		return fmt.Errorf("pending: nil command")
	}

	list, err := s.read()
	if err != nil {
		return err
	}

	var payload json.RawMessage
	if cmd.Payload != nil {
		payload, err = json.Marshal(cmd.Payload)
		if err != nil {
			return fmt.Errorf("pending: encoding payload for %s: %w", cmd.ID, err)
		}
	}

	list = append(list, Command{
		CommandID:   cmd.ID,
		Category:    cmd.Category,
		Operation:   cmd.Operation,
		PayloadJSON: payload,
		EnqueuedAt:  s.now().UnixMilli(),
	})
	return s.write(list)
}

// TakeAll returns every pending command in FIFO order and clears the
// store. The file delete is the last step: a crash before it re-delivers
// the same commands next time, never drops them.
func (s *Store) TakeAll() ([]Command, error) {
	list, err := s.read()
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("pending: clearing store: %w", err)
	}
	return list, nil
}

// List returns every pending command in FIFO order without consuming
// the store.
func (s *Store) List() ([]Command, error) {
	return s.read()
}

// HasPending reports whether any command is stored.
func (s *Store) HasPending() bool {
	list, err := s.read()
	return err == nil && len(list) > 0
}

// Clear removes the store file without reading it.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("pending: clearing store: %w", err)
	}
	return nil
}

func (s *Store) read() ([]Command, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pending: reading store: %w", err)
	}

	var list []Command
	if err := json.Unmarshal(data, &list); err != nil {
		// A corrupt store is quarantined, not silently discarded: the
		// bytes stay on disk for inspection and the bridge keeps working.
		quarantine := s.path + ".corrupt"
		if renameErr := os.Rename(s.path, quarantine); renameErr != nil {
			return nil, fmt.Errorf("pending: store corrupt and quarantine failed: %v (parse: %w)", renameErr, err)
		}
		return nil, fmt.Errorf("pending: store corrupt, moved to %s: %w", quarantine, err)
	}
	return list, nil
}

func (s *Store) write(list []Command) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("pending: encoding store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("pending: creating store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pending.json.tmp-*")
	if err != nil {
		return fmt.Errorf("pending: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("pending: setting permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("pending: writing store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("pending: syncing store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("pending: closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("pending: replacing store: %w", err)
	}
	cleanup = false
	return nil
}
