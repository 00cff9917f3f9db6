// Package cache stores responses of read-only bridge operations on
// disk so repeated lookups (object.find, object.members) skip a round
// trip through the run loop.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lydakis/hostbridge/internal/paths"
)

type entry struct {
	Result  json.RawMessage `json:"result"`
	Created time.Time       `json:"created"`
	Expires time.Time       `json:"expires"`
}

// Get looks up a cached result. Returns false if not found or expired.
func Get(category, operation string, payload json.RawMessage) (json.RawMessage, bool) {
	e, _, ok := getEntry(category, operation, payload)
	if !ok {
		return nil, false
	}
	return e.Result, true
}

// GetMetadata returns cache age and ttl when a valid entry exists.
func GetMetadata(category, operation string, payload json.RawMessage) (time.Duration, time.Duration, bool) {
	e, path, ok := getEntry(category, operation, payload)
	if !ok {
		return 0, 0, false
	}

	created := e.Created
	if created.IsZero() {
		if st, err := os.Stat(path); err == nil {
			created = st.ModTime()
		}
	}
	if created.IsZero() {
		created = e.Expires
	}

	ttl := e.Expires.Sub(created)
	if ttl < 0 {
		ttl = 0
	}

	age := time.Since(created)
	if age < 0 {
		age = 0
	}

	return age, ttl, true
}

// Put stores a result in the cache.
func Put(category, operation string, payload json.RawMessage, result json.RawMessage, ttl time.Duration) error {
	dir := cacheDir()
	if err := paths.EnsureDir(dir); err != nil {
		return err
	}

	now := time.Now()
	e := entry{
		Result:  result,
		Created: now,
		Expires: now.Add(ttl),
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return os.WriteFile(entryPath(category, operation, payload), data, 0600)
}

// Clear removes every cached entry. Called on bridge reset since the
// object graph the entries describe no longer exists.
func Clear() error {
	dir := cacheDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(dir, ent.Name())); err != nil {
			return err
		}
	}
	return nil
}

func getEntry(category, operation string, payload json.RawMessage) (entry, string, bool) {
	path := entryPath(category, operation, payload)
	data, err := os.ReadFile(path)
	if err != nil {
		return entry{}, path, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		_ = os.Remove(path)
		return entry{}, path, false
	}

	if time.Now().After(e.Expires) {
		_ = os.Remove(path)
		return entry{}, path, false
	}

	return e, path, true
}

func entryPath(category, operation string, payload json.RawMessage) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s", category, operation, string(payload))
	key := hex.EncodeToString(h.Sum(nil))[:32]
	return filepath.Join(cacheDir(), key+".json")
}

func cacheDir() string {
	return filepath.Join(paths.CacheDir(), "responses")
}
