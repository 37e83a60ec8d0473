package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// entry is the on-disk representation of one cached response.
type entry struct {
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cache is a file-backed response cache. The zero value is disabled.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// New creates a Cache rooted at dir. An empty dir selects the default
// location under the user cache directory.
func New(enabled bool, dir string, ttl time.Duration) (*Cache, error) {
	if !enabled {
		return &Cache{}, nil
	}
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolving cache directory: %w", err)
		}
		dir = filepath.Join(base, "magic-pipe")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl, enabled: true}, nil
}

// Key derives the cache key for one review call.
func Key(backendName, model, prompt string) string {
	h := sha256.Sum256([]byte(backendName + "\x00" + model + "\x00" + prompt))
	return fmt.Sprintf("%x", h)
}

// Get returns the cached body for key, or ("", false) on miss or expiry.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return "", false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return "", false
	}
	if c.ttl > 0 && time.Since(e.CreatedAt) > c.ttl {
		os.Remove(c.path(key))
		return "", false
	}
	return e.Body, true
}

// Put stores body under key. Failures are returned but callers may treat
// them as advisory: a broken cache must not fail a review run.
func (c *Cache) Put(key, body string) error {
	if !c.enabled {
		return nil
	}
	data, err := json.Marshal(entry{Body: body, CreatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return os.WriteFile(c.path(key), data, 0o644)
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if !c.enabled || c.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			os.Remove(filepath.Join(c.dir, e.Name()))
		}
	}
	return nil
}

// Dir returns the cache directory, empty when disabled.
func (c *Cache) Dir() string { return c.dir }

// Enabled reports whether the cache is active.
func (c *Cache) Enabled() bool { return c.enabled }

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
