// Package cache persists dispatch results as JSON blobs on disk so repeated
// read-only queries skip the nix tooling entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

// FileCache stores cache entries addressed by the hash of their key. Entries
// expire by their own TTL, falling back to the cache-wide default.
type FileCache struct {
	dir string

	mu       sync.Mutex
	settings domain.CacheSettings

	// now is overridable for testing.
	now func() time.Time
}

// NewFileCache returns a cache rooted at dir, usually <data dir>/cache.
func NewFileCache(dir string, settings domain.CacheSettings) *FileCache {
	if settings.TTL <= 0 {
		settings.TTL = domain.DefaultCacheTTL
	}
	if settings.MaxEntries <= 0 {
		settings.MaxEntries = domain.DefaultMaxCacheEntries
	}
	return &FileCache{dir: dir, settings: settings, now: time.Now}
}

// Get retrieves a live cache entry. Expired entries are removed on read.
func (c *FileCache) Get(key string) (domain.CacheEntry, bool, error) {
	if key == "" {
		return domain.CacheEntry{}, false, nil
	}
	path := c.pathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.CacheEntry{}, false, nil
		}
		return domain.CacheEntry{}, false, err
	}
	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt blob is treated as a miss, not an error.
		_ = os.Remove(path)
		return domain.CacheEntry{}, false, nil
	}
	if c.expired(entry) {
		_ = os.Remove(path)
		return domain.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Set stores a cache entry and evicts the oldest files past the entry limit.
func (c *FileCache) Set(entry domain.CacheEntry) error {
	if entry.Key == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.dir, domain.DirectoryPermissions); err != nil {
		return err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.now()
	}
	// Entries carry the TTL they were written under so later Update calls
	// only affect new entries.
	if entry.TTL <= 0 {
		entry.TTL = c.settings.TTL
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.pathFor(entry.Key), data, 0o644); err != nil {
		return err
	}
	return c.evictIfNeeded()
}

// Entries lists live cache entries (best-effort).
func (c *FileCache) Entries() ([]domain.CacheEntry, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []domain.CacheEntry
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, f.Name()))
		if err != nil {
			continue
		}
		var entry domain.CacheEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if c.expired(entry) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Clear removes every cached entry.
func (c *FileCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Dir exposes the cache directory path.
func (c *FileCache) Dir() string {
	return c.dir
}

// Settings returns the current cache-wide defaults.
func (c *FileCache) Settings() domain.CacheSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Update replaces the cache-wide defaults. Existing entries keep the TTL
// they were written with.
func (c *FileCache) Update(settings domain.CacheSettings) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if settings.TTL > 0 {
		c.settings.TTL = settings.TTL
	}
	if settings.MaxEntries > 0 {
		c.settings.MaxEntries = settings.MaxEntries
	}
	return nil
}

func (c *FileCache) expired(entry domain.CacheEntry) bool {
	if entry.TTL > 0 {
		return entry.Expired(c.now())
	}
	ttl := c.settings.TTL
	if ttl <= 0 {
		return false
	}
	return c.now().Sub(entry.CreatedAt) > ttl
}

func (c *FileCache) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

func (c *FileCache) evictIfNeeded() error {
	max := c.settings.MaxEntries
	if max <= 0 {
		return nil
	}
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	type fileInfo struct {
		name string
		mod  time.Time
	}
	var infos []fileInfo
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo{name: f.Name(), mod: info.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].mod.Before(infos[j].mod) })
	for len(infos) > max {
		old := infos[0]
		_ = os.Remove(filepath.Join(c.dir, old.name))
		infos = infos[1:]
	}
	return nil
}

var _ ports.CacheRepository = (*FileCache)(nil)
