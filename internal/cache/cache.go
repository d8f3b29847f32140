// Package cache persists synthesis outcomes across runs, keyed by the
// emitted program.
package cache

import (
	"crypto/md5"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gnolang/ruslic/internal/types"
)

const cacheFile = "synth_cache.gob"

type Entry struct {
	Result       types.SynthesisResult
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Cache maps program digests to outcomes. An entry is stale once it is
// older than the maximum age or a dependency file (the synthesizer itself)
// has changed since the cache was opened.
type Cache struct {
	Dir              string
	entries          map[string]Entry
	mutex            sync.Mutex
	maxAge           time.Duration
	dependencyFiles  []string
	dependencyHashes map[string]string
}

func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		Dir:              dir,
		entries:          make(map[string]Entry),
		maxAge:           7 * 24 * time.Hour,
		dependencyHashes: make(map[string]string),
	}
	if err := c.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}
	return c, nil
}

func (c *Cache) load() error {
	file, err := os.Open(filepath.Join(c.Dir, cacheFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(&c.entries); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}
	return nil
}

func (c *Cache) save() error {
	file, err := os.Create(filepath.Join(c.Dir, cacheFile))
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(c.entries); err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}
	return nil
}

// Key digests everything that determines an outcome: the program text and
// the synthesizer flags.
func Key(program, params string) string {
	h := md5.New()
	io.WriteString(h, params)
	io.WriteString(h, "\x00")
	io.WriteString(h, program)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Cacheable reports whether an outcome is reproducible. Timeouts depend on
// the time budget and machine load, unsupported goals never reach the
// synthesizer.
func Cacheable(r types.SynthesisResult) bool {
	return r.Kind == types.KindSolved || r.Kind == types.KindUnsolvable
}

func (c *Cache) Set(key string, r types.SynthesisResult) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	c.entries[key] = Entry{Result: r, CreatedAt: now, LastAccessed: now}
	return c.save()
}

func (c *Cache) Get(key string) (types.SynthesisResult, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return types.SynthesisResult{}, false
	}
	if c.isEntryInvalid(entry) {
		delete(c.entries, key)
		return types.SynthesisResult{}, false
	}
	entry.LastAccessed = time.Now()
	c.entries[key] = entry
	return entry.Result, true
}

func (c *Cache) isEntryInvalid(entry Entry) bool {
	if time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}
	return c.haveDependenciesChanged()
}

// SetDependencies records the current hashes of files whose change
// invalidates every entry.
func (c *Cache) SetDependencies(files ...string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	hashes := make(map[string]string, len(files))
	for _, file := range files {
		hash, err := fileHash(file)
		if err != nil {
			return fmt.Errorf("failed to get hash for %s: %w", file, err)
		}
		hashes[file] = hash
	}
	c.dependencyFiles = files
	c.dependencyHashes = hashes
	return nil
}

func (c *Cache) haveDependenciesChanged() bool {
	for _, file := range c.dependencyFiles {
		hash, err := fileHash(file)
		if err != nil || hash != c.dependencyHashes[file] {
			return true
		}
	}
	return false
}

func (c *Cache) SetMaxAge(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.maxAge = d
}

func (c *Cache) InvalidateAll() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]Entry)
	return c.save()
}

func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

func fileHash(name string) (string, error) {
	file, err := os.Open(name)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	h := md5.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
