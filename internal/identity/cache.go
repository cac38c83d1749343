package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"reelsync/internal/logging"
)

// cacheEntry is the persisted JSON shape for one reference. The file is an
// object keyed by reference so it stays interchangeable with caches written by
// earlier versions of the tool.
type cacheEntry struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Entry pairs a reference with its cached identity for listing.
type Entry struct {
	Reference string
	Identity  Identity
}

// Cache provides thread-safe access to the persistent reference→identity
// mapping. Reads may be concurrent; Merge and Persist are expected to be
// called from a single coordinator.
type Cache struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Identity
	dirty   bool
}

// NewCache creates a cache backed by the given file path and loads any
// existing entries. A load failure is logged and the cache starts empty;
// previously cached references will simply be re-resolved.
func NewCache(path string, logger *slog.Logger) *Cache {
	logger = logging.NewComponentLogger(logger, "identitycache")

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]Identity),
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load identity cache",
			logging.Error(err),
			logging.String("path", path))
	}

	return c
}

// Get returns the cached identity for the given reference if present.
func (c *Cache) Get(reference string) (Identity, bool) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return Identity{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	id, found := c.entries[reference]
	return id, found
}

// Merge records an identity for a reference. The first writer wins: if the
// reference already maps to a different identity the existing value is kept,
// the conflict is logged, and Merge reports false.
func (c *Cache) Merge(reference string, id Identity) bool {
	reference = strings.TrimSpace(reference)
	if reference == "" || !id.Valid() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, found := c.entries[reference]; found {
		if existing == id {
			return true
		}
		c.logger.Warn("conflicting identities for reference, keeping first",
			logging.String(logging.FieldReference, reference),
			logging.String("existing_id", existing.ProviderID),
			logging.String("existing_kind", existing.Kind.String()),
			logging.String("discarded_id", id.ProviderID),
			logging.String("discarded_kind", id.Kind.String()))
		return false
	}

	c.entries[reference] = id
	c.dirty = true
	return true
}

// Len returns the number of cached references.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns all cached mappings sorted by reference.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.entries))
	for reference, id := range c.entries {
		entries = append(entries, Entry{Reference: reference, Identity: id})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Reference < entries[j].Reference
	})
	return entries
}

// Clear removes all entries and persists the empty cache.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[string]Identity)
	c.dirty = true
	c.mu.Unlock()
	return c.Persist()
}

// Persist writes the full mapping to disk atomically. It is a no-op when
// nothing changed since the last persist, so checkpoint calls are cheap.
func (c *Cache) Persist() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty || c.path == "" {
		return nil
	}

	raw := make(map[string]cacheEntry, len(c.entries))
	for reference, id := range c.entries {
		raw[reference] = cacheEntry{ID: id.ProviderID, Type: id.Kind.String()}
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	// Write atomically via temp file so an interrupted persist never
	// corrupts previously cached entries.
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	c.dirty = false
	c.logger.Debug("persisted identity cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))
	return nil
}

func (c *Cache) load() error {
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read cache file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var raw map[string]cacheEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.entries = make(map[string]Identity, len(raw))
	for reference, entry := range raw {
		id := Identity{ProviderID: strings.TrimSpace(entry.ID), Kind: ParseMediaKind(entry.Type)}
		if strings.TrimSpace(reference) == "" || !id.Valid() {
			continue
		}
		c.entries[reference] = id
	}

	c.logger.Debug("loaded identity cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))
	return nil
}
