package geotarget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
)

// DefaultCacheFile is the cache file name used when none is configured.
const DefaultCacheFile = "geo_target_cache.json"

// Cache maps place names to geo-target resource names. It is loaded once
// per batch, mutated in memory and flushed once at the end. A cached value
// is never replaced.
type Cache interface {
	// Load replaces the in-memory contents with the persisted mapping. On
	// error the cache is left empty and usable.
	Load(ctx context.Context) error
	Get(name string) (string, bool)
	// Put records name → resourceName unless name is empty or already cached.
	Put(name, resourceName string)
	Flush(ctx context.Context) error
}

// memory is the in-memory map shared by the cache backends.
type memory struct {
	entries map[string]string
	pending map[string]string
}

func newMemory() memory {
	return memory{entries: map[string]string{}, pending: map[string]string{}}
}

func (m *memory) reset(entries map[string]string) {
	if entries == nil {
		entries = map[string]string{}
	}
	m.entries = entries
	m.pending = map[string]string{}
}

func (m *memory) Get(name string) (string, bool) {
	v, ok := m.entries[name]
	return v, ok
}

func (m *memory) Put(name, resourceName string) {
	if name == "" || resourceName == "" {
		return
	}
	if _, ok := m.entries[name]; ok {
		return
	}
	m.entries[name] = resourceName
	m.pending[name] = resourceName
}

// Entries returns a copy of the cached mapping.
func (m *memory) Entries() map[string]string {
	out := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

// Names returns the cached names in sorted order.
func (m *memory) Names() []string {
	names := make([]string, 0, len(m.entries))
	for k := range m.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// FileCache persists the mapping as a single JSON object on disk. Members
// that are not name → resource name pairs are kept verbatim and written back.
type FileCache struct {
	memory
	path  string
	extra map[string]json.RawMessage
}

// NewFileCache returns a cache backed by the JSON file at path.
func NewFileCache(path string) *FileCache {
	if path == "" {
		path = DefaultCacheFile
	}
	return &FileCache{memory: newMemory(), path: path}
}

// Path returns the backing file path.
func (c *FileCache) Path() string {
	return c.path
}

// Load reads the cache file. A missing file is an empty cache.
func (c *FileCache) Load(_ context.Context) error {
	c.reset(nil)
	c.extra = nil

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return eris.Wrapf(err, "geotarget: read cache %s", c.path)
	}

	entries, extra, err := decodeEntries(data)
	if err != nil {
		return eris.Wrapf(err, "geotarget: parse cache %s", c.path)
	}
	c.reset(entries)
	c.extra = extra
	return nil
}

// Flush overwrites the cache file with the full in-memory mapping plus the
// members Load could not interpret.
func (c *FileCache) Flush(_ context.Context) error {
	doc := make(map[string]any, len(c.entries)+len(c.extra))
	for k, v := range c.extra {
		doc[k] = v
	}
	for k, v := range c.entries {
		doc[k] = v
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "geotarget: encode cache")
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".geo-cache-*.json")
	if err != nil {
		return eris.Wrapf(err, "geotarget: create temp file in %s", dir)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "geotarget: write cache")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "geotarget: close cache")
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return eris.Wrapf(err, "geotarget: replace cache %s", c.path)
	}
	c.pending = map[string]string{}
	return nil
}

// Clear removes the cache file and empties memory.
func (c *FileCache) Clear() error {
	c.reset(nil)
	c.extra = nil
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(err, "geotarget: remove cache %s", c.path)
	}
	return nil
}

// decodeEntries accepts any JSON object. Non-empty string members become
// entries; everything else is returned raw in extra.
func decodeEntries(data []byte) (entries map[string]string, extra map[string]json.RawMessage, err error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}
	if raw == nil {
		return nil, nil, eris.New("cache is not a JSON object")
	}
	entries = make(map[string]string, len(raw))
	extra = make(map[string]json.RawMessage)
	for k, v := range raw {
		var s string
		if k == "" || json.Unmarshal(v, &s) != nil || s == "" {
			extra[k] = v
			continue
		}
		entries[k] = s
	}
	return entries, extra, nil
}

// EntryStore is the persistence a StoreCache needs.
type EntryStore interface {
	LoadGeoTargets(ctx context.Context) (map[string]string, error)
	// SaveGeoTargets inserts entries whose names are not yet stored.
	SaveGeoTargets(ctx context.Context, entries map[string]string) error
}

// StoreCache persists the mapping in a database table.
type StoreCache struct {
	memory
	store EntryStore
}

// NewStoreCache returns a cache backed by st.
func NewStoreCache(st EntryStore) *StoreCache {
	return &StoreCache{memory: newMemory(), store: st}
}

// Load reads every stored entry.
func (c *StoreCache) Load(ctx context.Context) error {
	c.reset(nil)
	entries, err := c.store.LoadGeoTargets(ctx)
	if err != nil {
		return eris.Wrap(err, "geotarget: load store cache")
	}
	c.reset(entries)
	return nil
}

// Flush writes only the entries added since Load.
func (c *StoreCache) Flush(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}
	if err := c.store.SaveGeoTargets(ctx, c.pending); err != nil {
		return eris.Wrap(err, "geotarget: flush store cache")
	}
	c.pending = map[string]string{}
	return nil
}
