package cache

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/pkg/filesystem"
	"github.com/doeshing/promptsmith/internal/ports"
)

// entryExt is the suffix of every file the store owns. The stem is a hex SHA-256 key.
const entryExt = ".json"

// FileStore stores each generation batch as a JSON file named by its key.
// When more than maxEntries files exist the oldest writes are removed.
type FileStore struct {
	dir        string
	mu         sync.Mutex
	maxEntries int
	evictions  atomic.Uint64
}

// NewFileStore returns a store rooted at dir, or ~/.promptsmith/cache/generations when dir is empty.
func NewFileStore(dir string, maxEntries int) *FileStore {
	if dir == "" {
		dir = filepath.Join(filesystem.AppDir(), "cache", "generations")
	}
	if maxEntries <= 0 {
		maxEntries = domain.DefaultMaxCacheEntries
	}
	return &FileStore{dir: dir, maxEntries: maxEntries}
}

// Load reads the entry stored under key.
func (s *FileStore) Load(key string) (domain.CacheEntry, bool, error) {
	if !isEntryKey(key) {
		return domain.CacheEntry{}, false, nil
	}
	data, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.CacheEntry{}, false, nil
		}
		return domain.CacheEntry{}, false, err
	}
	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return domain.CacheEntry{}, false, err
	}
	return entry, true, nil
}

// Save writes the entry, replacing any previous file for the same key.
func (s *FileStore) Save(entry domain.CacheEntry) error {
	if entry.Key == "" {
		return nil
	}
	if !isEntryKey(entry.Key) {
		return fmt.Errorf("cache key %q is not a hex digest", entry.Key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir, domain.DirectoryPermissions); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	// Write then rename so readers never observe a partial file.
	tmp, err := os.CreateTemp(s.dir, entry.Key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.pathFor(entry.Key)); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return s.evictIfNeeded()
}

// Delete removes the file for key.
func (s *FileStore) Delete(key string) error {
	if !isEntryKey(key) {
		return nil
	}
	err := os.Remove(s.pathFor(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Dir exposes the cache directory path.
func (s *FileStore) Dir() string {
	return s.dir
}

// Clear removes all cached entries. Other files in the directory are left alone.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	names, err := s.entryNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// List reads every entry (best-effort; unreadable files are skipped).
func (s *FileStore) List() ([]domain.CacheEntry, error) {
	names, err := s.entryNames()
	if err != nil {
		return nil, err
	}
	var entries []domain.CacheEntry
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		var entry domain.CacheEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CachedAt.Before(entries[j].CachedAt) })
	return entries, nil
}

// CapacityEvictions counts files removed because the store was full.
func (s *FileStore) CapacityEvictions() uint64 {
	return s.evictions.Load()
}

func (s *FileStore) pathFor(key string) string {
	return filepath.Join(s.dir, key+entryExt)
}

// entryNames lists the files in dir that the store owns.
func (s *FileStore) entryNames() ([]string, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, f := range files {
		if f.IsDir() || !isEntryFile(f.Name()) {
			continue
		}
		names = append(names, f.Name())
	}
	return names, nil
}

func isEntryFile(name string) bool {
	stem, ok := strings.CutSuffix(name, entryExt)
	return ok && isEntryKey(stem)
}

// isEntryKey reports whether key has the shape DeriveKey produces.
func isEntryKey(key string) bool {
	if len(key) != 2*sha256.Size {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func (s *FileStore) evictIfNeeded() error {
	names, err := s.entryNames()
	if err != nil {
		return err
	}
	type fileInfo struct {
		name string
		mod  int64
	}
	var infos []fileInfo
	for _, name := range names {
		info, err := os.Stat(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo{name: name, mod: info.ModTime().UnixNano()})
	}
	if len(infos) <= s.maxEntries {
		return nil
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].mod < infos[j].mod })
	for len(infos) > s.maxEntries {
		old := infos[0]
		if err := os.Remove(filepath.Join(s.dir, old.name)); err == nil {
			s.evictions.Add(1)
		}
		infos = infos[1:]
	}
	return nil
}

var _ ports.CacheStore = (*FileStore)(nil)
