package history

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/pkg/filesystem"
	"github.com/doeshing/promptsmith/internal/ports"
)

// FileStore appends history records to a jsonl file.
// Deletes and pruning rewrite the file in place.
type FileStore struct {
	path  string
	clock ports.Clock
	mu    sync.Mutex
}

// DefaultFilePath is where the jsonl store lives when no path is configured.
func DefaultFilePath() string {
	return filepath.Join(filesystem.AppDir(), "history.jsonl")
}

// DefaultSQLitePath is where the sqlite store lives when no path is configured.
func DefaultSQLitePath() string {
	return filepath.Join(filesystem.AppDir(), "history.db")
}

// NewFileStore creates a store at path, or DefaultFilePath when path is empty.
func NewFileStore(path string, clock ports.Clock) *FileStore {
	if path == "" {
		path = DefaultFilePath()
	}
	if clock == nil {
		clock = ports.SystemClock
	}
	return &FileStore{path: path, clock: clock}
}

// Location returns the jsonl file path.
func (f *FileStore) Location() string {
	return f.path
}

// Append implements ports.HistoryStore.
func (f *FileStore) Append(_ context.Context, record domain.HistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = file.Write(data)
	return err
}

// List returns matching records, newest first.
func (f *FileStore) List(_ context.Context, filter domain.HistoryFilter) ([]domain.HistoryRecord, error) {
	f.mu.Lock()
	records, err := f.readAll()
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return applyFilter(records, filter), nil
}

// Delete removes the record with id and reports whether it existed.
func (f *FileStore) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.readAll()
	if err != nil {
		return false, err
	}
	kept := records[:0]
	found := false
	for _, rec := range records {
		if rec.ID == id {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	if !found {
		return false, nil
	}
	return true, f.rewrite(kept)
}

// Clear removes the history file.
func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PruneOlderThan drops records older than days. Zero or negative days is a no-op.
func (f *FileStore) PruneOlderThan(_ context.Context, days int) (int, error) {
	if days <= 0 {
		return 0, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.readAll()
	if err != nil {
		return 0, err
	}
	cutoff := cutoffFor(f.clock, days)
	kept := records[:0]
	for _, rec := range records {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		kept = append(kept, rec)
	}
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, f.rewrite(kept)
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// readAll loads all history entries (best-effort; corrupt lines are skipped).
func (f *FileStore) readAll() ([]domain.HistoryRecord, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	var records []domain.HistoryRecord
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		var rec domain.HistoryRecord
		if err := json.Unmarshal(line, &rec); err == nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (f *FileStore) rewrite(records []domain.HistoryRecord) error {
	var buf bytes.Buffer
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), domain.SecureFilePermissions); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

var _ ports.HistoryStore = (*FileStore)(nil)
