package history

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

// FileStore appends history records to a JSONL file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a history store backed by the JSONL file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save implements ports.HistoryRepository.
func (f *FileStore) Save(record domain.HistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = file.Write(append(data, '\n'))
	return err
}

// Records loads history entries, newest first (best-effort).
func (f *FileStore) Records(limit int, search string) ([]domain.HistoryRecord, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	var records []domain.HistoryRecord
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if len(line) == 0 {
			continue
		}
		var rec domain.HistoryRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if search != "" &&
			!strings.Contains(rec.Query, search) &&
			!strings.Contains(rec.Command, search) {
			continue
		}
		records = append(records, rec)
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}

// Clear removes the history file.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ExportJSON copies the history file to dest.
func (f *FileStore) ExportJSON(dest string) error {
	src, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return os.WriteFile(dest, nil, 0o644)
		}
		return err
	}
	defer src.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

var _ ports.HistoryRepository = (*FileStore)(nil)
