// Package history records processed queries, backed by SQLite with a plain
// JSONL fallback when the database cannot be opened.
package history

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

// SQLiteStore persists history in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the database at path, usually
// <data dir>/history.db. On open failure every call falls back to a JSONL
// file next to the database.
func NewSQLiteStore(path string) *SQLiteStore {
	_ = os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{path: path}
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		return &SQLiteStore{path: path}
	}
	return store
}

func (s *SQLiteStore) init() error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT,
		query TEXT,
		intent TEXT,
		command TEXT,
		executed INTEGER,
		success INTEGER,
		exit_code INTEGER,
		duration_ms INTEGER,
		cached INTEGER
	);`)
	return err
}

// Save inserts a new record.
func (s *SQLiteStore) Save(record domain.HistoryRecord) error {
	if s.db == nil {
		return s.fallback().Save(record)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO queries
		(timestamp, query, intent, command, executed, success, exit_code, duration_ms, cached)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp.Format(domain.TimestampFormat),
		record.Query,
		string(record.Intent),
		record.Command,
		boolToInt(record.Executed),
		boolToInt(record.Success),
		record.ExitCode,
		record.DurationMS,
		boolToInt(record.Cached),
	)
	return err
}

// Records returns history entries, newest first. A search term filters on
// the query text and the rendered command.
func (s *SQLiteStore) Records(limit int, search string) ([]domain.HistoryRecord, error) {
	if s.db == nil {
		return s.fallback().Records(limit, search)
	}
	builder := strings.Builder{}
	builder.WriteString("SELECT timestamp, query, intent, command, executed, success, exit_code, duration_ms, cached FROM queries")
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE query LIKE ? OR command LIKE ?")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	builder.WriteString(" ORDER BY datetime(timestamp) DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		var ts, intent string
		var executed, success, cached int
		if err := rows.Scan(&ts, &rec.Query, &intent, &rec.Command, &executed, &success, &rec.ExitCode, &rec.DurationMS, &cached); err != nil {
			return nil, err
		}
		if t, err := time.Parse(domain.TimestampFormat, ts); err == nil {
			rec.Timestamp = t
		}
		rec.Intent = domain.IntentType(intent)
		rec.Executed = executed == 1
		rec.Success = success == 1
		rec.Cached = cached == 1
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes all history entries.
func (s *SQLiteStore) Clear() error {
	if s.db == nil {
		return s.fallback().Clear()
	}
	_, err := s.db.Exec("DELETE FROM queries")
	return err
}

// ExportJSON writes the query table to a JSONL file.
func (s *SQLiteStore) ExportJSON(dest string) error {
	records, err := s.Records(0, "")
	if err != nil {
		return err
	}
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := file.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) fallback() *FileStore {
	return &FileStore{path: strings.TrimSuffix(s.path, filepath.Ext(s.path)) + ".jsonl"}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
