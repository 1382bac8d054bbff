package history

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

func sampleRecords() []domain.HistoryRecord {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []domain.HistoryRecord{
		{
			Timestamp: base,
			Query:     "install firefox",
			Intent:    domain.IntentInstallPackage,
			Command:   "nix-env -iA nixpkgs.firefox",
			Executed:  true,
			Success:   true,
		},
		{
			Timestamp:  base.Add(time.Minute),
			Query:      "search editor",
			Intent:     domain.IntentSearchPackage,
			Command:    "nix search nixpkgs editor",
			Executed:   true,
			Success:    true,
			DurationMS: 800,
			Cached:     true,
		},
		{
			Timestamp: base.Add(2 * time.Minute),
			Query:     "restart nginx",
			Intent:    domain.IntentRestartService,
			Command:   "sudo systemctl restart nginx",
			Executed:  true,
			Success:   false,
			ExitCode:  5,
		},
	}
}

// Both backends implement the same repository contract.
func stores(t *testing.T) map[string]func() ports.HistoryRepository {
	t.Helper()
	return map[string]func() ports.HistoryRepository{
		"sqlite": func() ports.HistoryRepository {
			return NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
		},
		"file": func() ports.HistoryRepository {
			return NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
		},
	}
}

func TestSaveAndRecords(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			for _, rec := range sampleRecords() {
				require.NoError(t, store.Save(rec))
			}

			records, err := store.Records(0, "")
			require.NoError(t, err)
			require.Len(t, records, 3)

			// Newest first.
			assert.Equal(t, "restart nginx", records[0].Query)
			assert.Equal(t, domain.IntentRestartService, records[0].Intent)
			assert.False(t, records[0].Success)
			assert.Equal(t, 5, records[0].ExitCode)
			assert.Equal(t, "install firefox", records[2].Query)
		})
	}
}

func TestRecordsLimitAndSearch(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			for _, rec := range sampleRecords() {
				require.NoError(t, store.Save(rec))
			}

			records, err := store.Records(2, "")
			require.NoError(t, err)
			assert.Len(t, records, 2)

			records, err = store.Records(0, "firefox")
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "install firefox", records[0].Query)

			// Search matches the rendered command too.
			records, err = store.Records(0, "systemctl")
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "restart nginx", records[0].Query)
		})
	}
}

func TestClear(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			for _, rec := range sampleRecords() {
				require.NoError(t, store.Save(rec))
			}
			require.NoError(t, store.Clear())

			records, err := store.Records(0, "")
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestExportJSON(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			for _, rec := range sampleRecords() {
				require.NoError(t, store.Save(rec))
			}

			dest := filepath.Join(t.TempDir(), "export.jsonl")
			require.NoError(t, store.ExportJSON(dest))

			file, err := os.Open(dest)
			require.NoError(t, err)
			defer file.Close()

			var count int
			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				var rec domain.HistoryRecord
				require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
				assert.NotEmpty(t, rec.Query)
				count++
			}
			require.NoError(t, scanner.Err())
			assert.Equal(t, 3, count)
		})
	}
}

func TestEmptyStore(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			records, err := store.Records(0, "")
			require.NoError(t, err)
			assert.Empty(t, records)
			require.NoError(t, store.Clear())
		})
	}
}
