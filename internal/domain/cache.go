package domain

import "time"

// CacheEntry stores a cached dispatch result keyed by normalized query text.
type CacheEntry struct {
	Key       string        `json:"key"`
	Intent    IntentType    `json:"intent"`
	Value     string        `json:"value"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
}

// Expired reports whether the entry is past its TTL at the given instant.
// A zero TTL falls back to the store default, so only positive TTLs expire here.
func (e CacheEntry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.Sub(e.CreatedAt) > e.TTL
}

// CacheSettings captures tunable cache behavior.
type CacheSettings struct {
	TTL        time.Duration
	MaxEntries int
}

// HistoryRecord captures one processed query for the history store.
type HistoryRecord struct {
	Timestamp  time.Time  `json:"timestamp"`
	Query      string     `json:"query"`
	Intent     IntentType `json:"intent"`
	Command    string     `json:"command"`
	Executed   bool       `json:"executed"`
	Success    bool       `json:"success"`
	ExitCode   int        `json:"exit_code"`
	DurationMS int64      `json:"duration_ms"`
	Cached     bool       `json:"cached"`
}
