package cache

import (
	"sort"
	"strings"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

// cacheableIntents holds the read-only intents whose results can be replayed
// safely. Mutating intents and unknown input are never cached.
var cacheableIntents = map[domain.IntentType]bool{
	domain.IntentSearchPackage:   true,
	domain.IntentListInstalled:   true,
	domain.IntentListGenerations: true,
	domain.IntentListServices:    true,
	domain.IntentServiceStatus:   true,
	domain.IntentServiceLogs:     true,
	domain.IntentCheckStatus:     true,
	domain.IntentDiskUsage:       true,
	domain.IntentExplain:         true,
	domain.IntentHelp:            true,
}

// Policy is the static cacheability table.
type Policy struct{}

// NewPolicy returns the default policy.
func NewPolicy() Policy { return Policy{} }

// ShouldCache reports whether results for the intent type may be cached.
func (Policy) ShouldCache(intentType domain.IntentType) bool {
	return cacheableIntents[intentType]
}

// Key derives a stable cache key from an intent. Entities are sorted so key
// derivation does not depend on map iteration order.
func Key(intent domain.Intent) string {
	parts := []string{string(intent.Type)}
	keys := make([]string, 0, len(intent.Entities))
	for k := range intent.Entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+intent.Entities[k])
	}
	return strings.Join(parts, "|")
}

var _ ports.CachePolicy = Policy{}
