// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). Following the Ports and Adapters
// (Hexagonal) pattern, these interfaces keep the query pipeline independent
// of the concrete recognizer, cache backend, history database and CLI
// framework.
package ports

import (
	"context"

	"github.com/nix-humanity/ask-nix/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.config/nix-humanity/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// IntentRecognizer classifies free text into an Intent. Implementations are
// lookup tables, not models: an ordered pattern list where the first match
// wins, plus entity extraction against a static alias table.
type IntentRecognizer interface {
	Recognize(text string) domain.Intent
}

// CommandDispatcher turns an intent into a concrete nix/systemctl command
// and runs it. Build is separate from Run so the guardrail can inspect the
// rendered command before anything executes.
type CommandDispatcher interface {
	Build(intent domain.Intent) (domain.CommandPlan, error)
	Run(ctx context.Context, plan domain.CommandPlan, dryRun bool) (domain.CommandResult, error)
	SearchMany(ctx context.Context, terms []string, dryRun bool) ([]domain.CommandResult, error)
}

// CacheRepository persists dispatch results for read-only intents.
type CacheRepository interface {
	Get(key string) (domain.CacheEntry, bool, error)
	Set(entry domain.CacheEntry) error
	Entries() ([]domain.CacheEntry, error)
	Clear() error
	Dir() string
	Settings() domain.CacheSettings
	Update(settings domain.CacheSettings) error
}

// CachePolicy decides which intent types may be served from cache.
type CachePolicy interface {
	ShouldCache(intentType domain.IntentType) bool
}

// HistoryRepository records processed queries.
type HistoryRepository interface {
	Save(record domain.HistoryRecord) error
	Records(limit int, search string) ([]domain.HistoryRecord, error)
	Clear() error
	ExportJSON(dest string) error
	Path() string
}

// SecurityService evaluates rendered commands against guardrail rules.
type SecurityService interface {
	Evaluate(command string) (domain.RiskAssessment, error)
}

// ResponseFormatter renders an intent and its result as user-facing text.
// A nil result means nothing was dispatched (unknown intent, blocked command).
type ResponseFormatter interface {
	Format(intent domain.Intent, result *domain.CommandResult, persona domain.Persona) string
	Summary(intent domain.Intent, result *domain.CommandResult) string
}

// SystemInspector probes the host once for downstream tooling and NixOS
// system facts.
type SystemInspector interface {
	Inspect(ctx context.Context) domain.SystemSnapshot
}

// ConfirmationPrompter handles interactive user confirmations for risky
// operations before execution.
type ConfirmationPrompter interface {
	Confirm(action domain.GuardrailAction, level domain.RiskLevel, command string, reasons []string) (bool, error)
	Enabled() bool
}

// Logger provides structured logging abstraction for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
