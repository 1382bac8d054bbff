// Package app wires application services to their infrastructure adapters.
package app

import (
	"context"
	"path/filepath"
	"time"

	"github.com/nix-humanity/ask-nix/internal/application/doctor"
	"github.com/nix-humanity/ask-nix/internal/application/query"
	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/infrastructure/cache"
	"github.com/nix-humanity/ask-nix/internal/infrastructure/config"
	"github.com/nix-humanity/ask-nix/internal/infrastructure/dispatch"
	"github.com/nix-humanity/ask-nix/internal/infrastructure/history"
	"github.com/nix-humanity/ask-nix/internal/infrastructure/intent"
	"github.com/nix-humanity/ask-nix/internal/infrastructure/persona"
	"github.com/nix-humanity/ask-nix/internal/infrastructure/security"
	"github.com/nix-humanity/ask-nix/internal/infrastructure/sysinfo"
	"github.com/nix-humanity/ask-nix/internal/pkg/filesystem"
	"github.com/nix-humanity/ask-nix/internal/pkg/logger"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	QueryService   *query.Service
	DoctorService  *doctor.Service
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader
	Dispatcher     ports.CommandDispatcher
	HistoryStore   ports.HistoryRepository
	CacheStore     ports.CacheRepository
	Inspector      ports.SystemInspector
	Logger         ports.Logger
}

// BuildContainer constructs the dependency graph. The prompter comes from
// the CLI layer because it owns the terminal.
func BuildContainer(ctx context.Context, verbose bool, prompter ports.ConfirmationPrompter) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(verbose)

	historyStore := history.NewSQLiteStore(filepath.Join(filesystem.DataDir(), "history.db"))
	cacheStore := cache.NewFileCache(
		filepath.Join(filesystem.DataDir(), "cache"),
		cacheSettings(cfg),
	)

	guardrail, err := security.NewGuardrail(cfg.Security.RulesFile)
	if err != nil {
		return nil, err
	}

	var recognizer ports.IntentRecognizer = intent.NewRecognizer()
	if cfg.Recognizer.OllamaEnabled {
		recognizer = intent.NewOllamaFallback(recognizer, cfg.Recognizer, log)
	}

	dispatcher := dispatch.New(dispatch.Options{
		AllowUnprivileged: cfg.Execution.AllowUnprivileged,
		Timeout:           time.Duration(cfg.Preferences.TimeoutSeconds) * time.Second,
	}, log)

	inspector := sysinfo.NewInspector(cfg.Recognizer.OllamaEnabled)

	queryService := &query.Service{
		ConfigProvider: cfgLoader,
		Recognizer:     recognizer,
		Dispatcher:     dispatcher,
		Cache:          cacheStore,
		Policy:         cache.NewPolicy(),
		History:        historyStore,
		Security:       guardrail,
		Formatter:      persona.NewFormatter(),
		Prompter:       prompter,
		Logger:         log,
	}

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Security:       guardrail,
		Cache:          cacheStore,
		History:        historyStore,
		Inspector:      inspector,
	}

	return &Container{
		QueryService:   queryService,
		DoctorService:  doctorService,
		ConfigProvider: cfgLoader,
		ConfigLoader:   cfgLoader,
		Dispatcher:     dispatcher,
		HistoryStore:   historyStore,
		CacheStore:     cacheStore,
		Inspector:      inspector,
		Logger:         log,
	}, nil
}

func cacheSettings(cfg domain.Config) domain.CacheSettings {
	settings := domain.CacheSettings{MaxEntries: cfg.Cache.MaxEntries}
	if ttl, err := time.ParseDuration(cfg.Cache.TTL); err == nil {
		settings.TTL = ttl
	}
	return settings
}
