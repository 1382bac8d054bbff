// Package query orchestrates the natural-language pipeline: recognize the
// intent, build and vet the command, run or preview it, and render the
// response.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/infrastructure/cache"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

// Service orchestrates the query lifecycle end-to-end.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Recognizer     ports.IntentRecognizer
	Dispatcher     ports.CommandDispatcher
	Cache          ports.CacheRepository
	Policy         ports.CachePolicy
	History        ports.HistoryRepository
	Security       ports.SecurityService
	Formatter      ports.ResponseFormatter
	Prompter       ports.ConfirmationPrompter
	Logger         ports.Logger
}

// Run processes a single natural-language query.
func (s *Service) Run(req domain.QueryRequest) (domain.QueryResponse, error) {
	if s.ConfigProvider == nil || s.Recognizer == nil || s.Dispatcher == nil ||
		s.Cache == nil || s.Policy == nil || s.Security == nil ||
		s.Formatter == nil || s.Logger == nil {
		return domain.QueryResponse{}, errors.New("query.Service dependencies not satisfied")
	}

	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.QueryResponse{}, fmt.Errorf("load config: %w", err)
	}

	persona := req.Persona
	if persona == "" {
		persona, err = domain.ParsePersona(cfg.Preferences.Persona)
		if err != nil {
			s.Logger.Warn("invalid persona in config", map[string]interface{}{"error": err.Error()})
			persona = domain.PersonaFriendly
		}
	}

	intent := s.Recognizer.Recognize(req.Text)
	s.Logger.Debug("recognized intent", map[string]interface{}{
		"intent":     string(intent.Type),
		"confidence": intent.Confidence,
		"entities":   intent.Entities,
	})

	resp := domain.QueryResponse{Intent: intent}

	// Conversational intents never dispatch a command.
	if intent.Type == domain.IntentUnknown || intent.Type == domain.IntentHelp ||
		intent.Type == domain.IntentExplain {
		s.render(&resp, req, persona)
		s.record(req, resp)
		return resp, nil
	}

	plan, err := s.Dispatcher.Build(intent)
	if err != nil {
		return resp, fmt.Errorf("build command: %w", err)
	}
	resp.Command = plan.String()

	risk := domain.RiskAssessment{Level: domain.RiskSafe, Action: domain.ActionAllow}
	if cfg.Security.Enabled {
		risk, err = s.Security.Evaluate(plan.String())
		if err != nil {
			return resp, fmt.Errorf("security evaluate: %w", err)
		}
	}
	resp.Risk = risk

	if risk.Action == domain.ActionBlock {
		s.record(req, resp)
		return resp, fmt.Errorf("command blocked by guardrail: %s", plan.String())
	}

	execute := req.Execute || cfg.Preferences.ExecuteDefault
	if req.DryRun {
		execute = false
	}
	if execute {
		execute, err = s.confirmExecution(req, cfg, risk, plan)
		if err != nil {
			return resp, err
		}
	}

	if !execute {
		result, err := s.Dispatcher.Run(ctx, plan, true)
		if err != nil {
			return resp, err
		}
		resp.Result = &result
		s.render(&resp, req, persona)
		s.record(req, resp)
		return resp, nil
	}

	key := cache.Key(intent)
	cacheable := s.Policy.ShouldCache(intent.Type)
	if cacheable {
		if entry, ok, err := s.Cache.Get(key); err == nil && ok {
			resp.FromCache = true
			resp.Result = &domain.CommandResult{
				Success:  true,
				Output:   entry.Value,
				Executed: true,
			}
			s.render(&resp, req, persona)
			s.record(req, resp)
			return resp, nil
		}
	}

	result, err := s.Dispatcher.Run(ctx, plan, false)
	if err != nil {
		return resp, err
	}
	resp.Result = &result

	if cacheable && result.Success {
		if err := s.Cache.Set(domain.CacheEntry{
			Key:    key,
			Intent: intent.Type,
			Value:  result.Output,
		}); err != nil {
			s.Logger.Warn("cache store failed", map[string]interface{}{"error": err.Error()})
		}
	}

	s.render(&resp, req, persona)
	s.record(req, resp)
	return resp, nil
}

// confirmExecution applies the risk gate to a request that wants execution.
func (s *Service) confirmExecution(
	req domain.QueryRequest,
	cfg domain.Config,
	risk domain.RiskAssessment,
	plan domain.CommandPlan,
) (bool, error) {
	switch risk.Action {
	case domain.ActionPreviewOnly:
		return false, nil
	case domain.ActionAllow:
		return true, nil
	case domain.ActionConfirm:
		if req.AutoConfirm {
			return true, nil
		}
		if !cfg.Execution.ConfirmBeforeExecute {
			return true, nil
		}
		return s.prompt(risk, plan)
	case domain.ActionExplicitConfirm:
		// --yes does not cover explicit confirmation.
		return s.prompt(risk, plan)
	default:
		return false, nil
	}
}

// prompt falls back to preview when no interactive prompter is available.
func (s *Service) prompt(risk domain.RiskAssessment, plan domain.CommandPlan) (bool, error) {
	if s.Prompter == nil || !s.Prompter.Enabled() {
		return false, nil
	}
	return s.Prompter.Confirm(risk.Action, risk.Level, plan.String(), risk.Reasons)
}

func (s *Service) render(resp *domain.QueryResponse, req domain.QueryRequest, persona domain.Persona) {
	if req.Summary {
		resp.Rendered = s.Formatter.Summary(resp.Intent, resp.Result)
		return
	}
	resp.Rendered = s.Formatter.Format(resp.Intent, resp.Result, persona)
}

// record saves the query to history. History failures are logged, never
// surfaced.
func (s *Service) record(req domain.QueryRequest, resp domain.QueryResponse) {
	if s.History == nil {
		return
	}
	rec := domain.HistoryRecord{
		Query:   req.Text,
		Intent:  resp.Intent.Type,
		Command: resp.Command,
		Cached:  resp.FromCache,
	}
	if resp.Result != nil {
		rec.Executed = resp.Result.Executed
		rec.Success = resp.Result.Success
		rec.ExitCode = resp.Result.ExitCode
		rec.DurationMS = resp.Result.DurationMS
	}
	if err := s.History.Save(rec); err != nil {
		s.Logger.Warn("history save failed", map[string]interface{}{"error": err.Error()})
	}
}

var _ domain.QueryService = (*Service)(nil)
