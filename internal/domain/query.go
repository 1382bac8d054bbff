package domain

import (
	"context"
	"strings"
)

// QueryRequest captures a natural-language request originating from the CLI.
type QueryRequest struct {
	Context     context.Context
	Text        string
	Persona     Persona
	Execute     bool
	DryRun      bool
	AutoConfirm bool
	Summary     bool
	Debug       bool
}

// QueryResponse is the canonical response propagated back to the CLI.
type QueryResponse struct {
	Intent    Intent
	Command   string
	Result    *CommandResult
	Risk      RiskAssessment
	Rendered  string
	FromCache bool
}

// Succeeded reports whether the request should map to exit code zero.
// Unknown intents render help text and are not dispatch failures.
func (r QueryResponse) Succeeded() bool {
	if r.Result == nil {
		return true
	}
	return r.Result.Success
}

// CommandPlan is a fully rendered command ready for dispatch.
type CommandPlan struct {
	Argv        []string
	Description string
}

// String renders the plan the way a user would type it.
func (p CommandPlan) String() string {
	return strings.Join(p.Argv, " ")
}

// CommandResult wraps the outcome of a single dispatch. Not persisted.
type CommandResult struct {
	Success    bool
	Output     string
	Error      string
	Executed   bool
	ExitCode   int
	DurationMS int64
}

// QueryService exposes the use-case boundary for handling a query.
type QueryService interface {
	Run(QueryRequest) (QueryResponse, error)
}
