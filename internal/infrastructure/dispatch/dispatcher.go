// Package dispatch maps recognized intents onto concrete nix and systemctl
// invocations and runs them on the host.
package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

// Options tune how the dispatcher renders and runs commands.
type Options struct {
	// AllowUnprivileged strips the leading sudo from rendered commands.
	// NIX_HUMANITY_ALLOW_UNPRIVILEGED=1 forces it on regardless of config.
	AllowUnprivileged bool
	// Timeout bounds a single command run. Zero means the default.
	Timeout time.Duration
}

// Dispatcher builds and runs commands for intents. Commands are rendered as
// argv slices and never passed through a shell, so entity values cannot be
// used for injection even before validation.
type Dispatcher struct {
	opts   Options
	logger ports.Logger

	// commandContext is overridable for testing.
	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// New builds a Dispatcher. A nil logger panics at first use, callers wire one
// from the container.
func New(opts Options, logger ports.Logger) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = domain.DefaultCommandTimeout
	}
	if os.Getenv("NIX_HUMANITY_ALLOW_UNPRIVILEGED") == "1" {
		opts.AllowUnprivileged = true
	}
	return &Dispatcher{
		opts:           opts,
		logger:         logger,
		commandContext: exec.CommandContext,
	}
}

// Build renders the command plan for an intent without running anything.
func (d *Dispatcher) Build(intent domain.Intent) (domain.CommandPlan, error) {
	plan, err := buildPlan(intent)
	if err != nil {
		return domain.CommandPlan{}, err
	}
	if d.opts.AllowUnprivileged {
		plan.Argv = stripSudo(plan.Argv)
	}
	return plan, nil
}

// Run executes a plan. In dry-run mode no process is spawned: the rendered
// command string is returned as output with Executed=false and Success=true.
func (d *Dispatcher) Run(ctx context.Context, plan domain.CommandPlan, dryRun bool) (domain.CommandResult, error) {
	if len(plan.Argv) == 0 {
		return domain.CommandResult{}, fmt.Errorf("dispatch: empty command plan")
	}
	if dryRun {
		return domain.CommandResult{
			Success:  true,
			Output:   "Would run: " + plan.String(),
			Executed: false,
		}, nil
	}

	// A caller-supplied deadline (the --timeout flag) takes precedence over
	// the configured timeout, so the flag can extend it as well as shorten it.
	timeout := d.opts.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline).Round(time.Millisecond)
	} else {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	d.logger.Debug("running command", map[string]interface{}{"command": plan.String()})

	cmd := d.commandContext(ctx, plan.Argv[0], plan.Argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start).Milliseconds()

	result := domain.CommandResult{
		Success:    err == nil,
		Output:     stdout.String(),
		Error:      stderr.String(),
		Executed:   true,
		DurationMS: duration,
	}
	// A deadline kill surfaces as *exec.ExitError ("signal: killed"), so the
	// context has to be checked before exit codes are interpreted.
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		result.Error = fmt.Sprintf("command timed out after %s", timeout)
		result.ExitCode = -1
		return result, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		// Spawn failures (missing binary) are reported in the result so the
		// formatter can suggest a fix instead of aborting the pipeline.
		result.Error = err.Error()
		result.ExitCode = -1
		return result, nil
	}
	return result, nil
}

// SearchMany runs one package search per term concurrently and returns the
// results in input order.
func (d *Dispatcher) SearchMany(ctx context.Context, terms []string, dryRun bool) ([]domain.CommandResult, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	results := make([]domain.CommandResult, len(terms))
	var wg sync.WaitGroup
	for i, term := range terms {
		intent := domain.Intent{
			Type:     domain.IntentSearchPackage,
			Entities: map[string]string{domain.EntityQuery: term},
		}
		plan, err := d.Build(intent)
		if err != nil {
			results[i] = domain.CommandResult{Success: false, Error: err.Error()}
			continue
		}
		wg.Add(1)
		go func(i int, plan domain.CommandPlan) {
			defer wg.Done()
			res, err := d.Run(ctx, plan, dryRun)
			if err != nil {
				res = domain.CommandResult{Success: false, Error: err.Error()}
			}
			results[i] = res
		}(i, plan)
	}
	wg.Wait()
	return results, nil
}

func stripSudo(argv []string) []string {
	if len(argv) > 1 && argv[0] == "sudo" {
		return argv[1:]
	}
	return argv
}

var _ ports.CommandDispatcher = (*Dispatcher)(nil)
