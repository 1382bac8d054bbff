// Package persona renders dispatch results as user-facing text. Personas
// change the framing of a response, never its content.
package persona

import (
	"fmt"
	"strings"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

// Formatter implements the ResponseFormatter port.
type Formatter struct{}

// NewFormatter returns the default formatter.
func NewFormatter() *Formatter { return &Formatter{} }

// Format renders the response for an intent. A nil result means nothing was
// dispatched: unknown intents get help text with suggestions, everything
// else gets its command preview framing by the pipeline.
func (f *Formatter) Format(intent domain.Intent, result *domain.CommandResult, persona domain.Persona) string {
	switch intent.Type {
	case domain.IntentHelp:
		return helpText()
	case domain.IntentExplain:
		return explainTopic(intent.Entity(domain.EntityTopic))
	case domain.IntentUnknown:
		return unknownResponse(intent.RawText, persona)
	}

	if result == nil {
		return applyPersona("Nothing to run.", persona, false)
	}
	if !result.Executed {
		// Dry run: the output already carries the rendered command.
		body := result.Output + "\n\nAdd --execute to run it for real."
		return applyPersona(body, persona, false)
	}
	if !result.Success {
		return applyPersona(failureResponse(intent, result), persona, false)
	}
	return applyPersona(successResponse(intent, result), persona, true)
}

// Summary renders a one-line version for scripting.
func (f *Formatter) Summary(intent domain.Intent, result *domain.CommandResult) string {
	switch {
	case intent.Type == domain.IntentUnknown:
		return "unknown query"
	case result == nil:
		return string(intent.Type) + ": nothing to run"
	case !result.Executed:
		return "dry-run: " + strings.TrimPrefix(result.Output, "Would run: ")
	case result.Success:
		return string(intent.Type) + ": ok"
	default:
		return fmt.Sprintf("%s: failed (exit %d)", intent.Type, result.ExitCode)
	}
}

func successResponse(intent domain.Intent, result *domain.CommandResult) string {
	output := strings.TrimSpace(result.Output)
	switch intent.Type {
	case domain.IntentInstallPackage:
		return fmt.Sprintf("Installed %s.", intent.Entity(domain.EntityPackage))
	case domain.IntentRemovePackage:
		return fmt.Sprintf("Removed %s.", intent.Entity(domain.EntityPackage))
	case domain.IntentSearchPackage:
		if output == "" {
			return fmt.Sprintf("No packages matched %q. Try a broader term.", intent.Entity(domain.EntityQuery))
		}
		return fmt.Sprintf("Packages matching %q:\n%s", intent.Entity(domain.EntityQuery), output)
	case domain.IntentUpdateSystem:
		return "System updated. A new generation is active."
	case domain.IntentRollback:
		return "Rolled back to the previous generation."
	case domain.IntentGarbageCollect:
		return "Cleaned up old generations and unused store paths.\n" + output
	case domain.IntentListGenerations:
		return "System generations:\n" + output
	case domain.IntentSwitchGeneration:
		return fmt.Sprintf("Switched to generation %s.", intent.Entity(domain.EntityGeneration))
	case domain.IntentRebuild:
		return "System rebuilt."
	case domain.IntentListInstalled:
		if output == "" {
			return "No packages installed in the user profile."
		}
		return "Installed packages:\n" + output
	case domain.IntentCheckStatus:
		return "NixOS version: " + output
	case domain.IntentDiskUsage:
		return "Disk usage:\n" + output
	case domain.IntentStartService:
		return fmt.Sprintf("Started %s.", intent.Entity(domain.EntityService))
	case domain.IntentStopService:
		return fmt.Sprintf("Stopped %s.", intent.Entity(domain.EntityService))
	case domain.IntentRestartService:
		return fmt.Sprintf("Restarted %s.", intent.Entity(domain.EntityService))
	case domain.IntentEnableService:
		return fmt.Sprintf("Enabled %s at boot.", intent.Entity(domain.EntityService))
	case domain.IntentDisableService:
		return fmt.Sprintf("Disabled %s at boot.", intent.Entity(domain.EntityService))
	case domain.IntentServiceStatus, domain.IntentServiceLogs, domain.IntentListServices:
		return output
	default:
		return output
	}
}

func failureResponse(intent domain.Intent, result *domain.CommandResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "That didn't work (exit %d).", result.ExitCode)
	if msg := strings.TrimSpace(result.Error); msg != "" {
		b.WriteString("\n" + msg)
	}
	if hint := errorHint(result.Error); hint != "" {
		b.WriteString("\n\n" + hint)
	}
	return b.String()
}

// errorHint maps common nix failure messages onto a next step.
func errorHint(stderr string) string {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "must be root"):
		return "This needs elevated privileges. Try again with sudo available."
	case strings.Contains(lower, "no space"),
		strings.Contains(lower, "disk full"):
		return "The disk is full. \"free up space\" runs the garbage collector."
	case strings.Contains(lower, "not found"),
		strings.Contains(lower, "does not exist"),
		strings.Contains(lower, "attribute"):
		return "That package name may be wrong. Try \"search <name>\" to find the exact attribute."
	case strings.Contains(lower, "network"),
		strings.Contains(lower, "download"),
		strings.Contains(lower, "unable to connect"):
		return "Looks like a network problem. Check your connection and retry."
	case strings.Contains(lower, "timed out"):
		return "The command ran too long. Raise the timeout with --timeout."
	default:
		return ""
	}
}

var _ ports.ResponseFormatter = (*Formatter)(nil)
