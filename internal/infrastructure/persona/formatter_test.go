package persona

import (
	"strings"
	"testing"

	"github.com/nix-humanity/ask-nix/internal/domain"
)

func installIntent() domain.Intent {
	return domain.Intent{
		Type:     domain.IntentInstallPackage,
		Entities: map[string]string{domain.EntityPackage: "firefox"},
	}
}

func TestFormatDryRunShowsCommand(t *testing.T) {
	f := NewFormatter()
	result := &domain.CommandResult{
		Success:  true,
		Output:   "Would run: nix-env -iA nixpkgs.firefox",
		Executed: false,
	}

	out := f.Format(installIntent(), result, domain.PersonaFriendly)
	if !strings.Contains(out, "nix-env -iA nixpkgs.firefox") {
		t.Fatalf("dry-run response missing command: %q", out)
	}
	if !strings.Contains(out, "--execute") {
		t.Fatalf("dry-run response missing execute hint: %q", out)
	}
}

func TestFormatSuccessPerIntent(t *testing.T) {
	f := NewFormatter()
	ok := &domain.CommandResult{Success: true, Executed: true, Output: "firefox-128.0\n"}

	tests := []struct {
		intent domain.Intent
		want   string
	}{
		{installIntent(), "Installed firefox."},
		{
			domain.Intent{Type: domain.IntentRemovePackage, Entities: map[string]string{domain.EntityPackage: "htop"}},
			"Removed htop.",
		},
		{
			domain.Intent{Type: domain.IntentRollback},
			"Rolled back to the previous generation.",
		},
		{
			domain.Intent{Type: domain.IntentRestartService, Entities: map[string]string{domain.EntityService: "nginx"}},
			"Restarted nginx.",
		},
		{
			domain.Intent{Type: domain.IntentListInstalled},
			"firefox-128.0",
		},
	}
	for _, tt := range tests {
		out := f.Format(tt.intent, ok, domain.PersonaMinimal)
		if !strings.Contains(out, tt.want) {
			t.Errorf("Format(%s) = %q, want substring %q", tt.intent.Type, out, tt.want)
		}
	}
}

func TestPersonaChangesFramingOnly(t *testing.T) {
	f := NewFormatter()
	ok := &domain.CommandResult{Success: true, Executed: true}
	intent := installIntent()

	minimal := f.Format(intent, ok, domain.PersonaMinimal)
	friendly := f.Format(intent, ok, domain.PersonaFriendly)
	technical := f.Format(intent, ok, domain.PersonaTechnical)

	if minimal != "Installed firefox." {
		t.Fatalf("minimal = %q", minimal)
	}
	if friendly == minimal {
		t.Fatal("friendly persona should add framing")
	}
	if !strings.Contains(friendly, "Installed firefox.") {
		t.Fatalf("friendly persona changed the facts: %q", friendly)
	}
	if technical != minimal {
		t.Fatalf("technical = %q, want same facts as minimal", technical)
	}
}

func TestFormatFailureHints(t *testing.T) {
	f := NewFormatter()

	tests := []struct {
		stderr string
		hint   string
	}{
		{"error: permission denied", "sudo"},
		{"error: no space left on device", "garbage collector"},
		{"error: attribute 'firefoxx' in selection path not found", "search"},
		{"error: unable to download: network unreachable", "network"},
	}
	for _, tt := range tests {
		result := &domain.CommandResult{Executed: true, ExitCode: 1, Error: tt.stderr}
		out := f.Format(installIntent(), result, domain.PersonaMinimal)
		if !strings.Contains(strings.ToLower(out), tt.hint) {
			t.Errorf("Format(stderr=%q) = %q, want hint about %q", tt.stderr, out, tt.hint)
		}
	}
}

func TestFormatUnknownSuggestions(t *testing.T) {
	f := NewFormatter()

	out := f.Format(domain.Intent{Type: domain.IntentUnknown, RawText: "gimme browser plz"}, nil, domain.PersonaFriendly)
	if !strings.Contains(out, "Did you mean") {
		t.Fatalf("unknown response missing suggestions: %q", out)
	}
	if !strings.Contains(out, "install firefox") {
		t.Fatalf("alias suggestion missing: %q", out)
	}

	out = f.Format(domain.Intent{Type: domain.IntentUnknown, RawText: "zzzz"}, nil, domain.PersonaFriendly)
	if !strings.Contains(out, "help") {
		t.Fatalf("fallback response should point at help: %q", out)
	}
}

func TestFormatHelpListsExamples(t *testing.T) {
	f := NewFormatter()
	out := f.Format(domain.Intent{Type: domain.IntentHelp}, nil, domain.PersonaEncouraging)
	for _, phrase := range []string{"install firefox", "update my system", "rollback", "restart nginx"} {
		if !strings.Contains(out, phrase) {
			t.Errorf("help text missing %q", phrase)
		}
	}
}

func TestExplainKnownTopic(t *testing.T) {
	f := NewFormatter()
	intent := domain.Intent{
		Type:     domain.IntentExplain,
		Entities: map[string]string{domain.EntityTopic: "a generation"},
	}
	out := f.Format(intent, nil, domain.PersonaMinimal)
	if !strings.Contains(out, "snapshot") {
		t.Fatalf("explain generation = %q", out)
	}

	intent.Entities[domain.EntityTopic] = "quantum entanglement"
	out = f.Format(intent, nil, domain.PersonaMinimal)
	if !strings.Contains(out, "manual") {
		t.Fatalf("unknown topic should point at the manual: %q", out)
	}
}

func TestSummary(t *testing.T) {
	f := NewFormatter()

	if got := f.Summary(installIntent(), &domain.CommandResult{Success: true, Executed: true}); got != "install_package: ok" {
		t.Fatalf("Summary success = %q", got)
	}
	if got := f.Summary(installIntent(), &domain.CommandResult{Executed: true, ExitCode: 2}); got != "install_package: failed (exit 2)" {
		t.Fatalf("Summary failure = %q", got)
	}
	if got := f.Summary(domain.Intent{Type: domain.IntentUnknown}, nil); got != "unknown query" {
		t.Fatalf("Summary unknown = %q", got)
	}
	dry := f.Summary(installIntent(), &domain.CommandResult{Success: true, Output: "Would run: nix-env -iA nixpkgs.firefox"})
	if dry != "dry-run: nix-env -iA nixpkgs.firefox" {
		t.Fatalf("Summary dry-run = %q", dry)
	}
}
