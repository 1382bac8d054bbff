package persona

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/infrastructure/intent"
)

// style holds the cosmetic framing for one persona. Only the wrapping text
// differs between personas, never the facts.
type style struct {
	success string
}

var styles = map[domain.Persona]style{
	domain.PersonaMinimal:     {},
	domain.PersonaFriendly:    {success: "All done! "},
	domain.PersonaEncouraging: {success: "Nice work! "},
	domain.PersonaTechnical:   {},
	domain.PersonaSymbiotic:   {success: "Done. I noted how you phrased that for next time. "},
}

// applyPersona wraps a response body in persona framing. cheerful marks
// responses where a success flourish is appropriate.
func applyPersona(body string, persona domain.Persona, cheerful bool) string {
	s, ok := styles[persona]
	if !ok {
		s = styles[domain.PersonaFriendly]
	}
	if cheerful && s.success != "" {
		return s.success + body
	}
	return body
}

// triggerHints maps words a failed query may contain onto an example phrasing.
var triggerHints = []struct {
	word    string
	example string
}{
	{"install", `"install firefox"`},
	{"remove", `"remove firefox"`},
	{"search", `"search text editor"`},
	{"update", `"update my system"`},
	{"rollback", `"rollback"`},
	{"generation", `"list generations"`},
	{"service", `"restart nginx"`},
	{"log", `"show logs for nginx"`},
	{"space", `"free up disk space"`},
	{"clean", `"free up disk space"`},
}

func unknownResponse(raw string, persona domain.Persona) string {
	var b strings.Builder
	b.WriteString("I didn't understand that.")

	if suggestions := suggestFor(raw); len(suggestions) > 0 {
		b.WriteString(" Did you mean:\n")
		for _, s := range suggestions {
			b.WriteString("  - " + s + "\n")
		}
	} else {
		b.WriteString(" Try \"help\" to see what I can do.")
	}
	return applyPersona(b.String(), persona, false)
}

// suggestFor builds "did you mean" entries from the alias table and the
// trigger words.
func suggestFor(raw string) []string {
	lower := strings.ToLower(raw)
	words := strings.Fields(lower)

	var suggestions []string
	seen := map[string]bool{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			suggestions = append(suggestions, s)
		}
	}

	aliases := map[string]bool{}
	for _, name := range intent.KnownAliases() {
		aliases[name] = true
	}
	for _, word := range words {
		if aliases[word] {
			add(fmt.Sprintf(`"install %s"`, intent.ResolveAlias(word)))
		}
	}
	for _, hint := range triggerHints {
		if strings.Contains(lower, hint.word) {
			add(hint.example)
		}
	}
	sort.Strings(suggestions)
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}

func helpText() string {
	return strings.TrimSpace(`
Here's what you can ask me:

  Packages
    "install firefox"          add a package to your profile
    "remove firefox"           take it back out
    "search text editor"       look for packages in nixpkgs
    "what's installed"         list your packages

  System
    "update my system"         upgrade and switch
    "rebuild"                  apply configuration changes
    "rollback"                 return to the previous generation
    "list generations"         show system generations
    "switch to generation 42"  activate an older generation
    "free up disk space"       run the garbage collector
    "how much space is left"   disk usage
    "what version am i on"     NixOS version

  Services
    "is nginx running"         service status
    "restart nginx"            start, stop, restart
    "enable sshd"              enable or disable at boot
    "show logs for nginx"      recent journal entries

Commands preview by default. Add --execute to run them.`)
}

// topicNotes answers "what is X" for the handful of concepts people ask
// about most. Anything else gets a pointer to the manual.
var topicNotes = map[string]string{
	"generation": "A generation is a snapshot of your whole system configuration. Every rebuild creates one, and you can roll back to any previous generation at boot or with \"rollback\".",
	"flake":      "A flake is a Nix project with pinned inputs and a standard layout. It makes builds reproducible across machines.",
	"channel":    "A channel is a named, versioned snapshot of nixpkgs your system follows. \"update my system\" pulls the latest state of your channel.",
	"nix store":  "The nix store (/nix/store) holds every package as an immutable path. Nothing is overwritten in place, which is what makes rollbacks safe.",
	"nixpkgs":    "nixpkgs is the package collection behind NixOS, tens of thousands of packages built from one repository.",
	"profile":    "A profile is a mutable pointer into the nix store describing what is currently active for you or for the system.",
	"rollback":   "Rolling back flips the system profile to the previous generation. The old files are still in the nix store, so it takes seconds.",
}

func explainTopic(topic string) string {
	normalized := strings.ToLower(strings.TrimSpace(topic))
	normalized = strings.TrimPrefix(normalized, "a ")
	normalized = strings.TrimPrefix(normalized, "an ")
	normalized = strings.TrimPrefix(normalized, "the ")
	normalized = strings.TrimSuffix(normalized, "s")

	for key, note := range topicNotes {
		if strings.Contains(normalized, strings.TrimSuffix(key, "s")) ||
			strings.Contains(strings.TrimSuffix(key, "s"), normalized) {
			return note
		}
	}
	if topic == "" {
		return "Tell me what to explain, for example \"what is a generation\"."
	}
	return fmt.Sprintf("I don't have a note on %q yet. The NixOS manual (https://nixos.org/manual) is the best place to look.", topic)
}
