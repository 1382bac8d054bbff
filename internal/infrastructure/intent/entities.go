package intent

import (
	"regexp"
	"strings"

	"github.com/nix-humanity/ask-nix/internal/domain"
)

// packageAliases maps common synonyms to nixpkgs attribute names.
var packageAliases = map[string]string{
	"browser":  "firefox",
	"firefox":  "firefox",
	"chrome":   "google-chrome",
	"chromium": "chromium",
	"vscode":   "vscode",
	"code":     "vscode",
	"vim":      "vim",
	"neovim":   "neovim",
	"nvim":     "neovim",
	"emacs":    "emacs",
	"python":   "python3",
	"node":     "nodejs",
	"nodejs":   "nodejs",
	"npm":      "nodejs",
	"docker":   "docker",
	"git":      "git",
	"htop":     "htop",
	"tmux":     "tmux",
	"zsh":      "zsh",
	"fish":     "fish",
	"rust":     "rustc",
	"cargo":    "cargo",
	"golang":   "go",
	"java":     "openjdk",
	"jdk":      "openjdk",
}

// ResolveAlias maps a user-supplied package synonym to its nixpkgs name.
func ResolveAlias(name string) string {
	if resolved, ok := packageAliases[strings.ToLower(name)]; ok {
		return resolved
	}
	return name
}

// KnownAliases returns the synonym table keys, used for "did you mean"
// suggestions on unrecognized input.
func KnownAliases() []string {
	names := make([]string, 0, len(packageAliases))
	for name := range packageAliases {
		names = append(names, name)
	}
	return names
}

var digitsRe = regexp.MustCompile(`^\d+$`)
var serviceNameRe = regexp.MustCompile(`^[a-z0-9@._-]+$`)

var packageStopwords = wordSet(
	"install", "add", "get", "set up", "remove", "uninstall", "delete",
	"rid", "of", "can you", "please", "could you", "need", "want",
	"would like", "i", "me", "my", "the", "a",
)

var packageVagueWords = wordSet("something", "anything", "stuff", "things", "it")

var serviceStopwords = wordSet(
	"the", "service", "services", "on", "at", "boot", "of", "for", "is",
	"running", "starting", "from", "-u",
)

func extractPackage(match []string, _ string) (map[string]string, float64, bool) {
	token := lastMeaningfulGroup(match, packageStopwords)
	if token == "" {
		return nil, 0, false
	}
	pkg := ResolveAlias(token)

	// Vague targets still classify, but with a confidence penalty so
	// downstream callers can prefer a clarifying response.
	confidence := 0.9
	if packageVagueWords[token] {
		confidence = 0.6
	} else if len(token) < 2 || token == "some" {
		confidence = 0.5
	}
	return map[string]string{domain.EntityPackage: pkg}, confidence, true
}

func extractService(match []string, _ string) (map[string]string, float64, bool) {
	token := lastMeaningfulGroup(match, serviceStopwords)
	if token == "" || !serviceNameRe.MatchString(token) {
		return nil, 0, false
	}
	return map[string]string{domain.EntityService: token}, 0, true
}

func extractGeneration(match []string, _ string) (map[string]string, float64, bool) {
	for _, group := range match[1:] {
		if digitsRe.MatchString(group) {
			return map[string]string{domain.EntityGeneration: group}, 0, true
		}
	}
	return nil, 0, false
}

func extractRebuildType(_ []string, text string) (map[string]string, float64, bool) {
	rebuildType := "switch"
	if strings.Contains(text, "boot") {
		rebuildType = "boot"
	} else if strings.Contains(text, "test") {
		rebuildType = "test"
	}
	return map[string]string{domain.EntityRebuildType: rebuildType}, 0, true
}

func extractSearchQuery(match []string, _ string) (map[string]string, float64, bool) {
	query := lastNonEmptyGroup(match)
	query = strings.TrimPrefix(query, "for ")
	query = strings.TrimPrefix(query, "a ")
	query = strings.TrimSuffix(query, " packages")
	query = strings.TrimSuffix(query, " package")
	query = strings.TrimSpace(query)
	if query == "" || serviceStopwords[query] {
		return nil, 0, false
	}
	return map[string]string{domain.EntityQuery: query}, 0, true
}

func extractTopic(match []string, _ string) (map[string]string, float64, bool) {
	topic := lastNonEmptyGroup(match)
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, 0, false
	}
	return map[string]string{domain.EntityTopic: topic}, 0, true
}

// lastMeaningfulGroup walks capture groups right to left and returns the
// first token that is not a command keyword.
func lastMeaningfulGroup(match []string, stopwords map[string]bool) string {
	for i := len(match) - 1; i >= 1; i-- {
		token := strings.TrimSpace(match[i])
		if token == "" || stopwords[token] {
			continue
		}
		return token
	}
	return ""
}

func lastNonEmptyGroup(match []string) string {
	for i := len(match) - 1; i >= 1; i-- {
		if strings.TrimSpace(match[i]) != "" {
			return strings.TrimSpace(match[i])
		}
	}
	return ""
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
