// Package intent classifies natural-language queries into ask-nix intents.
//
// Recognition is deliberately a lookup table, not a model: an ordered list of
// regex pattern sets where the first match wins, followed by entity
// extraction against a static alias table. Pattern order matters — more
// specific intents (switch generation, garbage collect, list installed) sit
// above the generic install/remove/search patterns that would otherwise
// swallow their trigger phrases.
package intent

import (
	"regexp"
	"strings"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

// Recognizer implements ports.IntentRecognizer with pattern matching.
type Recognizer struct {
	rules []rule
}

type rule struct {
	intent     domain.IntentType
	confidence float64
	patterns   []*regexp.Regexp
	// extract pulls entities from the regex match. A nil extract accepts the
	// match with no entities; returning ok=false rejects it and the scan
	// moves on to the next rule.
	extract func(match []string, text string) (map[string]string, float64, bool)
}

// NewRecognizer builds the default pattern table.
func NewRecognizer() *Recognizer {
	return &Recognizer{rules: defaultRules()}
}

// Recognize classifies text. Unmatched input yields IntentUnknown with
// confidence zero.
func (r *Recognizer) Recognize(text string) domain.Intent {
	normalized := Normalize(text)
	for _, rl := range r.rules {
		for _, re := range rl.patterns {
			match := re.FindStringSubmatch(normalized)
			if match == nil {
				continue
			}
			entities := map[string]string{}
			confidence := rl.confidence
			if rl.extract != nil {
				extracted, adjusted, ok := rl.extract(match, normalized)
				if !ok {
					continue
				}
				if extracted != nil {
					entities = extracted
				}
				if adjusted > 0 {
					confidence = adjusted
				}
			}
			return domain.Intent{
				Type:       rl.intent,
				Entities:   entities,
				Confidence: confidence,
				RawText:    text,
			}
		}
	}
	return domain.Intent{
		Type:       domain.IntentUnknown,
		Entities:   map[string]string{},
		Confidence: 0.0,
		RawText:    text,
	}
}

// Normalize lowercases, trims, collapses whitespace and strips trailing
// punctuation. Cache keys use the same normalization so that "Install Firefox!"
// and "install firefox" share an entry.
func Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.Join(strings.Fields(text), " ")
	return strings.TrimRight(text, ".,!?;:")
}

func defaultRules() []rule {
	return []rule{
		{
			intent:     domain.IntentHelp,
			confidence: 0.95,
			patterns: compile(
				`^help$`,
				`\bhelp\s+me\b`,
				`\bwhat\s+can\s+(you|i)\s+(do|say|ask)\b`,
				`\bhow\s+do\s+i\s+use\s+(this|you)\b`,
				`\b(show|list)\s+(me\s+)?(all\s+|the\s+)?commands\b`,
			),
		},
		{
			intent:     domain.IntentSwitchGeneration,
			confidence: 0.9,
			patterns: compile(
				`\b(switch|change|go)(\s+back)?\s+to\s+generation\s+(\d+)`,
				`\buse\s+generation\s+(\d+)`,
				`\bboot\s+(into|to)\s+generation\s+(\d+)`,
			),
			extract: extractGeneration,
		},
		{
			intent:     domain.IntentGarbageCollect,
			confidence: 0.85,
			patterns: compile(
				`\b(garbage\s+collect|collect\s+(the\s+)?garbage|clean\s*up|free\s+(up\s+)?(disk\s+)?space)`,
				`\b(delete|remove)\s+(old|unused)\s+(packages?|generations?)`,
				`\bhow\s+much\s+space\s+can\s+i\s+free`,
				`^gc$`,
			),
		},
		{
			intent:     domain.IntentListGenerations,
			confidence: 0.9,
			patterns: compile(
				`\b(list|show|view)\s+((system|my)\s+)?generations?`,
				`\bwhat\s+generations?\s+(do\s+i\s+have|are\s+available)`,
				`\bhistory\s+of\s+(my\s+)?system`,
			),
		},
		{
			intent:     domain.IntentRebuild,
			confidence: 0.85,
			patterns: compile(
				`\b(rebuild|apply)\s+(my\s+)?(configuration|config|changes|system)`,
				`\b(nixos-)?rebuild\s+(switch|boot|test)`,
				`\bapply\s+changes?\b`,
				`^rebuild$`,
			),
			extract: extractRebuildType,
		},
		{
			intent:     domain.IntentCheckStatus,
			confidence: 0.85,
			patterns: compile(
				`\b(check|show|what'?s)\s+(the\s+)?(system\s+)?status`,
				`\bsystem\s+status\b`,
				`\bsystem\s+(info(rmation)?|health)`,
				`\bhow\s+is\s+my\s+system`,
				`\bhealth\s+check`,
				`^status$`,
			),
		},
		{
			intent:     domain.IntentListServices,
			confidence: 0.9,
			patterns: compile(
				`\b(list|show)\s+((all|running|active)\s+)?services\b`,
				`\bwhat\s+services\s+are\s+running`,
				`\bactive\s+services\b`,
			),
		},
		{
			intent:     domain.IntentServiceLogs,
			confidence: 0.85,
			patterns: compile(
				`\b(show|view|display)\s+(the\s+)?logs?\s+(for|of)\s+(\S+)`,
				`\bjournalctl\s+(-u\s+)?(\S+)`,
				`\b(\S+)\s+(service\s+)?logs?$`,
			),
			extract: extractService,
		},
		{
			intent:     domain.IntentEnableService,
			confidence: 0.9,
			patterns: compile(
				`\benable\s+(the\s+)?(\S+?)(\s+service)?$`,
				`\bstart\s+(\S+)\s+(on|at)\s+boot`,
				`\bauto-?start\s+(\S+)`,
				`\bsystemctl\s+enable\s+(\S+)`,
			),
			extract: extractService,
		},
		{
			intent:     domain.IntentDisableService,
			confidence: 0.9,
			patterns: compile(
				`\bdisable\s+(the\s+)?(\S+?)(\s+service)?$`,
				`\bdon'?t\s+auto-?start\s+(\S+)`,
				`\bprevent\s+(\S+)\s+from\s+starting`,
				`\bsystemctl\s+disable\s+(\S+)`,
			),
			extract: extractService,
		},
		{
			intent:     domain.IntentRestartService,
			confidence: 0.9,
			patterns: compile(
				`\brestart\s+(the\s+)?(\S+?)(\s+service)?$`,
				`\breload\s+(the\s+)?(\S+?)(\s+service)?$`,
				`\bsystemctl\s+restart\s+(\S+)`,
			),
			extract: extractService,
		},
		{
			intent:     domain.IntentStartService,
			confidence: 0.9,
			patterns: compile(
				`\bstart\s+(the\s+)?(\S+?)(\s+service)?$`,
				`\bturn\s+on\s+(the\s+)?(\S+?)(\s+service)?$`,
				`\bsystemctl\s+start\s+(\S+)`,
			),
			extract: extractService,
		},
		{
			intent:     domain.IntentStopService,
			confidence: 0.9,
			patterns: compile(
				`\bstop\s+(the\s+)?(\S+?)(\s+service)?$`,
				`\bturn\s+off\s+(the\s+)?(\S+?)(\s+service)?$`,
				`\bshut\s*down\s+(the\s+)?(\S+)\s+service`,
				`\bsystemctl\s+stop\s+(\S+)`,
			),
			extract: extractService,
		},
		{
			intent:     domain.IntentServiceStatus,
			confidence: 0.9,
			patterns: compile(
				`\bis\s+(\S+)\s+(service\s+)?running`,
				`\bstatus\s+of\s+(the\s+)?(\S+?)(\s+service)?$`,
				`\b(\S+)\s+service\s+status`,
				`\bsystemctl\s+status\s+(\S+)`,
			),
			extract: extractService,
		},
		{
			intent:     domain.IntentDiskUsage,
			confidence: 0.9,
			patterns: compile(
				`\b(disk|storage)\s+(usage|space)`,
				`\bhow\s+much\s+(disk\s+|storage\s+)?space`,
				`\bfree\s+space\b`,
				`\bspace\s+left\b`,
				`^df$`,
			),
		},
		{
			intent:     domain.IntentListInstalled,
			confidence: 0.9,
			patterns: compile(
				`\b(list|show|what)\s+(packages?\s+)?((is|are)\s+)?installed`,
				`\bwhat\s+do\s+i\s+have\s+installed`,
				`\bshow\s+(me\s+)?my\s+packages`,
				`\binstalled\s+packages?\b`,
			),
		},
		{
			intent:     domain.IntentRemovePackage,
			confidence: 0.9,
			patterns: compile(
				`\b(remove|uninstall|delete)\s+(a\s+|an\s+|the\s+)?(\S+)`,
				`\bget\s+rid\s+of\s+(a\s+|an\s+|the\s+)?(\S+)`,
				`\bi\s+don'?t\s+want\s+(\S+)\s+anymore`,
			),
			extract: extractPackage,
		},
		{
			intent:     domain.IntentInstallPackage,
			confidence: 0.9,
			patterns: compile(
				`\b(install|add|get|set\s+up)\s+(a\s+|an\s+|the\s+)?(\S+)`,
				`\b(can\s+you|please|could\s+you)\s+(install|add|get)\s+(\S+)`,
				`\bi\s+(need|want|would\s+like)\s+(a\s+|an\s+|the\s+)?(\S+)`,
				`\bget\s+me\s+(a\s+|an\s+|the\s+)?(\S+)`,
			),
			extract: extractPackage,
		},
		{
			intent:     domain.IntentUpdateSystem,
			confidence: 0.85,
			patterns: compile(
				`\b(update|upgrade|refresh)\s+(my\s+)?(system|nixos|everything)`,
				`\b(system|nixos)\s+(update|upgrade)`,
				`\bupgrade\s+all\b`,
				`^update$`,
			),
		},
		{
			intent:     domain.IntentSearchPackage,
			confidence: 0.8,
			patterns: compile(
				`\b(search|look\s+for|is\s+there)\s+(.+)$`,
				`\bfind\s+(a\s+)?(.+?)(\s+package)?$`,
				`\bwhat\s+packages?\s+(.+)$`,
			),
			extract: extractSearchQuery,
		},
		{
			intent:     domain.IntentRollback,
			confidence: 0.85,
			patterns: compile(
				`\b(rollback|roll\s+back|revert)\b`,
				`\b(go\s+back|undo)\s+(to\s+)?(the\s+)?(update|upgrade|changes|last)`,
				`\b(previous|last)\s+(generation|version|state)`,
				`^undo$`,
			),
		},
		{
			intent:     domain.IntentExplain,
			confidence: 0.7,
			patterns: compile(
				`\bwhat\s+(is|are)\s+(.+)$`,
				`\bexplain\s+(.+)$`,
				`\btell\s+me\s+about\s+(.+)$`,
				`\bhow\s+does\s+(.+?)\s+work`,
			),
			extract: extractTopic,
		},
	}
}

func compile(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		compiled[i] = regexp.MustCompile(expr)
	}
	return compiled
}

var _ ports.IntentRecognizer = (*Recognizer)(nil)
