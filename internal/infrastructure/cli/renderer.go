package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nix-humanity/ask-nix/internal/domain"
)

// RenderResponse prints the response in a friendly, ASCII-only format.
func RenderResponse(out io.Writer, resp domain.QueryResponse, debug bool) {
	if debug {
		fmt.Fprintf(out, "intent: %s (confidence %.2f)\n", resp.Intent.Type, resp.Intent.Confidence)
		for _, key := range sortedEntityKeys(resp.Intent.Entities) {
			fmt.Fprintf(out, "  %s: %s\n", key, resp.Intent.Entities[key])
		}
		if resp.Command != "" {
			fmt.Fprintf(out, "command: %s\n", resp.Command)
		}
	}
	if resp.FromCache {
		fmt.Fprintln(out, "(cached result)")
	}

	fmt.Fprintln(out, strings.TrimRight(resp.Rendered, "\n"))

	if showRisk(resp) {
		fmt.Fprintf(out, "\nRisk: %s (%s)\n", strings.ToUpper(string(resp.Risk.Level)), resp.Risk.Action)
		for _, reason := range resp.Risk.Reasons {
			fmt.Fprintf(out, " - %s\n", reason)
		}
	}
}

// showRisk reports whether the risk block adds information: previews of
// commands the guardrail flagged get it, executed or safe commands do not.
func showRisk(resp domain.QueryResponse) bool {
	if len(resp.Risk.Reasons) == 0 {
		return false
	}
	return resp.Result == nil || !resp.Result.Executed
}

func sortedEntityKeys(entities map[string]string) []string {
	keys := make([]string, 0, len(entities))
	for key := range entities {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
