// Package sysinfo probes the host for the tooling and NixOS facts the
// doctor and the query pipeline report on.
package sysinfo

import (
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

// Inspector implements the SystemInspector port with binary lookups and two
// short-lived probe commands.
type Inspector struct {
	ollamaEnabled bool

	// lookPath and commandContext are overridable for testing.
	lookPath       func(file string) (string, error)
	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewInspector builds an Inspector. ollamaEnabled is reported through the
// capability set so the doctor can flag a configured but unreachable fallback.
func NewInspector(ollamaEnabled bool) *Inspector {
	return &Inspector{
		ollamaEnabled:  ollamaEnabled,
		lookPath:       exec.LookPath,
		commandContext: exec.CommandContext,
	}
}

// Inspect gathers a snapshot. Missing binaries and failed probes degrade to
// empty fields, never errors.
func (i *Inspector) Inspect(ctx context.Context) domain.SystemSnapshot {
	caps := domain.Capabilities{
		HasNix:          i.has("nix"),
		HasNixEnv:       i.has("nix-env"),
		HasNixosRebuild: i.has("nixos-rebuild"),
		HasSystemctl:    i.has("systemctl"),
		OllamaEnabled:   i.ollamaEnabled,
	}

	snapshot := domain.SystemSnapshot{Capabilities: caps}
	if i.has("nixos-version") {
		snapshot.NixOSVersion = strings.TrimSpace(i.probe(ctx, "nixos-version"))
	}
	if caps.HasNixEnv {
		snapshot.CurrentGeneration = currentGeneration(i.probe(ctx,
			"nix-env", "--list-generations", "--profile", "/nix/var/nix/profiles/system"))
	}
	return snapshot
}

func (i *Inspector) has(binary string) bool {
	_, err := i.lookPath(binary)
	return err == nil
}

func (i *Inspector) probe(ctx context.Context, name string, args ...string) string {
	cctx, cancel := context.WithTimeout(ctx, domain.DefaultProbeTimeout)
	defer cancel()
	out, err := i.commandContext(cctx, name, args...).Output()
	if err != nil {
		return ""
	}
	return string(out)
}

var currentGenRe = regexp.MustCompile(`^\s*(\d+)\s+.*\(current\)`)

// currentGeneration extracts the generation number marked (current) from
// nix-env --list-generations output.
func currentGeneration(listing string) string {
	for _, line := range strings.Split(listing, "\n") {
		if m := currentGenRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

var _ ports.SystemInspector = (*Inspector)(nil)
