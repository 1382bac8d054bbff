package dispatch

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/pkg/logger"
)

func newTestDispatcher(t *testing.T, opts Options) *Dispatcher {
	t.Helper()
	return New(opts, logger.NewStd(false))
}

func intentWith(typ domain.IntentType, entities map[string]string) domain.Intent {
	return domain.Intent{Type: typ, Entities: entities, Confidence: 0.9}
}

func TestBuildTemplates(t *testing.T) {
	tests := []struct {
		name   string
		intent domain.Intent
		want   []string
	}{
		{
			name:   "install package",
			intent: intentWith(domain.IntentInstallPackage, map[string]string{domain.EntityPackage: "firefox"}),
			want:   []string{"nix-env", "-iA", "nixpkgs.firefox"},
		},
		{
			name:   "remove package",
			intent: intentWith(domain.IntentRemovePackage, map[string]string{domain.EntityPackage: "htop"}),
			want:   []string{"nix-env", "-e", "htop"},
		},
		{
			name:   "search",
			intent: intentWith(domain.IntentSearchPackage, map[string]string{domain.EntityQuery: "music player"}),
			want:   []string{"nix", "search", "nixpkgs", "music player"},
		},
		{
			name:   "update system",
			intent: intentWith(domain.IntentUpdateSystem, nil),
			want:   []string{"sudo", "nixos-rebuild", "switch", "--upgrade"},
		},
		{
			name:   "rollback",
			intent: intentWith(domain.IntentRollback, nil),
			want:   []string{"sudo", "nixos-rebuild", "switch", "--rollback"},
		},
		{
			name:   "garbage collect",
			intent: intentWith(domain.IntentGarbageCollect, nil),
			want:   []string{"sudo", "nix-collect-garbage", "-d"},
		},
		{
			name:   "list generations",
			intent: intentWith(domain.IntentListGenerations, nil),
			want:   []string{"sudo", "nix-env", "--list-generations", "--profile", "/nix/var/nix/profiles/system"},
		},
		{
			name:   "switch generation",
			intent: intentWith(domain.IntentSwitchGeneration, map[string]string{domain.EntityGeneration: "42"}),
			want:   []string{"sudo", "nix-env", "--switch-generation", "42", "-p", "/nix/var/nix/profiles/system"},
		},
		{
			name:   "rebuild default mode",
			intent: intentWith(domain.IntentRebuild, nil),
			want:   []string{"sudo", "nixos-rebuild", "switch"},
		},
		{
			name:   "rebuild boot",
			intent: intentWith(domain.IntentRebuild, map[string]string{domain.EntityRebuildType: "boot"}),
			want:   []string{"sudo", "nixos-rebuild", "boot"},
		},
		{
			name:   "list installed",
			intent: intentWith(domain.IntentListInstalled, nil),
			want:   []string{"nix-env", "-q"},
		},
		{
			name:   "check status",
			intent: intentWith(domain.IntentCheckStatus, nil),
			want:   []string{"nixos-version"},
		},
		{
			name:   "disk usage",
			intent: intentWith(domain.IntentDiskUsage, nil),
			want:   []string{"df", "-h"},
		},
		{
			name:   "restart service",
			intent: intentWith(domain.IntentRestartService, map[string]string{domain.EntityService: "nginx"}),
			want:   []string{"sudo", "systemctl", "restart", "nginx"},
		},
		{
			name:   "service status",
			intent: intentWith(domain.IntentServiceStatus, map[string]string{domain.EntityService: "sshd"}),
			want:   []string{"systemctl", "status", "sshd"},
		},
		{
			name:   "service logs",
			intent: intentWith(domain.IntentServiceLogs, map[string]string{domain.EntityService: "nginx"}),
			want:   []string{"journalctl", "-u", "nginx", "-n", "50"},
		},
		{
			name:   "list services",
			intent: intentWith(domain.IntentListServices, nil),
			want:   []string{"systemctl", "list-units", "--type=service"},
		},
	}

	d := newTestDispatcher(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := d.Build(tt.intent)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, plan.Argv); diff != "" {
				t.Errorf("argv mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildRejectsBadEntities(t *testing.T) {
	d := newTestDispatcher(t, Options{})

	cases := []domain.Intent{
		intentWith(domain.IntentInstallPackage, map[string]string{domain.EntityPackage: "firefox; rm -rf /"}),
		intentWith(domain.IntentInstallPackage, map[string]string{domain.EntityPackage: "$(reboot)"}),
		intentWith(domain.IntentInstallPackage, nil),
		intentWith(domain.IntentRestartService, map[string]string{domain.EntityService: "nginx && true"}),
		intentWith(domain.IntentSwitchGeneration, map[string]string{domain.EntityGeneration: "latest"}),
		intentWith(domain.IntentRebuild, map[string]string{domain.EntityRebuildType: "destroy"}),
		intentWith(domain.IntentUnknown, nil),
		intentWith(domain.IntentHelp, nil),
	}
	for _, intent := range cases {
		if _, err := d.Build(intent); err == nil {
			t.Errorf("Build(%s %v) succeeded, want error", intent.Type, intent.Entities)
		}
	}
}

func TestBuildStripsSudoWhenUnprivileged(t *testing.T) {
	d := newTestDispatcher(t, Options{AllowUnprivileged: true})
	plan, err := d.Build(intentWith(domain.IntentUpdateSystem, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"nixos-rebuild", "switch", "--upgrade"}, plan.Argv)
}

func TestRunDryRunNeverSpawns(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	d.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		t.Fatalf("dry run spawned %s %v", name, args)
		return nil
	}

	plan, err := d.Build(intentWith(domain.IntentInstallPackage, map[string]string{domain.EntityPackage: "firefox"}))
	require.NoError(t, err)

	res, err := d.Run(context.Background(), plan, true)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.Executed)
	assert.Contains(t, res.Output, "nix-env -iA nixpkgs.firefox")
}

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	d.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "echo installed; echo oops >&2; exit 3")
	}

	res, err := d.Run(context.Background(), domain.CommandPlan{Argv: []string{"nix-env", "-q"}}, false)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, res.Executed)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "installed\n", res.Output)
	assert.Contains(t, res.Error, "oops")
}

func TestRunSuccess(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	d.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "echo firefox-128.0")
	}

	res, err := d.Run(context.Background(), domain.CommandPlan{Argv: []string{"nix-env", "-q"}}, false)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "firefox-128.0\n", res.Output)
}

func TestRunTimeout(t *testing.T) {
	d := newTestDispatcher(t, Options{Timeout: 50 * time.Millisecond})
	d.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sleep", "60")
	}

	res, err := d.Run(context.Background(), domain.CommandPlan{Argv: []string{"nixos-version"}}, false)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, res.Executed)
	assert.Equal(t, -1, res.ExitCode)
	assert.Contains(t, res.Error, "timed out")
}

func TestRunCallerDeadlineExtendsTimeout(t *testing.T) {
	d := newTestDispatcher(t, Options{Timeout: 10 * time.Millisecond})
	d.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "sleep 0.1 && echo ok")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := d.Run(ctx, domain.CommandPlan{Argv: []string{"nix-env", "-q"}}, false)
	require.NoError(t, err)
	assert.True(t, res.Success, "caller deadline should override the shorter configured timeout")
	assert.Equal(t, "ok\n", res.Output)
}

func TestRunCallerDeadlineShortensTimeout(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	d.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sleep", "60")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := d.Run(ctx, domain.CommandPlan{Argv: []string{"nixos-version"}}, false)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "timed out")
}

func TestRunMissingBinary(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	d.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "definitely-not-a-real-binary-xyz")
	}

	res, err := d.Run(context.Background(), domain.CommandPlan{Argv: []string{"nixos-version"}}, false)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestSearchManyFansOut(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	d.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		// The search term is the last argv element.
		term := args[len(args)-1]
		return exec.CommandContext(ctx, "sh", "-c", fmt.Sprintf("echo found %s", term))
	}

	terms := []string{"firefox", "vim", "htop"}
	results, err := d.SearchMany(context.Background(), terms, false)
	require.NoError(t, err)
	require.Len(t, results, len(terms))
	for i, term := range terms {
		assert.True(t, results[i].Success)
		assert.Equal(t, "found "+term+"\n", results[i].Output)
	}
}

func TestSearchManyDryRun(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	d.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		t.Fatalf("dry run spawned %s %v", name, args)
		return nil
	}

	results, err := d.SearchMany(context.Background(), []string{"firefox", "vim"}, true)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.False(t, res.Executed)
		assert.True(t, strings.Contains(res.Output, "nix search nixpkgs"))
	}
}
