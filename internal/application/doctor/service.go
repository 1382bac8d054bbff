// Package doctor runs environment diagnostics for the doctor command and
// the --diagnose flag.
package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Security       ports.SecurityService
	Cache          ports.CacheRepository
	History        ports.HistoryRepository
	Inspector      ports.SystemInspector
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("format version %s", cfg.ConfigFormatVersion)))

	if _, err := domain.ParsePersona(cfg.Preferences.Persona); err != nil {
		checks = append(checks, warn("Persona", err.Error()))
	} else {
		checks = append(checks, ok("Persona", cfg.Preferences.Persona))
	}

	if s.Security != nil {
		if _, err := s.Security.Evaluate("nix-env -q"); err != nil {
			checks = append(checks, fail("Guardrail", err.Error()))
		} else {
			checks = append(checks, ok("Guardrail", "rules loaded"))
		}
	} else {
		checks = append(checks, warn("Guardrail", "security service not initialized"))
	}

	checks = append(checks, writableCheck("Cache directory", s.Cache.Dir()))
	checks = append(checks, writableCheck("History store", filepath.Dir(s.History.Path())))

	if s.Inspector != nil {
		snapshot := s.Inspector.Inspect(ctx)
		checks = append(checks, binaryCheck("nix", snapshot.Capabilities.HasNix))
		checks = append(checks, binaryCheck("nix-env", snapshot.Capabilities.HasNixEnv))
		checks = append(checks, binaryCheck("nixos-rebuild", snapshot.Capabilities.HasNixosRebuild))
		checks = append(checks, binaryCheck("systemctl", snapshot.Capabilities.HasSystemctl))
		if snapshot.NixOSVersion != "" {
			checks = append(checks, ok("NixOS", snapshot.NixOSVersion))
		} else {
			checks = append(checks, warn("NixOS", "nixos-version not available, system operations will fail"))
		}
	}

	return domain.HealthReport{Checks: checks}, nil
}

func writableCheck(name, dir string) domain.HealthCheck {
	if dir == "" {
		return warn(name, "no path configured")
	}
	if err := os.MkdirAll(dir, domain.DirectoryPermissions); err != nil {
		return fail(name, fmt.Sprintf("%s: %v", dir, err))
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return fail(name, fmt.Sprintf("%s not writable: %v", dir, err))
	}
	_ = os.Remove(probe)
	return ok(name, dir)
}

func binaryCheck(binary string, present bool) domain.HealthCheck {
	if present {
		return ok(binary, "found in PATH")
	}
	return warn(binary, "not found in PATH")
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
