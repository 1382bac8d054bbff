package dispatch

import (
	"fmt"
	"regexp"

	"github.com/nix-humanity/ask-nix/internal/domain"
)

const systemProfile = "/nix/var/nix/profiles/system"

var (
	// Package and service names as nixpkgs and systemd accept them.
	nameRe       = regexp.MustCompile(`^[a-zA-Z0-9._+-]+$`)
	queryRe      = regexp.MustCompile(`^[a-zA-Z0-9._+ -]+$`)
	generationRe = regexp.MustCompile(`^[0-9]+$`)
)

// buildPlan renders the argv template for an intent, validating every
// substituted entity first.
func buildPlan(intent domain.Intent) (domain.CommandPlan, error) {
	switch intent.Type {
	case domain.IntentInstallPackage:
		pkg, err := entity(intent, domain.EntityPackage, nameRe)
		if err != nil {
			return domain.CommandPlan{}, err
		}
		return plan(fmt.Sprintf("install %s from nixpkgs", pkg),
			"nix-env", "-iA", "nixpkgs."+pkg), nil

	case domain.IntentRemovePackage:
		pkg, err := entity(intent, domain.EntityPackage, nameRe)
		if err != nil {
			return domain.CommandPlan{}, err
		}
		return plan(fmt.Sprintf("remove %s", pkg), "nix-env", "-e", pkg), nil

	case domain.IntentSearchPackage:
		query, err := entity(intent, domain.EntityQuery, queryRe)
		if err != nil {
			return domain.CommandPlan{}, err
		}
		return plan(fmt.Sprintf("search nixpkgs for %s", query),
			"nix", "search", "nixpkgs", query), nil

	case domain.IntentUpdateSystem:
		return plan("update the whole system",
			"sudo", "nixos-rebuild", "switch", "--upgrade"), nil

	case domain.IntentRollback:
		return plan("roll back to the previous generation",
			"sudo", "nixos-rebuild", "switch", "--rollback"), nil

	case domain.IntentGarbageCollect:
		return plan("delete old generations and unused store paths",
			"sudo", "nix-collect-garbage", "-d"), nil

	case domain.IntentListGenerations:
		return plan("list system generations",
			"sudo", "nix-env", "--list-generations", "--profile", systemProfile), nil

	case domain.IntentSwitchGeneration:
		gen, err := entity(intent, domain.EntityGeneration, generationRe)
		if err != nil {
			return domain.CommandPlan{}, err
		}
		return plan(fmt.Sprintf("switch to generation %s", gen),
			"sudo", "nix-env", "--switch-generation", gen, "-p", systemProfile), nil

	case domain.IntentRebuild:
		mode := intent.Entity(domain.EntityRebuildType)
		switch mode {
		case "", "switch":
			mode = "switch"
		case "boot", "test":
		default:
			return domain.CommandPlan{}, fmt.Errorf("dispatch: unsupported rebuild mode %q", mode)
		}
		return plan("rebuild the system configuration",
			"sudo", "nixos-rebuild", mode), nil

	case domain.IntentListInstalled:
		return plan("list installed packages", "nix-env", "-q"), nil

	case domain.IntentCheckStatus:
		return plan("show the NixOS version", "nixos-version"), nil

	case domain.IntentDiskUsage:
		return plan("show disk usage", "df", "-h"), nil

	case domain.IntentStartService:
		return servicePlan(intent, "start")
	case domain.IntentStopService:
		return servicePlan(intent, "stop")
	case domain.IntentRestartService:
		return servicePlan(intent, "restart")
	case domain.IntentEnableService:
		return servicePlan(intent, "enable")
	case domain.IntentDisableService:
		return servicePlan(intent, "disable")
	case domain.IntentServiceStatus:
		svc, err := entity(intent, domain.EntityService, nameRe)
		if err != nil {
			return domain.CommandPlan{}, err
		}
		return plan(fmt.Sprintf("show status of %s", svc),
			"systemctl", "status", svc), nil

	case domain.IntentServiceLogs:
		svc, err := entity(intent, domain.EntityService, nameRe)
		if err != nil {
			return domain.CommandPlan{}, err
		}
		return plan(fmt.Sprintf("show recent logs for %s", svc),
			"journalctl", "-u", svc, "-n", "50"), nil

	case domain.IntentListServices:
		return plan("list systemd services",
			"systemctl", "list-units", "--type=service"), nil

	default:
		return domain.CommandPlan{}, fmt.Errorf("dispatch: no command for intent %q", intent.Type)
	}
}

func servicePlan(intent domain.Intent, verb string) (domain.CommandPlan, error) {
	svc, err := entity(intent, domain.EntityService, nameRe)
	if err != nil {
		return domain.CommandPlan{}, err
	}
	return plan(fmt.Sprintf("%s the %s service", verb, svc),
		"sudo", "systemctl", verb, svc), nil
}

func plan(description string, argv ...string) domain.CommandPlan {
	return domain.CommandPlan{Argv: argv, Description: description}
}

func entity(intent domain.Intent, key string, allowed *regexp.Regexp) (string, error) {
	value := intent.Entity(key)
	if value == "" {
		return "", fmt.Errorf("dispatch: intent %q is missing the %s entity", intent.Type, key)
	}
	if !allowed.MatchString(value) {
		return "", fmt.Errorf("dispatch: %s %q contains unsupported characters", key, value)
	}
	return value, nil
}
