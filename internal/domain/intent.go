// Package domain defines core business entities and value objects for ask-nix.
//
// The domain layer is independent of infrastructure concerns and represents
// pure business logic and data structures: recognized intents, command plans,
// execution results, cache entries and configuration.
package domain

// IntentType enumerates the user goals ask-nix can recognize from free text.
type IntentType string

const (
	IntentInstallPackage   IntentType = "install_package"
	IntentRemovePackage    IntentType = "remove_package"
	IntentSearchPackage    IntentType = "search_package"
	IntentUpdateSystem     IntentType = "update_system"
	IntentRollback         IntentType = "rollback"
	IntentGarbageCollect   IntentType = "garbage_collect"
	IntentListGenerations  IntentType = "list_generations"
	IntentSwitchGeneration IntentType = "switch_generation"
	IntentRebuild          IntentType = "rebuild"
	IntentListInstalled    IntentType = "list_installed"
	IntentCheckStatus      IntentType = "check_status"
	IntentDiskUsage        IntentType = "disk_usage"
	IntentStartService     IntentType = "start_service"
	IntentStopService      IntentType = "stop_service"
	IntentRestartService   IntentType = "restart_service"
	IntentServiceStatus    IntentType = "service_status"
	IntentListServices     IntentType = "list_services"
	IntentEnableService    IntentType = "enable_service"
	IntentDisableService   IntentType = "disable_service"
	IntentServiceLogs      IntentType = "service_logs"
	IntentExplain          IntentType = "explain"
	IntentHelp             IntentType = "help"
	IntentUnknown          IntentType = "unknown"
)

// AllIntentTypes lists every intent type the recognizer can produce.
// The cache policy tests iterate this to stay exhaustive when the enum grows.
var AllIntentTypes = []IntentType{
	IntentInstallPackage,
	IntentRemovePackage,
	IntentSearchPackage,
	IntentUpdateSystem,
	IntentRollback,
	IntentGarbageCollect,
	IntentListGenerations,
	IntentSwitchGeneration,
	IntentRebuild,
	IntentListInstalled,
	IntentCheckStatus,
	IntentDiskUsage,
	IntentStartService,
	IntentStopService,
	IntentRestartService,
	IntentServiceStatus,
	IntentListServices,
	IntentEnableService,
	IntentDisableService,
	IntentServiceLogs,
	IntentExplain,
	IntentHelp,
	IntentUnknown,
}

// Entity keys used in Intent.Entities.
const (
	EntityPackage     = "package"
	EntityQuery       = "query"
	EntityService     = "service"
	EntityGeneration  = "generation"
	EntityRebuildType = "rebuild_type"
	EntityTopic       = "topic"
)

// Intent is the classified user goal extracted from a single query.
// Created once per query and never mutated afterwards.
type Intent struct {
	Type       IntentType
	Entities   map[string]string
	Confidence float64
	RawText    string
}

// Entity returns the named entity or the empty string.
func (i Intent) Entity(key string) string {
	if i.Entities == nil {
		return ""
	}
	return i.Entities[key]
}
