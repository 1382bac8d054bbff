package domain

// HealthStatus indicates doctor check outcomes.
type HealthStatus string

const (
	HealthOK    HealthStatus = "ok"
	HealthWarn  HealthStatus = "warn"
	HealthError HealthStatus = "error"
)

// HealthCheck captures a single diagnostic result.
type HealthCheck struct {
	Name    string
	Status  HealthStatus
	Details string
}

// HealthReport aggregates checks.
type HealthReport struct {
	Checks []HealthCheck
}

// Healthy reports whether no check failed outright.
func (r HealthReport) Healthy() bool {
	for _, c := range r.Checks {
		if c.Status == HealthError {
			return false
		}
	}
	return true
}

// Capabilities records which downstream binaries and optional features are
// available. Detected once at startup instead of being probed per call site.
type Capabilities struct {
	HasNix          bool
	HasNixEnv       bool
	HasNixosRebuild bool
	HasSystemctl    bool
	OllamaEnabled   bool
}

// SystemSnapshot is environmental information collected for status responses
// and doctor output.
type SystemSnapshot struct {
	NixOSVersion      string
	CurrentGeneration string
	Capabilities      Capabilities
}
