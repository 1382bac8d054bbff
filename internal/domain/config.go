package domain

// Config mirrors ~/.config/nix-humanity/config.yaml.
type Config struct {
	ConfigFormatVersion string             `yaml:"config_format_version"`
	Preferences         Preferences        `yaml:"preferences"`
	Cache               CacheConfig        `yaml:"cache"`
	Execution           ExecutionSettings  `yaml:"execution"`
	Security            SecuritySettings   `yaml:"security"`
	Recognizer          RecognizerSettings `yaml:"recognizer"`
}

// Preferences captures user-level toggles.
type Preferences struct {
	Persona        string `yaml:"persona"`
	ExecuteDefault bool   `yaml:"execute_default"`
	TimeoutSeconds int    `yaml:"timeout"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
}

// ExecutionSettings controls how commands run.
type ExecutionSettings struct {
	AllowUnprivileged    bool `yaml:"allow_unprivileged"`
	ConfirmBeforeExecute bool `yaml:"confirm_before_execute"`
}

// SecuritySettings defines guardrail behavior.
type SecuritySettings struct {
	Enabled   bool   `yaml:"enabled"`
	RulesFile string `yaml:"rules_file"`
}

// RecognizerSettings configures the optional semantic fallback.
// Pattern matching always runs first; the Ollama fallback is consulted only
// for queries the pattern table cannot classify, and only when enabled here.
type RecognizerSettings struct {
	OllamaEnabled  bool   `yaml:"ollama_enabled"`
	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`
}
