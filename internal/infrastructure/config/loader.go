// Package config loads YAML configuration from the user config directory,
// writing a commented default file on first run.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nix-humanity/ask-nix/assets"
	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/pkg/filesystem"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

// FileLoader loads ~/.config/nix-humanity/config.yaml (overridable via
// NIX_HUMANITY_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader. An empty path defers to the environment
// and the default location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
				return domain.Config{}, err
			}
			data = assets.DefaultConfigYAML
		} else {
			return domain.Config{}, err
		}
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}
	return applyToggleDefaults(data, hydrateDefaults(cfg)), nil
}

// Save writes the configuration back to the resolved path.
func (l *FileLoader) Save(cfg domain.Config) error {
	path := l.resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return err
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// Reset rewrites the embedded defaults and returns the resulting config.
func (l *FileLoader) Reset() (domain.Config, error) {
	path := l.resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return domain.Config{}, err
	}
	if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
		return domain.Config{}, err
	}
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		return domain.Config{}, err
	}
	return applyToggleDefaults(assets.DefaultConfigYAML, hydrateDefaults(cfg)), nil
}

// Path reports where the configuration is read from.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv("NIX_HUMANITY_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.ConfigDir(), "config.yaml")
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Preferences.Persona == "" {
		cfg.Preferences.Persona = string(domain.PersonaFriendly)
	}
	if cfg.Preferences.TimeoutSeconds == 0 {
		cfg.Preferences.TimeoutSeconds = int(domain.DefaultCommandTimeout.Seconds())
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = domain.DefaultCacheTTL.String()
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = domain.DefaultMaxCacheEntries
	}
	if cfg.Security.RulesFile == "" {
		cfg.Security.RulesFile = filepath.Join(filesystem.ConfigDir(), "guardrail.yaml")
	}
	if cfg.Recognizer.OllamaEndpoint == "" {
		cfg.Recognizer.OllamaEndpoint = "http://localhost:11434/api/generate"
	}
	if cfg.Recognizer.OllamaModel == "" {
		cfg.Recognizer.OllamaModel = "llama3.2:3b"
	}
	return cfg
}

// applyToggleDefaults turns absent boolean keys back on. A plain bool cannot
// distinguish a missing key from an explicit false, so presence is checked
// against the raw document: a config without a security or execution section
// must not silently disable the guardrail or confirmation prompts.
func applyToggleDefaults(data []byte, cfg domain.Config) domain.Config {
	var present struct {
		Security struct {
			Enabled *bool `yaml:"enabled"`
		} `yaml:"security"`
		Execution struct {
			ConfirmBeforeExecute *bool `yaml:"confirm_before_execute"`
		} `yaml:"execution"`
	}
	if err := yaml.Unmarshal(data, &present); err != nil {
		return cfg
	}
	if present.Security.Enabled == nil {
		cfg.Security.Enabled = true
	}
	if present.Execution.ConfirmBeforeExecute == nil {
		cfg.Execution.ConfirmBeforeExecute = true
	}
	return cfg
}

func expandPath(path string) string {
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
