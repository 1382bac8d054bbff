package filesystem

import (
	"os"
	"path/filepath"
)

// UserHomeDir returns the current user's home directory.
// If the home directory cannot be determined, it returns "." as a fallback.
func UserHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// DataDir returns the ask-nix state directory (~/.local/share/nix-for-humanity).
func DataDir() string {
	if custom := os.Getenv("XDG_DATA_HOME"); custom != "" {
		return filepath.Join(custom, "nix-for-humanity")
	}
	return filepath.Join(UserHomeDir(), ".local", "share", "nix-for-humanity")
}

// ConfigDir returns the ask-nix config directory (~/.config/nix-humanity).
func ConfigDir() string {
	if custom := os.Getenv("XDG_CONFIG_HOME"); custom != "" {
		return filepath.Join(custom, "nix-humanity")
	}
	return filepath.Join(UserHomeDir(), ".config", "nix-humanity")
}
