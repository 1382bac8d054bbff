package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nix-humanity/ask-nix/internal/app"
	"github.com/nix-humanity/ask-nix/internal/infrastructure/config"
)

func TestSaveCacheSettingsPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	loader := config.NewFileLoader(path)
	_, err := loader.Load(context.Background())
	require.NoError(t, err)

	container := &app.Container{ConfigProvider: loader, ConfigLoader: loader}
	require.NoError(t, saveCacheSettings(context.Background(), container, 30*time.Minute, 50))

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "30m0s", cfg.Cache.TTL)
	assert.Equal(t, 50, cfg.Cache.MaxEntries)
}

func TestSaveCacheSettingsKeepsUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	loader := config.NewFileLoader(path)
	_, err := loader.Load(context.Background())
	require.NoError(t, err)

	container := &app.Container{ConfigProvider: loader, ConfigLoader: loader}
	require.NoError(t, saveCacheSettings(context.Background(), container, 0, 75))

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1h0m0s", cfg.Cache.TTL, "ttl untouched when only --max-entries is given")
	assert.Equal(t, 75, cfg.Cache.MaxEntries)
}
