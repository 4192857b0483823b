package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ubuntu/snapview/internal/config"
)

func TestLoadInventoryConfigMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadInventoryConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.DefaultCommonSnapDir, cfg.CommonSnapDir)
	require.Empty(t, cfg.Aliases)
	require.Empty(t, cfg.FilterDirs)
}

func TestLoadInventoryConfigParsesYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
aliases:
  /mnt/shared:
    remote: /tank/shared
    fs_kind: zfs
filter_dirs:
  - /tank/.cache
search_strategy: include-alt-replicated
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := config.LoadInventoryConfig(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultCommonSnapDir, cfg.CommonSnapDir)
	require.Equal(t, []string{"/tank/.cache"}, cfg.FilterDirs)
	require.Equal(t, "/tank/shared", cfg.Aliases["/mnt/shared"].Remote)
	require.Equal(t, "zfs", cfg.Aliases["/mnt/shared"].FSKind)
	require.Equal(t, "include-alt-replicated", cfg.SearchStrategy)
}

func TestLoadInventoryConfigHonorsExplicitCommonSnapDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("common_snap_dir: /custom-snaps\n"), 0o600))

	cfg, err := config.LoadInventoryConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/custom-snaps", cfg.CommonSnapDir)
}

func TestLoadInventoryConfigRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aliases: [this is not a map"), 0o600))

	_, err := config.LoadInventoryConfig(path)
	require.Error(t, err)
}
