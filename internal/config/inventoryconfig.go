package config

import (
	"fmt"
	"io/ioutil"

	"github.com/ubuntu/snapview/internal/i18n"
	"gopkg.in/yaml.v2"
)

// AliasConfig is the user-declared mapping of a local directory onto a
// remote snapshot-bearing directory, as read from the YAML document.
type AliasConfig struct {
	Remote string `yaml:"remote"`
	FSKind string `yaml:"fs_kind"`
}

// InventoryConfig is the user-editable document supplying the parts of a
// DatasetInventory that cannot be discovered by reading the mount table:
// aliases, extra filter directories, the common Btrfs snapshot directory,
// and the default search strategy. internal/mounts loads one of these and
// merges it into the DatasetInventory it discovers from the live system.
type InventoryConfig struct {
	Aliases        map[string]AliasConfig `yaml:"aliases"`
	FilterDirs     []string               `yaml:"filter_dirs"`
	CommonSnapDir  string                 `yaml:"common_snap_dir"`
	SearchStrategy string                 `yaml:"search_strategy"`
}

// LoadInventoryConfig reads and parses the YAML document at path. A missing
// file is not an error: it returns an InventoryConfig whose only non-zero
// field is CommonSnapDir, set to DefaultCommonSnapDir, since every field has
// a sensible default (no aliases, no extra filter dirs, the standard
// common_snap_dir, ProximateOnly).
func LoadInventoryConfig(path string) (InventoryConfig, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		if isNotExist(err) {
			cfg := InventoryConfig{CommonSnapDir: DefaultCommonSnapDir}
			return cfg, nil
		}
		return InventoryConfig{}, fmt.Errorf(i18n.G("couldn't read inventory config %q: %v"), path, err)
	}

	var cfg InventoryConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return InventoryConfig{}, fmt.Errorf(i18n.G("couldn't parse inventory config %q: %v"), path, err)
	}
	if cfg.CommonSnapDir == "" {
		cfg.CommonSnapDir = DefaultCommonSnapDir
	}
	return cfg, nil
}
