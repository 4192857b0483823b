package config

// TEXTDOMAIN is the gettext domain this binary's translatable strings are
// registered under.
const TEXTDOMAIN = "snapview"

// DefaultUserConfigPath is the path read for the user-declared
// InventoryConfig (aliases, extra filter dirs, search strategy) when
// --config is not passed on the command line.
const DefaultUserConfigPath = "/etc/snapview/config.yaml"

// DefaultCommonSnapDir is the Btrfs-snapper convention for the directory
// holding numbered snapshot subdirectories, used when the user config does
// not override it.
const DefaultCommonSnapDir = "/.snapshots"
