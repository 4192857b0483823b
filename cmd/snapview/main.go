// Command snapview surfaces historical snapshot copies of files stored on
// ZFS or Btrfs-with-snapper filesystems, and drives a guarded
// snapshot/rollback workflow against a dataset.
//
// Structured the way cmd/zsys/main.go builds its command tree: a cobra root
// command carrying a persistent -v/-vv verbosity flag, with one
// subcommand per top-level operation.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/ubuntu/snapview/internal/config"
	"github.com/ubuntu/snapview/internal/i18n"
	"github.com/ubuntu/snapview/internal/log"
)

func main() {
	i18n.InitI18nDomain(config.TEXTDOMAIN)

	cmd := generateCommands()
	if err := cmd.Execute(); err != nil {
		log.Error(context.Background(), err)
		os.Exit(1)
	}
}

func generateCommands() *cobra.Command {
	var flagVerbosity int
	var flagConfigPath string

	rootCmd := &cobra.Command{
		Use:   "snapview",
		Short: i18n.G("Browse and restore historical versions of files on ZFS and Btrfs snapshots"),
		Long: i18n.G(`snapview surfaces every historical snapshot copy of a file stored on a
copy-on-write filesystem exposing snapshots as hidden sibling directories
(ZFS's .zfs/snapshot/<name>, or Btrfs-with-snapper's .snapshots/<id>/snapshot),
lets you browse a tree including deleted files, and can take a guarded
snapshot before a risky rollback.`),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.SetVerboseMode(flagVerbosity > 0)
			switch {
			case flagVerbosity > 1:
				log.SetLevel(log.DebugLevel)
			case flagVerbosity == 1:
				log.SetLevel(log.InfoLevel)
			default:
				log.SetLevel(log.DefaultLevel)
			}
		},
	}
	rootCmd.PersistentFlags().CountVarP(&flagVerbosity, "verbose", "v", i18n.G("issue INFO (-v) and DEBUG (-vv) output"))
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", config.DefaultUserConfigPath, i18n.G("path to the inventory config file (aliases, filter dirs, search strategy)"))

	rootCmd.AddCommand(newVersionsCmd(&flagConfigPath))
	rootCmd.AddCommand(newBrowseCmd(&flagConfigPath))
	rootCmd.AddCommand(newSnapCmd(&flagConfigPath))

	return rootCmd
}

// fatalf formats err the way cmd/zsys/main.go does at its destructive-call
// boundaries: a verbose-mode-aware xerrors chain the caller prints and
// exits non-zero on.
func fatalf(format string, err error) error {
	return xerrors.Errorf(format+config.ErrorFormat, err)
}
