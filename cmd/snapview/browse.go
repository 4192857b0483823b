package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ubuntu/snapview/internal/config"
	"github.com/ubuntu/snapview/internal/control"
	"github.com/ubuntu/snapview/internal/enumerator"
	"github.com/ubuntu/snapview/internal/i18n"
	"github.com/ubuntu/snapview/internal/log"
	"github.com/ubuntu/snapview/internal/record"
	"github.com/ubuntu/snapview/internal/selector"
	"github.com/ubuntu/snapview/internal/versionengine"
)

func newBrowseCmd(configPath *string) *cobra.Command {
	var (
		recursive            bool
		noHidden             bool
		noTraverse           bool
		noFilter             bool
		interactive          bool
		includeAltReplicated bool
		deletedMode          config.DeletedMode
	)

	cmd := &cobra.Command{
		Use:   "browse DIR",
		Short: i18n.G("Stream live (and, with --deleted, phantom) entries under a directory"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			inv, err := buildInventory(ctx, *configPath, includeAltReplicated)
			if err != nil {
				return err
			}

			opts := enumerator.Options{
				Options: config.Options{
					NoHidden:    noHidden,
					NoTraverse:  noTraverse,
					NoFilter:    noFilter,
					Recursive:   recursive,
					DeletedMode: deletedMode,
				},
				OnSkippedDir: func(path string, err error) {
					log.Debugf(ctx, i18n.G("skipping unreadable directory %q: %v"), path, err)
				},
			}

			hangup := control.NewHangup()
			ch := control.New(64, hangup)

			go enumerator.New(inv).Enumerate(ctx, args[0], opts, ch)

			if interactive {
				selected, err := selector.Prompt(ctx, ch.Items(), hangup, os.Stdin, os.Stdout)
				if err != nil {
					return fatalf(i18n.G("no selection: "), err)
				}
				dm, err := versionengine.New(inv).Lookup(ctx, []record.PathRecord{selected}, config.Options{})
				if err != nil && dm == nil {
					return fatalf(i18n.G("couldn't look up versions for selection: "), err)
				}
				printHuman(os.Stdout, dm, useColor(os.Stdout), false)
				return err
			}

			return streamAll(ch)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, i18n.G("descend into subdirectories"))
	cmd.Flags().BoolVar(&noHidden, "no-hidden", false, i18n.G("skip dotfiles and dot-directories"))
	cmd.Flags().BoolVar(&noTraverse, "no-traverse", false, i18n.G("never follow symlinks as directories"))
	cmd.Flags().BoolVar(&noFilter, "no-filter", false, i18n.G("disable hidden-snapshot-directory filtering entirely"))
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, i18n.G("prompt for a single selection and print its versions"))
	cmd.Flags().BoolVar(&includeAltReplicated, "include-alt-replicated", false, i18n.G("also search alt-replicated datasets when resolving the interactive selection"))
	cmd.Flags().Var(deletedModeFlag{mode: &deletedMode}, "deleted", i18n.G("synthesize phantom entries for deleted names (disabled, depth-of-one, all, only)"))

	return cmd
}

// streamAll drains ch, printing each SelectionCandidate as it arrives; this
// is the non-interactive batching path, used by scripts piping browse's
// output instead of selecting one entry.
func streamAll(ch control.Channels) error {
	for cand := range ch.Items() {
		marker := ""
		if cand.IsPhantom {
			marker = " (deleted)"
		}
		fmt.Println(cand.Path.Path + marker)
	}
	return nil
}
