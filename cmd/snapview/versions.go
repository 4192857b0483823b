package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ubuntu/snapview/internal/config"
	"github.com/ubuntu/snapview/internal/i18n"
	"github.com/ubuntu/snapview/internal/record"
	"github.com/ubuntu/snapview/internal/versionengine"
)

func newVersionsCmd(configPath *string) *cobra.Command {
	var (
		omitDitto            bool
		noSnap               bool
		noLive               bool
		jsonOutput           bool
		debugDumpFlag        bool
		includeAltReplicated bool
		lastSnap             config.LastSnapMode
	)

	cmd := &cobra.Command{
		Use:   "versions PATH...",
		Short: i18n.G("List every historical snapshot copy of one or more files"),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			inv, err := buildInventory(ctx, *configPath, includeAltReplicated)
			if err != nil {
				return err
			}

			paths := make([]record.PathRecord, 0, len(args))
			for _, a := range args {
				paths = append(paths, pathRecordFor(a))
			}

			opts := config.Options{
				OmitDitto: omitDitto,
				NoSnap:    noSnap,
				NoLive:    noLive,
				LastSnap:  lastSnap,
			}

			dm, err := versionengine.New(inv).Lookup(ctx, paths, opts)
			if err != nil && dm == nil {
				return fatalf(i18n.G("couldn't look up versions: "), err)
			}

			if noSnap {
				liveOnly := versionengine.NewDisplayMap()
				for _, live := range dm.Keys() {
					liveOnly.Set(live, nil)
				}
				dm = liveOnly
			}

			if debugDumpFlag {
				debugDump(os.Stdout, dm)
			}
			if jsonOutput {
				return printJSON(os.Stdout, dm, noLive)
			}
			printHuman(os.Stdout, dm, useColor(os.Stdout), noLive)

			// A partial failure (some paths had no qualifying dataset)
			// does not prevent printing the paths that did resolve; it is
			// still reported so scripts can detect it.
			return err
		},
	}

	cmd.Flags().BoolVar(&omitDitto, "omit-ditto", false, i18n.G("drop snapshot copies identical to the live file"))
	cmd.Flags().BoolVar(&noSnap, "no-snap", false, i18n.G("omit snapshot versions from the output; report only the live path"))
	cmd.Flags().BoolVar(&noLive, "no-live", false, i18n.G("omit the live path from the rendered output, showing only its historical versions"))
	cmd.Flags().BoolVar(&jsonOutput, "json", false, i18n.G("render machine-readable JSON instead of a table"))
	cmd.Flags().BoolVar(&debugDumpFlag, "debug-dump", false, i18n.G("pretty-print the resulting display map for troubleshooting"))
	cmd.Flags().BoolVar(&includeAltReplicated, "include-alt-replicated", false, i18n.G("also search alt-replicated datasets, merged with the proximate set"))
	cmd.Flags().Var(lastSnapFlag{mode: &lastSnap}, "last-snap", i18n.G("reduce each path's versions to its last snapshot (none, any, ditto-only, no-ditto-exclusive, no-ditto-inclusive)"))

	return cmd
}
