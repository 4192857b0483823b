package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ubuntu/snapview/internal/i18n"
	"github.com/ubuntu/snapview/internal/snapguard"
)

func newSnapCmd(_ *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "snap DATASET rollback|commit",
		Short:     i18n.G("Take a precautionary snapshot of a dataset, then roll back or commit it"),
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"rollback", "commit"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			dataset, action := args[0], args[1]

			if action != "rollback" && action != "commit" {
				return fmt.Errorf(i18n.G("unknown snap action %q (want rollback or commit)"), action)
			}

			guard, err := snapguard.New(ctx, dataset)
			if err != nil {
				return fatalf(i18n.G("couldn't start guarded workflow: "), err)
			}

			switch action {
			case "rollback":
				if err := guard.Rollback(ctx); err != nil {
					return fatalf(i18n.G("rollback failed: "), err)
				}
			case "commit":
				if err := guard.Commit(ctx); err != nil {
					return fatalf(i18n.G("commit failed: "), err)
				}
			}

			fmt.Printf(i18n.G("%s: %s complete (guard snapshot %s)\n"), dataset, action, guard.SnapshotName())
			return nil
		},
	}

	return cmd
}
