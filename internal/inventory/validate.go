package inventory

import (
	"fmt"

	"github.com/ubuntu/snapview/internal/i18n"
)

// Validate checks the invariants a DatasetInventory must hold after
// construction: every snaps/alt_replicated key is a datasets key, no alias
// local directory is also a regular dataset mount, and every alias target
// (remote directory) is a known dataset. filter_dirs is not checked.
//
// Builder.Build never calls this automatically: mount discovery (internal/mounts)
// and tests both construct inventories incrementally, and some
// intermediate states are legitimately invalid. Callers that hand an
// inventory to the engine should call Validate first.
func (inv *DatasetInventory) Validate() error {
	for mount := range inv.snaps {
		if _, ok := inv.datasets[mount]; !ok {
			return fmt.Errorf(i18n.G("inventory invariant violated: snapshot roots recorded for %q, which is not a known dataset"), mount)
		}
	}
	for mount := range inv.altReplicated {
		if _, ok := inv.datasets[mount]; !ok {
			return fmt.Errorf(i18n.G("inventory invariant violated: alt-replicated mapping recorded for %q, which is not a known dataset"), mount)
		}
	}
	for local, alias := range inv.aliases {
		if _, ok := inv.datasets[local]; ok {
			return fmt.Errorf(i18n.G("inventory invariant violated: %q is both a regular dataset mount and an alias local directory"), local)
		}
		if _, ok := inv.datasets[alias.RemoteDir]; !ok {
			return fmt.Errorf(i18n.G("inventory invariant violated: alias %q targets %q, which is not a known dataset"), local, alias.RemoteDir)
		}
	}
	return nil
}
