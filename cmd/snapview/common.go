package main

import (
	"context"
	"os"

	"github.com/ubuntu/snapview/internal/config"
	"github.com/ubuntu/snapview/internal/i18n"
	"github.com/ubuntu/snapview/internal/inventory"
	"github.com/ubuntu/snapview/internal/mounts"
	"github.com/ubuntu/snapview/internal/record"
)

// buildInventory discovers the live mount table, merges in the
// user-declared InventoryConfig at configPath, and applies any per-
// invocation override of the search strategy.
func buildInventory(ctx context.Context, configPath string, includeAltReplicated bool) (*inventory.DatasetInventory, error) {
	cfg, err := config.LoadInventoryConfig(configPath)
	if err != nil {
		return nil, fatalf(i18n.G("couldn't load inventory config: "), err)
	}

	d := mounts.New(mounts.WithInventoryConfig(cfg))
	inv, err := d.Discover(ctx)
	if err != nil {
		return nil, fatalf(i18n.G("couldn't discover mounted datasets: "), err)
	}

	if includeAltReplicated {
		inv = inv.WithSearchStrategy(inventory.IncludeAltReplicated)
	}

	return inv, nil
}

// pathRecordFor stats path to build a PathRecord, falling back to a
// phantom record (no metadata) when the live path no longer exists — the
// common case of asking for the versions of a file that has since been
// deleted.
func pathRecordFor(path string) record.PathRecord {
	fi, err := os.Stat(path)
	if err != nil {
		return record.Phantom(path)
	}
	return record.FromFileInfo(path, fi)
}
