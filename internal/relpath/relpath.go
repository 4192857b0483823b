// Package relpath implements the RelativePathResolver: stripping a path
// down to the suffix relative to its proximate dataset (or, for a path
// reached through an alias, the alias's local directory), and pairing that
// suffix with the snapshot roots recorded for a dataset of interest.
//
// Grounded on RelativePathAndSnapMounts::new and get_relative_path in
// original_source/src/lookup/versions.rs.
package relpath

import (
	"path/filepath"
	"strings"

	"github.com/ubuntu/snapview/internal/inventory"
	"github.com/ubuntu/snapview/internal/proximity"
	"github.com/ubuntu/snapview/internal/record"
)

// SearchBundle is the transient result of RelativePathResolver: the
// relative suffix of a path beneath its dataset of interest, and the
// ordered snapshot roots to search it under.
type SearchBundle struct {
	RelativePath  string
	SnapshotRoots []string
}

// Resolve computes the SearchBundle for rec given its already-resolved
// Proximity and a datasetOfInterest (the proximate mount in the common
// case, or one of its alt-replicated alternates). The relative suffix is
// always computed against p's proximate mount (or alias local directory);
// only the snapshot roots come from datasetOfInterest.
func Resolve(rec record.PathRecord, p proximity.Proximity, datasetOfInterest string, inv *inventory.DatasetInventory) (SearchBundle, error) {
	prefix := p.ProximateMount
	if p.ViaAlias {
		if alias, ok := aliasTargeting(p.ProximateMount, inv); ok {
			prefix = alias
		}
	}

	rel, ok := stripPrefix(rec.Path, prefix)
	if !ok {
		return SearchBundle{}, record.ErrPathOutsideDataset
	}

	roots, ok := inv.SnapshotRoots(datasetOfInterest)
	if !ok {
		return SearchBundle{}, record.ErrNoSnapshotsForDataset
	}

	return SearchBundle{RelativePath: rel, SnapshotRoots: roots}, nil
}

// aliasTargeting returns the local directory of the alias whose remote_dir
// equals mount. Resolve only consults it for a path reached via an alias.
func aliasTargeting(mount string, inv *inventory.DatasetInventory) (string, bool) {
	for local, alias := range inv.Aliases() {
		if alias.RemoteDir == mount {
			return local, true
		}
	}
	return "", false
}

// stripPrefix removes prefix from path, returning the remaining relative
// suffix with no leading separator. Returns false if path does not lie
// beneath prefix.
func stripPrefix(path, prefix string) (string, bool) {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = "/"
	}
	if prefix == "/" {
		return strings.TrimPrefix(path, "/"), true
	}
	if path == prefix {
		return ".", true
	}
	if !strings.HasPrefix(path, prefix+"/") {
		return "", false
	}
	return strings.TrimPrefix(path, prefix+"/"), true
}

// Join builds the absolute path of a snapshot copy: snapshotRoot joined
// with the relative suffix.
func Join(snapshotRoot, relativePath string) string {
	if relativePath == "." {
		return snapshotRoot
	}
	return filepath.Join(snapshotRoot, relativePath)
}
