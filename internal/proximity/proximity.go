// Package proximity implements the ProximityResolver: mapping a path to the
// dataset that most immediately contains it, alias-aware, and optionally to
// that dataset's alt-replicated alternates.
//
// The algorithm is ported from the ancestor-walk in
// MostProximateAndOptAlts::new (original_source/src/lookup/versions.rs):
// aliases are checked first (an alias match wins outright, since it is a
// user override), then ancestors are walked from the path itself up to "/"
// and the first one that is a dataset mount wins.
package proximity

import (
	"strings"

	"github.com/ubuntu/snapview/internal/inventory"
	"github.com/ubuntu/snapview/internal/record"
)

// Proximity is the result of resolving a path against a DatasetInventory:
// the most-proximate dataset mount, and, when the search strategy requests
// it, the alt-replicated alternates of that mount.
type Proximity struct {
	ProximateMount       string
	ViaAlias             bool
	OptionalAlternates   []string
	HasOptionalAlternate bool
}

// Resolve computes the Proximity for rec against inv, honoring inv's
// configured SearchStrategy.
func Resolve(rec record.PathRecord, inv *inventory.DatasetInventory) (Proximity, error) {
	if alias, ok := matchAlias(rec.Path, inv); ok {
		p := Proximity{ProximateMount: alias, ViaAlias: true}
		addAlternates(&p, inv)
		return p, nil
	}

	mount, ok := nearestAncestorDataset(rec.Path, inv)
	if !ok {
		return Proximity{}, record.ErrNoQualifyingDataset
	}

	p := Proximity{ProximateMount: mount}
	addAlternates(&p, inv)
	return p, nil
}

// addAlternates fills in OptionalAlternates when the inventory's search
// strategy is IncludeAltReplicated. A missing alt_replicated entry is
// non-fatal: the spec requires the caller to simply omit alternates for
// this path.
func addAlternates(p *Proximity, inv *inventory.DatasetInventory) {
	if inv.SearchStrategy() != inventory.IncludeAltReplicated {
		return
	}
	alt, ok := inv.AltReplicated(p.ProximateMount)
	if !ok {
		return
	}
	p.OptionalAlternates = alt.AlternateMount
	p.HasOptionalAlternate = true
}

// matchAlias walks the ancestors of path top-down (nearest first) and
// returns the remote directory of the first alias whose local directory
// matches an ancestor.
func matchAlias(path string, inv *inventory.DatasetInventory) (string, bool) {
	if len(inv.Aliases()) == 0 {
		return "", false
	}
	for _, anc := range ancestorsNearestFirst(path) {
		if alias, ok := inv.AliasFor(anc); ok {
			return alias.RemoteDir, true
		}
	}
	return "", false
}

// nearestAncestorDataset walks the ancestors of path top-down (nearest
// first) and returns the first one recorded as a dataset mount.
func nearestAncestorDataset(path string, inv *inventory.DatasetInventory) (string, bool) {
	for _, anc := range ancestorsNearestFirst(path) {
		if _, ok := inv.Dataset(anc); ok {
			return anc, true
		}
	}
	return "", false
}

// ancestorsNearestFirst returns every ancestor of path, from path itself up
// to "/", nearest first. Implementations walking root-to-leaf instead must
// keep the *last* match, never the first: this ordering is the contract
// (see the note in spec §4.1).
func ancestorsNearestFirst(path string) []string {
	clean := strings.TrimRight(path, "/")
	if clean == "" {
		clean = "/"
	}

	var anc []string
	cur := clean
	for {
		anc = append(anc, cur)
		if cur == "/" {
			break
		}
		idx := strings.LastIndex(cur, "/")
		if idx <= 0 {
			anc = append(anc, "/")
			break
		}
		cur = cur[:idx]
	}
	return anc
}
