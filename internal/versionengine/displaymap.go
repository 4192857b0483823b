package versionengine

import (
	"sort"

	"github.com/ubuntu/snapview/internal/record"
)

// DisplayMap is the ordered mapping from a live PathRecord to its ordered
// sequence of snapshot PathRecords. Keys iterate in lexicographic path
// order; each value sequence is already ordered (mtime,size) ascending by
// the time it is stored, by Engine.lookupOne.
type DisplayMap struct {
	values map[string][]record.PathRecord
	live   map[string]record.PathRecord
}

// NewDisplayMap returns an empty DisplayMap.
func NewDisplayMap() *DisplayMap {
	return &DisplayMap{
		values: make(map[string][]record.PathRecord),
		live:   make(map[string]record.PathRecord),
	}
}

// Set records the ordered version sequence for a live record. Calling Set
// twice for the same path overwrites the previous entry.
func (dm *DisplayMap) Set(live record.PathRecord, versions []record.PathRecord) {
	dm.live[live.Path] = live
	dm.values[live.Path] = versions
}

// Keys returns the live records in lexicographic path order.
func (dm *DisplayMap) Keys() []record.PathRecord {
	keys := make([]record.PathRecord, 0, len(dm.live))
	for _, r := range dm.live {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return record.Less(keys[i], keys[j]) })
	return keys
}

// Versions returns the ordered snapshot sequence recorded for live.
func (dm *DisplayMap) Versions(live record.PathRecord) []record.PathRecord {
	return dm.values[live.Path]
}

// Len returns the number of live keys recorded.
func (dm *DisplayMap) Len() int {
	return len(dm.live)
}

// Empty reports whether every live key has an empty version sequence and
// every live key is itself phantom: the precondition for NoCopiesFound.
func (dm *DisplayMap) Empty() bool {
	for path, r := range dm.live {
		if !r.IsPhantom() {
			return false
		}
		if len(dm.values[path]) != 0 {
			return false
		}
	}
	return true
}
