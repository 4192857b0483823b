package config

// LastSnapMode controls the last-snap reduction VersionEngine applies to a
// path's ordered snapshot sequence (spec §4.3.1).
type LastSnapMode int

// Recognized last-snap modes.
const (
	// LastSnapNone keeps the full sequence, synthesizing the live record
	// when the sequence is empty. This is the default.
	LastSnapNone LastSnapMode = iota
	// LastSnapAny keeps only the last element, if present.
	LastSnapAny
	// LastSnapDittoOnly keeps the last element only if it matches the live
	// record's metadata.
	LastSnapDittoOnly
	// LastSnapNoDittoExclusive keeps the last element only if it differs
	// from the live record's metadata.
	LastSnapNoDittoExclusive
	// LastSnapNoDittoInclusive keeps the last element if it differs from
	// the live record, synthesizing the live record when the sequence is
	// empty.
	LastSnapNoDittoInclusive
)

// DeletedMode controls whether and how the DeletedScanner runs during
// recursive enumeration.
type DeletedMode int

// Recognized deleted modes.
const (
	// DeletedDisabled never runs the DeletedScanner.
	DeletedDisabled DeletedMode = iota
	// DeletedDepthOfOne synthesizes phantom entries for immediate children
	// only; it never recurses into deleted subdirectories.
	DeletedDepthOfOne
	// DeletedAll recurses fully into deleted subdirectories.
	DeletedAll
	// DeletedOnly behaves like DeletedAll but withholds live entries from
	// the sink.
	DeletedOnly
)

// Options is the engine-wide configuration accepted at the external
// boundary (spec §6): the set of switches recognized by both VersionEngine
// and RecursiveEnumerator.
type Options struct {
	NoHidden   bool
	NoTraverse bool
	NoFilter   bool
	NoSnap     bool
	NoLive     bool
	OmitDitto  bool

	LastSnap      LastSnapMode
	DeletedMode   DeletedMode
	Recursive     bool
	SearchStrategy SearchStrategyOption
}

// SearchStrategyOption mirrors inventory.SearchStrategy without importing
// the inventory package, so config stays a leaf dependency the way the
// teacher's own config package is.
type SearchStrategyOption int

// Recognized search strategy options.
const (
	SearchProximateOnly SearchStrategyOption = iota
	SearchIncludeAltReplicated
)

// Default returns the zero-value Options, matching the spec's documented
// defaults (last_snap=None, deleted_mode=Disabled, search_strategy=ProximateOnly).
func Default() Options {
	return Options{}
}
