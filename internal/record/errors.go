package record

import "errors"

// Sentinel errors returned by the version-lookup engine and its
// collaborators. Callers distinguish them with errors.Is; wrapped messages
// remain free to carry whatever path/dataset detail is useful to a human.
var (
	// ErrNoQualifyingDataset reports that a path has no ancestor in the
	// inventory. Fatal to that path outside recursive enumeration; dropped
	// silently inside it, per the permission-denied tolerance policy.
	ErrNoQualifyingDataset = errors.New("no qualifying dataset for path")

	// ErrPathOutsideDataset reports that a relative-path computation failed
	// to strip a dataset or alias prefix from a path believed to lie beneath
	// it. Always fatal.
	ErrPathOutsideDataset = errors.New("path lies outside its resolved dataset")

	// ErrNoSnapshotsForDataset is recoverable: the resolver flattens it and
	// yields no candidates for the affected bundle.
	ErrNoSnapshotsForDataset = errors.New("no snapshots recorded for dataset")

	// ErrAltReplicatedMissing is recoverable when the search strategy allows
	// falling back to the proximate dataset alone.
	ErrAltReplicatedMissing = errors.New("no alt-replicated dataset recorded")

	// ErrNoCopiesFound is fatal at the VersionEngine's top level: every
	// input path was phantom and produced an empty result, and snapshots
	// were not explicitly disabled.
	ErrNoCopiesFound = errors.New("no historical copies found for any requested path")
)
