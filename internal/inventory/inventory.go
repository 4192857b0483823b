// Package inventory holds the DatasetInventory: an immutable, shared,
// read-only snapshot of every mounted dataset the engine knows about, the
// snapshot roots recorded for each, alias and alternate-replica mappings,
// and the directories recursive enumeration must always skip.
//
// A DatasetInventory is built once per invocation (by the mount-parser
// external collaborator, internal/mounts, or by a test fixture) and handed
// by reference to every worker for the lifetime of that invocation. Nothing
// in this package mutates a DatasetInventory after Builder.Build returns it.
package inventory

// FSKind identifies which copy-on-write filesystem backs a dataset.
type FSKind int

// Recognized filesystem kinds.
const (
	ZFS FSKind = iota
	Btrfs
)

func (k FSKind) String() string {
	switch k {
	case ZFS:
		return "zfs"
	case Btrfs:
		return "btrfs"
	default:
		return "unknown"
	}
}

// Locality distinguishes a dataset mounted on the local machine from one
// reached over the network (e.g., an NFS re-export of a remote dataset).
type Locality int

// Recognized localities.
const (
	Local Locality = iota
	Network
)

// Dataset describes one mounted, snapshot-bearing filesystem.
type Dataset struct {
	SourceName string
	FSKind     FSKind
	Locality   Locality
}

// AltReplicated records, for a proximate dataset, the set of alternate
// datasets holding replicated snapshots of the same content.
type AltReplicated struct {
	ProximateMount string
	AlternateMount []string
}

// Alias is a user-declared mapping of a local directory onto a remote
// snapshot-bearing directory, as if the remote directory were bind-mounted
// at the local one.
type Alias struct {
	RemoteDir string
	FSKind    FSKind
}

// SearchStrategy controls whether proximity resolution also considers
// alt-replicated datasets.
type SearchStrategy int

// Recognized search strategies.
const (
	ProximateOnly SearchStrategy = iota
	IncludeAltReplicated
)

// DatasetInventory is the immutable snapshot of mount, snapshot, alias and
// filter state the engine operates over. Build one with NewBuilder and
// Builder.Build and never mutate the fields afterward: every worker holds the same
// pointer and relies on it never changing mid-invocation.
type DatasetInventory struct {
	datasets       map[string]Dataset
	snaps          map[string][]string
	altReplicated  map[string]AltReplicated
	aliases        map[string]Alias
	filterDirs     map[string]struct{}
	maxFilterDepth int
	commonSnapDir  string
	searchStrategy SearchStrategy
}

// Builder accumulates a DatasetInventory's fields before Build freezes them.
// This mirrors the way the teacher constructs its Machines state
// incrementally before handing out a read-only view.
type Builder struct {
	inv DatasetInventory
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{inv: DatasetInventory{
		datasets:      make(map[string]Dataset),
		snaps:         make(map[string][]string),
		altReplicated: make(map[string]AltReplicated),
		aliases:       make(map[string]Alias),
		filterDirs:    make(map[string]struct{}),
	}}
}

// AddDataset records a mounted dataset at mountPath.
func (b *Builder) AddDataset(mountPath string, d Dataset) *Builder {
	b.inv.datasets[mountPath] = d
	return b
}

// AddSnapshotRoots records the ordered snapshot roots for mountPath.
func (b *Builder) AddSnapshotRoots(mountPath string, roots []string) *Builder {
	b.inv.snaps[mountPath] = roots
	return b
}

// AddAltReplicated records the alt-replicated mapping for a proximate mount.
func (b *Builder) AddAltReplicated(proximateMount string, alt AltReplicated) *Builder {
	b.inv.altReplicated[proximateMount] = alt
	return b
}

// AddAlias records a user-declared alias from localDir to remoteDir.
func (b *Builder) AddAlias(localDir string, a Alias) *Builder {
	b.inv.aliases[localDir] = a
	return b
}

// AddFilterDir adds a mount path to the set always excluded from recursive
// descent.
func (b *Builder) AddFilterDir(path string, depth int) *Builder {
	b.inv.filterDirs[path] = struct{}{}
	if depth > b.inv.maxFilterDepth {
		b.inv.maxFilterDepth = depth
	}
	return b
}

// SetCommonSnapDir sets the single Btrfs snapshot parent directory that is
// always filtered (e.g. "/.snapshots").
func (b *Builder) SetCommonSnapDir(path string) *Builder {
	b.inv.commonSnapDir = path
	return b
}

// SetSearchStrategy sets the strategy used by ProximityResolver.
func (b *Builder) SetSearchStrategy(s SearchStrategy) *Builder {
	b.inv.searchStrategy = s
	return b
}

// Build freezes the accumulated state into a DatasetInventory. The returned
// value must not be mutated; callers that need a derived inventory should
// start a fresh Builder instead.
func (b *Builder) Build() *DatasetInventory {
	inv := b.inv
	return &inv
}

// Datasets returns the mount-path to Dataset mapping.
func (inv *DatasetInventory) Datasets() map[string]Dataset {
	return inv.datasets
}

// Dataset looks up the dataset mounted at path.
func (inv *DatasetInventory) Dataset(path string) (Dataset, bool) {
	d, ok := inv.datasets[path]
	return d, ok
}

// SnapshotRoots returns the ordered snapshot roots recorded for a mount
// path.
func (inv *DatasetInventory) SnapshotRoots(mountPath string) ([]string, bool) {
	s, ok := inv.snaps[mountPath]
	return s, ok
}

// AltReplicated looks up the alt-replicated mapping for a proximate mount.
func (inv *DatasetInventory) AltReplicated(proximateMount string) (AltReplicated, bool) {
	a, ok := inv.altReplicated[proximateMount]
	return a, ok
}

// Aliases returns the local-dir to Alias mapping.
func (inv *DatasetInventory) Aliases() map[string]Alias {
	return inv.aliases
}

// AliasFor returns the alias declared at localDir, if any.
func (inv *DatasetInventory) AliasFor(localDir string) (Alias, bool) {
	a, ok := inv.aliases[localDir]
	return a, ok
}

// IsFilterDir reports whether path is in the filter-dirs set.
func (inv *DatasetInventory) IsFilterDir(path string) bool {
	_, ok := inv.filterDirs[path]
	return ok
}

// MaxFilterDepth returns the maximum path-component depth of any entry in
// filter_dirs; RecursiveEnumerator skips the filter_dirs lookup once a
// candidate's depth exceeds this, per the contract's micro-optimization.
func (inv *DatasetInventory) MaxFilterDepth() int {
	return inv.maxFilterDepth
}

// CommonSnapDir returns the configured Btrfs common snapshot directory, or
// "" if none is configured.
func (inv *DatasetInventory) CommonSnapDir() string {
	return inv.commonSnapDir
}

// SearchStrategy returns the configured search strategy.
func (inv *DatasetInventory) SearchStrategy() SearchStrategy {
	return inv.searchStrategy
}

// WithSearchStrategy returns a shallow copy of inv with its search strategy
// overridden. The mount-discovered inventory bakes in the strategy declared
// in the user's InventoryConfig; this lets a single invocation's
// --include-alt-replicated flag take effect without re-discovering the
// mount table just to flip one field.
func (inv *DatasetInventory) WithSearchStrategy(s SearchStrategy) *DatasetInventory {
	cp := *inv
	cp.searchStrategy = s
	return &cp
}
