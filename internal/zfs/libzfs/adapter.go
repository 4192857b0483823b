// Package libzfs wraps github.com/bicomsystems/go-libzfs behind a narrow,
// mockable interface exposing only what snapshot discovery and guarded
// snapshot/rollback need: opening datasets, listing their snapshots,
// creating a new snapshot, destroying one, and reading/writing the user
// property a SnapGuard tags its own snapshots with.
//
// Grounded on ubuntu-zsys's internal/zfs/libzfs package, trimmed of the
// clone/promote/pool-management surface zsys needs for its boot-dataset
// management but snapview's version-lookup and rollback workflows do not.
package libzfs

import (
	golibzfs "github.com/bicomsystems/go-libzfs"
)

type (
	// Prop type to enumerate all different properties supported by ZFS
	Prop = golibzfs.Prop
	// Property ZFS pool or dataset property value
	Property = golibzfs.Property
	// Dataset - ZFS dataset object
	Dataset = golibzfs.Dataset
	// DatasetType defines enum of dataset types
	DatasetType = golibzfs.DatasetType
)

const (
	// DatasetTypeFilesystem - file system dataset
	DatasetTypeFilesystem = golibzfs.DatasetTypeFilesystem
	// DatasetTypeSnapshot - snapshot of dataset
	DatasetTypeSnapshot = golibzfs.DatasetTypeSnapshot
	// DatasetPropName is the name of the dataset
	DatasetPropName = golibzfs.DatasetPropName
	// DatasetPropCreation is the creation time property for the dataset
	DatasetPropCreation = golibzfs.DatasetPropCreation
	// DatasetPropMountpoint is the dataset's configured mountpoint.
	DatasetPropMountpoint = golibzfs.DatasetPropMountpoint
)

const (
	snapviewPrefix = "com.github.ubuntu.snapview:"
	// GuardReasonProp records why a SnapGuard took a given precautionary
	// snapshot (pre-rollback, pre-restore, post-roll-forward).
	GuardReasonProp = snapviewPrefix + "guard-reason"
)

// Interface is the interface to use real libzfs or our in memory mock.
type Interface interface {
	DatasetOpenAll() (datasets []DZFSInterface, err error)
	DatasetOpen(name string) (d DZFSInterface, err error)
	DatasetSnapshot(path string, recur bool, props map[Prop]Property) (rd DZFSInterface, err error)
	GenerateID(length int) string
}

// DZFSInterface is the interface to use real libzfs Dataset object or in memory mock.
type DZFSInterface interface {
	Children() []DZFSInterface
	Close()
	Destroy(Defer bool) (err error)
	GetUserProperty(p string) (prop Property, err error)
	IsSnapshot() (ok bool)
	Properties() *map[Prop]Property
	SetUserProperty(prop, value string) error
	Type() DatasetType
}
