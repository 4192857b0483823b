// Package record defines the value object shared by every stage of the
// version-lookup engine and the recursive enumeration pipeline: an absolute
// path, optionally paired with the (modification time, size) it had when it
// was observed.
package record

import (
	"os"
	"strings"
	"time"
)

// Metadata is the (modification time, size) pair observed for a path.
// A zero Metadata never occurs for a record with HasMetadata true: the
// metadata is always taken from a successful stat.
type Metadata struct {
	ModTime time.Time
	Size    int64
}

// PathRecord is an absolute path together with optional metadata. A record
// with no metadata is phantom: typically the live path of a file that has
// since been deleted, reconstructed only from its snapshot copies.
//
// Equality and ordering of PathRecord are defined over Path alone; Metadata
// never participates in identity.
type PathRecord struct {
	Path        string
	Metadata    Metadata
	HasMetadata bool
}

// New builds a PathRecord from a path whose metadata is already known.
func New(path string, meta Metadata) PathRecord {
	return PathRecord{Path: path, Metadata: meta, HasMetadata: true}
}

// Phantom builds a PathRecord for a path with no backing metadata.
func Phantom(path string) PathRecord {
	return PathRecord{Path: path}
}

// FromFileInfo builds a PathRecord from a path and the os.FileInfo obtained
// by stat-ing it.
func FromFileInfo(path string, fi os.FileInfo) PathRecord {
	return New(path, Metadata{ModTime: fi.ModTime(), Size: fi.Size()})
}

// IsPhantom reports whether r carries no metadata.
func (r PathRecord) IsPhantom() bool {
	return !r.HasMetadata
}

// SameVersion reports whether r and other were taken from the same
// underlying content, judged solely by (mtime, size) equality. Two phantom
// records are never SameVersion.
func (r PathRecord) SameVersion(other PathRecord) bool {
	if !r.HasMetadata || !other.HasMetadata {
		return false
	}
	return r.Metadata.ModTime.Equal(other.Metadata.ModTime) && r.Metadata.Size == other.Metadata.Size
}

// Less orders two records by absolute path, lexicographically over path
// components, matching the DisplayMap key ordering requirement.
func Less(a, b PathRecord) bool {
	ac := strings.Split(a.Path, "/")
	bc := strings.Split(b.Path, "/")
	for i := 0; i < len(ac) && i < len(bc); i++ {
		if ac[i] != bc[i] {
			return ac[i] < bc[i]
		}
	}
	return len(ac) < len(bc)
}
