// Package mounts is the external mount-table collaborator spec.md §6
// describes but does not implement: it discovers the live system's mounted
// ZFS and Btrfs filesystems and turns them into an inventory.DatasetInventory,
// the immutable input every other package in this module is handed.
//
// Grounded on original_source/src/data/filesystem_map.rs's DatasetCollection
// construction (classify each mount by filesystem, then enumerate its
// snapshots) and the teacher's zfs.New/Refresh scan-the-system pattern
// (ubuntu-zsys internal/zfs/zfs.go).
package mounts

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ubuntu/snapview/internal/config"
	"github.com/ubuntu/snapview/internal/i18n"
	"github.com/ubuntu/snapview/internal/inventory"
	"github.com/ubuntu/snapview/internal/log"
	"github.com/ubuntu/snapview/internal/zfs/libzfs"
)

// mountEntry is one parsed line of /proc/self/mountinfo.
type mountEntry struct {
	mountPoint string
	fsType     string
	source     string
}

// Discoverer builds a DatasetInventory from the live system. The zero value
// is not usable; construct one with New.
type Discoverer struct {
	libzfs        libzfs.Interface
	mountInfoPath string
	readDir       func(string) ([]os.DirEntry, error)
	cfg           config.InventoryConfig
}

// Option configures a Discoverer at construction time.
type Option func(*Discoverer)

// WithLibZFS overrides the libzfs backend, for tests.
func WithLibZFS(l libzfs.Interface) Option {
	return func(d *Discoverer) { d.libzfs = l }
}

// WithMountInfoPath overrides the mountinfo file read, for tests.
func WithMountInfoPath(p string) Option {
	return func(d *Discoverer) { d.mountInfoPath = p }
}

// WithReadDir overrides the directory lister used for Btrfs snapshot-root
// discovery, for tests.
func WithReadDir(f func(string) ([]os.DirEntry, error)) Option {
	return func(d *Discoverer) { d.readDir = f }
}

// WithInventoryConfig supplies the user-declared InventoryConfig to merge
// into the discovered inventory.
func WithInventoryConfig(cfg config.InventoryConfig) Option {
	return func(d *Discoverer) { d.cfg = cfg }
}

// New returns a Discoverer reading the real system by default.
func New(opts ...Option) *Discoverer {
	d := &Discoverer{
		libzfs:        libzfs.Adapter{},
		mountInfoPath: "/proc/self/mountinfo",
		readDir:       os.ReadDir,
		cfg:           config.InventoryConfig{CommonSnapDir: config.DefaultCommonSnapDir},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Discover builds a DatasetInventory from the live system's mount table.
func (d *Discoverer) Discover(ctx context.Context) (*inventory.DatasetInventory, error) {
	entries, err := d.parseMountInfo()
	if err != nil {
		return nil, fmt.Errorf(i18n.G("couldn't read mount table: %w"), err)
	}

	commonSnapDir := d.cfg.CommonSnapDir
	if commonSnapDir == "" {
		commonSnapDir = config.DefaultCommonSnapDir
	}

	// Snapshot-root discovery hits libzfs or the filesystem once per mount
	// entry; with many datasets mounted that is the dominant cost of
	// Discover, so it is fanned out with errgroup the same way kopia's CLI
	// parallelizes its own per-item repository work. The inventory.Builder
	// itself is not concurrency-safe, so results land in a slot per entry
	// and are applied to the builder sequentially afterward.
	snapRoots := make([][]string, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			switch e.fsType {
			case "zfs":
				r, err := d.zfsSnapshotRoots(gctx, e.mountPoint, e.source)
				if err != nil {
					log.Debugf(gctx, i18n.G("skipping snapshot discovery for %q: %v"), e.source, err)
					return nil
				}
				snapRoots[i] = r
			case "btrfs":
				r, err := d.btrfsSnapshotRoots(e.mountPoint, commonSnapDir)
				if err != nil {
					log.Debugf(gctx, i18n.G("skipping snapshot discovery for %q: %v"), e.mountPoint, err)
					return nil
				}
				snapRoots[i] = r
			}
			return nil
		})
	}
	// Every goroutine above swallows its own error into a debug log and
	// returns nil, so g.Wait returns nil once they have all finished.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := inventory.NewBuilder()
	b.SetCommonSnapDir(commonSnapDir)
	b.AddFilterDir(commonSnapDir, pathDepth(commonSnapDir))

	for i, e := range entries {
		switch e.fsType {
		case "zfs":
			b.AddDataset(e.mountPoint, inventory.Dataset{
				SourceName: e.source,
				FSKind:     inventory.ZFS,
				Locality:   inventory.Local,
			})
		case "btrfs":
			b.AddDataset(e.mountPoint, inventory.Dataset{
				SourceName: e.source,
				FSKind:     inventory.Btrfs,
				Locality:   inventory.Local,
			})
		default:
			continue
		}
		if len(snapRoots[i]) > 0 {
			b.AddSnapshotRoots(e.mountPoint, snapRoots[i])
		}
	}

	for local, alias := range d.cfg.Aliases {
		fsKind := inventory.ZFS
		if alias.FSKind == "btrfs" {
			fsKind = inventory.Btrfs
		}
		b.AddAlias(local, inventory.Alias{RemoteDir: alias.Remote, FSKind: fsKind})
	}
	for _, fd := range d.cfg.FilterDirs {
		b.AddFilterDir(fd, pathDepth(fd))
	}
	switch d.cfg.SearchStrategy {
	case "include_alt_replicated":
		b.SetSearchStrategy(inventory.IncludeAltReplicated)
	default:
		b.SetSearchStrategy(inventory.ProximateOnly)
	}

	inv := b.Build()
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return inv, nil
}

// zfsSnapshotRoots lists source's snapshots via libzfs and constructs the
// synthetic <mount>/.zfs/snapshot/<name> path for each: ZFS snapshot
// directories never appear as real directory entries, so they cannot be
// discovered by walking the filesystem.
func (d *Discoverer) zfsSnapshotRoots(ctx context.Context, mountPoint, datasetName string) ([]string, error) {
	ds, err := d.libzfs.DatasetOpen(datasetName)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	var names []string
	for _, c := range ds.Children() {
		defer c.Close()
		if !c.IsSnapshot() {
			continue
		}
		props := c.Properties()
		full := (*props)[libzfs.DatasetPropName].Value
		parts := strings.SplitN(full, "@", 2)
		if len(parts) != 2 || parts[1] == "" {
			continue
		}
		names = append(names, parts[1])
	}
	sort.Strings(names)

	roots := make([]string, 0, len(names))
	for _, n := range names {
		roots = append(roots, filepath.Join(mountPoint, ".zfs", "snapshot", n))
	}
	return roots, nil
}

// btrfsSnapshotRoots scans <mountPoint>/<commonSnapDir>/<id>/snapshot for
// every numeric id, the snapper convention spec.md §6 documents.
func (d *Discoverer) btrfsSnapshotRoots(mountPoint, commonSnapDir string) ([]string, error) {
	snapDir := filepath.Join(mountPoint, commonSnapDir)
	entries, err := d.readDir(snapDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	roots := make([]string, 0, len(ids))
	for _, id := range ids {
		root := filepath.Join(snapDir, strconv.Itoa(id), "snapshot")
		if fi, err := os.Stat(root); err == nil && fi.IsDir() {
			roots = append(roots, root)
		}
	}
	return roots, nil
}

// parseMountInfo reads and parses every line of /proc/self/mountinfo. The
// format has no third-party parsing library anywhere in the retrieval
// pack, so this is a documented standard-library exception (see
// DESIGN.md): bufio.Scanner over the well-known kernel format
// (https://docs.kernel.org/filesystems/proc.html#proc-pid-mountinfo).
func (d *Discoverer) parseMountInfo() ([]mountEntry, error) {
	f, err := os.Open(d.mountInfoPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []mountEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		e, ok := parseMountInfoLine(scanner.Text())
		if !ok {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseMountInfoLine(line string) (mountEntry, bool) {
	left, right, found := strings.Cut(line, " - ")
	if !found {
		return mountEntry{}, false
	}
	leftFields := strings.Fields(left)
	rightFields := strings.Fields(right)
	if len(leftFields) < 5 || len(rightFields) < 2 {
		return mountEntry{}, false
	}
	return mountEntry{
		mountPoint: unescapeMountInfo(leftFields[4]),
		fsType:     rightFields[0],
		source:     unescapeMountInfo(rightFields[1]),
	}, true
}

// unescapeMountInfo decodes the octal escapes (e.g. \040 for a space) the
// kernel uses in mountinfo fields.
func unescapeMountInfo(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func pathDepth(path string) int {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, "/") + 1
}
