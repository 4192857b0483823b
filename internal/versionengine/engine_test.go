package versionengine_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ubuntu/snapview/internal/config"
	"github.com/ubuntu/snapview/internal/inventory"
	"github.com/ubuntu/snapview/internal/record"
	"github.com/ubuntu/snapview/internal/versionengine"
)

// fakeFileInfo is the minimal os.FileInfo stretch used to hand the engine a
// synthetic (mtime, size) pair without touching disk.
type fakeFileInfo struct {
	modTime time.Time
	size    int64
}

func (f fakeFileInfo) Name() string       { return "" }
func (f fakeFileInfo) Size() int64        { return f.size }
func (f fakeFileInfo) Mode() os.FileMode  { return 0 }
func (f fakeFileInfo) ModTime() time.Time { return f.modTime }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() interface{}   { return nil }

// fakeStater serves a fixed table of path -> (mtime, size), mimicking the
// snapshot copies S1/S2/S6 describe without a real ZFS snapshot tree.
type fakeStater struct {
	entries map[string]fakeFileInfo
}

func (f fakeStater) Stat(path string) (os.FileInfo, error) {
	fi, ok := f.entries[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return fi, nil
}

func tankInventory() *inventory.DatasetInventory {
	return inventory.NewBuilder().
		AddDataset("/tank", inventory.Dataset{SourceName: "rpool/tank", FSKind: inventory.ZFS}).
		AddSnapshotRoots("/tank", []string{"/tank/.zfs/snapshot/a", "/tank/.zfs/snapshot/b"}).
		Build()
}

// TestS1OmitDitto mirrors scenario S1: live /tank/f is (200,10); a/f is
// (100,10), b/f is (200,10). Without omit_ditto both appear; with it, only
// a/f (the copy distinct from live) remains.
func TestS1OmitDitto(t *testing.T) {
	t.Parallel()

	stater := fakeStater{entries: map[string]fakeFileInfo{
		"/tank/.zfs/snapshot/a/f": {modTime: time.Unix(100, 0), size: 10},
		"/tank/.zfs/snapshot/b/f": {modTime: time.Unix(200, 0), size: 10},
	}}
	e := versionengine.New(tankInventory(), versionengine.WithStater(stater))
	live := record.New("/tank/f", record.Metadata{ModTime: time.Unix(200, 0), Size: 10})

	dm, err := e.Lookup(context.Background(), []record.PathRecord{live}, config.Options{})
	require.NoError(t, err)
	want := []record.PathRecord{
		record.New("/tank/.zfs/snapshot/a/f", record.Metadata{ModTime: time.Unix(100, 0), Size: 10}),
		record.New("/tank/.zfs/snapshot/b/f", record.Metadata{ModTime: time.Unix(200, 0), Size: 10}),
	}
	if diff := cmp.Diff(want, dm.Versions(live)); diff != "" {
		t.Errorf("versions without omit_ditto mismatch (-want +got):\n%s", diff)
	}

	dm, err = e.Lookup(context.Background(), []record.PathRecord{live}, config.Options{OmitDitto: true})
	require.NoError(t, err)
	want = []record.PathRecord{
		record.New("/tank/.zfs/snapshot/a/f", record.Metadata{ModTime: time.Unix(100, 0), Size: 10}),
	}
	if diff := cmp.Diff(want, dm.Versions(live)); diff != "" {
		t.Errorf("versions with omit_ditto mismatch (-want +got):\n%s", diff)
	}
}

// TestS2LastSnapNoDittoInclusiveSynthesizesLive mirrors scenario S2: a path
// with no snapshot copies at all still yields its own live record under
// NoDittoInclusive.
func TestS2LastSnapNoDittoInclusiveSynthesizesLive(t *testing.T) {
	t.Parallel()

	stater := fakeStater{entries: map[string]fakeFileInfo{}}
	e := versionengine.New(tankInventory(), versionengine.WithStater(stater))
	live := record.New("/tank/g", record.Metadata{ModTime: time.Unix(300, 0), Size: 5})

	dm, err := e.Lookup(context.Background(), []record.PathRecord{live}, config.Options{LastSnap: config.LastSnapNoDittoInclusive})
	require.NoError(t, err)
	versions := dm.Versions(live)
	require.Len(t, versions, 1)
	require.Equal(t, "/tank/g", versions[0].Path)
}

// TestS6DuplicateMetadataDedupesToOne mirrors scenario S6: two snapshot
// copies share identical (mtime,size); exactly one survives deduplication.
func TestS6DuplicateMetadataDedupesToOne(t *testing.T) {
	t.Parallel()

	stater := fakeStater{entries: map[string]fakeFileInfo{
		"/tank/.zfs/snapshot/a/f": {modTime: time.Unix(150, 0), size: 42},
		"/tank/.zfs/snapshot/b/f": {modTime: time.Unix(150, 0), size: 42},
	}}
	e := versionengine.New(tankInventory(), versionengine.WithStater(stater))
	live := record.New("/tank/f", record.Metadata{ModTime: time.Unix(400, 0), Size: 42})

	dm, err := e.Lookup(context.Background(), []record.PathRecord{live}, config.Options{})
	require.NoError(t, err)
	require.Len(t, dm.Versions(live), 1)
}

func TestLastSnapAnyKeepsOnlyLastElement(t *testing.T) {
	t.Parallel()

	stater := fakeStater{entries: map[string]fakeFileInfo{
		"/tank/.zfs/snapshot/a/f": {modTime: time.Unix(100, 0), size: 1},
		"/tank/.zfs/snapshot/b/f": {modTime: time.Unix(200, 0), size: 1},
	}}
	e := versionengine.New(tankInventory(), versionengine.WithStater(stater))
	live := record.New("/tank/f", record.Metadata{ModTime: time.Unix(300, 0), Size: 1})

	dm, err := e.Lookup(context.Background(), []record.PathRecord{live}, config.Options{LastSnap: config.LastSnapAny})
	require.NoError(t, err)
	versions := dm.Versions(live)
	require.Len(t, versions, 1)
	require.Equal(t, "/tank/.zfs/snapshot/b/f", versions[0].Path)
}

func TestLastSnapNoDittoExclusiveDropsWhenLastMatchesLive(t *testing.T) {
	t.Parallel()

	stater := fakeStater{entries: map[string]fakeFileInfo{
		"/tank/.zfs/snapshot/a/f": {modTime: time.Unix(100, 0), size: 1},
		"/tank/.zfs/snapshot/b/f": {modTime: time.Unix(200, 0), size: 1},
	}}
	e := versionengine.New(tankInventory(), versionengine.WithStater(stater))
	live := record.New("/tank/f", record.Metadata{ModTime: time.Unix(200, 0), Size: 1})

	dm, err := e.Lookup(context.Background(), []record.PathRecord{live}, config.Options{LastSnap: config.LastSnapNoDittoExclusive})
	require.NoError(t, err)
	require.Empty(t, dm.Versions(live))
}

func TestNoSnapReportsOnlyLiveRecord(t *testing.T) {
	t.Parallel()

	e := versionengine.New(tankInventory())
	live := record.New("/tank/f", record.Metadata{ModTime: time.Unix(1, 0), Size: 1})

	dm, err := e.Lookup(context.Background(), []record.PathRecord{live}, config.Options{NoSnap: true})
	require.NoError(t, err)
	require.Equal(t, []record.PathRecord{live}, dm.Versions(live))
}

// TestNoSnapStillResolvesProximityAndSurfacesErrors pins down that NoSnap
// only suppresses the final aggregate NoCopiesFound decision, not the
// per-path proximity/relpath/stat resolution itself: a path with no
// qualifying dataset must still surface ErrNoQualifyingDataset even when
// NoSnap is set, rather than silently synthesizing the live record.
func TestNoSnapStillResolvesProximityAndSurfacesErrors(t *testing.T) {
	t.Parallel()

	e := versionengine.New(tankInventory(), versionengine.WithStater(fakeStater{entries: map[string]fakeFileInfo{}}))
	badLive := record.New("/nowhere/f", record.Metadata{ModTime: time.Unix(500, 0), Size: 1})

	dm, err := e.Lookup(context.Background(), []record.PathRecord{badLive}, config.Options{NoSnap: true})
	require.ErrorIs(t, err, record.ErrNoQualifyingDataset)
	require.NotErrorIs(t, err, record.ErrNoCopiesFound)
	require.True(t, dm.Empty())
}

func TestNoQualifyingDatasetIsAggregatedButNotFatalToOtherPaths(t *testing.T) {
	t.Parallel()

	stater := fakeStater{entries: map[string]fakeFileInfo{
		"/tank/.zfs/snapshot/a/f": {modTime: time.Unix(100, 0), size: 1},
	}}
	e := versionengine.New(tankInventory(), versionengine.WithStater(stater))

	okLive := record.New("/tank/f", record.Metadata{ModTime: time.Unix(500, 0), Size: 1})
	badLive := record.New("/nowhere/f", record.Metadata{ModTime: time.Unix(500, 0), Size: 1})

	dm, err := e.Lookup(context.Background(), []record.PathRecord{okLive, badLive}, config.Options{})
	require.Error(t, err)
	require.ErrorIs(t, err, record.ErrNoQualifyingDataset)
	require.Equal(t, 1, dm.Len())
	require.NotEmpty(t, dm.Versions(okLive))
}

func TestEmptyLookupReportsNoCopiesFound(t *testing.T) {
	t.Parallel()

	// LastSnapAny never synthesizes the live record for an empty sequence
	// (unlike the default mode), so a phantom path with no snapshot copies
	// at all leaves the DisplayMap genuinely empty.
	e := versionengine.New(tankInventory(), versionengine.WithStater(fakeStater{entries: map[string]fakeFileInfo{}}))
	live := record.Phantom("/tank/gone")

	dm, err := e.Lookup(context.Background(), []record.PathRecord{live}, config.Options{LastSnap: config.LastSnapAny})
	require.ErrorIs(t, err, record.ErrNoCopiesFound)
	require.True(t, dm.Empty())
}
