// Package versionengine implements the VersionEngine: for a set of
// requested paths, computes the live-to-snapshots DisplayMap, deduplicating
// candidates by (modification time, size) exactly as
// original_source/src/lookup/versions.rs's DisplayMap::new and get_versions
// do.
package versionengine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/ubuntu/snapview/internal/config"
	"github.com/ubuntu/snapview/internal/i18n"
	"github.com/ubuntu/snapview/internal/inventory"
	"github.com/ubuntu/snapview/internal/proximity"
	"github.com/ubuntu/snapview/internal/record"
	"github.com/ubuntu/snapview/internal/relpath"
	"github.com/ubuntu/snapview/internal/workqueue"
)

// Stater abstracts os.Stat so tests can substitute an in-memory filesystem
// fixture without touching disk.
type Stater interface {
	Stat(path string) (os.FileInfo, error)
}

type osStater struct{}

func (osStater) Stat(path string) (os.FileInfo, error) { return os.Stat(path) }

// Engine runs VersionEngine.Lookup against a fixed inventory and stat
// backend. Constructed with New; the zero value is not usable.
type Engine struct {
	inv    *inventory.DatasetInventory
	stater Stater
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithStater overrides the stat backend, for tests.
func WithStater(s Stater) Option {
	return func(e *Engine) { e.stater = s }
}

// New returns an Engine bound to inv.
func New(inv *inventory.DatasetInventory, opts ...Option) *Engine {
	e := &Engine{inv: inv, stater: osStater{}}
	for _, o := range opts {
		o(e)
	}
	return e
}

// pathError pairs a failed lookup with the record that failed, so errors
// can be reported deterministically (sorted by path) rather than in
// goroutine-completion order.
type pathError struct {
	path string
	err  error
}

// Lookup computes the DisplayMap for paths under opts. Per-path
// ErrNoQualifyingDataset and ErrPathOutsideDataset are fatal to that path
// and are aggregated (via errors.Join) into the returned error, but do not
// prevent other paths in the set from succeeding. If, after processing
// every path, the map is Empty() and opts.NoSnap is false, the returned
// error additionally wraps ErrNoCopiesFound.
func (e *Engine) Lookup(ctx context.Context, paths []record.PathRecord, opts config.Options) (*DisplayMap, error) {
	dm := NewDisplayMap()

	var (
		mu      sync.Mutex
		pathErr []pathError
	)

	q := workqueue.NewQueue()
	for _, p := range paths {
		p := p
		q.EnqueueBack(ctx, func() error {
			versions, err := e.lookupOne(ctx, p, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				pathErr = append(pathErr, pathError{path: p.Path, err: err})
				return nil
			}
			dm.Set(p, versions)
			return nil
		})
	}
	// One worker per path up to a modest cap: path lookups are I/O bound
	// (stat calls), not CPU bound, so oversubscribing a little is fine.
	workers := len(paths)
	if workers < 1 {
		workers = 1
	}
	if workers > 32 {
		workers = 32
	}
	_ = q.Process(ctx, workers)

	var aggregated error
	if len(pathErr) > 0 {
		sort.Slice(pathErr, func(i, j int) bool { return pathErr[i].path < pathErr[j].path })
		errs := make([]error, 0, len(pathErr))
		for _, pe := range pathErr {
			errs = append(errs, fmt.Errorf(i18n.G("%s: %w"), pe.path, pe.err))
		}
		aggregated = errors.Join(errs...)
	}

	if !opts.NoSnap && dm.Empty() {
		if aggregated != nil {
			aggregated = errors.Join(aggregated, record.ErrNoCopiesFound)
		} else {
			aggregated = record.ErrNoCopiesFound
		}
	}

	return dm, aggregated
}

// lookupOne resolves the full version sequence for a single path.
func (e *Engine) lookupOne(ctx context.Context, p record.PathRecord, opts config.Options) ([]record.PathRecord, error) {
	prox, err := proximity.Resolve(p, e.inv)
	if err != nil {
		if errors.Is(err, record.ErrNoQualifyingDataset) {
			return nil, err
		}
		return nil, err
	}

	datasets := datasetsOfInterest(prox)

	var (
		mu         sync.Mutex
		candidates = make(map[versionKey]record.PathRecord)
		fatalErr   error
	)

	q := workqueue.NewQueue()
	for _, dataset := range datasets {
		dataset := dataset
		bundle, err := relpath.Resolve(p, prox, dataset, e.inv)
		if err != nil {
			if errors.Is(err, record.ErrNoSnapshotsForDataset) {
				continue // recoverable: flatten, yield nothing for this dataset
			}
			// ErrPathOutsideDataset is fatal.
			mu.Lock()
			if fatalErr == nil {
				fatalErr = err
			}
			mu.Unlock()
			continue
		}

		for _, root := range bundle.SnapshotRoots {
			root := root
			rel := bundle.RelativePath
			q.EnqueueBack(ctx, func() error {
				candidatePath := relpath.Join(root, rel)
				fi, err := e.stater.Stat(candidatePath)
				if err != nil {
					return nil // unreadable/missing snapshot copy: swallowed, not every root has a copy
				}
				rec := record.FromFileInfo(candidatePath, fi)
				key := versionKey{unixNano: rec.Metadata.ModTime.UnixNano(), size: rec.Metadata.Size}

				mu.Lock()
				if _, exists := candidates[key]; !exists {
					candidates[key] = rec
				}
				mu.Unlock()
				return nil
			})
		}
	}

	workers := len(datasets)
	if workers < 1 {
		workers = 1
	}
	_ = q.Process(ctx, workers)

	if fatalErr != nil {
		return nil, fatalErr
	}

	seq := sortedCandidates(candidates)

	if opts.OmitDitto {
		seq = omitDitto(seq, p)
	}

	return reduceLastSnap(seq, p, opts.LastSnap), nil
}

// versionKey is the dedup key: (mtime,size), matching the spec's
// BTreeMap<(SystemTime,u64), PathData> dedup in the original implementation.
type versionKey struct {
	unixNano int64
	size     int64
}

// datasetsOfInterest lists the datasets a path's candidates should be
// searched under: the alt-replicated alternates first, when present, then
// the proximate mount. Candidates from every dataset are merged into one
// (mtime,size)-keyed map, so this order does not group alternates apart
// from the proximate set in the final (mtime,size)-ordered output.
func datasetsOfInterest(p proximity.Proximity) []string {
	if !p.HasOptionalAlternate {
		return []string{p.ProximateMount}
	}
	datasets := make([]string, 0, len(p.OptionalAlternates)+1)
	datasets = append(datasets, p.OptionalAlternates...)
	datasets = append(datasets, p.ProximateMount)
	return datasets
}

// sortedCandidates iterates the dedup map in key order ((mtime,size)
// ascending) to produce the final ordered sequence.
func sortedCandidates(candidates map[versionKey]record.PathRecord) []record.PathRecord {
	keys := make([]versionKey, 0, len(candidates))
	for k := range candidates {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].unixNano != keys[j].unixNano {
			return keys[i].unixNano < keys[j].unixNano
		}
		return keys[i].size < keys[j].size
	})

	seq := make([]record.PathRecord, 0, len(keys))
	for _, k := range keys {
		seq = append(seq, candidates[k])
	}
	return seq
}

// omitDitto drops any candidate whose (mtime,size) equals live's.
func omitDitto(seq []record.PathRecord, live record.PathRecord) []record.PathRecord {
	if !live.HasMetadata {
		return seq
	}
	out := seq[:0:0]
	for _, r := range seq {
		if sameMeta(r, live) {
			continue
		}
		out = append(out, r)
	}
	return out
}
