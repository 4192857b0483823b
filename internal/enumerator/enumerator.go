// Package enumerator implements the RecursiveEnumerator: a single
// directory tree walk, rooted at a requested directory, that streams every
// live entry (and, when deleted mode is enabled, every synthesized
// phantom entry) into a control.Channels sink.
//
// Grounded on original_source/src/exec/recursive.rs's recursive descent
// (LIFO stack, filtering rules, symlink loop guard) and the teacher's
// internal/zfs scanning style for how a read-only, shared DatasetInventory
// is consulted without locking.
package enumerator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ubuntu/snapview/internal/config"
	"github.com/ubuntu/snapview/internal/control"
	"github.com/ubuntu/snapview/internal/deletedscanner"
	"github.com/ubuntu/snapview/internal/inventory"
	"github.com/ubuntu/snapview/internal/record"
)

// deletedScanConcurrency bounds the number of directories with an
// in-flight DeletedScanner at any one time, the Go equivalent of the
// original's rayon::ThreadPool sizing for the deleted scope.
const deletedScanConcurrency = 8

// hiddenSnapshotDirNames are the per-mount directory names that are always
// filtered, regardless of filter_dirs, since they hold the snapshot roots
// themselves rather than live content.
var hiddenSnapshotDirNames = map[string]struct{}{
	".zfs":        {},
	".snapshots":  {},
}

// Options bundles the engine-wide config.Options with the enumerator's own
// diagnostic hook.
type Options struct {
	config.Options
	// OnSkippedDir, if non-nil, is called whenever a directory read fails
	// (commonly EACCES) instead of silently dropping the subtree.
	OnSkippedDir func(path string, err error)
}

// Enumerator walks a tree rooted at a requested directory against a fixed
// inventory. Construct with New; the zero value is not usable.
type Enumerator struct {
	inv     *inventory.DatasetInventory
	readDir func(string) ([]os.DirEntry, error)
	lstat   func(string) (os.FileInfo, error)
}

// New returns an Enumerator bound to inv.
func New(inv *inventory.DatasetInventory) *Enumerator {
	return &Enumerator{inv: inv, readDir: os.ReadDir, lstat: os.Lstat}
}

// frame is one entry on the LIFO walk stack: a live directory to process,
// reported under its own real path.
type frame struct {
	path string
}

// Enumerate streams requestedDir's contents (and, recursively, its
// descendants when opts.Recursive is set) into ch, closing ch when the
// walk completes or the consumer hangs up. It must be run on its own
// goroutine; it blocks until the walk is done or ch.HungUp().
func (e *Enumerator) Enumerate(ctx context.Context, requestedDir string, opts Options, ch control.Channels) {
	// Deleted scans for every directory visited by the live walk are
	// dispatched onto a shared, bounded pool here and joined only once the
	// whole walk is done (including any recursion a scan spawns into a
	// snapshot-only subtree): the live walk must not stall waiting on any
	// one directory's deleted scan, matching the original's scoped
	// threadpool (in_place_scope joins only when RecursiveSearch::exec
	// returns).
	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, deletedScanConcurrency)
	)
	defer ch.Close()
	defer wg.Wait()

	requestedDir = filepath.Clean(requestedDir)
	stack := []frame{{path: requestedDir}}

	for len(stack) > 0 {
		if ctx.Err() != nil || ch.HungUp() {
			return
		}

		// Pop from the back: cache-friendly, depth-first near the
		// user's starting point.
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := e.readDir(top.path)
		if err != nil {
			if opts.OnSkippedDir != nil {
				opts.OnSkippedDir(top.path, err)
			}
			continue
		}

		var dirNames, fileNames []string
		dirIsLink := make(map[string]bool)
		for _, ent := range entries {
			name := ent.Name()
			isDir, isLink := e.classify(top.path, ent, opts)
			if !e.passesFilter(top.path, name, isDir, requestedDir, opts) {
				continue
			}
			if isDir {
				dirNames = append(dirNames, name)
				dirIsLink[name] = isLink
			} else {
				fileNames = append(fileNames, name)
			}
		}

		if opts.DeletedMode != config.DeletedOnly {
			for _, name := range fileNames {
				if !e.send(ch, filepath.Join(top.path, name), record.Metadata{}, false, control.FileTypeRegular, false) {
					return
				}
			}
			for _, name := range dirNames {
				hint := control.FileTypeDirectory
				if dirIsLink[name] {
					hint = control.FileTypeSymlink
				}
				if !e.send(ch, filepath.Join(top.path, name), record.Metadata{}, false, hint, false) {
					return
				}
			}
		}

		if opts.DeletedMode != config.DeletedDisabled {
			dir := top.path
			wg.Add(1)
			go func() {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				deletedscanner.Scan(ctx, dir, e.inv, opts.DeletedMode, ch)
			}()
		}

		if opts.Recursive {
			for _, name := range dirNames {
				stack = append(stack, frame{path: filepath.Join(top.path, name)})
			}
		}
	}
}

// classify determines whether ent should be treated as a directory and
// whether it is itself a symlink, applying the no-traverse switch and the
// ancestor-equality loop guard spec.md §4.4 requires.
func (e *Enumerator) classify(parent string, ent os.DirEntry, opts Options) (isDir, isLink bool) {
	if ent.Type()&os.ModeSymlink == 0 {
		return ent.IsDir(), false
	}
	if opts.NoTraverse {
		return false, true
	}

	target := filepath.Join(parent, ent.Name())
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return false, true
	}
	fi, err := os.Stat(resolved)
	if err != nil || !fi.IsDir() {
		return false, true
	}
	if isAncestorOf(resolved, target) {
		// Loop guard: the symlink's resolved target is an ancestor of
		// the symlink itself.
		return false, true
	}
	return true, true
}

// isAncestorOf reports whether ancestor is a path-prefix ancestor of path.
func isAncestorOf(ancestor, path string) bool {
	ancestor = filepath.Clean(ancestor)
	for p := filepath.Clean(path); ; {
		parent := filepath.Dir(p)
		if parent == p {
			return false
		}
		if parent == ancestor {
			return true
		}
		p = parent
	}
}

// passesFilter implements spec.md §4.4's filtering rules.
func (e *Enumerator) passesFilter(parentDir, name string, isDir bool, requestedRoot string, opts Options) bool {
	if opts.NoFilter {
		return true
	}
	if opts.NoHidden && strings.HasPrefix(name, ".") {
		return false
	}
	if !isDir {
		return true
	}

	candidate := filepath.Join(parentDir, name)
	if candidate == requestedRoot {
		return true
	}

	if _, hidden := hiddenSnapshotDirNames[name]; hidden {
		return false
	}
	if e.inv.CommonSnapDir() != "" && candidate == e.inv.CommonSnapDir() {
		return false
	}
	if pathDepth(candidate) <= e.inv.MaxFilterDepth() && e.inv.IsFilterDir(candidate) {
		return false
	}
	return true
}

func (e *Enumerator) send(ch control.Channels, path string, meta record.Metadata, hasMeta bool, hint control.FileTypeHint, isPhantom bool) bool {
	rec := record.PathRecord{Path: path, Metadata: meta, HasMetadata: hasMeta}
	return ch.Send(control.SelectionCandidate{Path: rec, FileTypeHint: hint, IsPhantom: isPhantom})
}

func pathDepth(path string) int {
	trimmed := strings.Trim(path, string(filepath.Separator))
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, string(filepath.Separator)) + 1
}
