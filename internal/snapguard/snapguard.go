// Package snapguard implements the guarded snapshot/rollback workflow
// spec.md §1 references only as an external collaborator interface.
//
// Grounded on original_source/src/zfs/snap_guard.rs (the SnapGuard /
// PrecautionarySnapType / rollback shape: take a named precautionary
// snapshot before a destructive operation, keep or roll back to it
// afterward) and on the teacher's internal/zfs.Transaction.Snapshot/Destroy
// and internal/authorizer polkit gate (ubuntu-zsys gates every dataset
// mutation the same way). The teacher's Transaction type coordinated
// multi-dataset atomic rollback journals for its install-time machine
// switches; snapview only ever mutates one dataset per Guard, so that
// journal has no role here and Guard talks to internal/zfs/libzfs directly.
package snapguard

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/ubuntu/snapview/internal/authorizer"
	"github.com/ubuntu/snapview/internal/i18n"
	"github.com/ubuntu/snapview/internal/log"
	"github.com/ubuntu/snapview/internal/zfs/libzfs"
)

// lockDir holds one flock file per guarded dataset, serializing concurrent
// guard workflows against the same dataset the way kopia's gofrs/flock
// usage serializes repository maintenance.
const lockDir = "/run/snapview"

// Guard holds a precautionary snapshot taken on a dataset, pending either
// Commit (keep the changes made since, discard the snapshot) or Rollback
// (discard the changes, restore the dataset to the snapshot).
type Guard struct {
	dataset  string
	snapName string

	libzfs     libzfs.Interface
	authz      *authorizer.Authorizer
	lock       *flock.Flock
	runZFSArgs func(ctx context.Context, args ...string) error
}

// Option configures Guard construction.
type Option func(*options)

type options struct {
	libzfs     libzfs.Interface
	authz      *authorizer.Authorizer
	lockDir    string
	runZFSArgs func(ctx context.Context, args ...string) error
	now        func() time.Time
}

// WithLibZFS overrides the libzfs backend, for tests.
func WithLibZFS(l libzfs.Interface) Option {
	return func(o *options) { o.libzfs = l }
}

// WithAuthorizer overrides the polkit authorizer, for tests.
func WithAuthorizer(a *authorizer.Authorizer) Option {
	return func(o *options) { o.authz = a }
}

// WithLockDir overrides the directory flock files are created under, for
// tests.
func WithLockDir(dir string) Option {
	return func(o *options) { o.lockDir = dir }
}

// WithRollbackRunner overrides the command used to perform the actual
// rollback, for tests. args are the zfs(8) CLI arguments that would be run.
func WithRollbackRunner(run func(ctx context.Context, args ...string) error) Option {
	return func(o *options) { o.runZFSArgs = run }
}

func withNow(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New takes a precautionary snapshot of dataset and returns a Guard
// tracking it. It fails closed: if the authorizer denies ActionSnapshot, or
// the dataset is already locked by a concurrent guard, no snapshot is
// taken.
func New(ctx context.Context, dataset string, opts ...Option) (*Guard, error) {
	o := options{
		libzfs:  libzfs.Adapter{},
		lockDir: lockDir,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.authz == nil {
		a, err := authorizer.New()
		if err != nil {
			return nil, fmt.Errorf(i18n.G("couldn't initialize authorizer: %w"), err)
		}
		o.authz = a
	}

	if err := o.authz.IsAllowed(ctx, authorizer.ActionSnapshot); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(o.lockDir, 0750); err != nil {
		return nil, fmt.Errorf(i18n.G("couldn't create guard lock directory %q: %w"), o.lockDir, err)
	}

	lock := flock.New(lockPath(o.lockDir, dataset))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf(i18n.G("couldn't acquire guard lock for %q: %w"), dataset, err)
	}
	if !locked {
		return nil, fmt.Errorf(i18n.G("another snapview guard is already active on %q"), dataset)
	}

	snapName := fmt.Sprintf("%s@snapview_pre_%s_restore", dataset, o.now().UTC().Format(time.RFC3339))

	ds, err := o.libzfs.DatasetSnapshot(snapName, false, nil)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf(i18n.G("couldn't take precautionary snapshot of %q: %w"), dataset, err)
	}
	if err := ds.SetUserProperty(libzfs.GuardReasonProp, "pre-rollback"); err != nil {
		log.Debugf(ctx, i18n.G("couldn't tag precautionary snapshot %q: %v"), snapName, err)
	}
	ds.Close()

	log.Infof(ctx, i18n.G("took precautionary snapshot %q"), snapName)

	run := o.runZFSArgs
	if run == nil {
		run = runZFSCommand
	}

	return &Guard{
		dataset:    dataset,
		snapName:   snapName,
		libzfs:     o.libzfs,
		authz:      o.authz,
		lock:       lock,
		runZFSArgs: run,
	}, nil
}

// Rollback restores the guarded dataset to the precautionary snapshot,
// discarding everything written since. The rollback primitive itself has
// no equivalent in internal/zfs/libzfs's adapter surface (neither the
// teacher's nor the real bindings expose it), matching
// original_source/src/zfs/snap_guard.rs's own rollback path, which shells
// out to a zfs command wrapper rather than using library bindings for this
// one operation; snapview does the same via os/exec.
func (g *Guard) Rollback(ctx context.Context) error {
	defer g.release()

	if err := g.authz.IsAllowed(ctx, authorizer.ActionRollback); err != nil {
		return err
	}

	if err := g.runZFSArgs(ctx, "rollback", "-r", g.snapName); err != nil {
		return fmt.Errorf(i18n.G("couldn't roll %q back to %q: %w"), g.dataset, g.snapName, err)
	}

	log.Infof(ctx, i18n.G("rolled %q back to %q"), g.dataset, g.snapName)
	return nil
}

// Commit discards the precautionary snapshot, keeping every change made
// since it was taken.
func (g *Guard) Commit(ctx context.Context) error {
	defer g.release()

	ds, err := g.libzfs.DatasetOpen(g.snapName)
	if err != nil {
		return fmt.Errorf(i18n.G("couldn't open precautionary snapshot %q: %w"), g.snapName, err)
	}
	defer ds.Close()

	if err := ds.Destroy(false); err != nil {
		return fmt.Errorf(i18n.G("couldn't discard precautionary snapshot %q: %w"), g.snapName, err)
	}

	log.Infof(ctx, i18n.G("committed changes to %q, discarded guard snapshot %q"), g.dataset, g.snapName)
	return nil
}

func (g *Guard) release() {
	if g.lock != nil {
		g.lock.Unlock()
	}
}

// SnapshotName returns the name of the precautionary snapshot this Guard is
// tracking.
func (g *Guard) SnapshotName() string {
	return g.snapName
}

func lockPath(dir, dataset string) string {
	sanitized := strings.ReplaceAll(dataset, "/", "_")
	return filepath.Join(dir, sanitized+".lock")
}

func runZFSCommand(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "zfs", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
