// Package mock implements an in-memory stand-in for internal/zfs/libzfs,
// grounded on ubuntu-zsys's internal/zfs/libzfs/mock package, trimmed to the
// read/snapshot/destroy surface snapshot discovery and guarded rollback
// exercise: no pool, clone, or promote bookkeeping survives here since
// nothing in snapview creates or migrates datasets.
package mock

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ubuntu/snapview/internal/zfs/libzfs"
)

// LibZFS is the mock, in-memory implementation of libzfs.Interface.
type LibZFS struct {
	mu       sync.RWMutex
	datasets map[string]*dZFS

	errOnSnapshot    bool
	errOnDestroy     bool
	errOnSetProperty bool
}

// New returns an initialized, empty LibZFS mock.
func New() *LibZFS {
	return &LibZFS{datasets: make(map[string]*dZFS)}
}

// AddDataset registers a fixture dataset at name with the given mountpoint,
// for use by tests building up an inventory. Passing an empty mountpoint
// creates the dataset without a DatasetPropMountpoint property.
func (l *LibZFS) AddDataset(name, mountpoint string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	props := map[libzfs.Prop]libzfs.Property{
		libzfs.DatasetPropName: {Value: name},
	}
	if mountpoint != "" {
		props[libzfs.DatasetPropMountpoint] = libzfs.Property{Value: mountpoint}
	}
	l.datasets[name] = &dZFS{
		Dataset:        &libzfs.Dataset{Type: libzfs.DatasetTypeFilesystem, Properties: props},
		mock:           l,
		userProperties: make(map[string]libzfs.Property),
	}
}

// DatasetOpenAll opens every registered, non-snapshot dataset.
func (l *LibZFS) DatasetOpenAll() (datasets []libzfs.DZFSInterface, err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for name, d := range l.datasets {
		if d.Dataset.Type == libzfs.DatasetTypeSnapshot {
			continue
		}
		l.openChildrenFor(d)
		_ = name
		datasets = append(datasets, d)
	}
	return datasets, nil
}

// DatasetOpen opens a single dataset (or snapshot) by name.
func (l *LibZFS) DatasetOpen(name string) (libzfs.DZFSInterface, error) {
	l.mu.RLock()
	d, ok := l.datasets[name]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no dataset found with name %q", name)
	}
	l.openChildrenFor(d)
	d.isClosed = false
	return d, nil
}

func (l *LibZFS) openChildrenFor(dm *dZFS) {
	name := dm.Dataset.Properties[libzfs.DatasetPropName].Value
	dm.children = nil
	for k, d := range l.datasets {
		if d == dm {
			continue
		}
		isSnapshotDesc := strings.Contains(k, "@") && strings.HasPrefix(k, name+"@")
		isDatasetDesc := !strings.Contains(k, "@") && strings.HasPrefix(k, name+"/") &&
			!strings.Contains(strings.TrimPrefix(k, name+"/"), "/")
		if !isSnapshotDesc && !isDatasetDesc {
			continue
		}
		dm.children = append(dm.children, d)
	}
}

// DatasetSnapshot creates a snapshot of path (format "dataset@snapname"),
// recursively across children when recur is set.
func (l *LibZFS) DatasetSnapshot(path string, recur bool, props map[libzfs.Prop]libzfs.Property) (libzfs.DZFSInterface, error) {
	if l.errOnSnapshot {
		return nil, errors.New("snapshot creation forced to fail")
	}
	parts := strings.SplitN(path, "@", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("%q is not a valid snapshot name", path)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.datasets[path]; exists {
		return nil, fmt.Errorf("snapshot %q already exists", path)
	}
	parent, ok := l.datasets[parts[0]]
	if !ok {
		return nil, fmt.Errorf("no dataset found with name %q", parts[0])
	}

	snapProps := make(map[libzfs.Prop]libzfs.Property, len(props)+1)
	for k, v := range props {
		snapProps[k] = v
	}
	snapProps[libzfs.DatasetPropName] = libzfs.Property{Value: path}

	snap := &dZFS{
		Dataset:        &libzfs.Dataset{Type: libzfs.DatasetTypeSnapshot, Properties: snapProps},
		mock:           l,
		userProperties: make(map[string]libzfs.Property),
	}
	l.datasets[path] = snap

	if recur {
		for _, c := range parent.children {
			if c.Dataset.Type == libzfs.DatasetTypeSnapshot {
				continue
			}
			childName := c.Dataset.Properties[libzfs.DatasetPropName].Value
			l.mu.Unlock()
			_, err := l.DatasetSnapshot(childName+"@"+parts[1], recur, props)
			l.mu.Lock()
			if err != nil {
				return nil, err
			}
		}
	}

	return snap, nil
}

// ErrOnSnapshot forces a failure of the mock on the next DatasetSnapshot
// call.
func (l *LibZFS) ErrOnSnapshot(shouldErr bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errOnSnapshot = shouldErr
}

// ErrOnDestroy forces a failure of the mock on the next Destroy call.
func (l *LibZFS) ErrOnDestroy(shouldErr bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errOnDestroy = shouldErr
}

// ErrOnSetProperty forces a failure of the mock on the next SetUserProperty
// call.
func (l *LibZFS) ErrOnSetProperty(shouldErr bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errOnSetProperty = shouldErr
}

// GenerateID returns a fixed, predictable id of length 'x' characters.
func (*LibZFS) GenerateID(length int) string {
	return strings.Repeat("x", length)
}

type dZFS struct {
	*libzfs.Dataset
	children       []*dZFS
	mock           *LibZFS
	userProperties map[string]libzfs.Property
	isClosed       bool
}

func (d *dZFS) assertOpened() {
	if d.isClosed {
		panic(fmt.Sprintf("operation on closed dataset %q", d.Dataset.Properties[libzfs.DatasetPropName].Value))
	}
}

func (d *dZFS) Children() (children []libzfs.DZFSInterface) {
	d.assertOpened()
	for _, c := range d.children {
		children = append(children, c)
	}
	return children
}

func (d *dZFS) Properties() *map[libzfs.Prop]libzfs.Property {
	d.assertOpened()
	return &d.Dataset.Properties
}

func (d *dZFS) Type() libzfs.DatasetType {
	d.assertOpened()
	return d.Dataset.Type
}

func (d *dZFS) IsSnapshot() bool {
	d.assertOpened()
	return d.Dataset.Type == libzfs.DatasetTypeSnapshot
}

func (d *dZFS) Close() {
	d.isClosed = true
}

func (d *dZFS) GetUserProperty(p string) (libzfs.Property, error) {
	d.assertOpened()
	prop, ok := d.userProperties[p]
	if !ok {
		return libzfs.Property{Value: "-", Source: "-"}, nil
	}
	return prop, nil
}

func (d *dZFS) SetUserProperty(prop, value string) error {
	d.assertOpened()
	d.mock.mu.RLock()
	fail := d.mock.errOnSetProperty
	d.mock.mu.RUnlock()
	if fail {
		return errors.New("set user property forced to fail")
	}
	d.userProperties[prop] = libzfs.Property{Value: value, Source: "local"}
	return nil
}

func (d *dZFS) Destroy(deferred bool) error {
	d.assertOpened()
	d.mock.mu.Lock()
	defer d.mock.mu.Unlock()

	if d.mock.errOnDestroy {
		return errors.New("destroy forced to fail")
	}

	name := d.Dataset.Properties[libzfs.DatasetPropName].Value
	for other := range d.mock.datasets {
		if other == name {
			continue
		}
		if strings.HasPrefix(other, name+"/") || strings.HasPrefix(other, name+"@") {
			return fmt.Errorf("cannot destroy %q: has at least one child %q", name, other)
		}
	}
	delete(d.mock.datasets, name)
	return nil
}
