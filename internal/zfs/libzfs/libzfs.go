package libzfs

import (
	"math/rand"
	"sync"
	"time"

	golibzfs "github.com/bicomsystems/go-libzfs"
)

// Adapter is an accessor to the real system zfs libraries.
type Adapter struct{}

// DatasetOpenAll opens all datasets recursively.
func (Adapter) DatasetOpenAll() (datasets []DZFSInterface, err error) {
	ds, err := golibzfs.DatasetOpenAll()
	if err != nil {
		return nil, err
	}

	for _, d := range ds {
		d := d
		datasets = append(datasets, dZFSAdapter{&d})
	}
	return datasets, nil
}

// DatasetOpen opens a single dataset by name.
func (Adapter) DatasetOpen(name string) (DZFSInterface, error) {
	d, err := golibzfs.DatasetOpen(name)
	if err != nil {
		return dZFSAdapter{}, err
	}
	return dZFSAdapter{&d}, nil
}

// DatasetSnapshot creates a snapshot, recursively when recur is set.
func (Adapter) DatasetSnapshot(path string, recur bool, props map[Prop]Property) (DZFSInterface, error) {
	d, err := golibzfs.DatasetSnapshot(path, recur, props)
	if err != nil {
		return dZFSAdapter{}, err
	}
	return dZFSAdapter{&d}, nil
}

var seedOnce sync.Once

// GenerateID returns n ascii lowercase/digit characters, used to suffix
// precautionary snapshot names so repeated guards on the same dataset never
// collide.
func (Adapter) GenerateID(length int) string {
	seedOnce.Do(func() { rand.Seed(time.Now().UnixNano()) })

	var allowedRunes = []rune("abcdefghijklmnopqrstuvwxyz0123456789")

	b := make([]rune, length)
	for i := range b {
		b[i] = allowedRunes[rand.Intn(len(allowedRunes))]
	}
	return string(b)
}

type dZFSAdapter struct {
	*golibzfs.Dataset
}

func (d dZFSAdapter) Children() (children []DZFSInterface) {
	for _, c := range d.Dataset.Children {
		c := c
		children = append(children, dZFSAdapter{&c})
	}
	return children
}

func (d dZFSAdapter) Properties() *map[Prop]Property {
	return &d.Dataset.Properties
}

func (d dZFSAdapter) Type() DatasetType {
	return d.Dataset.Type
}
