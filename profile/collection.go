package profile

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Collection is a memory map of profiles keyed by name.
type Collection struct {
	byName *sync.Map
}

// NewCollection initializes a collection of profiles.
func NewCollection() *Collection {
	return &Collection{
		byName: new(sync.Map),
	}
}

// Load a profile by name.
func (c *Collection) Load(name string) (*Profile, bool) {
	i, ok := c.byName.Load(name)
	if !ok {
		return nil, false
	}
	p, ok := i.(*Profile)
	return p, ok
}

// Store adds a profile to the collection, it makes sure two profiles do not
// have the same name.
func (c *Collection) Store(p *Profile) error {
	if _, loaded := c.byName.LoadOrStore(p.Name(), p); loaded {
		return errors.Errorf("cannot add multiple profiles with the name %s", p.Name())
	}
	return nil
}

// Names returns the sorted names of the profiles.
func (c *Collection) Names() []string {
	var names []string
	c.byName.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// NewCollectionFromOptions initializes every profile and stores it.
func NewCollectionFromOptions(opts []*Options) (*Collection, error) {
	c := NewCollection()
	for _, o := range opts {
		p, err := New(o)
		if err != nil {
			return nil, err
		}
		if err := c.Store(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}
