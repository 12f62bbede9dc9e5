package session

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/zeusync/offline/internal/core/observability/log"
	"github.com/zeusync/offline/internal/core/world"
)

const (
	// MainDimension is the dimension shown when the session is selected.
	MainDimension = 0

	unloaded = -1
)

// Dimensions maps every dimension index of the loaded world to at most one
// live instance of it.
type Dimensions struct {
	session *Session
	world   world.Runtime
	log     log.Log

	mu  sync.RWMutex
	ids []int

	// one in-flight instantiation per index
	creating singleflight.Group
}

func newDimensions(s *Session, w world.Runtime) *Dimensions {
	n := w.DimensionCount()
	if n < 0 {
		n = 0
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = unloaded
	}
	return &Dimensions{
		session: s,
		world:   w,
		log:     s.log.With(log.Component("Dimensions"), log.String("world", w.Identifier().Ref())),
		ids:     ids,
	}
}

// Count is the number of dimension indices of the world.
func (d *Dimensions) Count() int {
	return len(d.ids)
}

// Identifier of the backing world.
func (d *Dimensions) Identifier() world.Identifier {
	return d.world.Identifier()
}

// SetCurrent flags the backing world as the current one.
func (d *Dimensions) SetCurrent() {
	d.world.SetCurrent(true)
}

// CreateIfMissing makes sure index has a live instance. It returns true if one
// exists afterwards. Concurrent calls for the same index share one instantiation.
func (d *Dimensions) CreateIfMissing(ctx context.Context, index int) bool {
	if !d.inBounds(index) {
		d.log.Warn("Tried to create dimension instance at invalid index", log.Int("index", index), log.Error(ErrInvalidIndex))
		return false
	}
	if d.IsLoaded(index) {
		return true
	}
	dim, ok := d.dimension(index)
	if !ok {
		return false
	}

	v, err, _ := d.creating.Do(strconv.Itoa(index), func() (any, error) {
		if d.IsLoaded(index) {
			return nil, nil
		}
		id, err := dim.MakeInstance(ctx)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.ids[index] = id
		d.mu.Unlock()

		d.log.Debug("Created dimension instance", log.Int("index", index), log.Int("instance", id))
		return &sceneLoad{descriptor: dim.Descriptor(id), anchor: dim.Anchor(id)}, nil
	})
	if err != nil {
		d.log.Warn("Failed to create dimension instance", log.Int("index", index), log.Error(err))
		return false
	}
	// observers run outside the flight so they may call back into d
	if load, ok := v.(*sceneLoad); ok {
		load.once.Do(func() { d.session.handleSceneLoaded(index, load.descriptor, load.anchor) })
	}
	return true
}

// sceneLoad is the result of one instantiation, announced once to observers.
type sceneLoad struct {
	once       sync.Once
	descriptor world.Descriptor
	anchor     world.Anchor
}

// SetActive toggles visibility of the instance at index, if it is loaded.
func (d *Dimensions) SetActive(index int, active bool) {
	dim, ok := d.dimension(index)
	if !ok {
		return
	}
	id, loaded := d.instance(index)
	if !loaded {
		return
	}
	dim.SetVisible(id, active, active)
}

// IsLoaded reports whether index is in range and holds an instance.
func (d *Dimensions) IsLoaded(index int) bool {
	_, ok := d.instance(index)
	return ok
}

// Instance returns the world instance id stored at index.
func (d *Dimensions) Instance(index int) (int, bool) {
	return d.instance(index)
}

// Descriptor returns nil when index is invalid or not loaded.
func (d *Dimensions) Descriptor(index int) world.Descriptor {
	dim, id, ok := d.loaded(index)
	if !ok {
		return nil
	}
	return dim.Descriptor(id)
}

// Anchor returns nil when index is invalid or not loaded.
func (d *Dimensions) Anchor(index int) world.Anchor {
	dim, id, ok := d.loaded(index)
	if !ok {
		return nil
	}
	return dim.Anchor(id)
}

// Scene returns nil when index is invalid or not loaded.
func (d *Dimensions) Scene(index int) world.Scene {
	dim, _, ok := d.loaded(index)
	if !ok {
		return nil
	}
	return dim.Scene()
}

// Descriptors returns one entry per index, nil for unloaded ones.
func (d *Dimensions) Descriptors() []world.Descriptor {
	out := make([]world.Descriptor, len(d.ids))
	for i := range out {
		id, ok := d.instance(i)
		if !ok {
			continue
		}
		if dim, found := d.world.Dimension(i); found && dim != nil {
			out[i] = dim.Descriptor(id)
		}
	}
	return out
}

// Dispose removes every live instance in index order.
func (d *Dimensions) Dispose() {
	for i := range d.ids {
		id, ok := d.instance(i)
		if !ok {
			continue
		}
		if dim, found := d.dimension(i); found {
			dim.RemoveInstance(id)
		}
		d.mu.Lock()
		d.ids[i] = unloaded
		d.mu.Unlock()
		d.session.handleSceneUnloaded(i)
	}
}

func (d *Dimensions) inBounds(index int) bool {
	return index >= 0 && index < len(d.ids)
}

func (d *Dimensions) instance(index int) (int, bool) {
	if !d.inBounds(index) {
		return unloaded, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	id := d.ids[index]
	return id, id != unloaded
}

func (d *Dimensions) dimension(index int) (world.Dimension, bool) {
	if !d.inBounds(index) {
		d.log.Warn("Tried to get dimension at invalid index", log.Int("index", index), log.Error(ErrInvalidIndex))
		return nil, false
	}
	dim, ok := d.world.Dimension(index)
	if !ok || dim == nil {
		d.log.Warn("Tried to get dimension, but dimension not found", log.Int("index", index), log.Error(ErrDimensionNotFound))
		return nil, false
	}
	return dim, true
}

func (d *Dimensions) loaded(index int) (world.Dimension, int, bool) {
	dim, ok := d.dimension(index)
	if !ok {
		return nil, unloaded, false
	}
	id, loaded := d.instance(index)
	if !loaded {
		return nil, unloaded, false
	}
	return dim, id, true
}
