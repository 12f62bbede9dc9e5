package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/zeusync/offline/internal/core/spatial"
	"github.com/zeusync/offline/internal/core/world"
)

var (
	_ world.Runtime     = (*World)(nil)
	_ world.Dimension   = (*dimension)(nil)
	_ world.SpawnModule = (*spawnModule)(nil)
)

// SpawnModuleName is the module every dimension declaring spawns carries.
const SpawnModuleName = "spawn"

// World is a loaded bundle. Each dimension can be instantiated any number of times.
type World struct {
	mu      sync.RWMutex
	id      world.Identifier
	current bool
	dims    []*dimension
}

func newWorld(b *Bundle) *World {
	w := &World{id: b.Identifier()}
	for _, spec := range b.Dimensions {
		w.dims = append(w.dims, newDimension(spec))
	}
	return w
}

func (w *World) Identifier() world.Identifier {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.id
}

func (w *World) SetIdentifier(id world.Identifier) {
	w.mu.Lock()
	w.id = id
	w.mu.Unlock()
}

func (w *World) DimensionCount() int {
	return len(w.dims)
}

func (w *World) Dimension(index int) (world.Dimension, bool) {
	if index < 0 || index >= len(w.dims) {
		return nil, false
	}
	return w.dims[index], true
}

func (w *World) IsCurrent() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *World) SetCurrent(current bool) {
	w.mu.Lock()
	w.current = current
	w.mu.Unlock()
}

type instance struct {
	visible      bool
	renderActive bool
	descriptor   *descriptor
	anchor       anchor
}

type dimension struct {
	spec    DimensionSpec
	modules []world.Module

	mu        sync.Mutex
	next      int
	instances map[int]*instance
}

func newDimension(spec DimensionSpec) *dimension {
	d := &dimension{spec: spec, next: 1, instances: make(map[int]*instance)}
	if len(spec.Spawns) > 0 {
		spawns := make([]world.Spawn, len(spec.Spawns))
		for i, s := range spec.Spawns {
			spawns[i] = s.spawn()
		}
		d.modules = append(d.modules, &spawnModule{spawns: spawns})
	}
	for _, name := range spec.Modules {
		if name == SpawnModuleName {
			continue
		}
		d.modules = append(d.modules, namedModule(name))
	}
	return d
}

func (d *dimension) MakeInstance(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.next
	d.next++
	d.instances[id] = &instance{
		descriptor: &descriptor{name: d.spec.Name, modules: d.modules},
		anchor:     anchor{name: fmt.Sprintf("%s#%d", d.spec.Name, id), position: d.spec.Anchor},
	}
	return id, nil
}

func (d *dimension) get(id int) (*instance, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	inst, ok := d.instances[id]
	return inst, ok
}

func (d *dimension) Descriptor(id int) world.Descriptor {
	inst, ok := d.get(id)
	if !ok {
		return nil
	}
	return inst.descriptor
}

func (d *dimension) Anchor(id int) world.Anchor {
	inst, ok := d.get(id)
	if !ok {
		return nil
	}
	return inst.anchor
}

func (d *dimension) Scene() world.Scene {
	return scene(d.spec.Name)
}

func (d *dimension) SetVisible(id int, active, renderActive bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if inst, ok := d.instances[id]; ok {
		inst.visible = active
		inst.renderActive = renderActive
	}
}

func (d *dimension) RemoveInstance(id int) {
	d.mu.Lock()
	delete(d.instances, id)
	d.mu.Unlock()
}

// Visible reports whether instance id of dimension index is shown.
func (w *World) Visible(index, id int) bool {
	if index < 0 || index >= len(w.dims) {
		return false
	}
	inst, ok := w.dims[index].get(id)
	return ok && inst.visible
}

// Instances is the number of live instances of dimension index.
func (w *World) Instances(index int) int {
	if index < 0 || index >= len(w.dims) {
		return 0
	}
	d := w.dims[index]
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.instances)
}

type descriptor struct {
	name    string
	modules []world.Module
}

func (d *descriptor) Name() string            { return d.name }
func (d *descriptor) Modules() []world.Module { return d.modules }

type anchor struct {
	name     string
	position spatial.Vec3
}

func (a anchor) Name() string           { return a.name }
func (a anchor) Position() spatial.Vec3 { return a.position }

type scene string

func (s scene) Name() string { return string(s) }

type namedModule string

func (m namedModule) Name() string { return string(m) }

// spawnModule hands out its spawn points round-robin.
type spawnModule struct {
	mu     sync.Mutex
	spawns []world.Spawn
	next   int
}

func (m *spawnModule) Name() string { return SpawnModuleName }

func (m *spawnModule) ChooseSpawn() world.Spawn {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.spawns[m.next%len(m.spawns)]
	m.next++
	return s
}
