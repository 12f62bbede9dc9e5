// Package worldtest provides in-memory world fakes that record how they are driven.
package worldtest

import (
	"context"
	"sync"

	"github.com/zeusync/offline/internal/core/spatial"
	"github.com/zeusync/offline/internal/core/world"
)

var (
	_ world.Runtime     = (*Runtime)(nil)
	_ world.Dimension   = (*Dimension)(nil)
	_ world.SpawnModule = (*SpawnModule)(nil)
)

// Runtime is a fake loaded world. A nil entry in Dims is reported as missing.
type Runtime struct {
	mu      sync.Mutex
	id      world.Identifier
	current bool
	Dims    []*Dimension
}

// NewRuntime builds a world with one dimension per name.
func NewRuntime(names ...string) *Runtime {
	r := &Runtime{}
	for _, n := range names {
		r.Dims = append(r.Dims, NewDimension(n))
	}
	return r
}

func (r *Runtime) Identifier() world.Identifier {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

func (r *Runtime) SetIdentifier(id world.Identifier) {
	r.mu.Lock()
	r.id = id
	r.mu.Unlock()
}

func (r *Runtime) DimensionCount() int { return len(r.Dims) }

func (r *Runtime) Dimension(index int) (world.Dimension, bool) {
	if index < 0 || index >= len(r.Dims) || r.Dims[index] == nil {
		return nil, false
	}
	return r.Dims[index], true
}

func (r *Runtime) IsCurrent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Runtime) SetCurrent(v bool) {
	r.mu.Lock()
	r.current = v
	r.mu.Unlock()
}

// Dimension is a fake dimension counting instantiations.
type Dimension struct {
	mu      sync.Mutex
	name    string
	next    int
	live    map[int]bool
	visible map[int]bool
	made    int
	removed []int

	// Modules are attached to every descriptor this dimension hands out.
	Modules []world.Module
	// MakeErr, when set, makes MakeInstance fail.
	MakeErr error
	// Gate, when set, blocks MakeInstance until it is closed.
	Gate chan struct{}
}

func NewDimension(name string, modules ...world.Module) *Dimension {
	return &Dimension{
		name:    name,
		next:    100,
		live:    make(map[int]bool),
		visible: make(map[int]bool),
		Modules: modules,
	}
}

func (d *Dimension) MakeInstance(ctx context.Context) (int, error) {
	if d.Gate != nil {
		select {
		case <-d.Gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.made++
	if d.MakeErr != nil {
		return 0, d.MakeErr
	}
	id := d.next
	d.next++
	d.live[id] = true
	return id, nil
}

func (d *Dimension) Descriptor(instance int) world.Descriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.live[instance] {
		return nil
	}
	return &Descriptor{name: d.name, modules: d.Modules}
}

func (d *Dimension) Anchor(instance int) world.Anchor {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.live[instance] {
		return nil
	}
	return Anchor{name: d.name}
}

func (d *Dimension) Scene() world.Scene { return Scene{name: d.name} }

func (d *Dimension) SetVisible(instance int, active, _ bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.live[instance] {
		return
	}
	d.visible[instance] = active
}

func (d *Dimension) RemoveInstance(instance int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.live[instance] {
		return
	}
	delete(d.live, instance)
	delete(d.visible, instance)
	d.removed = append(d.removed, instance)
}

// Made is the number of MakeInstance calls.
func (d *Dimension) Made() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.made
}

// Live is the number of instances not yet removed.
func (d *Dimension) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Removed lists removed instance ids in removal order.
func (d *Dimension) Removed() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.removed...)
}

// Visible reports the last visibility set on an instance.
func (d *Dimension) Visible(instance int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visible[instance]
}

type Descriptor struct {
	name    string
	modules []world.Module
}

func (d *Descriptor) Name() string            { return d.name }
func (d *Descriptor) Modules() []world.Module { return d.modules }

type Anchor struct{ name string }

func (a Anchor) Name() string           { return a.name }
func (a Anchor) Position() spatial.Vec3 { return spatial.Zero }

type Scene struct{ name string }

func (s Scene) Name() string { return s.name }

// SpawnModule always answers with Spawn and counts how often it was asked.
type SpawnModule struct {
	mu    sync.Mutex
	Spawn world.Spawn
	asked int
}

func (m *SpawnModule) Name() string { return "spawn" }

func (m *SpawnModule) ChooseSpawn() world.Spawn {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asked++
	return m.Spawn
}

func (m *SpawnModule) Asked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.asked
}

// Module is a named module with no capabilities.
type Module string

func (m Module) Name() string { return string(m) }
