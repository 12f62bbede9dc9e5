package session

import (
	"fmt"
	"slices"
	"sync"

	"github.com/zeusync/offline/internal/core/observability/log"
)

// Entity is anything the registry can hold.
type Entity interface {
	ID() int
	Properties() []Property
	Property(key int) (Property, bool)
	SetProperty(p Property)
	Physical() Physical
	HasPhysical() bool
	MakePhysical() bool
	DestroyPhysical()
	Dispose()
	String() string
}

// Physical is the in-world manifestation of an entity.
type Physical interface {
	Destroy()
}

// Property is a keyed value attached to an entity.
type Property struct {
	Key   int
	Name  string
	Value any
}

// kind is implemented by every entity flavor to customize how its physical
// representation is built and what happens around it.
type kind interface {
	instantiatePhysical() Physical
	onPhysicalCreated()
	onPhysicalDestroyed()
}

var (
	_ Entity = (*BaseEntity)(nil)
	_ kind   = (*BaseEntity)(nil)
)

// BaseEntity carries identity, properties and the physical representation
// lifecycle. Specialized entities embed it.
type BaseEntity struct {
	id      int
	context *Entities
	log     log.Log

	// self is the outermost value, the one the registry holds
	self  Entity
	hooks kind

	mu         sync.Mutex
	physical   Physical
	properties []Property
	// creating is set while instantiatePhysical runs; discard asks that run
	// to throw its result away
	creating bool
	discard  bool
}

func newBaseEntity(es *Entities, id int) *BaseEntity {
	e := buildBaseEntity(es, id)
	_ = es.register(e)
	return e
}

// buildBaseEntity returns an entity that is not registered yet.
func buildBaseEntity(es *Entities, id int) *BaseEntity {
	e := &BaseEntity{id: id, context: es, log: es.log.With(log.Component("Entity"), log.Int("entity", id))}
	e.self, e.hooks = e, e
	return e
}

func (e *BaseEntity) ID() int {
	return e.id
}

// Properties returns a copy of the properties in insertion order.
func (e *BaseEntity) Properties() []Property {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.properties)
}

func (e *BaseEntity) Property(key int) (Property, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.properties {
		if p.Key == key {
			return p, true
		}
	}
	return Property{}, false
}

// SetProperty replaces the property with the same key, or appends it.
func (e *BaseEntity) SetProperty(p Property) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.properties {
		if e.properties[i].Key == p.Key {
			e.properties[i] = p
			return
		}
	}
	e.properties = append(e.properties, p)
}

func (e *BaseEntity) Physical() Physical {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.physical
}

func (e *BaseEntity) HasPhysical() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.physical != nil
}

// MakePhysical creates the physical representation if there is none yet.
// The representation is built with no lock held; a call made while another
// one is still building reports false.
func (e *BaseEntity) MakePhysical() bool {
	e.mu.Lock()
	if e.physical != nil {
		e.mu.Unlock()
		return true
	}
	if e.creating {
		e.mu.Unlock()
		e.log.Debug("Physical representation already being created")
		return false
	}
	e.creating, e.discard = true, false
	e.mu.Unlock()

	p := e.hooks.instantiatePhysical()

	e.mu.Lock()
	e.creating = false
	discard := e.discard
	e.discard = false
	if p == nil || discard {
		e.mu.Unlock()
		if p != nil {
			p.Destroy()
		}
		return false
	}
	e.physical = p
	e.mu.Unlock()

	e.hooks.onPhysicalCreated()
	return true
}

// DestroyPhysical destroys the representation. A representation still being
// built is destroyed as soon as it is ready.
func (e *BaseEntity) DestroyPhysical() {
	e.mu.Lock()
	if e.creating {
		e.discard = true
	}
	p := e.physical
	if p == nil {
		e.mu.Unlock()
		return
	}
	e.physical = nil
	e.mu.Unlock()

	p.Destroy()
	e.hooks.onPhysicalDestroyed()
}

// Dispose destroys the physical representation and leaves the registry.
func (e *BaseEntity) Dispose() {
	e.self.DestroyPhysical()
	_ = e.context.unregister(e.self)
}

func (e *BaseEntity) String() string {
	return fmt.Sprintf("Entity[Id=%d]", e.id)
}

func (e *BaseEntity) instantiatePhysical() Physical {
	e.log.Warn(fmt.Sprintf("Entity %d does not implement instantiatePhysical, cannot create physical representation.", e.id))
	return nil
}

func (e *BaseEntity) onPhysicalCreated() {}

func (e *BaseEntity) onPhysicalDestroyed() {}
