package controller

import (
	"slices"
	"sync"

	"github.com/zeusync/offline/internal/core/events/bus"
	"github.com/zeusync/offline/internal/core/spatial"
)

var _ Controller = (*Static)(nil)

type staticPart struct {
	key       uint16
	transform spatial.Transform
}

func (p staticPart) Key() uint16                  { return p.key }
func (p staticPart) Transform() spatial.Transform { return p.transform }

// Static is a controller whose part transforms are set programmatically.
type Static struct {
	mu    sync.RWMutex
	parts map[uint16]spatial.Transform
}

// NewStatic creates a controller exposing keys, each at the default transform.
func NewStatic(keys ...uint16) *Static {
	s := &Static{parts: make(map[uint16]spatial.Transform, len(keys))}
	for _, k := range keys {
		s.parts[k] = spatial.DefaultTransform()
	}
	return s
}

// Set adds or updates the transform of a part.
func (s *Static) Set(key uint16, t spatial.Transform) {
	s.mu.Lock()
	s.parts[key] = t
	s.mu.Unlock()
}

// Remove drops a part from the controller.
func (s *Static) Remove(key uint16) {
	s.mu.Lock()
	delete(s.parts, key)
	s.mu.Unlock()
}

// Parts returns the parts ordered by key.
func (s *Static) Parts() []Part {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]uint16, 0, len(s.parts))
	for k := range s.parts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]Part, 0, len(keys))
	for _, k := range keys {
		out = append(out, staticPart{key: k, transform: s.parts[k]})
	}
	return out
}

func (s *Static) Part(key uint16) (Part, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.parts[key]
	if !ok {
		return nil, false
	}
	return staticPart{key: key, transform: t}, true
}

// Binding is a Provider that announces changes on an event bus.
type Binding struct {
	mu      sync.RWMutex
	current Controller
	events  bus.EventBus
}

// NewBinding creates a provider with no controller bound.
func NewBinding(events bus.EventBus) *Binding {
	return &Binding{events: events}
}

func (b *Binding) Current() Controller {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Bind replaces the current controller (nil unbinds) and publishes
// bus.TopicControllerChanged with the new controller as first argument.
func (b *Binding) Bind(c Controller) error {
	b.mu.Lock()
	b.current = c
	b.mu.Unlock()
	if b.events == nil {
		return nil
	}
	return b.events.Emit(bus.TopicControllerChanged, "controller", c)
}
