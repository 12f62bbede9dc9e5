package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseEntityHasNoPhysicalImplementation(t *testing.T) {
	s, logs := newTestSession(t, Deps{})
	e := s.Entities().NewEntity()

	assert.False(t, e.MakePhysical())
	assert.False(t, e.HasPhysical())
	assert.Nil(t, e.Physical())
	assert.Equal(t, 1, warnings(logs))

	e.DestroyPhysical()
	assert.False(t, e.HasPhysical())
}

func TestPlayerPhysicalLifecycle(t *testing.T) {
	phys := &fakePhysical{}
	built := 0
	s, _ := newTestSession(t, Deps{Physicals: func(*Player) (Physical, error) {
		built++
		return phys, nil
	}})
	var visibility []bool
	s.OnPlayerVisibility(func(_ *Player, visible bool) { visibility = append(visibility, visible) })

	p := s.Entities().NewPlayer()
	require.True(t, p.MakePhysical())
	require.True(t, p.MakePhysical())
	assert.Equal(t, 1, built)
	assert.True(t, p.HasPhysical())
	assert.Same(t, phys, p.Physical())

	p.DestroyPhysical()
	p.DestroyPhysical()
	assert.Equal(t, 1, phys.destroyed)
	assert.False(t, p.HasPhysical())
	assert.Equal(t, []bool{true, false}, visibility)

	// a new creation cycle builds again
	require.True(t, p.MakePhysical())
	assert.Equal(t, 2, built)
}

func TestPlayerPhysicalWithoutFactory(t *testing.T) {
	s, logs := newTestSession(t, Deps{})
	p := s.Entities().NewPlayer()
	assert.False(t, p.MakePhysical())
	assert.Positive(t, warnings(logs))
}

func TestPlayerPhysicalFactoryError(t *testing.T) {
	s, _ := newTestSession(t, Deps{Physicals: func(*Player) (Physical, error) {
		return nil, errors.New("no avatar")
	}})
	p := s.Entities().NewPlayer()
	assert.False(t, p.MakePhysical())
	assert.False(t, p.HasPhysical())
}

func TestDisposeDestroysPhysicalBeforeUnregistering(t *testing.T) {
	phys := &fakePhysical{}
	s, _ := newTestSession(t, Deps{Physicals: func(*Player) (Physical, error) { return phys, nil }})
	p := s.Entities().NewPlayer()
	require.True(t, p.MakePhysical())

	var destroyedAtUnregister int
	s.OnEntityUnregistered(func(Entity) { destroyedAtUnregister = phys.destroyed })
	p.Dispose()

	assert.Equal(t, 1, destroyedAtUnregister)
	assert.False(t, s.Entities().Has(p.ID()))
}

func TestEntityProperties(t *testing.T) {
	s, _ := newTestSession(t, Deps{})
	e := s.Entities().NewEntity()

	e.SetProperty(Property{Key: 2, Name: "color", Value: "red"})
	e.SetProperty(Property{Key: 1, Name: "size", Value: 3})
	e.SetProperty(Property{Key: 2, Name: "color", Value: "blue"})

	props := e.Properties()
	require.Len(t, props, 2)
	assert.Equal(t, 2, props[0].Key)
	assert.Equal(t, "blue", props[0].Value)
	assert.Equal(t, 1, props[1].Key)

	p, ok := e.Property(1)
	require.True(t, ok)
	assert.Equal(t, "size", p.Name)
	_, ok = e.Property(9)
	assert.False(t, ok)

	props[0].Value = "mutated"
	p, _ = e.Property(2)
	assert.Equal(t, "blue", p.Value)
	assert.Equal(t, "Entity[Id=1]", e.String())
}
