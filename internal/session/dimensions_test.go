package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/offline/internal/core/world"
	"github.com/zeusync/offline/internal/core/world/worldtest"
)

func TestDimensionsOutOfRangeIsNoop(t *testing.T) {
	s, logs := newTestSession(t, Deps{})
	rt := withWorld(t, s, 2)
	dims := s.Dimensions()

	for _, index := range []int{-1, 2, 10} {
		assert.False(t, dims.CreateIfMissing(t.Context(), index))
		dims.SetActive(index, true)
		assert.Nil(t, dims.Descriptor(index))
		assert.Nil(t, dims.Anchor(index))
		assert.Nil(t, dims.Scene(index))
		assert.False(t, dims.IsLoaded(index))
	}

	assert.False(t, dims.IsLoaded(0))
	assert.False(t, dims.IsLoaded(1))
	assert.Zero(t, rt.Dims[0].Made())
	assert.Zero(t, rt.Dims[1].Made())
	assert.Positive(t, warnings(logs))
}

func TestCreateIfMissingIsIdempotent(t *testing.T) {
	s, _ := newTestSession(t, Deps{})
	rt := withWorld(t, s, 1)
	loaded := 0
	var gotDesc world.Descriptor
	s.OnSceneLoaded(func(index int, descriptor world.Descriptor, anchor world.Anchor) {
		loaded++
		gotDesc = descriptor
		assert.Equal(t, MainDimension, index)
		assert.NotNil(t, anchor)
	})

	dims := s.Dimensions()
	require.True(t, dims.CreateIfMissing(t.Context(), MainDimension))
	require.True(t, dims.CreateIfMissing(t.Context(), MainDimension))

	assert.Equal(t, 1, rt.Dims[0].Made())
	assert.Equal(t, 1, rt.Dims[0].Live())
	assert.Equal(t, 1, loaded)
	assert.NotNil(t, gotDesc)
	assert.True(t, dims.IsLoaded(MainDimension))
	assert.NotNil(t, dims.Descriptor(MainDimension))
	assert.NotNil(t, dims.Scene(MainDimension))
}

func TestCreateIfMissingUnresolvableDimension(t *testing.T) {
	s, logs := newTestSession(t, Deps{})
	rt := &worldtest.Runtime{Dims: []*worldtest.Dimension{worldtest.NewDimension("main"), nil}}
	require.NoError(t, s.AssignWorld(rt))

	assert.False(t, s.Dimensions().CreateIfMissing(t.Context(), 1))
	assert.False(t, s.Dimensions().IsLoaded(1))
	assert.Nil(t, s.Dimensions().Descriptor(1))
	assert.Positive(t, warnings(logs))
}

func TestCreateIfMissingInstantiationFailure(t *testing.T) {
	s, _ := newTestSession(t, Deps{})
	rt := withWorld(t, s, 1)
	rt.Dims[0].MakeErr = errors.New("boom")

	assert.False(t, s.Dimensions().CreateIfMissing(t.Context(), MainDimension))
	assert.False(t, s.Dimensions().IsLoaded(MainDimension))
}

func TestCreateIfMissingConcurrentCallsShareInstance(t *testing.T) {
	s, _ := newTestSession(t, Deps{})
	rt := withWorld(t, s, 1)
	gate := make(chan struct{})
	rt.Dims[0].Gate = gate

	const callers = 8
	results := make([]bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.Dimensions().CreateIfMissing(t.Context(), MainDimension)
		}()
	}
	close(gate)
	wg.Wait()

	for _, ok := range results {
		assert.True(t, ok)
	}
	assert.Equal(t, 1, rt.Dims[0].Made())
	assert.Equal(t, 1, rt.Dims[0].Live())
}

func TestSetActiveTogglesLoadedInstance(t *testing.T) {
	s, _ := newTestSession(t, Deps{})
	rt := withWorld(t, s, 2)
	dims := s.Dimensions()
	require.True(t, dims.CreateIfMissing(t.Context(), 0))
	id, ok := dims.Instance(0)
	require.True(t, ok)

	dims.SetActive(0, true)
	assert.True(t, rt.Dims[0].Visible(id))
	dims.SetActive(0, false)
	assert.False(t, rt.Dims[0].Visible(id))

	// unloaded index is left alone
	dims.SetActive(1, true)
	assert.Zero(t, rt.Dims[1].Made())
}

func TestDescriptorsKeepIndexOrder(t *testing.T) {
	s, _ := newTestSession(t, Deps{})
	withWorld(t, s, 3)
	dims := s.Dimensions()
	require.True(t, dims.CreateIfMissing(t.Context(), 0))
	require.True(t, dims.CreateIfMissing(t.Context(), 2))

	descs := dims.Descriptors()
	require.Len(t, descs, 3)
	assert.NotNil(t, descs[0])
	assert.Nil(t, descs[1])
	assert.NotNil(t, descs[2])
}

// vanishingRuntime claims the dimension at gone exists but hands out nil for it.
type vanishingRuntime struct {
	*worldtest.Runtime
	gone int
}

func (r *vanishingRuntime) Dimension(index int) (world.Dimension, bool) {
	if index == r.gone {
		return nil, true
	}
	return r.Runtime.Dimension(index)
}

func TestDescriptorsSkipNilDimension(t *testing.T) {
	s, _ := newTestSession(t, Deps{})
	rt := &vanishingRuntime{Runtime: worldtest.NewRuntime("hall", "garden"), gone: -1}
	require.NoError(t, s.AssignWorld(rt))
	dims := s.Dimensions()
	require.True(t, dims.CreateIfMissing(t.Context(), 0))
	require.True(t, dims.CreateIfMissing(t.Context(), 1))

	rt.gone = 1
	var descs []world.Descriptor
	assert.NotPanics(t, func() { descs = dims.Descriptors() })
	require.Len(t, descs, 2)
	assert.NotNil(t, descs[0])
	assert.Nil(t, descs[1])
}

func TestDimensionsDisposeUnloadsEverything(t *testing.T) {
	s, _ := newTestSession(t, Deps{})
	rt := withWorld(t, s, 3)
	var unloadedIdx []int
	s.OnSceneUnloaded(func(index int) { unloadedIdx = append(unloadedIdx, index) })

	dims := s.Dimensions()
	require.True(t, dims.CreateIfMissing(t.Context(), 0))
	require.True(t, dims.CreateIfMissing(t.Context(), 1))

	dims.Dispose()

	assert.Equal(t, []int{0, 1}, unloadedIdx)
	assert.False(t, dims.IsLoaded(0))
	assert.False(t, dims.IsLoaded(1))
	assert.Len(t, rt.Dims[0].Removed(), 1)
	assert.Len(t, rt.Dims[1].Removed(), 1)
	assert.Empty(t, rt.Dims[2].Removed())

	dims.Dispose()
	assert.Equal(t, []int{0, 1}, unloadedIdx)
}

func TestDimensionsWorldAccessors(t *testing.T) {
	s, _ := newTestSession(t, Deps{})
	rt := withWorld(t, s, 2)
	dims := s.Dimensions()

	assert.Equal(t, 2, dims.Count())
	assert.Equal(t, "test-world", dims.Identifier().ID)
	assert.False(t, rt.IsCurrent())
	dims.SetCurrent()
	assert.True(t, rt.IsCurrent())
}
