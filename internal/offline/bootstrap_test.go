package offline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/offline/internal/core/observability/log"
	"github.com/zeusync/offline/internal/core/world"
	"github.com/zeusync/offline/internal/core/world/worldtest"
	"github.com/zeusync/offline/internal/directory"
	"github.com/zeusync/offline/internal/session"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) SearchAssets(ctx context.Context, q world.AssetQuery) ([]world.Asset, error) {
	args := m.Called(ctx, q)
	assets, _ := args.Get(0).([]world.Asset)
	return assets, args.Error(1)
}

func (m *mockProvider) HasInCache(hash string) bool {
	return m.Called(hash).Bool(0)
}

func (m *mockProvider) DownloadToCache(ctx context.Context, url, hash string, progress func(float64)) error {
	return m.Called(ctx, url, hash, progress).Error(0)
}

func (m *mockProvider) LoadFromCache(ctx context.Context, hash string, progress func(float64)) (world.Runtime, error) {
	args := m.Called(ctx, hash, progress)
	rt, _ := args.Get(0).(world.Runtime)
	return rt, args.Error(1)
}

func (m *mockProvider) LoadFromResource(ctx context.Context, resource string, progress func(float64)) (world.Runtime, error) {
	args := m.Called(ctx, resource, progress)
	rt, _ := args.Get(0).(world.Runtime)
	return rt, args.Error(1)
}

var gallery = world.Identifier{ID: "gallery", Version: 2}

func galleryQuery() world.AssetQuery {
	return world.AssetQuery{
		Query:     "gallery",
		Versions:  []uint16{2},
		Engines:   []string{world.Engine},
		Platforms: []string{world.Platform},
		Limit:     1,
	}
}

func newTestModule(t *testing.T, worlds world.Provider) (*Module, *directory.Directory) {
	t.Helper()
	logger, _ := log.NewObserved(log.LevelDebug)
	dir := directory.New(logger)
	return New(dir, worlds, session.Deps{Log: logger}), dir
}

func recordStates(s *session.Session) *[]session.State {
	var states []session.State
	s.OnStateChanged(func(st session.State) { states = append(states, st) })
	return &states
}

func progresses(states []session.State) []float64 {
	out := make([]float64, len(states))
	for i, st := range states {
		out[i] = st.Progress
	}
	return out
}

func TestCreate(t *testing.T) {
	m, _ := newTestModule(t, &mockProvider{})
	s := m.Create(Options{Title: "Gallery", Thumbnail: "g.png", DisposeOnChange: true})

	id, ok := strings.CutPrefix(s.ID(), "offline_")
	require.True(t, ok)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, "Gallery", s.Title())
	assert.Equal(t, "g.png", s.Thumbnail())
	assert.True(t, s.DisposeOnChange())
	assert.Equal(t, session.State{Status: session.StatusPending, Message: "Preparing..."}, s.State())

	other := m.Create(Options{})
	assert.NotEqual(t, s.ID(), other.ID())
}

func TestPrepareAssetDownloadsWhenNotCached(t *testing.T) {
	worlds := &mockProvider{}
	asset := world.Asset{ID: "gallery", Version: 2, Hash: "cafe", URL: "gallery.yaml"}
	rt := worldtest.NewRuntime("hall")
	worlds.On("SearchAssets", mock.Anything, galleryQuery()).Return([]world.Asset{asset}, nil)
	worlds.On("HasInCache", "cafe").Return(false)
	worlds.On("DownloadToCache", mock.Anything, "gallery.yaml", "cafe", mock.Anything).
		Run(func(args mock.Arguments) {
			progress := args.Get(3).(func(float64))
			progress(0.5)
			progress(1)
		}).
		Return(nil)
	worlds.On("LoadFromCache", mock.Anything, "cafe", mock.Anything).Return(rt, nil)

	m, _ := newTestModule(t, worlds)
	s := session.New("s", session.Deps{})
	states := recordStates(s)

	require.NoError(t, m.Prepare(t.Context(), s, Options{WorldType: WorldAsset, World: gallery}))

	assert.InDeltaSlice(t, []float64{0.05, 0.1, 0.15, 0.375, 0.6, 0.6, 0.65, 1}, progresses(*states), 1e-9)
	last := (*states)[len(*states)-1]
	assert.Equal(t, session.StatusReady, last.Status)
	assert.Equal(t, "World 'gallery' is ready", last.Message)
	require.NotNil(t, s.Dimensions())
	assert.Equal(t, gallery, rt.Identifier())
	assert.False(t, rt.IsCurrent())
	worlds.AssertExpectations(t)
}

func TestPrepareAssetSkipsDownloadWhenCached(t *testing.T) {
	worlds := &mockProvider{}
	worlds.On("SearchAssets", mock.Anything, galleryQuery()).Return([]world.Asset{{ID: "gallery", Hash: "cafe"}}, nil)
	worlds.On("HasInCache", "cafe").Return(true)
	worlds.On("LoadFromCache", mock.Anything, "cafe", mock.Anything).Return(worldtest.NewRuntime("hall"), nil)

	m, _ := newTestModule(t, worlds)
	s := session.New("s", session.Deps{})
	states := recordStates(s)

	require.NoError(t, m.Prepare(t.Context(), s, Options{WorldType: WorldAsset, World: gallery}))
	assert.Equal(t, []float64{0.05, 0.1, 0.6, 0.65, 1}, progresses(*states))
	worlds.AssertNotCalled(t, "DownloadToCache", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPrepareFailures(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name    string
		opts    Options
		setup   func(*mockProvider)
		want    error
		message string
	}{
		{
			name: "asset not found",
			opts: Options{WorldType: WorldAsset, World: gallery},
			setup: func(p *mockProvider) {
				p.On("SearchAssets", mock.Anything, galleryQuery()).Return(nil, nil)
			},
			want:    ErrAssetNotFound,
			message: "World 'gallery' not found",
		},
		{
			name: "search error",
			opts: Options{WorldType: WorldAsset, World: gallery},
			setup: func(p *mockProvider) {
				p.On("SearchAssets", mock.Anything, galleryQuery()).Return(nil, boom)
			},
			want:    ErrAssetNotFound,
			message: "World 'gallery' not found",
		},
		{
			name: "download error",
			opts: Options{WorldType: WorldAsset, World: gallery},
			setup: func(p *mockProvider) {
				p.On("SearchAssets", mock.Anything, galleryQuery()).Return([]world.Asset{{Hash: "h", URL: "u"}}, nil)
				p.On("HasInCache", "h").Return(false)
				p.On("DownloadToCache", mock.Anything, "u", "h", mock.Anything).Return(boom)
			},
			want:    ErrWorldLoadFailed,
			message: "Failed to download world 'gallery'",
		},
		{
			name: "cache load error",
			opts: Options{WorldType: WorldAsset, World: gallery},
			setup: func(p *mockProvider) {
				p.On("SearchAssets", mock.Anything, galleryQuery()).Return([]world.Asset{{Hash: "h"}}, nil)
				p.On("HasInCache", "h").Return(true)
				p.On("LoadFromCache", mock.Anything, "h", mock.Anything).Return(nil, boom)
			},
			want:    ErrWorldLoadFailed,
			message: "Failed to load world 'gallery'",
		},
		{
			name: "resource load returns nothing",
			opts: Options{WorldType: WorldResource, Resource: "lobby", World: gallery},
			setup: func(p *mockProvider) {
				p.On("LoadFromResource", mock.Anything, "lobby", mock.Anything).Return(nil, nil)
			},
			want:    ErrWorldLoadFailed,
			message: "Failed to load world 'gallery'",
		},
		{
			name:    "no world type",
			opts:    Options{},
			setup:   func(*mockProvider) {},
			want:    ErrNoValidWorld,
			message: "No valid world specified",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			worlds := &mockProvider{}
			tc.setup(worlds)
			m, _ := newTestModule(t, worlds)
			s := session.New("s", session.Deps{})

			err := m.Prepare(t.Context(), s, tc.opts)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, session.State{Status: session.StatusError, Message: tc.message, Progress: 1}, s.State())
			assert.Nil(t, s.Dimensions())
			worlds.AssertExpectations(t)
		})
	}
}

func TestPrepareResource(t *testing.T) {
	worlds := &mockProvider{}
	rt := worldtest.NewRuntime("lobby")
	rt.SetIdentifier(world.Identifier{ID: "lobby", Version: 3})
	worlds.On("LoadFromResource", mock.Anything, "lobby", mock.Anything).
		Run(func(args mock.Arguments) { args.Get(2).(func(float64))(0.5) }).
		Return(rt, nil)

	m, _ := newTestModule(t, worlds)
	s := session.New("s", session.Deps{})
	states := recordStates(s)

	require.NoError(t, m.Prepare(t.Context(), s, Options{WorldType: WorldResource, Resource: "lobby"}))
	assert.InDeltaSlice(t, []float64{0.1, 0.35, 0.65, 1}, progresses(*states), 1e-9)
	// no identifier in the options keeps the one the world was loaded with
	assert.Equal(t, world.Identifier{ID: "lobby", Version: 3}, rt.Identifier())
}

func TestPrepareChangeCurrentNeedsTrackedSession(t *testing.T) {
	worlds := &mockProvider{}
	worlds.On("LoadFromResource", mock.Anything, "lobby", mock.Anything).Return(worldtest.NewRuntime("lobby"), nil)
	m, _ := newTestModule(t, worlds)
	s := session.New("untracked", session.Deps{})

	err := m.Prepare(t.Context(), s, Options{WorldType: WorldResource, Resource: "lobby", ChangeCurrent: true})
	assert.ErrorIs(t, err, ErrSelectFailed)
	assert.ErrorIs(t, err, directory.ErrSessionNotFound)
	assert.Equal(t, session.StatusError, s.State().Status)
}
