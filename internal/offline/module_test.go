package offline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/offline/internal/core/controller"
	"github.com/zeusync/offline/internal/core/events/bus"
	"github.com/zeusync/offline/internal/core/observability/log"
	"github.com/zeusync/offline/internal/core/spatial"
	"github.com/zeusync/offline/internal/core/storage"
	"github.com/zeusync/offline/internal/directory"
	"github.com/zeusync/offline/internal/session"
	"github.com/zeusync/offline/internal/world/catalog"
)

const lobby = `id: lobby
version: 1
dimensions:
  - name: lobby
    spawns:
      - position: {x: 0, y: 2, z: 0}
`

type harness struct {
	module  *Module
	dir     *directory.Directory
	events  bus.EventBus
	binding *controller.Binding
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "lobby.yaml"), []byte(lobby), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, catalog.IndexFile), []byte("resources:\n  lobby: lobby.yaml\n"), 0o644))

	logger, _ := log.NewObserved(log.LevelDebug)
	worlds, err := catalog.Open(t.Context(), root, storage.NewMemory(), logger)
	require.NoError(t, err)

	events := bus.New()
	binding := controller.NewBinding(events)
	dir := directory.New(logger)
	m := New(dir, worlds, session.Deps{Log: logger, Events: events, Controllers: binding})
	require.NoError(t, m.Init(t.Context()))
	return &harness{module: m, dir: dir, events: events, binding: binding}
}

func (h *harness) start(t *testing.T, opts Options) *Session {
	t.Helper()
	raw, err := opts.Map()
	require.NoError(t, err)
	made, err := h.dir.Make(Mode, raw)
	require.NoError(t, err)
	h.module.Wait()
	s, ok := made.(*Session)
	require.True(t, ok)
	return s
}

var lobbyOptions = Options{
	Title:         "Lobby",
	WorldType:     WorldResource,
	Resource:      "lobby",
	ChangeCurrent: true,
}

func TestInitRegistersMode(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, []string{Mode}, h.dir.Modes())
	assert.ErrorIs(t, h.module.Init(t.Context()), directory.ErrModeTaken)
}

func TestMakeOfflineSessionBecomesCurrent(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.binding.Bind(controller.NewStatic(controller.RigBase)))

	s := h.start(t, lobbyOptions)

	assert.Equal(t, session.StatusReady, s.State().Status)
	assert.Equal(t, "Lobby", s.Title())
	assert.Equal(t, s.ID(), h.dir.Current())
	require.NotNil(t, s.Dimensions())
	assert.True(t, s.Dimensions().IsLoaded(session.MainDimension))

	p := s.LocalPlayer()
	require.NotNil(t, p)
	assert.False(t, p.IsMaster())
	assert.Equal(t, session.InvalidEntityID, s.Entities().MasterID())
	_, ok := p.Part(controller.RigBase)
	assert.True(t, ok)
}

func TestMakeWithoutChangeCurrentStaysIdle(t *testing.T) {
	h := newHarness(t)
	opts := lobbyOptions
	opts.ChangeCurrent = false

	s := h.start(t, opts)
	assert.Equal(t, session.StatusReady, s.State().Status)
	assert.Empty(t, h.dir.Current())
	assert.False(t, s.Dimensions().IsLoaded(session.MainDimension))
	assert.Nil(t, s.LocalPlayer())
}

func TestMakeRejectsBadOptions(t *testing.T) {
	h := newHarness(t)
	_, err := h.dir.Make(Mode, map[string]any{"world_type": "nope"})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestControllerChangesReachCurrentSession(t *testing.T) {
	h := newHarness(t)
	s := h.start(t, lobbyOptions)
	p := s.LocalPlayer()
	require.NotNil(t, p)
	assert.Empty(t, p.Parts())

	rig := controller.NewStatic(controller.RigBase, controller.RigHead)
	require.NoError(t, h.binding.Bind(rig))
	assert.Len(t, p.Parts(), 2)

	p.SetPosition(spatial.Vec3{X: 3})
	require.NoError(t, h.binding.Bind(nil))
	base, _ := p.Part(controller.RigBase)
	stored, ok := base.Stored()
	require.True(t, ok)
	assert.Equal(t, spatial.Vec3{X: 3}, stored.Position)
}

func TestControllerChangesIgnoreForeignPayloads(t *testing.T) {
	h := newHarness(t)
	s := h.start(t, lobbyOptions)

	require.NoError(t, h.events.Emit(bus.TopicControllerChanged, "test", "not a controller"))
	require.NoError(t, h.events.Emit(bus.TopicControllerChanged, "test"))
	assert.Empty(t, s.LocalPlayer().Parts())
}

func TestDispose(t *testing.T) {
	h := newHarness(t)
	s := h.start(t, lobbyOptions)

	require.NoError(t, h.module.Dispose())
	assert.Empty(t, h.dir.Modes())

	require.NoError(t, h.binding.Bind(controller.NewStatic(controller.RigHead)))
	assert.Empty(t, s.LocalPlayer().Parts())
}

func TestStartAfterDisposeIsRefused(t *testing.T) {
	h := newHarness(t)
	s := h.module.Create(lobbyOptions)
	require.NoError(t, h.module.Dispose())

	s.Start()
	h.module.Wait()

	st := s.State()
	assert.Equal(t, session.StatusError, st.Status)
	assert.Equal(t, "Offline module is disposed", st.Message)
	assert.Nil(t, s.Dimensions())
}
