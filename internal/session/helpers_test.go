package session

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/offline/internal/core/observability/log"
	"github.com/zeusync/offline/internal/core/world"
	"github.com/zeusync/offline/internal/core/world/worldtest"
)

func newTestSession(t *testing.T, deps Deps) (*Session, *observer.ObservedLogs) {
	t.Helper()
	logger, logs := log.NewObserved(log.LevelDebug)
	deps.Log = logger
	return New("test", deps), logs
}

func warnings(logs *observer.ObservedLogs) int {
	return logs.FilterLevelExact(zapcore.WarnLevel).Len()
}

// withWorld assigns a world whose dimensions carry the given modules on the main index.
func withWorld(t *testing.T, s *Session, dims int, modules ...world.Module) *worldtest.Runtime {
	t.Helper()
	rt := &worldtest.Runtime{}
	for i := 0; i < dims; i++ {
		d := worldtest.NewDimension("dim")
		if i == MainDimension {
			d.Modules = modules
		}
		rt.Dims = append(rt.Dims, d)
	}
	rt.SetIdentifier(world.Identifier{ID: "test-world", Version: 1})
	if err := s.AssignWorld(rt); err != nil {
		t.Fatalf("assign world: %v", err)
	}
	return rt
}

// recordingModule is a session module remembering every callback it received.
type recordingModule struct {
	calls []string
}

func (m *recordingModule) Name() string { return "recorder" }

func (m *recordingModule) OnPlayerJoined(p *Player) {
	m.calls = append(m.calls, "joined")
}

func (m *recordingModule) OnPlayerLeft(p *Player) {
	m.calls = append(m.calls, "left")
}

func (m *recordingModule) OnEntityRegistered(e Entity) {
	m.calls = append(m.calls, "registered")
}

func (m *recordingModule) OnEntityUnregistered(e Entity) {
	m.calls = append(m.calls, "unregistered")
}

func (m *recordingModule) OnAuthorityTransferred(next, previous *Player) {
	m.calls = append(m.calls, "authority")
}

type transfer struct {
	next, previous int
}

func recordTransfers(s *Session) *[]transfer {
	var out []transfer
	s.OnAuthorityTransferred(func(next, previous *Player) {
		out = append(out, transfer{next: playerID(next), previous: playerID(previous)})
	})
	return &out
}

type fakePhysical struct {
	destroyed int
}

func (f *fakePhysical) Destroy() { f.destroyed++ }
