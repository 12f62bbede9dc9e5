// Package offline provides single-player sessions: it registers the "offline"
// session mode with a directory, prepares each session's world in the
// background and keeps the current session bound to the host controller.
package offline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zeusync/offline/internal/core/controller"
	"github.com/zeusync/offline/internal/core/events/bus"
	"github.com/zeusync/offline/internal/core/observability/log"
	"github.com/zeusync/offline/internal/core/world"
	"github.com/zeusync/offline/internal/directory"
	"github.com/zeusync/offline/internal/session"
)

// Mode is the directory mode offline sessions are registered under.
const Mode = "offline"

// Module is the host entry point of offline sessions.
type Module struct {
	log    log.Log
	dir    *directory.Directory
	worlds world.Provider
	events bus.EventBus
	deps   session.Deps

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	subs   []bus.Subscription
	closed bool

	running sync.WaitGroup
}

// New wires a module. deps are handed to every session it creates; their
// Events bus also carries the controller_changed subscription.
func New(dir *directory.Directory, worlds world.Provider, deps session.Deps) *Module {
	if deps.Log == nil {
		deps.Log = log.NewNop()
	}
	return &Module{
		log:    deps.Log.With(log.Tag(Mode)),
		dir:    dir,
		worlds: worlds,
		events: deps.Events,
		deps:   deps,
	}
}

// Init registers the offline factory and starts following controller changes.
// ctx bounds every preparation started afterwards.
func (m *Module) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.dir.Register(Mode, m.makeSession); err != nil {
		return fmt.Errorf("register %s mode: %w", Mode, err)
	}
	if m.events != nil {
		sub, err := m.events.Subscribe(bus.TopicControllerChanged, m.onControllerChanged)
		if err != nil {
			m.dir.Unregister(Mode)
			return fmt.Errorf("subscribe %s: %w", bus.TopicControllerChanged, err)
		}
		m.subs = append(m.subs, sub)
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.closed = false
	m.log.Debug("Offline module initialized")
	return nil
}

// Dispose unregisters the mode, drops subscriptions and waits for running
// preparations to stop.
func (m *Module) Dispose() error {
	m.mu.Lock()
	m.closed = true
	m.dir.Unregister(Mode)
	var errs error
	for _, sub := range m.subs {
		errs = errors.Join(errs, m.events.Unsubscribe(sub))
	}
	m.subs = nil
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	m.running.Wait()
	m.log.Debug("Offline module disposed")
	return errs
}

// Wait blocks until every started preparation has finished.
func (m *Module) Wait() {
	m.running.Wait()
}

// begin accounts for one more running preparation and returns the context
// bounding it. It refuses once the module is disposed.
func (m *Module) begin() (context.Context, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false
	}
	m.running.Add(1)
	if m.ctx == nil {
		return context.Background(), true
	}
	return m.ctx, true
}

func (m *Module) makeSession(options map[string]any) (directory.Session, error) {
	opts, err := OptionsFrom(options)
	if err != nil {
		return nil, err
	}
	return m.Create(opts), nil
}

// onControllerChanged forwards the new controller, possibly nil, to the
// current session if it is an offline one.
func (m *Module) onControllerChanged(e bus.Event) error {
	args := e.Args()
	if len(args) == 0 {
		return nil
	}
	c, ok := args[0].(controller.Controller)
	if !ok && args[0] != nil {
		return nil
	}

	current, ok := m.dir.CurrentSession()
	if !ok {
		return nil
	}
	s, ok := current.(*Session)
	if !ok {
		return nil
	}
	s.OnControllerChanged(c)
	return nil
}
