// Package session implements the runtime control plane of an offline world
// session: its preparation state, the dimension instances of the loaded world,
// the entity registry and the authority ("master") held among players.
package session

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/zeusync/offline/internal/core/controller"
	"github.com/zeusync/offline/internal/core/events/bus"
	"github.com/zeusync/offline/internal/core/observability/log"
	"github.com/zeusync/offline/internal/core/user"
	"github.com/zeusync/offline/internal/core/world"
	"github.com/zeusync/offline/internal/directory"
)

var _ directory.Session = (*Session)(nil)

// PhysicalFactory builds the in-world representation of a player.
type PhysicalFactory func(p *Player) (Physical, error)

// Deps are the host services a session talks to. Every field is optional.
type Deps struct {
	Log         log.Log
	Events      bus.EventBus
	Controllers controller.Provider
	Users       user.Provider
	Physicals   PhysicalFactory
}

// Session is safe for concurrent use. Observers are called synchronously,
// without any session lock held, in the order the triggering mutation happened.
type Session struct {
	id   string
	tag  string
	log  log.Log
	deps Deps

	mu              sync.RWMutex
	state           State
	title           string
	thumbnail       string
	disposeOnChange bool
	dimensions      *Dimensions

	entities *Entities

	stateChanged         signal[func(State)]
	playerJoined         signal[func(*Player)]
	playerLeft           signal[func(*Player)]
	playerVisibility     signal[func(*Player, bool)]
	entityRegistered     signal[func(Entity)]
	entityUnregistered   signal[func(Entity)]
	authorityTransferred signal[func(next, previous *Player)]
	sceneLoaded          signal[func(index int, descriptor world.Descriptor, anchor world.Anchor)]
	sceneUnloaded        signal[func(index int)]
}

func New(id string, deps Deps) *Session {
	if deps.Log == nil {
		deps.Log = log.NewNop()
	}
	tag := "Session_" + id
	s := &Session{
		id:    id,
		tag:   tag,
		log:   deps.Log.With(log.Tag(tag)),
		deps:  deps,
		state: State{Status: StatusPending, Message: "Session is initializing"},
	}
	s.entities = newEntities(s)
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) String() string {
	return s.tag
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// UpdateState replaces the state and notifies state observers before returning.
func (s *Session) UpdateState(status Status, message string, progress float64) {
	st := State{Status: status, Message: message, Progress: clampProgress(progress)}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	s.log.Debug(st.String())
	for _, fn := range s.stateChanged.snapshot() {
		fn(st)
	}
}

// Dimensions returns nil until a world has been assigned.
func (s *Session) Dimensions() *Dimensions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimensions
}

func (s *Session) Entities() *Entities {
	return s.entities
}

// AssignWorld binds a loaded world to the session. It can only happen once.
func (s *Session) AssignWorld(w world.Runtime) error {
	if w == nil {
		return ErrNoWorld
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimensions != nil {
		s.log.Warn("World already assigned, ignoring", log.String("world", w.Identifier().Ref()))
		return ErrWorldAssigned
	}
	s.dimensions = newDimensions(s, w)
	return nil
}

func (s *Session) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title
}

func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
}

func (s *Session) Thumbnail() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thumbnail
}

func (s *Session) SetThumbnail(thumbnail string) {
	s.mu.Lock()
	s.thumbnail = thumbnail
	s.mu.Unlock()
}

func (s *Session) DisposeOnChange() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disposeOnChange
}

func (s *Session) SetDisposeOnChange(v bool) {
	s.mu.Lock()
	s.disposeOnChange = v
	s.mu.Unlock()
}

// MasterPlayer returns the player holding authority, or nil.
func (s *Session) MasterPlayer() *Player {
	p, _ := EntityOf[*Player](s.entities, s.entities.MasterID())
	return p
}

// SetMasterPlayer is not supported; authority only moves through join and leave.
func (s *Session) SetMasterPlayer(*Player) {
	s.log.Warn("Setting the master player is not supported in offline sessions.", log.Error(ErrUnsupported))
}

// LocalPlayer returns the player driven by this process, or nil.
func (s *Session) LocalPlayer() *Player {
	p, _ := EntityOf[*Player](s.entities, s.entities.LocalID())
	return p
}

// SetLocalPlayer is not supported; the local player is created on selection.
func (s *Session) SetLocalPlayer(*Player) {
	s.log.Warn("Setting the local player is not supported in offline sessions.", log.Error(ErrUnsupported))
}

// OnSelect instantiates the main dimension, shows it, creates the local
// player and binds the host's current controller to every player. A ctx
// cancelled once the main dimension exists stops before the player is created.
func (s *Session) OnSelect(ctx context.Context, _ directory.Session) error {
	s.log.Debug("Selecting session")

	dims := s.Dimensions()
	if dims == nil {
		s.log.Debug("No dimension found")
		return nil
	}

	if !dims.CreateIfMissing(ctx, MainDimension) {
		s.log.Error("Failed to create main scene")
		return fmt.Errorf("%s: %w", s.tag, ErrMainDimension)
	}
	if err := ctx.Err(); err != nil {
		s.log.Warn("Selection cancelled before the local player was created", log.Error(err))
		return fmt.Errorf("%s: select: %w", s.tag, err)
	}

	dims.SetActive(MainDimension, true)
	dims.SetCurrent()

	s.entities.NewPlayer()
	yield()

	s.OnControllerChanged(s.currentController())
	return nil
}

// OnDeselect hides the main dimension and unbinds the controller from every
// player, keeping their last transforms.
func (s *Session) OnDeselect(_ context.Context, _ directory.Session) error {
	s.log.Debug("Deselecting session")

	dims := s.Dimensions()
	if dims == nil {
		s.log.Warn("The scene has no dimension assigned. Skipping visibility updates.")
		yield()
		return nil
	}

	dims.SetActive(MainDimension, false)
	yield()

	for _, p := range EntitiesOf[*Player](s.entities) {
		p.RemoveController()
	}
	return nil
}

// OnControllerChanged applies c (possibly nil) to every player.
func (s *Session) OnControllerChanged(c controller.Controller) {
	for _, p := range EntitiesOf[*Player](s.entities) {
		p.UpdateController(c)
	}
}

// Dispose tears down every entity, then every dimension instance.
func (s *Session) Dispose(_ context.Context) error {
	yield()
	s.entities.Dispose()
	if dims := s.Dimensions(); dims != nil {
		dims.Dispose()
	}
	return nil
}

func (s *Session) currentController() controller.Controller {
	if s.deps.Controllers == nil {
		return nil
	}
	return s.deps.Controllers.Current()
}

func (s *Session) currentUser() *user.User {
	if s.deps.Users == nil {
		return nil
	}
	return s.deps.Users.Current()
}

// yield lets other goroutines run at the points where the session would suspend.
func yield() {
	runtime.Gosched()
}
