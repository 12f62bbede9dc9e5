package session

import (
	"github.com/zeusync/offline/internal/core/events/bus"
	"github.com/zeusync/offline/internal/core/observability/log"
	"github.com/zeusync/offline/internal/core/world"
)

// Observer registration. Each returns a function that removes the observer.

func (s *Session) OnStateChanged(fn func(State)) func() {
	return s.stateChanged.add(fn)
}

func (s *Session) OnPlayerJoined(fn func(*Player)) func() {
	return s.playerJoined.add(fn)
}

func (s *Session) OnPlayerLeft(fn func(*Player)) func() {
	return s.playerLeft.add(fn)
}

func (s *Session) OnPlayerVisibility(fn func(p *Player, visible bool)) func() {
	return s.playerVisibility.add(fn)
}

func (s *Session) OnEntityRegistered(fn func(Entity)) func() {
	return s.entityRegistered.add(fn)
}

func (s *Session) OnEntityUnregistered(fn func(Entity)) func() {
	return s.entityUnregistered.add(fn)
}

// OnAuthorityTransferred observes master changes. next is nil when nobody is left to take over.
func (s *Session) OnAuthorityTransferred(fn func(next, previous *Player)) func() {
	return s.authorityTransferred.add(fn)
}

func (s *Session) OnSceneLoaded(fn func(index int, descriptor world.Descriptor, anchor world.Anchor)) func() {
	return s.sceneLoaded.add(fn)
}

func (s *Session) OnSceneUnloaded(fn func(index int)) func() {
	return s.sceneUnloaded.add(fn)
}

func (s *Session) emit(topic string, args ...any) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.Emit(topic, s.tag, append([]any{s}, args...)...); err != nil {
		s.log.Warn("Event handler failed", log.String("topic", topic), log.Error(err))
	}
}

func (s *Session) handleEntityRegistered(e Entity) {
	s.log.Debug("OnEntityRegistered", log.String("entity", e.String()))

	s.emit(bus.TopicEntityRegistered, e)
	for _, fn := range s.entityRegistered.snapshot() {
		fn(e)
	}
	for _, m := range s.modules() {
		m.OnEntityRegistered(e)
	}

	if p, ok := e.(*Player); ok {
		s.handlePlayerJoined(p)
	}
}

// handleEntityUnregistered runs after the entity left the registry. Player
// departure is handled before the removal is fanned out.
func (s *Session) handleEntityUnregistered(e Entity) {
	if p, ok := e.(*Player); ok {
		s.handlePlayerLeft(p)
	}

	s.log.Debug("Unregistering entity", log.String("entity", e.String()))

	s.emit(bus.TopicEntityUnregistered, e)
	for _, fn := range s.entityUnregistered.snapshot() {
		fn(e)
	}
	for _, m := range s.modules() {
		m.OnEntityUnregistered(e)
	}
}

func (s *Session) handlePlayerJoined(p *Player) {
	s.log.Debug("OnPlayerJoined", log.String("player", p.String()))

	if p.IsLocal() {
		_ = p.Respawn()
	}

	s.emit(bus.TopicPlayerJoined, p)
	for _, fn := range s.playerJoined.snapshot() {
		fn(p)
	}
	for _, m := range s.modules() {
		m.OnPlayerJoined(p)
	}

	// a joining player takes over an existing master; a vacant one stays vacant
	if master := s.MasterPlayer(); master != nil && master.ID() != p.ID() {
		s.entities.setMasterID(p.ID())
		s.handleAuthorityTransferred(p, master)
	}
}

func (s *Session) handlePlayerLeft(p *Player) {
	s.log.Debug("OnPlayerLeft", log.String("player", p.String()))

	s.emit(bus.TopicPlayerLeft, p)
	for _, fn := range s.playerLeft.snapshot() {
		fn(p)
	}

	if s.entities.MasterID() == p.ID() {
		// lowest remaining id takes over
		var next *Player
		for _, candidate := range EntitiesOf[*Player](s.entities) {
			if candidate.ID() != p.ID() {
				next = candidate
				break
			}
		}
		if next != nil {
			s.entities.setMasterID(next.ID())
		} else {
			s.entities.setMasterID(InvalidEntityID)
		}
		s.handleAuthorityTransferred(next, p)
	}

	for _, m := range s.modules() {
		m.OnPlayerLeft(p)
	}
}

func (s *Session) handleAuthorityTransferred(next, previous *Player) {
	s.log.Debug("OnAuthorityTransferred",
		log.Int("master", playerID(next)),
		log.Int("previous", playerID(previous)))

	s.emit(bus.TopicAuthorityTransferred, next, previous)
	for _, fn := range s.authorityTransferred.snapshot() {
		fn(next, previous)
	}
	for _, m := range s.modules() {
		m.OnAuthorityTransferred(next, previous)
	}
}

func (s *Session) handlePlayerVisibilityChanged(p *Player, visible bool) {
	s.log.Debug("OnPlayerVisibility", log.String("player", p.String()), log.Bool("visible", visible))
	for _, fn := range s.playerVisibility.snapshot() {
		fn(p, visible)
	}
}

func (s *Session) handleSceneLoaded(index int, descriptor world.Descriptor, anchor world.Anchor) {
	s.log.Debug("Scene loaded", log.Int("index", index))
	for _, fn := range s.sceneLoaded.snapshot() {
		fn(index, descriptor, anchor)
	}
}

func (s *Session) handleSceneUnloaded(index int) {
	s.log.Debug("Scene unloaded", log.Int("index", index))
	for _, fn := range s.sceneUnloaded.snapshot() {
		fn(index)
	}
}

func playerID(p *Player) int {
	if p == nil {
		return InvalidEntityID
	}
	return p.ID()
}
