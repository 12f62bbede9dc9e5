package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zeusync/offline/internal/core/observability/log"
)

const (
	// LocalPlayerID is reserved for the player driven by this process.
	LocalPlayerID = 0
	// InvalidEntityID marks an unset master or local slot.
	InvalidEntityID = -1
)

// Entities owns the id space and every live entity of a session.
type Entities struct {
	session *Session
	log     log.Log

	mu       sync.RWMutex
	entities map[int]Entity
	masterID int
	localID  int
}

func newEntities(s *Session) *Entities {
	return &Entities{
		session:  s,
		log:      s.log,
		entities: make(map[int]Entity),
		masterID: InvalidEntityID,
		localID:  InvalidEntityID,
	}
}

// MasterID is the id of the player holding authority, or InvalidEntityID.
func (es *Entities) MasterID() int {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return es.masterID
}

// LocalID is the id of the local player, or InvalidEntityID.
func (es *Entities) LocalID() int {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return es.localID
}

// SetMasterID hands authority to a live player without firing a transfer.
// Anything else than InvalidEntityID or a registered player is refused.
func (es *Entities) SetMasterID(id int) bool {
	if id != InvalidEntityID && !HasEntityOf[*Player](es, id) {
		es.log.Warn("Refusing master id that is not a registered player", log.Int("id", id))
		return false
	}
	es.setMasterID(id)
	return true
}

func (es *Entities) setMasterID(id int) {
	es.mu.Lock()
	es.masterID = id
	es.mu.Unlock()
}

func (es *Entities) register(e Entity) error {
	es.mu.Lock()
	if _, ok := es.entities[e.ID()]; ok {
		es.mu.Unlock()
		es.log.Warn(fmt.Sprintf("Entity with ID %d is already registered.", e.ID()), log.Error(ErrAlreadyRegistered))
		return ErrAlreadyRegistered
	}
	es.entities[e.ID()] = e
	es.mu.Unlock()

	es.session.handleEntityRegistered(e)
	return nil
}

func (es *Entities) unregister(e Entity) error {
	es.mu.Lock()
	current, ok := es.entities[e.ID()]
	if !ok || current != e {
		es.mu.Unlock()
		es.log.Warn(fmt.Sprintf("Entity with ID %d is already not registered.", e.ID()), log.Error(ErrNotRegistered))
		return ErrNotRegistered
	}
	delete(es.entities, e.ID())
	if es.localID == e.ID() {
		es.localID = InvalidEntityID
	}
	es.mu.Unlock()

	es.session.handleEntityUnregistered(e)
	return nil
}

// Entity returns the entity registered under id.
func (es *Entities) Entity(id int) (Entity, bool) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	e, ok := es.entities[id]
	return e, ok
}

// All returns every live entity ordered by id.
func (es *Entities) All() []Entity {
	es.mu.RLock()
	out := make([]Entity, 0, len(es.entities))
	for _, e := range es.entities {
		out = append(out, e)
	}
	es.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (es *Entities) Has(id int) bool {
	es.mu.RLock()
	defer es.mu.RUnlock()
	_, ok := es.entities[id]
	return ok
}

func (es *Entities) Count() int {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return len(es.entities)
}

// EntityOf returns the entity under id if it is of kind T.
func EntityOf[T Entity](es *Entities, id int) (T, bool) {
	var zero T
	e, ok := es.Entity(id)
	if !ok {
		return zero, false
	}
	v, ok := e.(T)
	return v, ok
}

// EntitiesOf returns the live entities of kind T ordered by id.
func EntitiesOf[T Entity](es *Entities) []T {
	var out []T
	for _, e := range es.All() {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func HasEntityOf[T Entity](es *Entities, id int) bool {
	_, ok := EntityOf[T](es, id)
	return ok
}

func CountOf[T Entity](es *Entities) int {
	es.mu.RLock()
	defer es.mu.RUnlock()
	n := 0
	for _, e := range es.entities {
		if _, ok := e.(T); ok {
			n++
		}
	}
	return n
}

// NextEntityID is one above the highest live id, or 1 when empty.
func (es *Entities) NextEntityID() int {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return es.nextIDLocked()
}

func (es *Entities) nextIDLocked() int {
	if len(es.entities) == 0 {
		return 1
	}
	highest := 0
	for id := range es.entities {
		if id > highest {
			highest = id
		}
	}
	return highest + 1
}

// NewEntity allocates an id and registers a plain entity under it. The id is
// reserved and the entity inserted in one step, observers run afterwards.
func (es *Entities) NewEntity() *BaseEntity {
	es.mu.Lock()
	e := buildBaseEntity(es, es.nextIDLocked())
	es.entities[e.ID()] = e
	es.mu.Unlock()

	es.session.handleEntityRegistered(e)
	return e
}

// NewPlayer returns the local player, creating and registering it on first call.
func (es *Entities) NewPlayer() *Player {
	es.mu.Lock()
	if current, ok := es.entities[LocalPlayerID]; ok {
		es.mu.Unlock()
		if p, ok := current.(*Player); ok {
			es.log.Warn(fmt.Sprintf("Player with ID %d is already registered.", p.ID()))
			return p
		}
		es.log.Warn(fmt.Sprintf("Entity with ID %d is already registered.", LocalPlayerID), log.Error(ErrAlreadyRegistered))
		return buildPlayer(es, LocalPlayerID)
	}
	p := buildPlayer(es, LocalPlayerID)
	es.entities[LocalPlayerID] = p
	es.localID = LocalPlayerID
	es.mu.Unlock()

	es.session.handleEntityRegistered(p)
	return p
}

// Dispose disposes every entity and clears the registry.
func (es *Entities) Dispose() {
	for _, e := range es.All() {
		e.Dispose()
	}
	es.mu.Lock()
	clear(es.entities)
	es.localID = InvalidEntityID
	es.masterID = InvalidEntityID
	es.mu.Unlock()
}
