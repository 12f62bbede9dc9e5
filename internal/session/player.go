package session

import (
	"fmt"
	"slices"
	"sync"

	"github.com/zeusync/offline/internal/core/controller"
	"github.com/zeusync/offline/internal/core/observability/log"
	"github.com/zeusync/offline/internal/core/spatial"
	"github.com/zeusync/offline/internal/core/user"
	"github.com/zeusync/offline/internal/core/world"
)

// BasePart is the part whose transform stands for the player as a whole.
const BasePart = controller.RigBase

var _ Entity = (*Player)(nil)

// Player is an entity with a body made of parts that mirror the bound controller.
type Player struct {
	*BaseEntity

	partsMu sync.RWMutex
	parts   map[uint16]*Part
}

func newPlayer(es *Entities, id int) *Player {
	p := buildPlayer(es, id)
	_ = es.register(p)
	return p
}

// buildPlayer returns a player that is not registered yet.
func buildPlayer(es *Entities, id int) *Player {
	p := &Player{
		BaseEntity: &BaseEntity{id: id, context: es, log: es.log.With(log.Component("Player"), log.Int("entity", id))},
		parts:      make(map[uint16]*Part),
	}
	p.self, p.hooks = p, p
	return p
}

func (p *Player) session() *Session {
	return p.context.session
}

// UpdateController makes the parts match c exactly and seeds them from it.
// A nil controller stores every part instead.
func (p *Player) UpdateController(c controller.Controller) {
	if c == nil {
		p.RemoveController()
		return
	}

	keys := controller.Keys(c)

	p.partsMu.Lock()
	for key := range p.parts {
		if !slices.Contains(keys, key) {
			delete(p.parts, key)
		}
	}
	for _, key := range keys {
		if _, ok := p.parts[key]; !ok {
			p.parts[key] = newPart(p, key)
		}
	}
	parts := p.sortedPartsLocked()
	p.partsMu.Unlock()

	for _, part := range parts {
		part.Restore(c)
	}
}

// RemoveController keeps the live transform of every part for later restoration.
func (p *Player) RemoveController() {
	for _, part := range p.Parts() {
		part.Store()
	}
}

// Parts returns the bound parts ordered by key.
func (p *Player) Parts() []*Part {
	p.partsMu.RLock()
	defer p.partsMu.RUnlock()
	return p.sortedPartsLocked()
}

func (p *Player) Part(key uint16) (*Part, bool) {
	p.partsMu.RLock()
	defer p.partsMu.RUnlock()
	part, ok := p.parts[key]
	return part, ok
}

func (p *Player) sortedPartsLocked() []*Part {
	out := make([]*Part, 0, len(p.parts))
	for _, part := range p.parts {
		out = append(out, part)
	}
	slices.SortFunc(out, func(a, b *Part) int { return int(a.key) - int(b.key) })
	return out
}

func (p *Player) base() (*Part, bool) {
	return p.Part(BasePart)
}

// Display is the signed-in user's name, or "Local #<id>".
func (p *Player) Display() string {
	if u := p.session().currentUser(); u != nil && u.Display != "" {
		return u.Display
	}
	return fmt.Sprintf("Local #%d", p.ID())
}

func (p *Player) SetDisplay(string) {
	p.log.Warn("Setting Display is not supported in offline sessions.", log.Error(ErrUnsupported))
}

// Identifier of the signed-in user; false when nobody is.
func (p *Player) Identifier() (user.Identifier, bool) {
	u := p.session().currentUser()
	if u == nil {
		return user.Identifier{}, false
	}
	return u.Identifier, true
}

func (p *Player) IsMaster() bool {
	return p.context.MasterID() == p.ID()
}

func (p *Player) IsLocal() bool {
	return p.context.LocalID() == p.ID()
}

func (p *Player) Position() spatial.Vec3 {
	if b, ok := p.base(); ok {
		return b.Position()
	}
	return spatial.Zero
}

func (p *Player) SetPosition(v spatial.Vec3) {
	if b, ok := p.base(); ok {
		b.SetPosition(v)
	}
}

func (p *Player) Rotation() spatial.Quat {
	if b, ok := p.base(); ok {
		return b.Rotation()
	}
	return spatial.Identity
}

func (p *Player) SetRotation(q spatial.Quat) {
	if b, ok := p.base(); ok {
		b.SetRotation(q)
	}
}

func (p *Player) Scale() spatial.Vec3 {
	if b, ok := p.base(); ok {
		return b.Scale()
	}
	return spatial.One
}

func (p *Player) SetScale(v spatial.Vec3) {
	if b, ok := p.base(); ok {
		b.SetScale(v)
	}
}

func (p *Player) Velocity() spatial.Vec3 {
	if b, ok := p.base(); ok {
		return b.Velocity()
	}
	return spatial.Zero
}

func (p *Player) SetVelocity(v spatial.Vec3) {
	if b, ok := p.base(); ok {
		b.SetVelocity(v)
	}
}

func (p *Player) Angular() spatial.Vec3 {
	if b, ok := p.base(); ok {
		return b.Angular()
	}
	return spatial.Zero
}

func (p *Player) SetAngular(v spatial.Vec3) {
	if b, ok := p.base(); ok {
		b.SetAngular(v)
	}
}

// Teleport puts the player at rest at position, facing rotation.
func (p *Player) Teleport(position spatial.Vec3, rotation spatial.Quat) {
	p.SetPosition(position)
	p.SetRotation(rotation)
	p.SetVelocity(spatial.Zero)
	p.SetAngular(spatial.Zero)
}

// Respawn teleports the player to a spawn point chosen by the main dimension.
func (p *Player) Respawn() error {
	var desc world.Descriptor
	if dims := p.session().Dimensions(); dims != nil {
		desc = dims.Descriptor(MainDimension)
	}
	module, ok := world.FirstModule[world.SpawnModule](desc)
	if !ok {
		p.log.Warn("No spawn module found for respawning player.", log.Error(ErrNoSpawnModule))
		return ErrNoSpawnModule
	}

	spawn := module.ChooseSpawn()
	p.Teleport(spawn.Position, spawn.Rotation)
	p.log.Info(fmt.Sprintf("Player %d respawned to %v.", p.ID(), spawn.Position))
	return nil
}

func (p *Player) instantiatePhysical() Physical {
	factory := p.session().deps.Physicals
	if factory == nil {
		p.log.Warn("Cannot create player representation", log.Error(ErrNoPhysicalFactory))
		return nil
	}
	phys, err := factory(p)
	if err != nil {
		p.log.Warn("Player representation failed", log.Error(err))
		return nil
	}
	return phys
}

func (p *Player) onPhysicalCreated() {
	p.session().handlePlayerVisibilityChanged(p, true)
}

func (p *Player) onPhysicalDestroyed() {
	p.session().handlePlayerVisibilityChanged(p, false)
}

func (p *Player) String() string {
	id, _ := p.Identifier()
	return fmt.Sprintf("Player[Id=%d, Display=%s, Identifier=%s, IsMaster=%t, IsLocal=%t]",
		p.ID(), p.Display(), id, p.IsMaster(), p.IsLocal())
}
