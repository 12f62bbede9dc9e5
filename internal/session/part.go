package session

import (
	"sync"

	"github.com/zeusync/offline/internal/core/controller"
	"github.com/zeusync/offline/internal/core/spatial"
)

// Part is the transform of one body segment of a player, bound to the
// controller part with the same key.
type Part struct {
	key   uint16
	owner *Player

	mu        sync.RWMutex
	live      spatial.Transform
	stored    spatial.Transform
	hasStored bool
}

func newPart(owner *Player, key uint16) *Part {
	return &Part{key: key, owner: owner, live: spatial.DefaultTransform()}
}

func (p *Part) Key() uint16 {
	return p.key
}

func (p *Part) Owner() *Player {
	return p.owner
}

func (p *Part) Transform() spatial.Transform {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.live
}

func (p *Part) SetTransform(t spatial.Transform) {
	p.mu.Lock()
	p.live = t
	p.mu.Unlock()
}

// Store keeps the live transform so a later Restore can bring it back.
func (p *Part) Store() {
	p.mu.Lock()
	p.stored = p.live
	p.hasStored = true
	p.mu.Unlock()
}

// Stored returns the last transform kept by Store.
func (p *Part) Stored() (spatial.Transform, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stored, p.hasStored
}

// Restore pulls the transform of the matching controller part. Without one, the
// stored transform is brought back, if any.
func (p *Part) Restore(c controller.Controller) {
	if c != nil {
		if cp, ok := c.Part(p.key); ok {
			p.SetTransform(cp.Transform())
			return
		}
	}
	p.mu.Lock()
	if p.hasStored {
		p.live = p.stored
	}
	p.mu.Unlock()
}

func (p *Part) Position() spatial.Vec3 {
	return p.Transform().Position
}

func (p *Part) SetPosition(v spatial.Vec3) {
	p.update(func(t *spatial.Transform) { t.Position = v })
}

func (p *Part) Rotation() spatial.Quat {
	return p.Transform().Rotation
}

func (p *Part) SetRotation(q spatial.Quat) {
	p.update(func(t *spatial.Transform) { t.Rotation = q })
}

func (p *Part) Scale() spatial.Vec3 {
	return p.Transform().Scale
}

func (p *Part) SetScale(v spatial.Vec3) {
	p.update(func(t *spatial.Transform) { t.Scale = v })
}

func (p *Part) Velocity() spatial.Vec3 {
	return p.Transform().Velocity
}

func (p *Part) SetVelocity(v spatial.Vec3) {
	p.update(func(t *spatial.Transform) { t.Velocity = v })
}

func (p *Part) Angular() spatial.Vec3 {
	return p.Transform().Angular
}

func (p *Part) SetAngular(v spatial.Vec3) {
	p.update(func(t *spatial.Transform) { t.Angular = v })
}

func (p *Part) update(fn func(t *spatial.Transform)) {
	p.mu.Lock()
	fn(&p.live)
	p.mu.Unlock()
}
