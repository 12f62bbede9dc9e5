package session

import "github.com/zeusync/offline/internal/core/world"

// Module is a world module that follows session activity. Descriptors of
// loaded dimensions are scanned for it on every notification.
type Module interface {
	world.Module
	OnPlayerJoined(p *Player)
	OnPlayerLeft(p *Player)
	OnEntityRegistered(e Entity)
	OnEntityUnregistered(e Entity)
	OnAuthorityTransferred(next, previous *Player)
}

// modules collects session modules across all loaded dimensions, in index order.
func (s *Session) modules() []Module {
	dims := s.Dimensions()
	if dims == nil {
		return nil
	}
	var out []Module
	for _, d := range dims.Descriptors() {
		if d == nil {
			continue
		}
		out = append(out, world.ModulesOf[Module](d)...)
	}
	return out
}
