package session

import "sync"

// signal is a list of observers invoked synchronously in registration order.
type signal[F any] struct {
	mu       sync.Mutex
	next     int
	handlers []signalHandler[F]
}

type signalHandler[F any] struct {
	id int
	fn F
}

// add registers fn and returns a function removing it again.
func (s *signal[F]) add(fn F) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := s.next
	s.handlers = append(s.handlers, signalHandler[F]{id: id, fn: fn})
	return func() { s.remove(id) }
}

func (s *signal[F]) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.handlers {
		if h.id == id {
			s.handlers = append(s.handlers[:i:i], s.handlers[i+1:]...)
			return
		}
	}
}

func (s *signal[F]) snapshot() []F {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]F, len(s.handlers))
	for i, h := range s.handlers {
		out[i] = h.fn
	}
	return out
}
