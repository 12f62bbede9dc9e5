package user

import "sync"

// User is the identity of the person operating the local player.
type User struct {
	Display    string
	Identifier Identifier
}

// Identifier addresses a user on a given server.
type Identifier struct {
	ID     string
	Server string
}

func (i Identifier) String() string {
	if i.Server == "" {
		return i.ID
	}
	return i.ID + "@" + i.Server
}

// Provider resolves the current user. Current returns nil when nobody is signed in.
type Provider interface {
	Current() *User
}

// Static is a Provider backed by a fixed value.
type Static struct {
	mu   sync.RWMutex
	user *User
}

func NewStatic(u *User) *Static {
	return &Static{user: u}
}

func (s *Static) Current() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Static) Set(u *User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}
