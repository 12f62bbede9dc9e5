// Package directory keeps track of live sessions, the factories able to create
// them, and which one is current for the process.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zeusync/offline/internal/core/observability/log"
)

var (
	ErrModeTaken       = errors.New("session mode already registered")
	ErrUnknownMode     = errors.New("unknown session mode")
	ErrSessionNotFound = errors.New("session not found")
	ErrDuplicateID     = errors.New("session id already in use")
)

// Session is the contract a session kind fulfills to be driven by the directory.
type Session interface {
	ID() string
	OnSelect(ctx context.Context, previous Session) error
	OnDeselect(ctx context.Context, next Session) error
	Dispose(ctx context.Context) error
	DisposeOnChange() bool
}

// Starter is implemented by sessions that begin background work once tracked.
type Starter interface {
	Start()
}

// Factory creates a session from loosely-typed options.
type Factory func(options map[string]any) (Session, error)

// Directory is safe for concurrent use. Session callbacks run without the
// directory lock held.
type Directory struct {
	log log.Log

	mu        sync.RWMutex
	factories map[string]Factory
	sessions  map[string]Session
	current   string
}

func New(l log.Log) *Directory {
	if l == nil {
		l = log.NewNop()
	}
	return &Directory{
		log:       l.With(log.Tag("directory")),
		factories: make(map[string]Factory),
		sessions:  make(map[string]Session),
	}
}

func (d *Directory) Register(mode string, f Factory) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.factories[mode]; ok {
		return fmt.Errorf("%w: %s", ErrModeTaken, mode)
	}
	d.factories[mode] = f
	d.log.Debug("Registered session mode", log.String("mode", mode))
	return nil
}

func (d *Directory) Unregister(mode string) {
	d.mu.Lock()
	delete(d.factories, mode)
	d.mu.Unlock()
}

// Modes lists registered mode names, sorted.
func (d *Directory) Modes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.factories))
	for m := range d.factories {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Make creates a session through the factory registered for mode and tracks it.
func (d *Directory) Make(mode string, options map[string]any) (Session, error) {
	d.mu.RLock()
	f, ok := d.factories[mode]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
	s, err := f(options)
	if err != nil {
		return nil, fmt.Errorf("make %s session: %w", mode, err)
	}
	if err = d.Add(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Add tracks an already built session, then starts it if it is a Starter.
func (d *Directory) Add(s Session) error {
	d.mu.Lock()
	if _, ok := d.sessions[s.ID()]; ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateID, s.ID())
	}
	d.sessions[s.ID()] = s
	d.mu.Unlock()

	if st, ok := s.(Starter); ok {
		st.Start()
	}
	return nil
}

func (d *Directory) Get(id string) (Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[id]
	return s, ok
}

// Current returns the id of the current session, or "" if none.
func (d *Directory) Current() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

func (d *Directory) CurrentSession() (Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[d.current]
	return s, ok
}

// SetCurrent deselects the current session, selects id, and disposes the
// previous one if it asked to be disposed on change.
func (d *Directory) SetCurrent(ctx context.Context, id string) error {
	d.mu.Lock()
	next, ok := d.sessions[id]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if d.current == id {
		d.mu.Unlock()
		return nil
	}
	prev := d.sessions[d.current]
	d.current = id
	d.mu.Unlock()

	d.log.Debug("Changing current session", log.String("session", id))

	var errs error
	if prev != nil {
		errs = errors.Join(errs, prev.OnDeselect(ctx, next))
	}
	errs = errors.Join(errs, next.OnSelect(ctx, prev))

	if prev != nil && prev.DisposeOnChange() {
		errs = errors.Join(errs, d.Remove(ctx, prev.ID()))
	}
	return errs
}

// Remove disposes a session and forgets it.
func (d *Directory) Remove(ctx context.Context, id string) error {
	d.mu.Lock()
	s, ok := d.sessions[id]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(d.sessions, id)
	if d.current == id {
		d.current = ""
	}
	d.mu.Unlock()
	return s.Dispose(ctx)
}

// Close disposes every tracked session.
func (d *Directory) Close(ctx context.Context) error {
	d.mu.Lock()
	sessions := make([]Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		sessions = append(sessions, s)
	}
	d.sessions = make(map[string]Session)
	d.current = ""
	d.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID() < sessions[j].ID() })
	var errs error
	for _, s := range sessions {
		errs = errors.Join(errs, s.Dispose(ctx))
	}
	return errs
}
