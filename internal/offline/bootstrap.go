package offline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/zeusync/offline/internal/core/observability/log"
	"github.com/zeusync/offline/internal/core/world"
	"github.com/zeusync/offline/internal/directory"
	"github.com/zeusync/offline/internal/session"
)

// IDFormat builds session ids from a random uuid.
const IDFormat = "offline_%s"

// Preparation milestones reported through the session state.
const (
	progressFetch      = 0.05
	progressPrepare    = 0.1
	progressDownload   = 0.15
	downloadSpan       = 0.45
	progressLoad       = 0.6
	progressLoaded     = 0.65
	progressSetCurrent = 0.8
	progressReady      = 1.0

	progressResource = 0.1
	resourceSpan     = 0.5
)

var (
	_ directory.Session = (*Session)(nil)
	_ directory.Starter = (*Session)(nil)
)

// Session is an offline session whose world is prepared in the background
// once Start is called.
type Session struct {
	*session.Session

	once  sync.Once
	start func()
}

// Start launches preparation. Later calls do nothing.
func (s *Session) Start() {
	s.once.Do(s.start)
}

// Create builds a pending session for opts. Preparation begins on Start, which
// the directory calls as soon as it tracks the session.
func (m *Module) Create(opts Options) *Session {
	inner := session.New(fmt.Sprintf(IDFormat, uuid.NewString()), m.deps)
	inner.SetTitle(opts.Title)
	inner.SetThumbnail(opts.Thumbnail)
	inner.SetDisposeOnChange(opts.DisposeOnChange)
	inner.UpdateState(session.StatusPending, "Preparing...", 0)

	s := &Session{Session: inner}
	s.start = func() {
		ctx, ok := m.begin()
		if !ok {
			_ = m.fail(inner, ErrModuleDisposed, nil, "Offline module is disposed")
			return
		}
		go func() {
			defer m.running.Done()
			_ = m.Prepare(ctx, inner, opts)
		}()
	}
	return s
}

// Prepare resolves, loads and assigns the world of s, then makes s current if
// asked to. Every failure is reflected in the session state before returning.
func (m *Module) Prepare(ctx context.Context, s *session.Session, opts Options) error {
	w, err := m.loadWorld(ctx, s, opts)
	if err != nil {
		return err
	}
	name := opts.World.String()

	s.UpdateState(session.StatusPending, fmt.Sprintf("World '%s' loaded successfully", name), progressLoaded)
	if !opts.World.IsZero() {
		w.SetIdentifier(opts.World)
	}
	if err = s.AssignWorld(w); err != nil {
		return m.fail(s, ErrWorldLoadFailed, err, fmt.Sprintf("Failed to load world '%s'", name))
	}

	if opts.ChangeCurrent {
		s.UpdateState(session.StatusPending, fmt.Sprintf("Setting world '%s' as current", name), progressSetCurrent)
		if err = m.dir.SetCurrent(ctx, s.ID()); err != nil {
			return m.fail(s, ErrSelectFailed, err, fmt.Sprintf("Failed to enter world '%s'", name))
		}
	}

	s.UpdateState(session.StatusReady, fmt.Sprintf("World '%s' is ready", name), progressReady)
	return nil
}

func (m *Module) loadWorld(ctx context.Context, s *session.Session, opts Options) (world.Runtime, error) {
	name := opts.World.String()

	var (
		w   world.Runtime
		err error
	)
	switch opts.WorldType {
	case WorldAsset:
		s.UpdateState(session.StatusPending, "Fetching world data...", progressFetch)
		assets, searchErr := m.worlds.SearchAssets(ctx, world.AssetQuery{
			Query:     opts.World.ID,
			Versions:  []uint16{opts.World.Version},
			Engines:   []string{world.Engine},
			Platforms: []string{world.Platform},
			Limit:     1,
		})
		if searchErr != nil || len(assets) == 0 {
			return nil, m.fail(s, ErrAssetNotFound, searchErr, fmt.Sprintf("World '%s' not found", name))
		}
		asset := assets[0]

		s.UpdateState(session.StatusPending, fmt.Sprintf("Preparing world '%s'...", name), progressPrepare)
		if !m.worlds.HasInCache(asset.Hash) {
			msg := fmt.Sprintf("Downloading world '%s'...", name)
			s.UpdateState(session.StatusPending, msg, progressDownload)
			err = m.worlds.DownloadToCache(ctx, asset.URL, asset.Hash, func(p float64) {
				s.UpdateState(session.StatusPending, msg, progressDownload+p*downloadSpan)
			})
			if err != nil {
				return nil, m.fail(s, ErrWorldLoadFailed, err, fmt.Sprintf("Failed to download world '%s'", name))
			}
		}

		s.UpdateState(session.StatusPending, fmt.Sprintf("Loading world '%s'...", name), progressLoad)
		w, err = m.worlds.LoadFromCache(ctx, asset.Hash, nil)
	case WorldResource:
		s.UpdateState(session.StatusPending, "Loading world resource...", progressResource)
		msg := fmt.Sprintf("Loading world '%s'...", name)
		w, err = m.worlds.LoadFromResource(ctx, opts.Resource, func(p float64) {
			s.UpdateState(session.StatusPending, msg, progressResource+p*resourceSpan)
		})
	default:
		return nil, m.fail(s, ErrNoValidWorld, nil, "No valid world specified")
	}

	if err != nil || w == nil {
		return nil, m.fail(s, ErrWorldLoadFailed, err, fmt.Sprintf("Failed to load world '%s'", name))
	}
	return w, nil
}

func (m *Module) fail(s *session.Session, kind, cause error, message string) error {
	m.log.Error(message, log.String("session", s.ID()), log.Error(cause))
	s.UpdateState(session.StatusError, message, 1)
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}
