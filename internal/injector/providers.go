package injector

import (
	"context"

	"github.com/google/wire"

	"github.com/zeusync/offline/internal/config"
	"github.com/zeusync/offline/internal/core/controller"
	"github.com/zeusync/offline/internal/core/events/bus"
	"github.com/zeusync/offline/internal/core/observability/log"
	"github.com/zeusync/offline/internal/core/storage"
	"github.com/zeusync/offline/internal/core/user"
	"github.com/zeusync/offline/internal/core/world"
	"github.com/zeusync/offline/internal/directory"
	"github.com/zeusync/offline/internal/offline"
	"github.com/zeusync/offline/internal/session"
	"github.com/zeusync/offline/internal/world/catalog"
)

// App is the object graph of the offline runtime.
type App struct {
	Config    config.Config
	Log       *log.Logger
	Events    bus.EventBus
	Directory *directory.Directory
	Worlds    *catalog.Catalog
	Binding   *controller.Binding
	Users     *user.Static
	Offline   *offline.Module
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideEvents,
	ProvideStorage,
	ProvideCatalog,
	wire.Bind(new(world.Provider), new(*catalog.Catalog)),
	ProvideDirectory,
	ProvideBinding,
	ProvideUsers,
	ProvideSessionDeps,
	ProvideOffline,
)

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.New(cfg.LogLevel())
}

func ProvideEvents() bus.EventBus {
	return bus.New()
}

// ProvideStorage caches on disk when a cache dir is configured, in memory otherwise.
func ProvideStorage(cfg config.Config) (storage.Storage, error) {
	if cfg.Catalog.CacheDir == "" {
		return storage.NewMemory(), nil
	}
	return storage.NewDir(cfg.Catalog.CacheDir)
}

func ProvideCatalog(ctx context.Context, cfg config.Config, store storage.Storage, l log.Log) (*catalog.Catalog, error) {
	return catalog.Open(ctx, cfg.Catalog.Dir, store, l)
}

func ProvideDirectory(l log.Log) *directory.Directory {
	return directory.New(l)
}

func ProvideBinding(events bus.EventBus) *controller.Binding {
	return controller.NewBinding(events)
}

func ProvideUsers() *user.Static {
	return user.NewStatic(nil)
}

func ProvideSessionDeps(l log.Log, events bus.EventBus, binding *controller.Binding, users *user.Static) session.Deps {
	return session.Deps{
		Log:         l,
		Events:      events,
		Controllers: binding,
		Users:       users,
	}
}

func ProvideOffline(dir *directory.Directory, worlds world.Provider, deps session.Deps) *offline.Module {
	return offline.New(dir, worlds, deps)
}
