package world

import (
	"context"
	"runtime"
	"strconv"

	"github.com/zeusync/offline/internal/core/spatial"
)

// Engine is the engine name advertised in asset searches.
const Engine = "go"

// Platform is the platform name advertised in asset searches.
var Platform = runtime.GOOS

// Identifier names a world and the version of it to load.
type Identifier struct {
	ID      string `yaml:"id" toml:"id"`
	Version uint16 `yaml:"version" toml:"version"`
}

func (i Identifier) String() string {
	return i.ID
}

// Ref is the identifier including its version.
func (i Identifier) Ref() string {
	return i.ID + "@" + strconv.Itoa(int(i.Version))
}

// IsZero reports whether no world is named.
func (i Identifier) IsZero() bool {
	return i.ID == ""
}

// Asset is one downloadable build of a world.
type Asset struct {
	ID       string
	Version  uint16
	Engine   string
	Platform string
	Hash     string
	URL      string
}

// AssetQuery constrains an asset search.
type AssetQuery struct {
	Query     string
	Versions  []uint16
	Engines   []string
	Platforms []string
	Limit     int
}

// Provider finds, caches and loads worlds.
type Provider interface {
	SearchAssets(ctx context.Context, q AssetQuery) ([]Asset, error)
	HasInCache(hash string) bool
	DownloadToCache(ctx context.Context, url, hash string, progress func(float64)) error
	LoadFromCache(ctx context.Context, hash string, progress func(float64)) (Runtime, error)
	LoadFromResource(ctx context.Context, resource string, progress func(float64)) (Runtime, error)
}

// Runtime is a loaded world ready to be instantiated.
type Runtime interface {
	Identifier() Identifier
	SetIdentifier(Identifier)
	DimensionCount() int
	// Dimension returns false when the world declares no dimension at index.
	Dimension(index int) (Dimension, bool)
	IsCurrent() bool
	SetCurrent(bool)
}

// Dimension is one logical sub-area of a world; it can be instantiated many times.
type Dimension interface {
	MakeInstance(ctx context.Context) (int, error)
	Descriptor(instance int) Descriptor
	Anchor(instance int) Anchor
	Scene() Scene
	SetVisible(instance int, active, renderActive bool)
	RemoveInstance(instance int)
}

// Descriptor describes an instantiated dimension and the modules it carries.
type Descriptor interface {
	Name() string
	Modules() []Module
}

// Module is any behavior attached to a descriptor. Consumers discover
// capabilities by type assertion; see ModulesOf.
type Module interface {
	Name() string
}

// Anchor is the root node an instance is attached to.
type Anchor interface {
	Name() string
	Position() spatial.Vec3
}

// Scene is the container a dimension is loaded into.
type Scene interface {
	Name() string
}

// Spawn is a place a player can be put at.
type Spawn struct {
	Position spatial.Vec3
	Rotation spatial.Quat
}

// SpawnModule chooses spawn points.
type SpawnModule interface {
	Module
	ChooseSpawn() Spawn
}

// ModulesOf returns the modules of d implementing T, in declaration order.
func ModulesOf[T any](d Descriptor) []T {
	if d == nil {
		return nil
	}
	var out []T
	for _, m := range d.Modules() {
		if v, ok := m.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// FirstModule returns the first module of d implementing T.
func FirstModule[T any](d Descriptor) (T, bool) {
	var zero T
	if d == nil {
		return zero, false
	}
	for _, m := range d.Modules() {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	return zero, false
}
