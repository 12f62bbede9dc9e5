package catalog

import (
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/offline/internal/core/world"
)

// IndexFile is the name of the catalog listing inside a catalog directory.
const IndexFile = "catalog.yaml"

// Index lists the downloadable builds and the bundled resources of a catalog.
type Index struct {
	Assets    []AssetEntry      `yaml:"assets"`
	Resources map[string]string `yaml:"resources,omitempty"`
}

// AssetEntry describes one build. Empty Engine or Platform match any. An
// empty Hash is filled from the referenced bundle when the catalog is opened.
type AssetEntry struct {
	ID       string `yaml:"id"`
	Version  uint16 `yaml:"version"`
	Engine   string `yaml:"engine,omitempty"`
	Platform string `yaml:"platform,omitempty"`
	Hash     string `yaml:"hash,omitempty"`
	URL      string `yaml:"url"`
}

func (e AssetEntry) asset() world.Asset {
	return world.Asset{
		ID:       e.ID,
		Version:  e.Version,
		Engine:   e.Engine,
		Platform: e.Platform,
		Hash:     e.Hash,
		URL:      e.URL,
	}
}

func LoadIndex(r io.Reader) (*Index, error) {
	var idx Index
	if err := yaml.NewDecoder(r).Decode(&idx); err != nil {
		if err == io.EOF {
			return &idx, nil
		}
		return nil, fmt.Errorf("decode catalog index: %w", err)
	}
	return &idx, nil
}

// matches reports whether a satisfies q. Empty constraint lists match everything.
func matches(a world.Asset, q world.AssetQuery) bool {
	if q.Query != "" && a.ID != q.Query {
		return false
	}
	if len(q.Versions) > 0 && !slices.Contains(q.Versions, a.Version) {
		return false
	}
	if a.Engine != "" && len(q.Engines) > 0 && !slices.Contains(q.Engines, a.Engine) {
		return false
	}
	if a.Platform != "" && len(q.Platforms) > 0 && !slices.Contains(q.Platforms, a.Platform) {
		return false
	}
	return true
}
