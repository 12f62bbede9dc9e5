package catalog

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/offline/internal/core/spatial"
	"github.com/zeusync/offline/internal/core/world"
)

// Bundle is the YAML description of one world build.
type Bundle struct {
	ID         string          `yaml:"id"`
	Version    uint16          `yaml:"version"`
	Dimensions []DimensionSpec `yaml:"dimensions"`
}

type DimensionSpec struct {
	Name    string       `yaml:"name"`
	Anchor  spatial.Vec3 `yaml:"anchor"`
	Modules []string     `yaml:"modules,omitempty"`
	Spawns  []SpawnSpec  `yaml:"spawns,omitempty"`
}

type SpawnSpec struct {
	Position spatial.Vec3  `yaml:"position"`
	Rotation *spatial.Quat `yaml:"rotation,omitempty"`
}

func (s SpawnSpec) spawn() world.Spawn {
	rot := spatial.Identity
	if s.Rotation != nil {
		rot = *s.Rotation
	}
	return world.Spawn{Position: s.Position, Rotation: rot}
}

// LoadBundle decodes a bundle from YAML.
func LoadBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func parseBundle(data []byte) (*Bundle, error) {
	return LoadBundle(bytes.NewReader(data))
}

func (b *Bundle) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidBundle)
	}
	if len(b.Dimensions) == 0 {
		return fmt.Errorf("%w: %s declares no dimension", ErrInvalidBundle, b.ID)
	}
	for i, d := range b.Dimensions {
		if d.Name == "" {
			return fmt.Errorf("%w: %s dimension %d has no name", ErrInvalidBundle, b.ID, i)
		}
	}
	return nil
}

// Identifier of the build described by b.
func (b *Bundle) Identifier() world.Identifier {
	return world.Identifier{ID: b.ID, Version: b.Version}
}
