package offline

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/offline/internal/core/world"
)

// WorldType selects where the world of a session comes from.
type WorldType uint8

const (
	WorldUnset WorldType = iota
	// WorldAsset searches the provider for a build of Options.World.
	WorldAsset
	// WorldResource loads the bundled resource named by Options.Resource.
	WorldResource
)

func (t WorldType) String() string {
	switch t {
	case WorldAsset:
		return "asset"
	case WorldResource:
		return "resource"
	default:
		return fmt.Sprintf("world_type(%d)", uint8(t))
	}
}

// Options configure a new offline session.
type Options struct {
	Title           string           `yaml:"title" toml:"title"`
	Thumbnail       string           `yaml:"thumbnail" toml:"thumbnail"`
	DisposeOnChange bool             `yaml:"dispose_on_change" toml:"dispose_on_change"`
	WorldType       WorldType        `yaml:"world_type" toml:"world_type"`
	World           world.Identifier `yaml:"world" toml:"world"`
	Resource        string           `yaml:"resource,omitempty" toml:"resource"`
	ChangeCurrent   bool             `yaml:"change_current" toml:"change_current"`
}

// OptionsFrom decodes the loosely typed options handed over by a directory.
func OptionsFrom(options map[string]any) (Options, error) {
	var o Options
	if len(options) == 0 {
		return o, nil
	}
	raw, err := yaml.Marshal(options)
	if err != nil {
		return o, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if err = yaml.Unmarshal(raw, &o); err != nil {
		return o, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return o, nil
}

// Map is the inverse of OptionsFrom.
func (o Options) Map() (map[string]any, error) {
	raw, err := yaml.Marshal(o)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	if err = yaml.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate reports options the preparation pipeline could never satisfy.
func (o Options) Validate() error {
	switch o.WorldType {
	case WorldAsset:
		if o.World.IsZero() {
			return fmt.Errorf("%w: asset world needs an id", ErrInvalidOptions)
		}
	case WorldResource:
		if o.Resource == "" {
			return fmt.Errorf("%w: resource world needs a resource", ErrInvalidOptions)
		}
	default:
		return fmt.Errorf("%w: %s", ErrNoValidWorld, o.WorldType)
	}
	return nil
}
