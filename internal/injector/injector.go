//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"context"

	"github.com/google/wire"

	"github.com/zeusync/offline/internal/config"
)

func InitializeApp(ctx context.Context, cfg config.Config) (*App, error) {
	wire.Build(ProviderSet, wire.Struct(new(App), "*"))
	return nil, nil
}
