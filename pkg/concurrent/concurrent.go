// Package concurrent holds small fan-out helpers built on errgroup.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelMap applies mapFn to every element with at most workers goroutines,
// preserving order. The first error cancels the context handed to the
// remaining calls and is returned.
func ParallelMap[T any, R any](ctx context.Context, in []T, workers int, mapFn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, v := range in {
		g.Go(func() error {
			r, err := mapFn(gctx, v)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
