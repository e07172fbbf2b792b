package world

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Prefetch generates every chunk covering the rect on up to workers
// goroutines. Chunks already scheduled always finish; ctx only stops further
// scheduling.
func (w *World) Prefetch(ctx context.Context, x, y, width, height float64, workers int) error {
	r, err := w.boundedRange("world.Prefetch", x, y, width, height)
	if err != nil {
		return err
	}
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, k := range r.Keys() {
		if gctx.Err() != nil {
			break
		}
		if _, ok := w.chunks.Lookup(k.CX, k.CY); ok {
			continue
		}
		g.Go(func() error {
			w.Chunk(k.CX, k.CY)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
