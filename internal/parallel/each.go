// Package parallel runs a function over many inputs with bounded concurrency.
package parallel

import (
	"context"
	"errors"
	"iter"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Each calls fn for every item, at most limit at a time. A failing call does
// not stop the others; all failures are returned joined, in input order.
// Items not yet started when ctx is done fail with the context error.
func Each[E any](ctx context.Context, limit int, items iter.Seq[E], fn func(context.Context, E) error) error {
	if limit <= 0 {
		limit = 1
	}
	list := slices.Collect(items)
	errs := make([]error, len(list))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range list {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
