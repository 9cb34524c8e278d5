package ops

import (
	"context"
	"fmt"
	"slices"

	"github.com/lanraragi/lrrctl/internal/client"
	"github.com/lanraragi/lrrctl/internal/parallel"
)

const categoryError = "Error adding/removing archive to category"

func (o *Ops) AddToCategory(ctx context.Context, category, archive string) error {
	_, err := o.caller.Call(ctx, client.Call{
		Route:          client.AddToCategory(category, archive),
		SuccessMessage: fmt.Sprintf("Added %s to Category %s!", archive, category),
		ErrorMessage:   categoryError,
	})
	return err
}

func (o *Ops) RemoveFromCategory(ctx context.Context, category, archive string) error {
	_, err := o.caller.Call(ctx, client.Call{
		Route:          client.RemoveFromCategory(category, archive),
		SuccessMessage: fmt.Sprintf("Removed %s from Category %s!", archive, category),
		ErrorMessage:   categoryError,
	})
	return err
}

func (o *Ops) AddArchivesToCategory(ctx context.Context, category string, archives []string) error {
	return o.batch(ctx, archives, func(ctx context.Context, arc string) error {
		return o.AddToCategory(ctx, category, arc)
	})
}

func (o *Ops) RemoveArchivesFromCategory(ctx context.Context, category string, archives []string) error {
	return o.batch(ctx, archives, func(ctx context.Context, arc string) error {
		return o.RemoveFromCategory(ctx, category, arc)
	})
}

// batch calls fn for every archive, a failure does not stop the others.
func (o *Ops) batch(ctx context.Context, archives []string, fn func(context.Context, string) error) error {
	return parallel.Each(ctx, o.concurrency, slices.Values(archives), fn)
}
