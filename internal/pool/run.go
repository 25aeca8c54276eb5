package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run calls fn once for every index in [0, n). With limit below 2 the calls
// are sequential and stop at the first error. Otherwise at most limit calls
// run at once, and the first error cancels the context handed to the rest.
// Callers write per-index results into pre-sized slices so output order
// matches input order.
func Run(ctx context.Context, limit, n int, fn func(ctx context.Context, i int) error) error {
	if limit < 2 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}

	return g.Wait()
}

// RunKeyed is Run for tasks that write to a named destination. Tasks that
// share a key run one after another in index order, so at most one of them
// touches the destination at a time. Tasks with different keys run
// concurrently as in Run.
func RunKeyed(ctx context.Context, limit int, keys []string, fn func(ctx context.Context, i int) error) error {
	if limit < 2 {
		return Run(ctx, limit, len(keys), fn)
	}

	groups := groupByKey(keys)
	return Run(ctx, limit, len(groups), func(ctx context.Context, g int) error {
		for _, i := range groups[g] {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	})
}

// groupByKey returns the indices of keys grouped by value, groups ordered by
// first appearance.
func groupByKey(keys []string) [][]int {
	index := make(map[string]int, len(keys))
	var groups [][]int
	for i, k := range keys {
		g, ok := index[k]
		if !ok {
			g = len(groups)
			index[k] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
