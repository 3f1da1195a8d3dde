package accounts

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency caps simultaneous per-account operations.
const DefaultConcurrency = 8

func normalizeConcurrency(concurrency int) int {
	if concurrency <= 0 {
		return DefaultConcurrency
	}
	return concurrency
}

// fanOut runs work for every item with at most concurrency tasks in flight and returns
// the results in input order. Tasks never fail the group, so every item is processed.
func fanOut[Item any, Result any](executionContext context.Context, concurrency int, items []Item, work func(context.Context, Item) Result) []Result {
	results := make([]Result, len(items))
	if len(items) == 0 {
		return results
	}

	var group errgroup.Group
	group.SetLimit(normalizeConcurrency(concurrency))
	for itemIndex := range items {
		group.Go(func() error {
			results[itemIndex] = work(executionContext, items[itemIndex])
			return nil
		})
	}
	_ = group.Wait()
	return results
}
