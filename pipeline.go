package radar

import (
	"context"

	"github.com/passkeyradar/radar/pkg/combiner"
	"github.com/passkeyradar/radar/pkg/logging"
	"github.com/passkeyradar/radar/pkg/merger"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

// Pipeline runs combine and merge batches against the data directory.
type Pipeline interface {
	// Combine writes combined/<id>.json for every snapshot timestamp in rng
	// (all of them when rng is nil).
	Combine(ctx context.Context, rng *combiner.DateRange) ([]combiner.Result, error)

	// CombineIDs writes combined/<id>.json for the given targets.
	CombineIDs(ctx context.Context, ids ...snapshot.ID) ([]combiner.Result, error)

	// Merge merges the given combined files, or every combined file without
	// merged output when no ids are given.
	Merge(ctx context.Context, ids ...snapshot.ID) ([]merger.BatchResult, error)
}

// Combine writes combined artifacts for every candidate target in rng.
func (c *client) Combine(ctx context.Context, rng *combiner.DateRange) ([]combiner.Result, error) {
	ctx = c.withLogger(ctx)
	ids, err := c.combiner.CandidateTimestamps(ctx, rng)
	if err != nil {
		return nil, err
	}
	return c.CombineIDs(ctx, ids...)
}

// CombineIDs writes combined artifacts for the given targets.
func (c *client) CombineIDs(ctx context.Context, ids ...snapshot.ID) ([]combiner.Result, error) {
	ctx = c.withLogger(ctx)
	results, err := c.combiner.CombineIDs(ctx, ids, c.store)
	c.hooks.triggerCombined(results)
	return results, err
}

// Merge merges combined files into merged/ and conflicts/.
func (c *client) Merge(ctx context.Context, ids ...snapshot.ID) ([]merger.BatchResult, error) {
	ctx = c.withLogger(ctx)
	results, err := c.merger.MergeAll(ctx, c.store, c.options.concurrency, ids...)
	c.hooks.triggerMerged(results)
	return results, err
}

// withLogger attaches the client logger unless ctx already carries one.
func (c *client) withLogger(ctx context.Context) context.Context {
	if logging.FromContext(ctx) != logging.Default() {
		return ctx
	}
	return logging.WithLogger(ctx, c.options.logger)
}
