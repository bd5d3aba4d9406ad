// Package radar ties the passkey pipeline together: it combines source
// snapshots into per-timestamp artifacts, merges those into deduplicated
// entities, and serves the results from a data directory.
//
// Example usage:
//
//	rd, err := radar.New(radar.WithDataDir("../data"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rd.OnMerged(func(res merger.BatchResult) {
//	    log.Printf("merged %s: %d entities", res.ID, res.Entities)
//	})
//
//	// Combine every snapshot timestamp, then merge whatever is new
//	if _, err := rd.Combine(ctx, nil); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := rd.Merge(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	entities, err := rd.Merged(ctx, "2024-03-01-12-00-00")
package radar

import (
	"github.com/passkeyradar/radar/pkg/combiner"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/merger"
	"github.com/passkeyradar/radar/pkg/normalize"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client is the pipeline facade used by the CLI, the HTTP server and the
// snapshot watcher.
type Client interface {
	// Pipeline runs combine and merge batches
	Pipeline

	// Data reads combined and merged artifacts
	Data

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {
	options  *options
	store    *snapshot.FileStore
	norm     *normalize.Normalizer
	combiner *combiner.Combiner
	merger   *merger.Merger
	hooks    *hooks
}

// New creates a new Client with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	aliases := o.aliases
	if aliases == nil {
		if o.aliasesFile != "" {
			aliases, err = normalize.LoadAliasesFile(o.aliasesFile)
		} else {
			aliases, err = normalize.DefaultAliases()
		}
		if err != nil {
			return nil, errors.WrapResource("load", "aliases", o.aliasesFile, err)
		}
	}

	c := &client{
		options: o,
		store:   snapshot.NewFileStore(o.dataDir),
		norm:    normalize.New(aliases),
		hooks:   newHooks(),
	}

	combinerOpts := []combiner.Option{
		combiner.WithConcurrency(o.concurrency),
		combiner.WithLogger(o.logger),
	}
	if o.now != nil {
		combinerOpts = append(combinerOpts, combiner.WithClock(o.now))
	}
	if c.combiner, err = combiner.New(c.store, combinerOpts...); err != nil {
		return nil, err
	}
	if c.merger, err = merger.New(c.norm,
		merger.WithConflictPolicy(o.policy),
		merger.WithLogger(o.logger),
	); err != nil {
		return nil, err
	}

	o.logger.Debug().
		Str("data_dir", o.dataDir).
		Int("aliases", aliases.Len()).
		Int("concurrency", o.concurrency).
		Str("conflict_policy", string(o.policy)).
		Msg("Radar client created")
	return c, nil
}
