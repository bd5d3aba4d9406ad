package radar

import (
	"context"
	"time"

	"github.com/passkeyradar/radar/pkg/combiner"
	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/merger"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

// Data reads pipeline artifacts.
type Data interface {
	// Store returns the underlying file store.
	Store() *snapshot.FileStore

	// Resolve maps a requested date to the id of an existing file in dir:
	// the exact id when present, otherwise the newest id at or before it.
	Resolve(dir, date string) (snapshot.ID, error)

	// Combined reads combined/<id>.json.
	Combined(id snapshot.ID) (*combiner.Artifact, error)

	// Merged reads merged/<id>.json, merging combined/<id>.json first when
	// the merged file does not exist yet.
	Merged(ctx context.Context, id snapshot.ID) ([]merger.Entity, error)

	// Conflicts reads conflicts/<id>.json.
	Conflicts(id snapshot.ID) ([]merger.Conflict, error)
}

// Store returns the underlying file store.
func (c *client) Store() *snapshot.FileStore {
	return c.store
}

// Resolve finds the file in dir that answers a request for date. date is a
// snapshot id or a bare YYYY-MM-DD, which covers the whole day.
func (c *client) Resolve(dir, date string) (snapshot.ID, error) {
	if id := snapshot.ID(date); id.Valid() && c.store.HasArtifact(dir, id) {
		return id, nil
	}

	target, err := snapshot.ParseDate(date)
	if err != nil {
		return "", errors.NewValidationError("date", date, "expected "+constants.DateLayout+" or "+constants.TimestampLayout)
	}
	if len(date) == len(constants.DateLayout) {
		target = target.Add(24*time.Hour - time.Second)
	}

	ids, err := c.store.ListArtifacts(dir)
	if err != nil {
		return "", err
	}
	closest, ok := combiner.NearestPriorID(ids, snapshot.NewID(target))
	if !ok {
		return "", errors.NewNotFoundError(dir, date)
	}
	return closest, nil
}

// Combined reads a combined artifact.
func (c *client) Combined(id snapshot.ID) (*combiner.Artifact, error) {
	return merger.LoadCombined(c.store, id)
}

// Merged reads merged entities, generating them on demand.
func (c *client) Merged(ctx context.Context, id snapshot.ID) ([]merger.Entity, error) {
	if !c.store.HasArtifact(constants.MergedDir, id) {
		if !c.store.HasArtifact(constants.CombinedDir, id) {
			return nil, errors.NewNotFoundError(constants.CombinedDir, id.String())
		}
		results, err := c.Merge(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(results) == 1 && results[0].Status == combiner.StatusError {
			return nil, errors.NewResourceError("merge", constants.CombinedDir, id.String(), errors.New(results[0].Error))
		}
	}

	var entities []merger.Entity
	if err := c.store.ReadArtifact(constants.MergedDir, id, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// Conflicts reads the conflict log of a merge.
func (c *client) Conflicts(id snapshot.ID) ([]merger.Conflict, error) {
	var conflicts []merger.Conflict
	if err := c.store.ReadArtifact(constants.ConflictsDir, id, &conflicts); err != nil {
		return nil, err
	}
	return conflicts, nil
}
