package merger

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/passkeyradar/radar/pkg/combiner"
	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/logging"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

// ArtifactStore reads combined artifacts and persists merge outputs.
// *snapshot.FileStore implements it.
type ArtifactStore interface {
	ListArtifacts(dir string) ([]snapshot.ID, error)
	HasArtifact(dir string, id snapshot.ID) bool
	ReadArtifact(dir string, id snapshot.ID, v any) error
	WriteArtifact(dir string, id snapshot.ID, v any) error
}

// BatchResult reports the outcome of merging one combined file.
type BatchResult struct {
	ID        snapshot.ID     `json:"id"`
	Status    combiner.Status `json:"status"`
	Entities  int             `json:"entities"`
	Conflicts int             `json:"conflicts"`
	Skipped   []string        `json:"skipped,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Unmerged returns the combined ids that have no merged output yet.
func Unmerged(store ArtifactStore) ([]snapshot.ID, error) {
	ids, err := store.ListArtifacts(constants.CombinedDir)
	if err != nil {
		return nil, err
	}
	out := ids[:0]
	for _, id := range ids {
		if !store.HasArtifact(constants.MergedDir, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

// LoadCombined reads combined/<id>.json into an artifact.
func LoadCombined(store ArtifactStore, id snapshot.ID) (*combiner.Artifact, error) {
	artifact := &combiner.Artifact{}
	if err := store.ReadArtifact(constants.CombinedDir, id, artifact); err != nil {
		return nil, err
	}
	artifact.ID = id
	return artifact, nil
}

// MergeAll merges each combined file in ids, or every unmerged one when ids
// is empty, and writes merged/<id>.json and conflicts/<id>.json. Files are
// merged concurrently, at most concurrency at a time; a failing file never
// stops the others. Results are returned oldest first.
func (m *Merger) MergeAll(ctx context.Context, store ArtifactStore, concurrency int, ids ...snapshot.ID) ([]BatchResult, error) {
	if store == nil {
		return nil, errors.NewValidationError("store", nil, "cannot be nil")
	}
	if len(ids) == 0 {
		var err error
		if ids, err = Unmerged(store); err != nil {
			return nil, err
		}
	}
	if concurrency < 1 {
		concurrency = constants.DefaultConcurrency
	}
	logger := logging.FromContext(ctx)

	var (
		mu      sync.Mutex
		results = make([]BatchResult, 0, len(ids))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := m.mergeOne(gctx, store, id)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	logger.Info().Int("files", len(results)).Msg("Merged combined files")
	return results, ctx.Err()
}

func (m *Merger) mergeOne(ctx context.Context, store ArtifactStore, id snapshot.ID) BatchResult {
	ctx = logging.WithSnapshot(ctx, id.String())
	logger := logging.FromContext(ctx)
	res := BatchResult{ID: id, Status: combiner.StatusSuccess}

	artifact, err := LoadCombined(store, id)
	if err != nil {
		res.Status = combiner.StatusError
		res.Error = err.Error()
		logger.Error().Err(err).Msg("Loading combined artifact failed")
		return res
	}

	merged, err := m.Merge(ctx, artifact)
	if err != nil {
		res.Status = combiner.StatusPartial
		res.Error = err.Error()
	}
	res.Entities = len(merged.Entities)
	res.Conflicts = len(merged.Conflicts)
	res.Skipped = merged.Skipped

	if werr := store.WriteArtifact(constants.MergedDir, id, merged.Entities); werr != nil {
		return failWrite(res, werr, logger)
	}
	if werr := store.WriteArtifact(constants.ConflictsDir, id, merged.Conflicts); werr != nil {
		return failWrite(res, werr, logger)
	}
	return res
}

func failWrite(res BatchResult, err error, logger *zerolog.Logger) BatchResult {
	res.Status = combiner.StatusError
	res.Error = err.Error()
	logger.Error().Err(err).Msg("Writing merge output failed")
	return res
}
