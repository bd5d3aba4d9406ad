// Package combiner joins every source to a common point in time. For a
// target timestamp it picks, per subtype, the newest snapshot taken at or
// before the target, producing one combined artifact the merger consumes.
package combiner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/logging"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

// DateRange limits candidate targets to [Start, End], both inclusive.
// A zero Start means the Unix epoch and a zero End means now.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange builds a range from YYYY-MM-DD bounds; either may be
// empty. The end date covers its whole day. It returns nil when both are
// empty.
func ParseDateRange(start, end string) (*DateRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	rng := &DateRange{}
	if start != "" {
		t, err := time.Parse(constants.DateLayout, start)
		if err != nil {
			return nil, errors.NewValidationError("start", start, "expected "+constants.DateLayout)
		}
		rng.Start = t
	}
	if end != "" {
		t, err := time.Parse(constants.DateLayout, end)
		if err != nil {
			return nil, errors.NewValidationError("end", end, "expected "+constants.DateLayout)
		}
		rng.End = t.Add(24*time.Hour - time.Second)
	}
	if !rng.Start.IsZero() && !rng.End.IsZero() && rng.End.Before(rng.Start) {
		return nil, errors.NewValidationError("end", end, "is before start")
	}
	return rng, nil
}

// Writer persists combined artifacts. *snapshot.FileStore implements it.
type Writer interface {
	WriteArtifact(dir string, id snapshot.ID, v any) error
}

// Status of one target in a CombineAll run.
type Status string

// Target statuses.
const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// Result reports the outcome for one target timestamp.
type Result struct {
	ID       snapshot.ID `json:"id"`
	Status   Status      `json:"status"`
	Subtypes int         `json:"subtypes"`
	Records  int         `json:"records"`
	Error    string      `json:"error,omitempty"`
}

// Combiner computes combined artifacts from a snapshot store.
type Combiner struct {
	store   snapshot.Store
	options *options
}

// New returns a Combiner reading from store.
func New(store snapshot.Store, opts ...Option) (*Combiner, error) {
	if store == nil {
		return nil, errors.NewValidationError("store", nil, "cannot be nil")
	}
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Combiner{store: store, options: o}, nil
}

// Categories returns the categories this combiner reads.
func (c *Combiner) Categories() []string {
	return append([]string(nil), c.options.categories...)
}

// CandidateTimestamps returns the union of snapshot ids across every
// subtype of every category, optionally filtered to rng, oldest first.
func (c *Combiner) CandidateTimestamps(ctx context.Context, rng *DateRange) ([]snapshot.ID, error) {
	seen := make(map[snapshot.ID]struct{})
	for _, category := range c.options.categories {
		subtypes, err := c.store.Subtypes(ctx, category)
		if err != nil {
			return nil, err
		}
		for _, subtype := range subtypes {
			ids, err := c.store.IDs(ctx, category, subtype)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				seen[id] = struct{}{}
			}
		}
	}

	var start, end time.Time
	if rng != nil {
		start, end = rng.Start, rng.End
	}
	if start.IsZero() {
		start = time.Unix(0, 0).UTC()
	}
	if end.IsZero() {
		end = c.options.now().UTC()
	}

	out := make([]snapshot.ID, 0, len(seen))
	for id := range seen {
		ts, err := id.Time()
		if err != nil {
			continue
		}
		if ts.Before(start) || ts.After(end) {
			continue
		}
		out = append(out, id)
	}
	snapshot.SortIDs(out)
	return out, nil
}

// NearestPriorID returns the newest id at or before target. Ids that do
// not parse are ignored.
func NearestPriorID(ids []snapshot.ID, target snapshot.ID) (snapshot.ID, bool) {
	targetTime, err := target.Time()
	if err != nil {
		return "", false
	}
	var (
		best     snapshot.ID
		bestTime time.Time
		found    bool
	)
	for _, id := range ids {
		ts, err := id.Time()
		if err != nil || ts.After(targetTime) {
			continue
		}
		if !found || ts.After(bestTime) {
			best, bestTime, found = id, ts, true
		}
	}
	return best, found
}

// Combine builds the artifact for target. Subtypes without a snapshot at or
// before target are omitted. A subtype whose snapshot cannot be read is
// also omitted and its error is returned joined with the others, alongside
// the artifact built from the readable subtypes.
func (c *Combiner) Combine(ctx context.Context, target snapshot.ID) (*Artifact, error) {
	if !target.Valid() {
		return nil, errors.NewValidationError("target", target, "expected "+constants.TimestampLayout)
	}
	ctx = logging.WithSnapshot(c.withLogger(ctx), target.String())
	logger := logging.FromContext(ctx)

	artifact := NewArtifact(target, c.options.categories...)
	var errs []error
	for _, category := range c.options.categories {
		subtypes, err := c.store.Subtypes(ctx, category)
		if err != nil {
			return nil, err
		}
		for _, subtype := range subtypes {
			ids, err := c.store.IDs(ctx, category, subtype)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			picked, ok := NearestPriorID(ids, target)
			if !ok {
				logger.Debug().Str("category", category).Str("subtype", subtype).Msg("No snapshot at or before target")
				continue
			}
			records, err := c.store.Records(ctx, category, subtype, picked)
			if err != nil {
				logger.Warn().Err(err).Str("category", category).Str("subtype", subtype).Str("picked", picked.String()).Msg("Skipping unreadable snapshot")
				errs = append(errs, err)
				continue
			}
			artifact.Set(category, subtype, picked, records)
		}
	}
	return artifact, errors.Join(errs...)
}

// CombineAll combines every candidate target in rng concurrently and
// writes each artifact to w under combined/. A failing target never stops
// the others; its failure is reported in its Result. Results are returned
// oldest first. The returned error is non-nil only when the candidates
// cannot be listed or ctx is canceled.
func (c *Combiner) CombineAll(ctx context.Context, rng *DateRange, w Writer) ([]Result, error) {
	ids, err := c.CandidateTimestamps(ctx, rng)
	if err != nil {
		return nil, err
	}
	return c.CombineIDs(ctx, ids, w)
}

// CombineIDs is CombineAll over an explicit list of targets.
func (c *Combiner) CombineIDs(ctx context.Context, ids []snapshot.ID, w Writer) ([]Result, error) {
	ctx = c.withLogger(ctx)
	logger := logging.FromContext(ctx)

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(ids))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.options.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := c.combineOne(gctx, id, w, logger)
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
	logger.Info().Int("targets", len(results)).Msg("Combined snapshots")
	return results, ctx.Err()
}

func (c *Combiner) combineOne(ctx context.Context, id snapshot.ID, w Writer, logger *zerolog.Logger) Result {
	res := Result{ID: id, Status: StatusSuccess}
	artifact, err := c.Combine(ctx, id)
	if artifact == nil {
		res.Status = StatusError
		res.Error = err.Error()
		logger.Error().Err(err).Str("snapshot", id.String()).Msg("Combine failed")
		return res
	}
	if err != nil {
		res.Status = StatusPartial
		res.Error = err.Error()
	}
	for _, category := range c.options.categories {
		res.Subtypes += len(artifact.Categories[category])
	}
	res.Records = artifact.Count()

	if w != nil {
		if werr := w.WriteArtifact(constants.CombinedDir, id, artifact); werr != nil {
			res.Status = StatusError
			res.Error = werr.Error()
			logger.Error().Err(werr).Str("snapshot", id.String()).Msg("Writing combined artifact failed")
		}
	}
	return res
}

// withLogger attaches the configured logger unless ctx already carries one.
func (c *Combiner) withLogger(ctx context.Context) context.Context {
	if logging.FromContext(ctx) != logging.Default() {
		return ctx
	}
	return logging.WithLogger(ctx, c.options.logger)
}
