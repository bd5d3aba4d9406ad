// Package watch reruns the pipeline when new snapshot files land in the
// data directory. Every category and subtype directory is watched; events
// are debounced and the affected snapshot ids are combined, then merged.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/passkeyradar/radar/pkg/combiner"
	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/logging"
	"github.com/passkeyradar/radar/pkg/merger"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

// Pipeline is the part of radar.Client the watcher drives.
type Pipeline interface {
	CombineIDs(ctx context.Context, ids ...snapshot.ID) ([]combiner.Result, error)
	Merge(ctx context.Context, ids ...snapshot.ID) ([]merger.BatchResult, error)
}

// Watcher watches a data directory for new snapshots.
type Watcher struct {
	root       string
	categories []string
	pipeline   Pipeline
	debounce   time.Duration
	logger     *zerolog.Logger
	fsw        *fsnotify.Watcher
	pending    map[snapshot.ID]struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long to wait for writes to settle.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithCategories restricts the watched categories.
func WithCategories(categories ...string) Option {
	return func(w *Watcher) {
		if len(categories) > 0 {
			w.categories = categories
		}
	}
}

// New registers watches on root, its category directories and their
// subtype directories. Call Run to process events and Close when done.
func New(root string, p Pipeline, opts ...Option) (*Watcher, error) {
	if p == nil {
		return nil, errors.NewValidationError("pipeline", nil, "cannot be nil")
	}
	w := &Watcher{
		root:       filepath.Clean(root),
		categories: constants.Categories,
		pipeline:   p,
		debounce:   constants.WatchDebounce,
		logger:     logging.Default(),
		pending:    make(map[snapshot.ID]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapIO("watch", w.root, err)
	}
	w.fsw = fsw

	if err := fsw.Add(w.root); err != nil {
		_ = fsw.Close()
		return nil, errors.WrapIO("watch", w.root, err)
	}
	for _, category := range w.categories {
		dir := filepath.Join(w.root, category)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := w.addCategory(dir, false); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Close releases the underlying watches.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run processes events until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info().Str("root", w.root).Strs("categories", w.categories).Msg("Watching for new snapshots")

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handle(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Watcher error")

		case <-timerC:
			timerC = nil
			w.flush(ctx)
		}
	}
}

// handle classifies an event and reports whether a snapshot was queued.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if !slices.Contains(w.categories, parts[0]) {
		return false
	}

	switch len(parts) {
	case 1:
		if event.Has(fsnotify.Create) && isDir(event.Name) {
			if err := w.addCategory(event.Name, true); err != nil {
				w.logger.Warn().Err(err).Str("dir", event.Name).Msg("Failed to watch category")
			}
			return len(w.pending) > 0
		}
	case 2:
		if event.Has(fsnotify.Create) && isDir(event.Name) {
			if err := w.addSubtype(event.Name, true); err != nil {
				w.logger.Warn().Err(err).Str("dir", event.Name).Msg("Failed to watch subtype")
			}
			return len(w.pending) > 0
		}
	case 3:
		return w.queue(parts[2])
	}
	return false
}

// queue records the snapshot id named by file, if it is one.
func (w *Watcher) queue(file string) bool {
	if snapshot.IsTempFile(file) || filepath.Ext(file) != constants.SnapshotExt {
		return false
	}
	id, err := snapshot.ParseID(strings.TrimSuffix(file, constants.SnapshotExt))
	if err != nil {
		return false
	}
	w.pending[id] = struct{}{}
	return true
}

func (w *Watcher) addCategory(dir string, scan bool) error {
	if err := w.fsw.Add(dir); err != nil {
		return errors.WrapIO("watch", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.WrapIO("list", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := w.addSubtype(filepath.Join(dir, entry.Name()), scan); err != nil {
			return err
		}
	}
	return nil
}

// addSubtype watches dir. With scan set, snapshots already in it are
// queued, covering files written before the watch was in place.
func (w *Watcher) addSubtype(dir string, scan bool) error {
	if err := w.fsw.Add(dir); err != nil {
		return errors.WrapIO("watch", dir, err)
	}
	if !scan {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.WrapIO("list", dir, err)
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			w.queue(entry.Name())
		}
	}
	return nil
}

// flush combines and then merges every queued id.
func (w *Watcher) flush(ctx context.Context) {
	if len(w.pending) == 0 {
		return
	}
	ids := make([]snapshot.ID, 0, len(w.pending))
	for id := range w.pending {
		ids = append(ids, id)
	}
	clear(w.pending)
	snapshot.SortIDs(ids)

	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	logger := w.logger.With().Strs("snapshots", names).Logger()
	logger.Info().Msg("New snapshots landed")

	results, err := w.pipeline.CombineIDs(ctx, ids...)
	if err != nil {
		logger.Error().Err(err).Msg("Combine failed")
	}
	combined := make([]snapshot.ID, 0, len(results))
	for _, res := range results {
		if res.Status != combiner.StatusError {
			combined = append(combined, res.ID)
		}
	}
	// Merge with no ids merges everything unmerged; only merge what was combined.
	if len(combined) == 0 {
		return
	}
	merged, err := w.pipeline.Merge(ctx, combined...)
	if err != nil {
		logger.Error().Err(err).Msg("Merge failed")
		return
	}
	logger.Info().Int("combined", len(combined)).Int("merged", len(merged)).Msg("Pipeline rerun complete")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsDir()
}
