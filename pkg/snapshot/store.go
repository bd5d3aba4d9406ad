// Package snapshot reads and writes the on-disk data layout: per-source
// snapshots under directories/ and wellknown/, and the combined, merged and
// conflicts artifacts derived from them.
//
//	<root>/{directories|wellknown}/<subtype>/<YYYY-MM-DD-HH-MM-SS>.json
//	<root>/combined/<id>.json
//	<root>/merged/<id>.json
//	<root>/conflicts/<id>.json
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
)

// Store lists and reads source snapshots.
type Store interface {
	// Subtypes lists the subtype directories present under category.
	Subtypes(ctx context.Context, category string) ([]string, error)
	// IDs lists the valid snapshot ids of a subtype in chronological order.
	IDs(ctx context.Context, category, subtype string) ([]ID, error)
	// Records reads one snapshot.
	Records(ctx context.Context, category, subtype string, id ID) ([]Record, error)
}

// FileStore is a Store over a data directory.
type FileStore struct {
	root string
	fsys fs.FS
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir. The directory does not have
// to exist yet; missing categories simply have no subtypes.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir, fsys: os.DirFS(dir)}
}

// Root returns the data directory.
func (s *FileStore) Root() string {
	return s.root
}

// Subtypes implements Store.
func (s *FileStore) Subtypes(ctx context.Context, category string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(s.fsys, category)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.WrapIO("list", s.path(category), err)
	}
	var subtypes []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			subtypes = append(subtypes, e.Name())
		}
	}
	sort.Strings(subtypes)
	return subtypes, nil
}

// IDs implements Store. Files whose name is not a snapshot id are skipped.
func (s *FileStore) IDs(ctx context.Context, category, subtype string) ([]ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.listIDs(path.Join(category, subtype))
}

// Records implements Store.
func (s *FileStore) Records(ctx context.Context, category, subtype string, id ID) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := path.Join(category, subtype, id.String()+constants.SnapshotExt)
	var records []Record
	if err := s.readJSON(name, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// ListArtifacts lists the ids present in an artifact directory such as
// combined/ or merged/, oldest first.
func (s *FileStore) ListArtifacts(dir string) ([]ID, error) {
	return s.listIDs(dir)
}

// HasArtifact reports whether dir/<id>.json exists.
func (s *FileStore) HasArtifact(dir string, id ID) bool {
	_, err := fs.Stat(s.fsys, path.Join(dir, id.String()+constants.SnapshotExt))
	return err == nil
}

// ReadArtifact decodes dir/<id>.json into v. A missing file yields a
// NotFoundError.
func (s *FileStore) ReadArtifact(dir string, id ID, v any) error {
	return s.readJSON(path.Join(dir, id.String()+constants.SnapshotExt), v)
}

// WriteArtifact atomically replaces dir/<id>.json with the JSON encoding of v.
func (s *FileStore) WriteArtifact(dir string, id ID, v any) error {
	data, err := encodeJSON(v)
	if err != nil {
		return errors.WrapResource("encode", dir, id.String(), err)
	}
	return WriteFileAtomic(s.path(dir, id.String()+constants.SnapshotExt), data, constants.FilePermissions)
}

// WriteSnapshot stores records as a new source snapshot. It is used by
// fetchers and fixtures; snapshots are never rewritten once present.
func (s *FileStore) WriteSnapshot(category, subtype string, id ID, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := encodeJSON(records)
	if err != nil {
		return errors.WrapResource("encode", "snapshot", id.String(), err)
	}
	return WriteFileAtomic(s.path(category, subtype, id.String()+constants.SnapshotExt), data, constants.FilePermissions)
}

func (s *FileStore) listIDs(dir string) ([]ID, error) {
	matches, err := doublestar.Glob(s.fsys, dir+"/*"+constants.SnapshotExt)
	if err != nil {
		return nil, errors.WrapIO("list", s.path(dir), err)
	}
	ids := make([]ID, 0, len(matches))
	for _, m := range matches {
		id := ID(strings.TrimSuffix(path.Base(m), constants.SnapshotExt))
		if id.Valid() {
			ids = append(ids, id)
		}
	}
	SortIDs(ids)
	return ids, nil
}

func (s *FileStore) readJSON(name string, v any) error {
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.NewNotFoundError(path.Dir(name), strings.TrimSuffix(path.Base(name), constants.SnapshotExt))
		}
		return errors.WrapIO("read", s.path(name), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.WrapParse("json", s.path(name), err)
	}
	return nil
}

// encodeJSON indents v without HTML escaping, so re-reading a written
// record yields the same compact bytes it was read with.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *FileStore) path(elem ...string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Join(elem...)))
}
