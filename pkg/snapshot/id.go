package snapshot

import (
	"sort"
	"time"

	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
)

// ID identifies a snapshot by the second it was taken, formatted as
// YYYY-MM-DD-HH-MM-SS. IDs are interpreted in UTC.
type ID string

// NewID returns the ID for t.
func NewID(t time.Time) ID {
	return ID(t.UTC().Format(constants.TimestampLayout))
}

// ParseID validates s as a snapshot id.
func ParseID(s string) (ID, error) {
	if _, err := time.Parse(constants.TimestampLayout, s); err != nil {
		return "", errors.NewParseError("timestamp", s, "expected "+constants.TimestampLayout, err)
	}
	return ID(s), nil
}

// ParseDate accepts either a full snapshot id or a bare YYYY-MM-DD date
// (meaning midnight) and returns the corresponding time.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(constants.TimestampLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(constants.DateLayout, s)
	if err != nil {
		return time.Time{}, errors.NewParseError("timestamp", s, "expected "+constants.DateLayout+" or "+constants.TimestampLayout, err)
	}
	return t, nil
}

// Time returns the instant the id denotes.
func (id ID) Time() (time.Time, error) {
	t, err := time.Parse(constants.TimestampLayout, string(id))
	if err != nil {
		return time.Time{}, errors.NewParseError("timestamp", string(id), "expected "+constants.TimestampLayout, err)
	}
	return t, nil
}

// Valid reports whether id parses.
func (id ID) Valid() bool {
	_, err := id.Time()
	return err == nil
}

// Date returns the YYYY-MM-DD part of the id.
func (id ID) Date() string {
	if len(id) < len(constants.DateLayout) {
		return string(id)
	}
	return string(id[:len(constants.DateLayout)])
}

func (id ID) String() string { return string(id) }

// SortIDs orders ids chronologically. The layout is fixed width with
// most significant fields first, so lexical order is time order.
func SortIDs(ids []ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
