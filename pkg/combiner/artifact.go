package combiner

import (
	"encoding/json"
	"sort"

	"github.com/passkeyradar/radar/pkg/snapshot"
)

// Artifact is the combined view of every source at one target timestamp:
// category → subtype → records of the nearest prior snapshot.
type Artifact struct {
	ID         snapshot.ID
	Categories map[string]map[string][]snapshot.Record

	// Picked records which snapshot each subtype was taken from. It is not
	// part of the serialized artifact.
	Picked map[string]map[string]snapshot.ID
}

// NewArtifact returns an empty artifact with every category present.
func NewArtifact(id snapshot.ID, categories ...string) *Artifact {
	a := &Artifact{
		ID:         id,
		Categories: make(map[string]map[string][]snapshot.Record, len(categories)),
		Picked:     make(map[string]map[string]snapshot.ID, len(categories)),
	}
	for _, c := range categories {
		a.Categories[c] = map[string][]snapshot.Record{}
		a.Picked[c] = map[string]snapshot.ID{}
	}
	return a
}

// Records returns the records of category/subtype, nil when absent.
func (a *Artifact) Records(category, subtype string) []snapshot.Record {
	if a == nil {
		return nil
	}
	return a.Categories[category][subtype]
}

// Set stores records taken from snapshot id under category/subtype.
func (a *Artifact) Set(category, subtype string, id snapshot.ID, records []snapshot.Record) {
	if a.Categories[category] == nil {
		a.Categories[category] = map[string][]snapshot.Record{}
	}
	if a.Picked == nil {
		a.Picked = map[string]map[string]snapshot.ID{}
	}
	if a.Picked[category] == nil {
		a.Picked[category] = map[string]snapshot.ID{}
	}
	a.Categories[category][subtype] = records
	a.Picked[category][subtype] = id
}

// Subtypes returns the subtypes present under category, sorted.
func (a *Artifact) Subtypes(category string) []string {
	out := make([]string, 0, len(a.Categories[category]))
	for s := range a.Categories[category] {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Count returns the total number of records across all subtypes.
func (a *Artifact) Count() int {
	n := 0
	for _, subtypes := range a.Categories {
		for _, recs := range subtypes {
			n += len(recs)
		}
	}
	return n
}

// MarshalJSON writes the {category: {subtype: [records]}} file format.
func (a *Artifact) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Categories)
}

// UnmarshalJSON reads the {category: {subtype: [records]}} file format.
// The ID is not part of the encoding and must be set by the caller.
func (a *Artifact) UnmarshalJSON(data []byte) error {
	var cats map[string]map[string][]snapshot.Record
	if err := json.Unmarshal(data, &cats); err != nil {
		return err
	}
	if cats == nil {
		cats = map[string]map[string][]snapshot.Record{}
	}
	a.Categories = cats
	return nil
}
