package merger

import (
	"encoding/json"
	"fmt"

	"github.com/passkeyradar/radar/internal/utils/ptr"
	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

// Entity is one deduplicated website with the evidence every source
// contributed for it. Name, Domain, Signin and MFA are nil when unknown.
// Domain always holds a registered domain (eTLD+1).
type Entity struct {
	Name        *string                      `json:"name"`
	Domain      *string                      `json:"domain"`
	Alt         []string                     `json:"alt"`
	Signin      *bool                        `json:"signin"`
	MFA         *bool                        `json:"mfa"`
	Directories map[string][]snapshot.Record `json:"directories"`
	Wellknown   map[string][]snapshot.Record `json:"wellknown"`
}

func newEntity() *Entity {
	return &Entity{
		Alt:         []string{},
		Directories: map[string][]snapshot.Record{},
		Wellknown:   map[string][]snapshot.Record{},
	}
}

// PrimaryName implements normalize.Identity.
func (e *Entity) PrimaryName() *string { return e.Name }

// AlternateNames implements normalize.Identity.
func (e *Entity) AlternateNames() []string { return e.Alt }

// AppendAlternateName implements normalize.AlternateRecorder.
func (e *Entity) AppendAlternateName(name string) { e.Alt = append(e.Alt, name) }

// Evidence returns the records a subtype contributed, nil when none.
func (e *Entity) Evidence(category, subtype string) []snapshot.Record {
	switch category {
	case constants.CategoryDirectories:
		return e.Directories[subtype]
	case constants.CategoryWellknown:
		return e.Wellknown[subtype]
	}
	return nil
}

// Sources returns how many distinct subtypes contributed evidence.
func (e *Entity) Sources() int {
	return len(e.Directories) + len(e.Wellknown)
}

func (e *Entity) addEvidence(category, subtype string, r snapshot.Record) {
	m := e.Directories
	if category == constants.CategoryWellknown {
		m = e.Wellknown
	}
	m[subtype] = append(m[subtype], r)
}

func (e *Entity) hasAlt(name string) bool {
	for _, a := range e.Alt {
		if a == name {
			return true
		}
	}
	return false
}

func (e *Entity) removeAlt(name string) {
	out := e.Alt[:0]
	for _, a := range e.Alt {
		if a != name {
			out = append(out, a)
		}
	}
	e.Alt = out
}

// Clone returns a deep copy. Records are immutable and shared.
func (e *Entity) Clone() Entity {
	c := Entity{
		Name:        ptr.Clone(e.Name),
		Domain:      ptr.Clone(e.Domain),
		Alt:         append([]string{}, e.Alt...),
		Signin:      ptr.Clone(e.Signin),
		MFA:         ptr.Clone(e.MFA),
		Directories: make(map[string][]snapshot.Record, len(e.Directories)),
		Wellknown:   make(map[string][]snapshot.Record, len(e.Wellknown)),
	}
	for k, v := range e.Directories {
		c.Directories[k] = append([]snapshot.Record(nil), v...)
	}
	for k, v := range e.Wellknown {
		c.Wellknown[k] = append([]snapshot.Record(nil), v...)
	}
	return c
}

// DisplayName returns the name, or the domain when the entity has no name.
func (e *Entity) DisplayName() string {
	switch {
	case e.Name != nil:
		return *e.Name
	case e.Domain != nil:
		return *e.Domain
	default:
		return ""
	}
}

// Conflict records that a source disagreed with an entity on one field.
// Entity is the state of the entity when the disagreement was found,
// before any overwrite.
type Conflict struct {
	Reason string
	Entity Entity
}

// MarshalJSON encodes a conflict as a [reason, entity] pair.
func (c Conflict) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Reason, c.Entity})
}

// UnmarshalJSON decodes a [reason, entity] pair.
func (c *Conflict) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("conflict must be a [reason, entity] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.Reason); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &c.Entity)
}
