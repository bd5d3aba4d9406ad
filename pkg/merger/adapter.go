package merger

import (
	"github.com/passkeyradar/radar/internal/utils/ptr"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

// MatchKey selects how a source record is linked to an existing entity.
type MatchKey int

// Match keys.
const (
	// MatchDomain links on domain equivalence only.
	MatchDomain MatchKey = iota
	// MatchName links on name equivalence with the entity name or alternates.
	MatchName
	// MatchDomainOrName tries domains first and falls back to names only
	// when no entity matches by domain.
	MatchDomainOrName
)

func (k MatchKey) String() string {
	switch k {
	case MatchDomain:
		return "domain-only"
	case MatchName:
		return "name-only"
	case MatchDomainOrName:
		return "domain-or-name"
	default:
		return "unknown"
	}
}

// Field is an entity attribute subject to reconciliation.
type Field string

// Reconciled fields.
const (
	FieldName   Field = "name"
	FieldDomain Field = "domain"
	FieldSignin Field = "signin"
	FieldMFA    Field = "mfa"
)

// Fields holds the values a source asserts about a site. Nil means the
// source says nothing about that field.
type Fields struct {
	Name   *string
	Domain *string // hostname or URL as the source wrote it
	Signin *bool
	MFA    *bool
}

// Adapter declares how one source is read into the merge.
type Adapter struct {
	// Name identifies the source in logs and errors.
	Name string
	// Category and Subtype locate the source's records in the artifact;
	// Subtype is also the key of its evidence list on the entity.
	Category string
	Subtype  string

	// Include filters records before anything else; nil accepts all.
	Include func(snapshot.Record) bool
	// Required fields must be present and non-null on every included record.
	Required []string
	// Check is an extra precondition on included records. It returns the
	// name of the violated requirement, or "" when satisfied.
	Check func(snapshot.Record) string

	Match   MatchKey
	Extract func(snapshot.Record) Fields
	// Reconcile returns the fields compared against a matched entity;
	// nil means the source only contributes evidence and alternate names.
	Reconcile func(snapshot.Record) []Field
}

// precondition returns the first unmet requirement of r, or "".
func (a Adapter) precondition(r snapshot.Record) string {
	for _, f := range a.Required {
		if r.IsNull(f) {
			return f
		}
	}
	if a.Check != nil {
		return a.Check(r)
	}
	return ""
}

func (a Adapter) reconciled(r snapshot.Record) []Field {
	if a.Reconcile == nil {
		return nil
	}
	return a.Reconcile(r)
}

func always(fields ...Field) func(snapshot.Record) []Field {
	return func(snapshot.Record) []Field { return fields }
}

func str(r snapshot.Record, key string) *string {
	if s, ok := r.String(key); ok {
		return ptr.String(s)
	}
	return nil
}

// flag reads a boolean-ish field: JSON booleans as-is, anything else by
// truthiness, null or absent as unknown.
func flag(r snapshot.Record, key string) *bool {
	if r.IsNull(key) {
		return nil
	}
	if b, ok := r.Bool(key); ok {
		return ptr.Bool(b)
	}
	return ptr.Bool(r.Truthy(key))
}
