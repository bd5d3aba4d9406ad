// Package merger links records from every passkey source into one list of
// entities. Sources are applied in a fixed priority order; each record
// either attaches to the first equivalent entity or founds a new one, and
// every field disagreement is written to a conflict log.
package merger

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/passkeyradar/radar/internal/utils/ptr"
	"github.com/passkeyradar/radar/pkg/combiner"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/logging"
	"github.com/passkeyradar/radar/pkg/normalize"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

// Result is the output of one merge.
type Result struct {
	ID        snapshot.ID
	Entities  []*Entity
	Conflicts []Conflict

	// Skipped lists the sources whose batch was rejected.
	Skipped []string
}

// Merger merges combined artifacts. It holds no per-run state and may be
// used from several goroutines.
type Merger struct {
	norm    *normalize.Normalizer
	options *options
}

// New returns a Merger using norm for equivalence tests.
func New(norm *normalize.Normalizer, opts ...Option) (*Merger, error) {
	if norm == nil {
		return nil, errors.NewValidationError("normalizer", nil, "cannot be nil")
	}
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Merger{norm: norm, options: o}, nil
}

// Policy returns the conflict policy in use.
func (m *Merger) Policy() ConflictPolicy {
	return m.options.policy
}

// Adapters returns the source table in priority order.
func (m *Merger) Adapters() []Adapter {
	return append([]Adapter(nil), m.options.adapters...)
}

// Merge links every record of the artifact into entities. A source whose
// batch breaks a required-field precondition is skipped as a whole and the
// run continues with the next source; the returned error joins one
// *errors.MissingFieldError per skipped source. The result is always
// non-nil and deterministic for a given artifact.
func (m *Merger) Merge(ctx context.Context, artifact *combiner.Artifact) (*Result, error) {
	logger := m.options.logger
	if l := logging.FromContext(ctx); l != logging.Default() {
		logger = l
	}

	r := &run{m: m, logger: logger}
	res := &Result{}
	if artifact != nil {
		res.ID = artifact.ID
	}

	var errs []error
	for _, a := range m.options.adapters {
		if err := r.source(a, artifact.Records(a.Category, a.Subtype)); err != nil {
			logger.Warn().Err(err).Str("source", a.Name).Msg("Skipping source batch")
			errs = append(errs, err)
			res.Skipped = append(res.Skipped, a.Name)
		}
	}

	res.Entities = r.entities
	res.Conflicts = r.conflicts
	if res.Entities == nil {
		res.Entities = []*Entity{}
	}
	if res.Conflicts == nil {
		res.Conflicts = []Conflict{}
	}
	logger.Info().
		Str("snapshot", res.ID.String()).
		Int("entities", len(res.Entities)).
		Int("conflicts", len(res.Conflicts)).
		Int("skipped_sources", len(res.Skipped)).
		Msg("Merged combined artifact")
	return res, errors.Join(errs...)
}

// run is the mutable state of a single Merge call.
type run struct {
	m         *Merger
	logger    *zerolog.Logger
	entities  []*Entity
	conflicts []Conflict
}

func (r *run) source(a Adapter, records []snapshot.Record) error {
	accepted := make([]snapshot.Record, 0, len(records))
	for i, rec := range records {
		if a.Include != nil && !a.Include(rec) {
			continue
		}
		if field := a.precondition(rec); field != "" {
			return errors.NewMissingFieldError(a.Name, field, i)
		}
		accepted = append(accepted, rec)
	}

	created := 0
	for _, rec := range accepted {
		if r.record(a, rec) {
			created++
		}
	}
	r.logger.Debug().
		Str("source", a.Name).
		Int("records", len(records)).
		Int("accepted", len(accepted)).
		Int("created", created).
		Msg("Merged source")
	return nil
}

// record links one accepted record and reports whether it created an entity.
func (r *run) record(a Adapter, rec snapshot.Record) bool {
	f := a.Extract(rec)
	target := r.match(a.Match, f)
	if target == nil {
		r.create(a, rec, f)
		return true
	}

	target.addEvidence(a.Category, a.Subtype, rec)
	if f.Name != nil {
		r.m.norm.RecordAlternateName(target, *f.Name)
	}
	for _, field := range a.reconciled(rec) {
		r.reconcile(target, field, f)
	}
	return false
}

// match returns the first entity, in creation order, equivalent to f under key.
func (r *run) match(key MatchKey, f Fields) *Entity {
	if key == MatchDomain || key == MatchDomainOrName {
		if e := r.byDomain(f.Domain); e != nil {
			return e
		}
		if key == MatchDomain {
			return nil
		}
	}
	return r.byName(f.Name)
}

func (r *run) byDomain(domain *string) *Entity {
	if domain == nil {
		return nil
	}
	for _, e := range r.entities {
		if e.Domain != nil && r.m.norm.DomainsEquivalent(*e.Domain, *domain) {
			return e
		}
	}
	return nil
}

func (r *run) byName(name *string) *Entity {
	if name == nil {
		return nil
	}
	for _, e := range r.entities {
		if r.m.norm.NameMatchesEntity(e, *name) {
			return e
		}
	}
	return nil
}

func (r *run) create(a Adapter, rec snapshot.Record, f Fields) {
	e := newEntity()
	e.Name = ptr.Clone(f.Name)
	if f.Domain != nil {
		if d := normalize.RegisteredDomain(*f.Domain); d != "" {
			e.Domain = &d
		}
	}
	e.Signin = ptr.Clone(f.Signin)
	e.MFA = ptr.Clone(f.MFA)
	e.addEvidence(a.Category, a.Subtype, rec)
	r.entities = append(r.entities, e)
}

func (r *run) reconcile(e *Entity, field Field, f Fields) {
	switch field {
	case FieldName:
		if f.Name == nil {
			return
		}
		if e.Name == nil {
			e.Name = ptr.Clone(f.Name)
			e.removeAlt(*f.Name)
			return
		}
		if r.m.norm.NamesEquivalent(*e.Name, *f.Name) {
			return
		}
		if r.conflict(e, field) {
			previous := *e.Name
			e.Name = ptr.Clone(f.Name)
			e.removeAlt(*f.Name)
			if !e.hasAlt(previous) {
				e.AppendAlternateName(previous)
			}
		}

	case FieldDomain:
		if f.Domain == nil {
			return
		}
		registered := normalize.RegisteredDomain(*f.Domain)
		if registered == "" {
			// Nothing to adopt, but a set domain still disagrees. The
			// current value stays since only eTLD+1 values are stored.
			if e.Domain != nil {
				r.conflict(e, field)
			}
			return
		}
		if e.Domain == nil {
			e.Domain = &registered
			return
		}
		if r.m.norm.DomainsEquivalent(*e.Domain, *f.Domain) {
			return
		}
		if r.conflict(e, field) {
			e.Domain = &registered
		}

	case FieldSignin:
		r.reconcileFlag(e, field, &e.Signin, f.Signin)

	case FieldMFA:
		r.reconcileFlag(e, field, &e.MFA, f.MFA)
	}
}

func (r *run) reconcileFlag(e *Entity, field Field, cur **bool, next *bool) {
	if next == nil {
		return
	}
	if *cur == nil {
		*cur = ptr.Clone(next)
		return
	}
	if ptr.Equal(*cur, next) {
		return
	}
	if r.conflict(e, field) {
		*cur = ptr.Clone(next)
	}
}

// conflict logs a disagreement on field and reports whether the policy
// lets the new value replace the current one.
func (r *run) conflict(e *Entity, field Field) bool {
	c := Conflict{Reason: string(field) + " mismatch", Entity: e.Clone()}
	r.conflicts = append(r.conflicts, c)
	r.logger.Debug().
		Str("reason", c.Reason).
		Str("entity", e.DisplayName()).
		Msg("Field conflict")
	return r.m.options.policy == PolicyOverwrite
}
