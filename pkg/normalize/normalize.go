// Package normalize canonicalizes hostnames and display names so that records
// from unrelated passkey directories can be tested for equivalence.
//
// Domain rules are delegated to the public suffix list; name rules are a
// small set of string heuristics. A Normalizer adds the organisation alias
// table on top of both.
package normalize

// Identity is the part of a merged entity that name matching looks at.
type Identity interface {
	// PrimaryName returns the current display name, or nil when unknown.
	PrimaryName() *string
	// AlternateNames returns the other names seen for the entity, oldest first.
	AlternateNames() []string
}

// AlternateRecorder is an Identity whose alternate names can be extended.
type AlternateRecorder interface {
	Identity
	AppendAlternateName(name string)
}

// Normalizer tests domains and names for equivalence.
type Normalizer struct {
	aliases *AliasTable
}

// New returns a Normalizer backed by the given alias table. A nil table
// behaves like an empty one.
func New(aliases *AliasTable) *Normalizer {
	if aliases == nil {
		aliases = EmptyAliases()
	}
	return &Normalizer{aliases: aliases}
}

// Aliases returns the alias table in use.
func (n *Normalizer) Aliases() *AliasTable {
	return n.aliases
}

// DomainsEquivalent reports whether two hostnames or URLs belong to the same
// site: same registered domain, same apex label under different suffixes
// (example.com and example.de), or aliases of one organisation.
func (n *Normalizer) DomainsEquivalent(a, b string) bool {
	ea, eb := RegisteredDomain(a), RegisteredDomain(b)
	if ea == "" || eb == "" {
		return false
	}
	if ea == eb {
		return true
	}
	if la, lb := ApexLabel(a), ApexLabel(b); la != "" && la == lb {
		return true
	}
	ida, okA := n.aliases.Lookup(ea)
	idb, okB := n.aliases.Lookup(eb)
	return okA && okB && ida == idb
}

// NamesEquivalent reports whether two display names denote the same site.
func (n *Normalizer) NamesEquivalent(a, b string) bool {
	return NamesEquivalent(a, b)
}

// NameMatchesEntity reports whether candidate is equivalent to the entity's
// name or to any of its alternates.
func (n *Normalizer) NameMatchesEntity(e Identity, candidate string) bool {
	if name := e.PrimaryName(); name != nil && NamesEquivalent(*name, candidate) {
		return true
	}
	for _, alt := range e.AlternateNames() {
		if NamesEquivalent(alt, candidate) {
			return true
		}
	}
	return false
}

// RecordAlternateName appends candidate to the entity's alternates when the
// entity has a name, candidate is not equivalent to it and is not already
// listed. Entities without a name never collect alternates.
func (n *Normalizer) RecordAlternateName(e AlternateRecorder, candidate string) {
	name := e.PrimaryName()
	if name == nil || NamesEquivalent(*name, candidate) {
		return
	}
	for _, alt := range e.AlternateNames() {
		if alt == candidate {
			return
		}
	}
	e.AppendAlternateName(candidate)
}
