// Package fact implements the interned fact store described in the
// core's data model: predicate applications P(a1, ..., an) identified by
// their canonical string form, deduplicated on insertion.
package fact

import "strings"

// Known predicate names. The evaluator in internal/derivation only ever
// produces facts tagged with these.
const (
	Input  = "Input"
	Flow   = "Flow"
	Memory = "Memory"
	Taint  = "Taint"
	Alarm  = "Alarm"
)

// Fact is a single predicate application, e.g. Flow(a, b).
type Fact struct {
	ID        string
	Predicate string
	Args      []string
}

// CanonicalID renders predicate(args...) in the fixed form used as a
// fact's identity: "P(a1, a2)". A zero-arg predicate renders as "P()".
func CanonicalID(predicate string, args ...string) string {
	var b strings.Builder
	b.WriteString(predicate)
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a)
	}
	b.WriteByte(')')
	return b.String()
}

// Store is an interned collection of facts, deduplicated by canonical ID.
type Store struct {
	facts map[string]Fact
}

// NewStore returns an empty fact store.
func NewStore() *Store {
	return &Store{facts: make(map[string]Fact)}
}

// Add inserts the fact P(args...) if it is not already present, returning
// its canonical ID either way. Insertion of an equal fact is a no-op.
func (s *Store) Add(predicate string, args ...string) string {
	id := CanonicalID(predicate, args...)
	if _, ok := s.facts[id]; ok {
		return id
	}
	// Copy args so the caller's backing array can't mutate stored state.
	stored := make([]string, len(args))
	copy(stored, args)
	s.facts[id] = Fact{ID: id, Predicate: predicate, Args: stored}
	return id
}

// Has reports whether a fact with this canonical ID has been added.
func (s *Store) Has(id string) bool {
	_, ok := s.facts[id]
	return ok
}

// Get returns the fact for id and whether it was found.
func (s *Store) Get(id string) (Fact, bool) {
	f, ok := s.facts[id]
	return f, ok
}

// Len returns the number of distinct facts in the store.
func (s *Store) Len() int {
	return len(s.facts)
}

// ByPredicate returns the canonical IDs of every fact with the given
// predicate, in insertion-independent (map-iteration) order. Callers
// that need deterministic ordering should sort the result.
func (s *Store) ByPredicate(predicate string) []string {
	var ids []string
	for id, f := range s.facts {
		if f.Predicate == predicate {
			ids = append(ids, id)
		}
	}
	return ids
}

// All returns every fact currently in the store.
func (s *Store) All() []Fact {
	out := make([]Fact, 0, len(s.facts))
	for _, f := range s.facts {
		out = append(out, f)
	}
	return out
}
