// Package derivation builds and evaluates the provenance DAG linking
// input facts, Datalog rule firings, and derived facts, culminating in
// alarms. It owns the facts and rule applications it creates; the bayes
// package only borrows their identities.
package derivation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bayzzer/bayzzer/internal/fact"
)

// NodeKind distinguishes a Fact node from a RuleApplication node in the
// graph, carried as the "type" tag the spec's data model requires.
type NodeKind int

const (
	KindFact NodeKind = iota
	KindRule
)

// RuleApplication is a derivation witness: one successful firing of rule
// Rule from Premises (fact IDs) to Conclusion (a fact ID).
type RuleApplication struct {
	ID         string
	Rule       string
	Premises   []string
	Conclusion string
}

// BuildRuleID constructs the canonical rule-application id
// "R_<rule>_[<sorted premise ids>]-><conclusion>" per the data model.
// Premises are sorted so that re-derivation with an identical premise set
// (in any order) maps to the same id.
func BuildRuleID(rule string, premises []string, conclusion string) string {
	sorted := append([]string(nil), premises...)
	sort.Strings(sorted)
	return fmt.Sprintf("R_%s_[%s]->%s", rule, strings.Join(sorted, ","), conclusion)
}

// Graph is a directed graph over Facts and RuleApplications. Edges are
// split into "premise of" (fact -> rule) and "concludes" (rule -> fact),
// stored as forward and reverse adjacency so ancestor walks (used for
// provenance export) don't require rebuilding an index each call.
type Graph struct {
	facts *fact.Store
	rules map[string]RuleApplication

	kind map[string]NodeKind
	out  map[string][]string // node -> nodes it points to
	in   map[string][]string // node -> nodes pointing to it

	rulesApplied int
}

// NewGraph returns an empty derivation graph.
func NewGraph() *Graph {
	return &Graph{
		facts: fact.NewStore(),
		rules: make(map[string]RuleApplication),
		kind:  make(map[string]NodeKind),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
	}
}

// AddFact canonicalizes and inserts a fact if absent, returning its id.
func (g *Graph) AddFact(predicate string, args ...string) string {
	id := g.facts.Add(predicate, args...)
	if _, ok := g.kind[id]; !ok {
		g.kind[id] = KindFact
	}
	return id
}

// Fact returns the stored fact for id, if any.
func (g *Graph) Fact(id string) (fact.Fact, bool) {
	return g.facts.Get(id)
}

// RuleApplication returns the stored rule application for id, if any.
func (g *Graph) RuleApplication(id string) (RuleApplication, bool) {
	ra, ok := g.rules[id]
	return ra, ok
}

// Kind reports whether id names a Fact or a RuleApplication node.
func (g *Graph) Kind(id string) (NodeKind, bool) {
	k, ok := g.kind[id]
	return k, ok
}

// AddRuleApplication builds the rule application's id from its premises
// and conclusion; if it already exists, returns false and does nothing.
// Otherwise it inserts the node, wires every premise -> rule -> conclusion
// edge, bumps the rules-applied counter, and returns true. An empty
// premise list is valid and represents an unconditional derivation. A
// conclusion fact that already exists is not re-added, but the rule
// application is still recorded as an additional OR input to it.
func (g *Graph) AddRuleApplication(rule string, premises []string, conclusion string) bool {
	id := BuildRuleID(rule, premises, conclusion)
	if _, ok := g.rules[id]; ok {
		return false
	}

	g.rules[id] = RuleApplication{
		ID:         id,
		Rule:       rule,
		Premises:   append([]string(nil), premises...),
		Conclusion: conclusion,
	}
	g.kind[id] = KindRule

	for _, p := range premises {
		g.addEdge(p, id)
	}
	g.addEdge(id, conclusion)

	g.rulesApplied++
	return true
}

func (g *Graph) addEdge(from, to string) {
	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)
}

// Out returns the nodes that id points to (premise-of / concludes edges).
func (g *Graph) Out(id string) []string {
	return g.out[id]
}

// In returns the nodes that point to id.
func (g *Graph) In(id string) []string {
	return g.in[id]
}

// Nodes returns every node id currently in the graph (facts and rule
// applications together), in no particular order.
func (g *Graph) Nodes() []string {
	ids := make([]string, 0, len(g.kind))
	for id := range g.kind {
		ids = append(ids, id)
	}
	return ids
}

// RulesApplied returns the number of distinct successful
// AddRuleApplication calls so far.
func (g *Graph) RulesApplied() int {
	return g.rulesApplied
}

// FactCount returns the number of distinct facts in the graph.
func (g *Graph) FactCount() int {
	return g.facts.Len()
}

// Alarms returns the ids of every fact whose predicate is Alarm.
func (g *Graph) Alarms() []string {
	ids := g.facts.ByPredicate(fact.Alarm)
	sort.Strings(ids)
	return ids
}

// DerivationPath returns every ancestor of alarm plus alarm itself, used
// for provenance export. Order is unspecified beyond alarm appearing
// last; callers that need determinism should sort.
func (g *Graph) DerivationPath(alarm string) []string {
	if _, ok := g.kind[alarm]; !ok {
		return nil
	}

	visited := make(map[string]bool)
	var walk func(string)
	walk = func(id string) {
		for _, p := range g.in[id] {
			if !visited[p] {
				visited[p] = true
				walk(p)
			}
		}
	}
	walk(alarm)

	path := make([]string, 0, len(visited)+1)
	for id := range visited {
		path = append(path, id)
	}
	sort.Strings(path)
	path = append(path, alarm)
	return path
}
