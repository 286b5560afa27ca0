package derivation

import "github.com/bayzzer/bayzzer/internal/fact"

// Evaluate runs the semi-naive Datalog fixpoint over the three taint
// rules until a full pass adds no new fact and no new rule application:
//
//	R1  Taint(v)  :- Input(v)
//	R2  Taint(v2) :- Taint(v1), Flow(v1, v2)
//	R3  Alarm(s)  :- Taint(v), Memory(v, s)
//
// Each pass snapshots facts grouped by predicate before deriving, so
// within-pass derivations never feed each other — only across passes.
// Termination is guaranteed because the Herbrand universe is bounded by
// the finite set of variables and line numbers the front-end extracted;
// dedup in Graph.AddFact/AddRuleApplication ensures monotone growth.
// Evaluation order does not affect the final fact set.
func Evaluate(g *Graph) {
	for {
		changed := false

		inputs := snapshot(g, fact.Input)
		taints := snapshot(g, fact.Taint)
		flows := snapshot(g, fact.Flow)
		mems := snapshot(g, fact.Memory)

		// R1: Taint(v) :- Input(v)
		for _, inp := range inputs {
			f, ok := g.Fact(inp)
			if !ok || len(f.Args) < 1 {
				continue
			}
			v := f.Args[0]
			concl := g.AddFact(fact.Taint, v)
			if g.AddRuleApplication("R1", []string{inp}, concl) {
				changed = true
			}
		}

		// R2: Taint(v2) :- Taint(v1), Flow(v1, v2)
		for _, t := range taints {
			tf, ok := g.Fact(t)
			if !ok || len(tf.Args) < 1 {
				continue
			}
			v1 := tf.Args[0]
			for _, fl := range flows {
				ff, ok := g.Fact(fl)
				if !ok || len(ff.Args) < 2 {
					continue
				}
				if ff.Args[0] != v1 {
					continue
				}
				concl := g.AddFact(fact.Taint, ff.Args[1])
				if g.AddRuleApplication("R2", []string{t, fl}, concl) {
					changed = true
				}
			}
		}

		// R3: Alarm(s) :- Taint(v), Memory(v, s)
		for _, t := range taints {
			tf, ok := g.Fact(t)
			if !ok || len(tf.Args) < 1 {
				continue
			}
			v := tf.Args[0]
			for _, m := range mems {
				mf, ok := g.Fact(m)
				if !ok || len(mf.Args) < 2 {
					continue
				}
				if mf.Args[0] != v {
					continue
				}
				concl := g.AddFact(fact.Alarm, mf.Args[1])
				if g.AddRuleApplication("R3", []string{t, m}, concl) {
					changed = true
				}
			}
		}

		if !changed {
			return
		}
	}
}

// snapshot returns the canonical ids of every fact with the given
// predicate at the moment it is called, used to isolate one evaluator
// pass from facts derived during that same pass.
func snapshot(g *Graph, predicate string) []string {
	return g.facts.ByPredicate(predicate)
}
