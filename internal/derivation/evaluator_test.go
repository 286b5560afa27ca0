package derivation

import "testing"

func TestEvaluateLinearChain(t *testing.T) {
	g := NewGraph()
	BuildEDB(g, EDBInput{
		InputSources: []string{"a"},
		DataFlows:    []DataFlow{{Src: "a", Dst: "b"}},
		MemoryOps:    []MemoryOp{{Var: "b", Line: "9"}},
	})
	Evaluate(g)

	alarms := g.Alarms()
	if len(alarms) != 1 || alarms[0] != "Alarm(9)" {
		t.Fatalf("expected [Alarm(9)], got %v", alarms)
	}
	if g.RulesApplied() != 3 {
		t.Fatalf("expected 3 rule firings (R1, R2, R3), got %d", g.RulesApplied())
	}
}

func TestEvaluateORMerge(t *testing.T) {
	// Input(a), Input(b); RA: Taint(c) :- Taint(a); RB: Taint(c) :- Taint(b)
	g := NewGraph()
	a := g.AddFact("Input", "a")
	b := g.AddFact("Input", "b")
	Evaluate(g) // derives Taint(a), Taint(b) via R1

	taintA := "Taint(a)"
	taintB := "Taint(b)"
	if !g.facts.Has(taintA) || !g.facts.Has(taintB) {
		t.Fatalf("expected Taint(a) and Taint(b) to be derived from %q, %q", a, b)
	}

	taintC := g.AddFact("Taint", "c")
	g.AddRuleApplication("RA", []string{taintA}, taintC)
	g.AddRuleApplication("RB", []string{taintB}, taintC)

	in := g.In(taintC)
	if len(in) != 2 {
		t.Fatalf("expected 2 incoming rule applications into Taint(c), got %d", len(in))
	}
}

func TestEvaluateMonotonicIdempotent(t *testing.T) {
	g := NewGraph()
	BuildEDB(g, EDBInput{
		InputSources: []string{"a"},
		DataFlows:    []DataFlow{{Src: "a", Dst: "b"}, {Src: "b", Dst: "c"}},
		MemoryOps:    []MemoryOp{{Var: "c", Line: "20"}},
	})
	Evaluate(g)
	firstFacts := g.FactCount()
	firstRules := g.RulesApplied()

	Evaluate(g)
	if g.FactCount() != firstFacts {
		t.Fatalf("re-running Evaluate should not add facts: %d -> %d", firstFacts, g.FactCount())
	}
	if g.RulesApplied() != firstRules {
		t.Fatalf("re-running Evaluate should not add rule applications: %d -> %d", firstRules, g.RulesApplied())
	}
}

func TestEvaluateCycle(t *testing.T) {
	// Fact(A) -R1-> Fact(B) -R2-> Fact(A): evaluation must terminate.
	g := NewGraph()
	a := g.AddFact("Taint", "A")
	b := g.AddFact("Taint", "B")
	g.AddRuleApplication("R1", []string{a}, b)
	g.AddRuleApplication("R2", []string{b}, a)

	done := make(chan struct{})
	go func() {
		Evaluate(g)
		close(done)
	}()
	select {
	case <-done:
	default:
	}
	// Evaluate over a graph with no Input/Flow/Memory facts is a no-op
	// fixpoint after pass one; the point of this test is that the cyclic
	// edges above (added directly, bypassing R1-R3) don't wedge Evaluate,
	// since Evaluate only ever derives via the three taint rules.
	<-done
}

func TestEvaluateNoAlarmsWhenUntainted(t *testing.T) {
	g := NewGraph()
	BuildEDB(g, EDBInput{
		MemoryOps: []MemoryOp{{Var: "x", Line: "1"}},
	})
	Evaluate(g)
	if len(g.Alarms()) != 0 {
		t.Fatalf("expected no alarms without any Input/Flow path to Memory, got %v", g.Alarms())
	}
}
