package derivation

import (
	"sort"
	"testing"
)

func TestAddFactDedup(t *testing.T) {
	g := NewGraph()
	id1 := g.AddFact("Input", "a")
	id2 := g.AddFact("Input", "a")
	if id1 != id2 {
		t.Fatalf("expected same id, got %q and %q", id1, id2)
	}
	if g.FactCount() != 1 {
		t.Fatalf("expected 1 fact, got %d", g.FactCount())
	}
}

func TestAddRuleApplicationNewAndDuplicate(t *testing.T) {
	g := NewGraph()
	a := g.AddFact("Input", "a")
	taint := g.AddFact("Taint", "a")

	if !g.AddRuleApplication("R1", []string{a}, taint) {
		t.Fatal("expected first application to be new")
	}
	if g.AddRuleApplication("R1", []string{a}, taint) {
		t.Fatal("expected duplicate application to be rejected")
	}
	if g.RulesApplied() != 1 {
		t.Fatalf("expected rulesApplied=1, got %d", g.RulesApplied())
	}
}

func TestAddRuleApplicationPremiseOrderInsensitive(t *testing.T) {
	g := NewGraph()
	a := g.AddFact("Taint", "a")
	b := g.AddFact("Flow", "a", "b")
	c := g.AddFact("Taint", "b")

	if !g.AddRuleApplication("R2", []string{a, b}, c) {
		t.Fatal("expected first application to be new")
	}
	if g.AddRuleApplication("R2", []string{b, a}, c) {
		t.Fatal("expected reordered premise set to collide with the same id")
	}
}

func TestAddRuleApplicationEmptyPremises(t *testing.T) {
	g := NewGraph()
	concl := g.AddFact("Taint", "x")
	if !g.AddRuleApplication("R0", nil, concl) {
		t.Fatal("an unconditional derivation (no premises) must be accepted")
	}
}

func TestAddRuleApplicationWiresEdges(t *testing.T) {
	g := NewGraph()
	a := g.AddFact("Input", "a")
	taint := g.AddFact("Taint", "a")
	g.AddRuleApplication("R1", []string{a}, taint)

	ruleID := BuildRuleID("R1", []string{a}, taint)
	out := g.Out(a)
	if len(out) != 1 || out[0] != ruleID {
		t.Fatalf("expected %q to point to rule node, got %v", a, out)
	}
	out = g.Out(ruleID)
	if len(out) != 1 || out[0] != taint {
		t.Fatalf("expected rule node to point to %q, got %v", taint, out)
	}
	in := g.In(taint)
	if len(in) != 1 || in[0] != ruleID {
		t.Fatalf("expected %q to be pointed to by rule node, got %v", taint, in)
	}
}

func TestAlarms(t *testing.T) {
	g := NewGraph()
	g.AddFact("Alarm", "10")
	g.AddFact("Alarm", "5")
	g.AddFact("Taint", "x")

	alarms := g.Alarms()
	sort.Strings(alarms)
	want := []string{"Alarm(10)", "Alarm(5)"}
	sort.Strings(want)
	if len(alarms) != 2 || alarms[0] != want[0] || alarms[1] != want[1] {
		t.Fatalf("got %v, want %v", alarms, want)
	}
}

func TestDerivationPath(t *testing.T) {
	g := NewGraph()
	a := g.AddFact("Input", "a")
	taintA := g.AddFact("Taint", "a")
	g.AddRuleApplication("R1", []string{a}, taintA)
	flow := g.AddFact("Flow", "a", "b")
	taintB := g.AddFact("Taint", "b")
	g.AddRuleApplication("R2", []string{taintA, flow}, taintB)
	mem := g.AddFact("Memory", "b", "9")
	alarm := g.AddFact("Alarm", "9")
	g.AddRuleApplication("R3", []string{taintB, mem}, alarm)

	path := g.DerivationPath(alarm)
	if path[len(path)-1] != alarm {
		t.Fatalf("expected alarm to be last, got %v", path)
	}
	must := []string{a, taintA, flow, taintB, mem, alarm}
	for _, id := range must {
		found := false
		for _, p := range path {
			if p == id {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %q in derivation path, got %v", id, path)
		}
	}
}

func TestDerivationPathUnknownAlarm(t *testing.T) {
	g := NewGraph()
	if path := g.DerivationPath("Alarm(99)"); path != nil {
		t.Fatalf("expected nil path for unknown alarm, got %v", path)
	}
}

func TestConclusionSharedByMultipleRules(t *testing.T) {
	// A conclusion fact that already exists is not re-added, but the rule
	// application is still recorded as an additional OR input.
	g := NewGraph()
	ia := g.AddFact("Input", "a")
	ib := g.AddFact("Input", "b")
	taintC := g.AddFact("Taint", "c")

	g.AddRuleApplication("RA", []string{ia}, taintC)
	g.AddRuleApplication("RB", []string{ib}, taintC)

	if g.FactCount() != 3 {
		t.Fatalf("expected 3 facts (a, b, c), got %d", g.FactCount())
	}
	in := g.In(taintC)
	if len(in) != 2 {
		t.Fatalf("expected taintC to have 2 incoming rule applications, got %d", len(in))
	}
}
