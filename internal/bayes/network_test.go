package bayes

import (
	"testing"

	"github.com/bayzzer/bayzzer/internal/derivation"
)

func buildChainGraph() *derivation.Graph {
	g := derivation.NewGraph()
	derivation.BuildEDB(g, derivation.EDBInput{
		InputSources: []string{"a"},
		DataFlows:    []derivation.DataFlow{{Src: "a", Dst: "b"}},
		MemoryOps:    []derivation.MemoryOp{{Var: "b", Line: "9"}},
	})
	derivation.Evaluate(g)
	return g
}

func buildORMergeGraph() *derivation.Graph {
	g := derivation.NewGraph()
	derivation.BuildEDB(g, derivation.EDBInput{
		InputSources: []string{"a", "b"},
	})
	derivation.Evaluate(g)
	taintA := "Taint(a)"
	taintB := "Taint(b)"
	taintC := g.AddFact("Taint", "c")
	g.AddRuleApplication("RA", []string{taintA}, taintC)
	g.AddRuleApplication("RB", []string{taintB}, taintC)
	return g
}

func TestSynthesizeCPDsNoCyclesOnAcyclicGraph(t *testing.T) {
	g := buildChainGraph()
	net := SynthesizeCPDs(g, DefaultParams())
	if net.RemovedEdges != 0 {
		t.Fatalf("acyclic graph should need no edge removal, got %d", net.RemovedEdges)
	}
}

func TestSynthesizeCPDsEveryNodeHasCPD(t *testing.T) {
	g := buildChainGraph()
	net := SynthesizeCPDs(g, DefaultParams())
	for _, n := range net.Nodes() {
		if net.CPD(n) == nil {
			t.Errorf("node %q has no CPD", n)
		}
	}
}

func TestSynthesizeCPDsRootNodesGetPrior(t *testing.T) {
	g := buildChainGraph()
	net := SynthesizeCPDs(g, Params{PriorProb: 0.7, RuleProb: 0.9})
	root := "Input(a)"
	cpd := net.CPD(root)
	if cpd == nil {
		t.Fatalf("expected a CPD for %q", root)
	}
	if cpd.Kind != KindRoot {
		t.Fatalf("expected %q to be a root node, got kind %v", root, cpd.Kind)
	}
	if !almostEqual(cpd.Table[1][0], 0.7, 1e-9) {
		t.Errorf("P(%s=1) = %v, want 0.7", root, cpd.Table[1][0])
	}
}

func TestBreakCyclesRemovesEnoughToReachAcyclic(t *testing.T) {
	// A -> B -> C -> A, a pure 3-cycle with no exits.
	nodes := []string{"A", "B", "C"}
	edges := map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"A"},
	}
	removed := breakCycles(nodes, edges)
	if removed == 0 {
		t.Fatal("expected at least one edge removed")
	}
	if cycles := detectCycles(nodes, edges); len(cycles) != 0 {
		t.Fatalf("graph should be acyclic after breakCycles, found %v", cycles)
	}
}

func TestBreakCyclesOnOverlappingCycles(t *testing.T) {
	// Two cycles sharing node B: A->B->A and B->C->B.
	nodes := []string{"A", "B", "C"}
	edges := map[string][]string{
		"A": {"B"},
		"B": {"A", "C"},
		"C": {"B"},
	}
	breakCycles(nodes, edges)
	if cycles := detectCycles(nodes, edges); len(cycles) != 0 {
		t.Fatalf("expected fully acyclic result after repeated detection, found %v", cycles)
	}
}

func TestBreakCyclesDeterministic(t *testing.T) {
	nodes := []string{"A", "B", "C"}
	edges1 := map[string][]string{"A": {"B"}, "B": {"C"}, "C": {"A"}}
	edges2 := map[string][]string{"A": {"B"}, "B": {"C"}, "C": {"A"}}
	r1 := breakCycles(nodes, edges1)
	r2 := breakCycles(nodes, edges2)
	if r1 != r2 {
		t.Fatalf("breakCycles should remove the same number of edges across runs: %d vs %d", r1, r2)
	}
	for n := range edges1 {
		if len(edges1[n]) != len(edges2[n]) {
			t.Fatalf("non-deterministic result for node %q: %v vs %v", n, edges1[n], edges2[n])
		}
	}
}

func TestSynthesizeCPDsORMergeHasTwoParents(t *testing.T) {
	g := buildORMergeGraph()
	net := SynthesizeCPDs(g, DefaultParams())
	taintC := "Taint(c)"
	if len(net.Parents(taintC)) != 2 {
		t.Fatalf("expected Taint(c) to have 2 rule-node parents, got %v", net.Parents(taintC))
	}
	if net.CPD(taintC).Kind != KindDeterministicOr {
		t.Fatalf("expected Taint(c) to carry a deterministic-OR CPD")
	}
}
