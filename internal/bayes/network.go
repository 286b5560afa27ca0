package bayes

import (
	"sort"

	"github.com/bayzzer/bayzzer/internal/derivation"
	"github.com/bayzzer/bayzzer/internal/logging"
)

// Network is a discrete Bayesian network over the same node identities
// as a derivation.Graph, obtained by removing a feedback arc set. It
// owns its own edge set and CPDs; it borrows node identities from the
// graph that built it.
type Network struct {
	nodes   []string
	parents map[string][]string
	cpd     map[string]*CPD
	kind    map[string]derivation.NodeKind

	// RemovedEdges counts the back edges cut while breaking cycles;
	// SynthesizeCPDs also logs a non-fatal warning when it is nonzero.
	RemovedEdges int
}

// Parents returns n's parents in the network, in the fixed declared
// order matching its CPD's evidence list.
func (net *Network) Parents(n string) []string {
	return net.parents[n]
}

// CPD returns n's conditional probability distribution.
func (net *Network) CPD(n string) *CPD {
	return net.cpd[n]
}

// Nodes returns every node id in the network.
func (net *Network) Nodes() []string {
	return net.nodes
}

// SynthesizeCPDs builds a Bayesian network from the derivation graph's
// topology: breaks cycles deterministically (step 1), then emits a prior,
// noisy-AND, or deterministic-OR CPD for every node depending on whether
// it is a root, a RuleApplication, or a derived Fact (step 2).
func SynthesizeCPDs(g *derivation.Graph, params Params) *Network {
	allNodes := g.Nodes()
	sort.Strings(allNodes)

	edges := make(map[string][]string, len(allNodes))
	for _, n := range allNodes {
		out := append([]string(nil), g.Out(n)...)
		sort.Strings(out)
		edges[n] = out
	}

	removed := breakCycles(allNodes, edges)
	if removed > 0 {
		logging.Warnf("cycle removal: cut %d back edge(s) to obtain an acyclic network", removed)
	}

	parents := make(map[string][]string)
	for n := range edges {
		for _, child := range edges[n] {
			parents[child] = append(parents[child], n)
		}
	}
	for n := range parents {
		sort.Strings(parents[n])
	}

	cpds := make(map[string]*CPD, len(allNodes))
	kindOf := make(map[string]derivation.NodeKind, len(allNodes))
	for _, n := range allNodes {
		k, _ := g.Kind(n)
		kindOf[n] = k

		ps := parents[n]
		switch {
		case len(ps) == 0:
			cpds[n] = buildRootCPD(params.PriorProb)
		case k == derivation.KindRule:
			cpds[n] = buildNoisyAndCPD(ps, params.RuleProb)
		default:
			cpds[n] = buildDeterministicOrCPD(ps)
		}
	}

	return &Network{
		nodes:        allNodes,
		parents:      parents,
		cpd:          cpds,
		kind:         kindOf,
		RemovedEdges: removed,
	}
}

// dfsColor is the three-color marking used by breakCycles, matching the
// White/Gray/Black convention used throughout the pack's graph packages.
type dfsColor int

const (
	white dfsColor = iota
	gray
	black
)

// breakCycles repeatedly detects back edges via a deterministic DFS and
// removes the edge from the final node of each discovered cycle back to
// its first node, re-running detection until the graph is acyclic. It
// mutates edges in place and returns the number of edges removed.
//
// A single DFS pass over a graph with multiple edge-disjoint cycles may
// not find every cycle in one go (a removed back edge can still leave
// other cycles through nodes visited earlier in the same pass); looping
// until a full pass finds none guarantees convergence, since each pass
// removes at least one edge whenever a cycle remains and the edge set is
// finite.
func breakCycles(nodes []string, edges map[string][]string) int {
	removed := 0
	for {
		cyclesFound := detectCycles(nodes, edges)
		if len(cyclesFound) == 0 {
			return removed
		}
		for _, cycle := range cyclesFound {
			u, v := cycle[len(cycle)-1], cycle[0]
			if removeEdge(edges, u, v) {
				removed++
			}
		}
	}
}

// detectCycles runs one DFS over nodes (visited in sorted order for
// determinism) and returns every back-edge-induced cycle found, each as
// an open node list [v0, ..., vk] (not closing back to v0), sorted by
// canonical signature so repeated runs over the same graph pick the same
// edges to remove.
func detectCycles(nodes []string, edges map[string][]string) [][]string {
	color := make(map[string]dfsColor, len(nodes))
	var path []string
	var cycles [][]string
	seen := make(map[string]bool)

	var visit func(string)
	visit = func(n string) {
		color[n] = gray
		path = append(path, n)

		for _, m := range edges[n] {
			switch color[m] {
			case white:
				visit(m)
			case gray:
				idx := indexOf(path, m)
				cycle := append([]string(nil), path[idx:]...)
				sig := cycleSignature(cycle)
				if !seen[sig] {
					seen[sig] = true
					cycles = append(cycles, cycle)
				}
			case black:
				// fully explored elsewhere; not part of a new cycle
			}
		}

		path = path[:len(path)-1]
		color[n] = black
	}

	for _, n := range nodes {
		if color[n] == white {
			visit(n)
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycleSignature(cycles[i]) < cycleSignature(cycles[j])
	})
	return cycles
}

func indexOf(path []string, n string) int {
	for i, p := range path {
		if p == n {
			return i
		}
	}
	return -1
}

func cycleSignature(cycle []string) string {
	sorted := append([]string(nil), cycle...)
	sort.Strings(sorted)
	sig := ""
	for _, s := range sorted {
		sig += s + ","
	}
	return sig
}

func removeEdge(edges map[string][]string, from, to string) bool {
	list := edges[from]
	for i, n := range list {
		if n == to {
			edges[from] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}
