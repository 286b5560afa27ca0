package bayes

import (
	"sort"
	"strings"

	"github.com/bayzzer/bayzzer/internal/logging"
)

// Evidence maps a node id to an observed value (0 or 1). It is mutated
// only by the scheduler, via Set/Clear/ResetNegative; reconstruction
// clears its negative (0) entries and keeps the positive ones.
type Evidence map[string]int

// Set records an observation for node.
func (e Evidence) Set(node string, v bool) {
	if v {
		e[node] = 1
	} else {
		e[node] = 0
	}
}

// Clear removes any observation for node.
func (e Evidence) Clear(node string) {
	delete(e, node)
}

// ClearAll removes every observation.
func (e Evidence) ClearAll() {
	for k := range e {
		delete(e, k)
	}
}

// ResetNegative clears every node whose evidence value is 0, re-admitting
// targets a previous round rejected as unreachable. Applying it twice in
// a row is equal to applying it once, since the second call has nothing
// left to clear.
func (e Evidence) ResetNegative() {
	for node, v := range e {
		if v == 0 {
			delete(e, node)
		}
	}
}

// AlarmProb is one entry of a ranked alarm list.
type AlarmProb struct {
	ID string
	P  float64
}

// Inference performs variable-elimination marginal queries over a
// Network.
type Inference struct {
	net *Network
}

// NewInference returns an inference engine bound to net.
func NewInference(net *Network) *Inference {
	return &Inference{net: net}
}

// ComputeAlarmProbabilities returns P(alarm=1 | evidence) for every id in
// alarms. An alarm already pinned in evidence is returned verbatim
// without querying. An alarm whose query fails (disconnected by cycle
// removal, or inconsistent evidence) is reported as 0.0; a single
// alarm's failure never aborts the batch.
func (inf *Inference) ComputeAlarmProbabilities(alarms []string, evidence Evidence) map[string]float64 {
	results := make(map[string]float64, len(alarms))
	for _, a := range alarms {
		if v, pinned := evidence[a]; pinned {
			results[a] = float64(v)
			continue
		}
		p, ok := inf.marginal(a, evidence)
		if !ok {
			logging.Warnf("inference failed for %s (disconnected or inconsistent evidence); using 0.0", a)
			p = 0.0
		}
		results[a] = p
	}
	return results
}

// RankAlarms returns (alarm_id, probability) pairs sorted by probability
// descending, ties broken by alarm id lexicographically.
func (inf *Inference) RankAlarms(alarms []string, evidence Evidence) []AlarmProb {
	probs := inf.ComputeAlarmProbabilities(alarms, evidence)
	ranked := make([]AlarmProb, 0, len(probs))
	for id, p := range probs {
		ranked = append(ranked, AlarmProb{ID: id, P: p})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].P != ranked[j].P {
			return ranked[i].P > ranked[j].P
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

// marginal computes P(query=1 | evidence) by variable elimination over
// the ancestral closure of {query} ∪ evidence's keys: nodes outside that
// closure cannot influence the query's posterior (their CPDs integrate
// to 1 once marginalized), so restricting to it keeps elimination small
// without changing the result.
func (inf *Inference) marginal(query string, evidence Evidence) (float64, bool) {
	start := make([]string, 0, len(evidence)+1)
	start = append(start, query)
	for node := range evidence {
		start = append(start, node)
	}
	ancestral := ancestralClosure(inf.net, start)

	factors := make([]factor, 0, len(ancestral))
	for _, n := range ancestral {
		cpd := inf.net.CPD(n)
		if cpd == nil {
			return 0, false
		}
		factors = append(factors, newFactorFromCPD(n, cpd))
	}

	for node, val := range evidence {
		if !containsStr(ancestral, node) {
			continue
		}
		for i, f := range factors {
			if f.hasVar(node) {
				factors[i] = f.restrict(node, val)
			}
		}
	}

	elimVars := make([]string, 0, len(ancestral))
	for _, n := range ancestral {
		if n == query {
			continue
		}
		if _, isEvidence := evidence[n]; isEvidence {
			continue
		}
		elimVars = append(elimVars, n)
	}
	sort.Strings(elimVars)

	for _, v := range elimVars {
		var containing, rest []factor
		for _, f := range factors {
			if f.hasVar(v) {
				containing = append(containing, f)
			} else {
				rest = append(rest, f)
			}
		}
		if len(containing) == 0 {
			continue
		}
		merged := containing[0]
		for _, f := range containing[1:] {
			merged = merged.multiply(f)
		}
		factors = append(rest, merged.sumOut(v))
	}

	if len(factors) == 0 {
		return 0, false
	}
	final := factors[0]
	for _, f := range factors[1:] {
		final = final.multiply(f)
	}

	if len(final.vars) != 1 || final.vars[0] != query {
		return 0, false
	}

	p1 := final.at(map[string]int{query: 1})
	p0 := final.at(map[string]int{query: 0})
	total := p0 + p1
	if total <= 0 {
		return 0, false
	}
	return p1 / total, true
}

// ancestralClosure returns every node reachable from start by repeatedly
// following the parent relation, including start itself, sorted for
// determinism.
func ancestralClosure(net *Network, start []string) []string {
	seen := make(map[string]bool, len(start))
	queue := append([]string(nil), start...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		queue = append(queue, net.Parents(n)...)
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// factor is a table-based representation of a function over a set of
// binary variables, used by variable elimination.
type factor struct {
	vars  []string // sorted, unique
	table map[string]float64
}

func assignmentKey(vars []string, assignment map[string]int) string {
	var b strings.Builder
	for _, v := range vars {
		if assignment[v] == 1 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// allAssignments enumerates every 0/1 assignment to vars.
func allAssignments(vars []string) []map[string]int {
	n := len(vars)
	total := 1 << n
	out := make([]map[string]int, 0, total)
	for mask := 0; mask < total; mask++ {
		asg := make(map[string]int, n)
		for i, v := range vars {
			asg[v] = (mask >> (n - 1 - i)) & 1
		}
		out = append(out, asg)
	}
	return out
}

func newFactorFromCPD(node string, cpd *CPD) factor {
	vars := append([]string(nil), cpd.Parents...)
	vars = append(vars, node)
	sort.Strings(vars)

	table := make(map[string]float64, 1<<len(vars))
	for _, asg := range allAssignments(vars) {
		parentAsg := make(map[string]int, len(cpd.Parents))
		for _, p := range cpd.Parents {
			parentAsg[p] = asg[p]
		}
		p1 := cpd.P1(parentAsg)
		v := p1
		if asg[node] == 0 {
			v = 1 - p1
		}
		table[assignmentKey(vars, asg)] = v
	}
	return factor{vars: vars, table: table}
}

func (f factor) hasVar(v string) bool {
	return containsStr(f.vars, v)
}

func (f factor) at(partial map[string]int) float64 {
	return f.table[assignmentKey(f.vars, partial)]
}

func (f factor) restrict(varName string, val int) factor {
	if !f.hasVar(varName) {
		return f
	}
	newVars := make([]string, 0, len(f.vars)-1)
	for _, v := range f.vars {
		if v != varName {
			newVars = append(newVars, v)
		}
	}
	newTable := make(map[string]float64, len(newVars))
	for _, asg := range allAssignments(f.vars) {
		if asg[varName] != val {
			continue
		}
		newTable[assignmentKey(newVars, asg)] = f.table[assignmentKey(f.vars, asg)]
	}
	return factor{vars: newVars, table: newTable}
}

func sortedUnion(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (f factor) multiply(g factor) factor {
	newVars := sortedUnion(f.vars, g.vars)
	newTable := make(map[string]float64, 1<<len(newVars))
	for _, asg := range allAssignments(newVars) {
		newTable[assignmentKey(newVars, asg)] = f.at(asg) * g.at(asg)
	}
	return factor{vars: newVars, table: newTable}
}

func (f factor) sumOut(varName string) factor {
	newVars := make([]string, 0, len(f.vars)-1)
	for _, v := range f.vars {
		if v != varName {
			newVars = append(newVars, v)
		}
	}
	newTable := make(map[string]float64, 1<<len(newVars))
	for _, asg := range allAssignments(newVars) {
		sum := 0.0
		for _, val := range [2]int{0, 1} {
			full := make(map[string]int, len(asg)+1)
			for k, v := range asg {
				full[k] = v
			}
			full[varName] = val
			sum += f.at(full)
		}
		newTable[assignmentKey(newVars, asg)] = sum
	}
	return factor{vars: newVars, table: newTable}
}
