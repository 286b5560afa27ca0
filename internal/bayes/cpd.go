// Package bayes translates a derivation.Graph into a discrete Bayesian
// network — noisy-AND rule nodes, deterministic-OR fact nodes, and prior
// root nodes — and performs variable-elimination inference over it to
// rank alarms and apply fuzzing feedback as evidence.
package bayes

// Params configures the two free parameters of the CPD synthesizer.
// They are injectable before SynthesizeCPDs and are treated as immutable
// per-network parameters, not process-wide state.
type Params struct {
	// PriorProb is θ_prior, P(n=1) for a root node. Default 0.9.
	PriorProb float64
	// RuleProb is θ_rule, P(rule=1 | all premises=1). Default 0.9.
	RuleProb float64
}

// DefaultParams returns the spec's default θ_prior = θ_rule = 0.9.
func DefaultParams() Params {
	return Params{PriorProb: 0.9, RuleProb: 0.9}
}

// CPDKind distinguishes the three shapes a node's conditional probability
// distribution can take.
type CPDKind int

const (
	KindRoot CPDKind = iota
	KindNoisyAnd
	KindDeterministicOr
)

// CPD is a node's conditional probability distribution: two rows (n=0,
// n=1) and 2^k columns, one per parent configuration, in the fixed order
// given by Parents. Table[1][c] + Table[0][c] == 1 for every column c.
type CPD struct {
	Kind    CPDKind
	Parents []string
	Table   [2][]float64
}

// configIndex maps a parent-value assignment (same order as Parents) to
// its column in Table. The first parent is the most significant bit, so
// the last parent toggles fastest across consecutive columns — matching
// the itertools.product(repeat=k) order the reference implementation's
// CPD tables were built in.
func configIndex(config []int) int {
	idx := 0
	for _, c := range config {
		idx = idx<<1 | c
	}
	return idx
}

// buildRootCPD returns the prior CPD for a parentless node.
func buildRootCPD(prior float64) *CPD {
	return &CPD{
		Kind:  KindRoot,
		Table: [2][]float64{{1 - prior}, {prior}},
	}
}

// buildNoisyAndCPD returns the CPD for a RuleApplication node: fires with
// probability ruleProb when every parent is 1, else never fires.
func buildNoisyAndCPD(parents []string, ruleProb float64) *CPD {
	return buildTableCPD(KindNoisyAnd, parents, func(config []int) float64 {
		for _, c := range config {
			if c != 1 {
				return 0.0
			}
		}
		return ruleProb
	})
}

// buildDeterministicOrCPD returns the CPD for a derived Fact node: true
// iff any parent is 1.
func buildDeterministicOrCPD(parents []string) *CPD {
	return buildTableCPD(KindDeterministicOr, parents, func(config []int) float64 {
		for _, c := range config {
			if c == 1 {
				return 1.0
			}
		}
		return 0.0
	})
}

func buildTableCPD(kind CPDKind, parents []string, p1 func(config []int) float64) *CPD {
	k := len(parents)
	cols := 1 << k
	row0 := make([]float64, cols)
	row1 := make([]float64, cols)

	config := make([]int, k)
	for col := 0; col < cols; col++ {
		for i := 0; i < k; i++ {
			// Bit i (from the left) of col, matching configIndex's
			// most-significant-first packing.
			shift := k - 1 - i
			config[i] = (col >> shift) & 1
		}
		p := p1(config)
		row1[col] = p
		row0[col] = 1 - p
	}

	return &CPD{Kind: kind, Parents: append([]string(nil), parents...), Table: [2][]float64{row0, row1}}
}

// P1 returns P(node=1 | parent assignment), where assignment gives a
// value for every entry in c.Parents, in order.
func (c *CPD) P1(assignment map[string]int) float64 {
	if len(c.Parents) == 0 {
		return c.Table[1][0]
	}
	config := make([]int, len(c.Parents))
	for i, p := range c.Parents {
		config[i] = assignment[p]
	}
	return c.Table[1][configIndex(config)]
}
