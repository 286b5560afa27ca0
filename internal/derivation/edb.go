package derivation

import "github.com/bayzzer/bayzzer/internal/fact"

// MemoryOp names a variable used in a sensitive memory operation at a
// given source line: an array subscript index, a pointer dereference, or
// an argument passed to a memory-sink function.
type MemoryOp struct {
	Var  string
	Line string
}

// DataFlow names an assignment or call-argument binding from Src to Dst.
type DataFlow struct {
	Src string
	Dst string
}

// EDBInput is the flat record stream the core consumes from the C
// front-end collaborator: enough to build Input/Flow/Memory facts
// without the core reimplementing any C-specific AST walk.
type EDBInput struct {
	InputSources []string
	DataFlows    []DataFlow
	MemoryOps    []MemoryOp
}

// BuildEDB adds one Input/Flow/Memory fact per entry in in, per the EDB
// construction rules: Input(v) for every known input variable, Flow(v1,
// v2) for every assignment or argument-to-parameter binding, and
// Memory(v, s) for every subscript index, dereferenced pointer, or
// memory-sink argument.
func BuildEDB(g *Graph, in EDBInput) {
	for _, v := range in.InputSources {
		g.AddFact(fact.Input, v)
	}
	for _, f := range in.DataFlows {
		g.AddFact(fact.Flow, f.Src, f.Dst)
	}
	for _, m := range in.MemoryOps {
		g.AddFact(fact.Memory, m.Var, m.Line)
	}
}
