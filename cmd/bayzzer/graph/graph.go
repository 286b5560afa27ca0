// Package graph implements the `bayzzer graph` subcommand: run the
// static pipeline and export the derivation graph's node/edge structure,
// mirroring cmd/gorisk/graph's --json flag convention.
package graph

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/bayzzer/bayzzer/internal/cfront"
	"github.com/bayzzer/bayzzer/internal/derivation"
)

type node struct {
	ID   string `json:"id"`
	Kind string `json:"kind"` // "fact" | "rule"
}

type edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type exported struct {
	Nodes []node `json:"nodes"`
	Edges []edge `json:"edges"`
}

func Run(args []string) int {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "JSON output")
	alarm := fs.String("alarm", "", "print only the derivation path of this alarm id")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: bayzzer graph [--json] [--alarm Alarm(N)] <source.c>")
		return 2
	}

	in, err := cfront.Scan(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "graph:", err)
		return 1
	}

	g := derivation.NewGraph()
	derivation.BuildEDB(g, in)
	derivation.Evaluate(g)

	var ids []string
	if *alarm != "" {
		ids = g.DerivationPath(*alarm)
		if len(ids) == 0 {
			fmt.Fprintf(os.Stderr, "graph: alarm %q not found\n", *alarm)
			return 1
		}
	} else {
		ids = g.Nodes()
		sort.Strings(ids)
	}

	out := exported{}
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	for _, id := range ids {
		kind, ok := g.Kind(id)
		if !ok {
			continue
		}
		k := "fact"
		if kind == derivation.KindRule {
			k = "rule"
		}
		out.Nodes = append(out.Nodes, node{ID: id, Kind: k})
		for _, to := range g.Out(id) {
			if idSet[to] {
				out.Edges = append(out.Edges, edge{From: id, To: to})
			}
		}
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(os.Stderr, "encode:", err)
			return 1
		}
		return 0
	}

	for _, n := range out.Nodes {
		fmt.Printf("[%s] %s\n", n.Kind, n.ID)
	}
	for _, e := range out.Edges {
		fmt.Printf("  %s -> %s\n", e.From, e.To)
	}
	return 0
}
