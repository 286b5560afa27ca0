package main

import (
	"fmt"
	"os"

	"github.com/bayzzer/bayzzer/cmd/bayzzer/analyze"
	"github.com/bayzzer/bayzzer/cmd/bayzzer/campaign"
	"github.com/bayzzer/bayzzer/cmd/bayzzer/graph"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "campaign":
		os.Exit(campaign.Run(os.Args[2:]))
	case "analyze":
		os.Exit(analyze.Run(os.Args[2:]))
	case "graph":
		os.Exit(graph.Run(os.Args[2:]))
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `bayzzer — Bayesian-guided directed fuzzer for C programs

Usage:
  bayzzer campaign --target <path> [--time 60] [--alpha 0.25] [--output results.json] [--config file.yaml] [--parallel]
  bayzzer analyze  [--json] <path>
  bayzzer graph    [--json] <path>
  bayzzer version`)
}
