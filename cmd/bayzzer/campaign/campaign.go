// Package campaign implements the `bayzzer campaign` subcommand: the
// thin CLI wrapper over internal/campaign.Scheduler, in the flat
// orchestration shape of cmd/gorisk/scan/scan.go's Run.
package campaign

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bayzzer/bayzzer/internal/bayes"
	campaignpkg "github.com/bayzzer/bayzzer/internal/campaign"
	"github.com/bayzzer/bayzzer/internal/cfront"
	"github.com/bayzzer/bayzzer/internal/config"
	"github.com/bayzzer/bayzzer/internal/derivation"
	"github.com/bayzzer/bayzzer/internal/fuzzer"
	"github.com/bayzzer/bayzzer/internal/logging"
	"github.com/bayzzer/bayzzer/internal/report"
	"github.com/bayzzer/bayzzer/internal/toolchain"
)

func Run(args []string) int {
	fs := flag.NewFlagSet("campaign", flag.ExitOnError)
	target := fs.String("target", "", "C source file (required)")
	totalTime := fs.Float64("time", 60, "total campaign budget in seconds")
	alpha := fs.Float64("alpha", 0.25, "selection fraction (0, 1]")
	output := fs.String("output", "results.json", "output path for CampaignStats JSON")
	configPath := fs.String("config", "", "optional YAML config file")
	parallel := fs.Bool("parallel", false, "fuzz each round's targets concurrently")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	fs.Parse(args)

	if *verbose {
		logging.SetVerbose(true)
	}

	if *target == "" {
		fmt.Fprintln(os.Stderr, "campaign: --target is required")
		return 2
	}
	if *alpha <= 0 || *alpha > 1 {
		fmt.Fprintln(os.Stderr, "campaign: --alpha must be in (0, 1]")
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "campaign:", err)
		return 1
	}
	resolved := cfg.Resolve()

	in, err := cfront.Scan(*target)
	if err != nil {
		fmt.Fprintln(os.Stderr, "campaign:", err)
		return 1
	}

	g := derivation.NewGraph()
	derivation.BuildEDB(g, in)
	derivation.Evaluate(g)

	alarms := g.Alarms()
	if len(alarms) == 0 {
		fmt.Fprintln(os.Stderr, "campaign: no alarms derived; nothing to fuzz")
		return 1
	}

	net := bayes.SynthesizeCPDs(g, bayes.Params{
		PriorProb: resolved.PriorProbability,
		RuleProb:  resolved.RuleProbability,
	})

	fz := fuzzer.New(*target, toolchain.GCCAddressSanitizer{})

	scheduler := campaignpkg.NewScheduler(net, alarms, fz, campaignpkg.Params{
		Budget:                 time.Duration(*totalTime * float64(time.Second)),
		SelectionFraction:      *alpha,
		PerTargetBaseBudget:    resolved.InitialRoundBudget,
		ReconstructionInterval: resolved.ReconstructionInterval,
		Parallel:               *parallel,
	})

	stats, err := scheduler.Run(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "campaign:", err)
		return 1
	}

	out, err := os.Create(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, "campaign: write output:", err)
		return 1
	}
	defer out.Close()
	if err := report.WriteCampaignJSON(out, stats); err != nil {
		fmt.Fprintln(os.Stderr, "campaign: encode output:", err)
		return 1
	}

	report.WriteCampaignText(os.Stdout, stats)
	return 0
}
