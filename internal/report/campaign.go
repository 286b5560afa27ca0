package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bayzzer/bayzzer/internal/campaign"
)

// WriteCampaignJSON renders stats as indented JSON, matching the exact
// field shape the campaign driver's --output file persists.
func WriteCampaignJSON(w io.Writer, stats *campaign.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// WriteCampaignText prints a human-readable summary of a finished
// campaign: totals, then one line per confirmed bug.
func WriteCampaignText(w io.Writer, stats *campaign.Stats) {
	fmt.Fprintf(w, "%s%s=== Fuzzing Campaign ===%s\n\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "Total time:     %.1fs\n", stats.TotalTime)
	fmt.Fprintf(w, "Rounds run:     %d\n", stats.RoundsRun)
	fmt.Fprintf(w, "Targets fuzzed: %d\n", stats.TargetsFuzzed)
	fmt.Fprintf(w, "Bugs found:     %d\n", len(stats.UniqueBugs))

	if len(stats.UniqueBugs) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%sConfirmed Bugs:%s\n", colorBold, colorReset)
	for _, b := range stats.UniqueBugs {
		fmt.Fprintf(w, "  %sline %-5d%s  found at %6.1fs  input=%s\n",
			colorRed, b.TargetLine, colorReset, b.TimeFound, b.TriggeringInput)
		if b.Output != "" {
			fmt.Fprintf(w, "    output: %s\n", b.Output)
		}
	}
}
