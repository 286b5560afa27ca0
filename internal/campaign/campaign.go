// Package campaign drives the round loop that alternates between ranking
// alarms by posterior probability and fuzzing the highest-priority ones,
// feeding crash and reachability outcomes back into the network as
// evidence. Its orchestration shape — a flat Run method, explicit structs
// for intermediate state, fmt.Errorf-wrapped errors — mirrors
// cmd/gorisk/scan/scan.go rather than hidden goroutine machinery.
package campaign

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bayzzer/bayzzer/internal/bayes"
	"github.com/bayzzer/bayzzer/internal/bayzerr"
	"github.com/bayzzer/bayzzer/internal/fuzzer"
	"github.com/bayzzer/bayzzer/internal/logging"
)

// BugReport records one confirmed crash, deduplicated by target line.
type BugReport struct {
	TargetLine      int     `json:"target_line"`
	TriggeringInput string  `json:"triggering_input"` // hex-encoded
	TimeFound       float64 `json:"time_found"`
	Output          string  `json:"output"`
}

// RoundSnapshot is one entry of the campaign's history.
type RoundSnapshot struct {
	Round        int     `json:"round"`
	TimeElapsed  float64 `json:"time_elapsed"`
	TargetsCount int     `json:"targets_count"`
	BugsFound    int     `json:"bugs_found"`
}

// Stats is the campaign's final, persisted outcome.
type Stats struct {
	TotalTime     float64         `json:"total_time"`
	RoundsRun     int             `json:"rounds_run"`
	TargetsFuzzed int             `json:"targets_fuzzed"`
	UniqueBugs    []BugReport     `json:"unique_bugs"`
	History       []RoundSnapshot `json:"history"`
}

// Params configures one campaign run.
type Params struct {
	Budget                 time.Duration // T
	SelectionFraction      float64       // alpha, (0, 1]
	PerTargetBaseBudget    time.Duration // beta
	ReconstructionInterval int           // rho
	Parallel               bool
}

// Scheduler owns one campaign's round loop. Fields other than Params are
// runtime state, not configuration; construct via NewScheduler.
type Scheduler struct {
	Params Params

	inf    *bayes.Inference
	alarms []string
	fz     *fuzzer.Fuzzer

	evidence bayes.Evidence
	bugLines map[int]bool
	stats    Stats
	start    time.Time
}

// NewScheduler builds a Scheduler ready to fuzz alarms ranked over net,
// driving fz against the instrumented source for each selected target.
func NewScheduler(net *bayes.Network, alarms []string, fz *fuzzer.Fuzzer, params Params) *Scheduler {
	return &Scheduler{
		Params:   params,
		inf:      bayes.NewInference(net),
		alarms:   alarms,
		fz:       fz,
		evidence: bayes.Evidence{},
		bugLines: make(map[int]bool),
	}
}

// Run executes the round loop described by the scheduler's state machine
// until the budget elapses or a round finds no alarms to rank. Cancelling
// ctx stops the loop at the next round boundary, matching the "budget
// checked between rounds only" rule.
func (s *Scheduler) Run(ctx context.Context) (*Stats, error) {
	if len(s.alarms) == 0 {
		return nil, fmt.Errorf("%w: no alarms to fuzz", bayzerr.ErrSetup)
	}

	s.start = time.Now()
	round := 0

	for {
		elapsed := time.Since(s.start)
		if elapsed >= s.Params.Budget {
			break
		}
		if ctx.Err() != nil {
			break
		}

		round++
		if s.Params.ReconstructionInterval > 0 && round%s.Params.ReconstructionInterval == 0 {
			s.evidence.ResetNegative()
		}

		ranked := s.inf.RankAlarms(s.alarms, s.evidence)
		if len(ranked) == 0 {
			break
		}

		n := int(math.Floor(s.Params.SelectionFraction * float64(len(ranked))))
		if n < 1 {
			n = 1
		}
		if n > len(ranked) {
			n = len(ranked)
		}
		targets := ranked[:n]

		remaining := s.Params.Budget - time.Since(s.start)
		perTarget := remaining / time.Duration(len(targets))
		if perTarget > s.Params.PerTargetBaseBudget {
			perTarget = s.Params.PerTargetBaseBudget
		}
		if perTarget < 100*time.Millisecond {
			if remaining < 100*time.Millisecond {
				perTarget = 100 * time.Millisecond
			} else {
				perTarget = remaining
			}
		}

		bugsThisRound := s.exploitRound(ctx, targets, perTarget)

		s.stats.History = append(s.stats.History, RoundSnapshot{
			Round:        round,
			TimeElapsed:  time.Since(s.start).Seconds(),
			TargetsCount: len(targets),
			BugsFound:    bugsThisRound,
		})
	}

	s.stats.RoundsRun = round
	s.stats.TotalTime = time.Since(s.start).Seconds()
	return &s.stats, nil
}

// exploitRound fuzzes every target, applying feedback as each result
// returns, and reports how many new bugs this round found. Sequential by
// default; when Parallel is set, targets run concurrently via an
// errgroup, since each owns an independent scratch file and the feedback
// each one applies touches a distinct alarm node (commuting updates).
func (s *Scheduler) exploitRound(ctx context.Context, targets []bayes.AlarmProb, perTarget time.Duration) int {
	type outcome struct {
		alarm  bayes.AlarmProb
		line   int
		res    fuzzer.Result
		hasRes bool
	}
	outcomes := make([]outcome, len(targets))

	run := func(i int) error {
		t := targets[i]
		line, ok := fuzzer.LineFromAlarm(t.ID)
		if !ok {
			logging.Warnf("cannot resolve a source line from alarm id %q; skipping", t.ID)
			return nil
		}
		res, err := s.fz.FuzzTarget(ctx, line, perTarget)
		if err != nil {
			logging.Warnf("fuzzing %s failed: %v", t.ID, err)
			return nil
		}
		outcomes[i] = outcome{alarm: t, line: line, res: res, hasRes: true}
		return nil
	}

	if s.Params.Parallel && len(targets) > 1 {
		g, _ := errgroup.WithContext(ctx)
		for i := range targets {
			i := i
			g.Go(func() error { return run(i) })
		}
		_ = g.Wait()
	} else {
		for i := range targets {
			_ = run(i)
		}
	}

	bugsFound := 0
	for _, o := range outcomes {
		if !o.hasRes {
			continue
		}
		s.stats.TargetsFuzzed++
		isNewBug := o.res.Crashed && !s.bugLines[o.line]
		s.applyFeedback(o.alarm.ID, o.line, o.res)
		if isNewBug {
			bugsFound++
		}
	}
	return bugsFound
}

// applyFeedback implements the three-way feedback policy: a crash pins
// positive evidence and records a deduplicated bug report, a failure to
// reach pins negative evidence (cleared at the next reconstruction), and
// a reach-without-crash leaves evidence untouched since the path is
// feasible but did not yet manifest a bug.
func (s *Scheduler) applyFeedback(alarmID string, line int, res fuzzer.Result) {
	switch {
	case res.Crashed:
		s.evidence.Set(alarmID, true)
		if !s.bugLines[line] {
			s.bugLines[line] = true
			s.stats.UniqueBugs = append(s.stats.UniqueBugs, BugReport{
				TargetLine:      line,
				TriggeringInput: hex.EncodeToString(res.TriggeringInput),
				TimeFound:       time.Since(s.start).Seconds(),
				Output:          res.Output,
			})
		}
	case !res.Reached:
		s.evidence.Set(alarmID, false)
	default:
		// reached, not crashed: feasible path, no bug yet; no evidence change.
	}
}
