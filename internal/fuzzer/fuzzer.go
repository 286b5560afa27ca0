// Package fuzzer drives a directed, mutation-based search against one
// source line of a C program: instrument, compile, and repeatedly mutate
// and execute candidate inputs until the line is reached and (ideally)
// made to crash, or the time budget runs out.
package fuzzer

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bayzzer/bayzzer/internal/logging"
	"github.com/bayzzer/bayzzer/internal/toolchain"
)

// sentinel is the fixed token injected before the target line; it must
// never appear in ordinary program output.
const sentinel = "__TARGET_REACHED__"

const execTimeout = 2 * time.Second

// populationCap bounds the number of inputs carried forward, keeping the
// most recently admitted ones.
const populationCap = 50

// Result is the outcome of fuzzing one target line.
type Result struct {
	Reached         bool
	Crashed         bool
	TriggeringInput []byte
	TimeToExposure  time.Duration
	Output          string
}

// Fuzzer targets a single C source file. Scratch files for one FuzzTarget
// call live under a temp directory created for that call, whose paths are
// kept on the Fuzzer, and are removed by cleanup when the call returns.
type Fuzzer struct {
	SourcePath string
	Toolchain  toolchain.Toolchain
	Rand       *rand.Rand

	workDir          string
	instrumentedPath string
	binPath          string
}

// New returns a Fuzzer targeting sourcePath, compiling and running via tc.
func New(sourcePath string, tc toolchain.Toolchain) *Fuzzer {
	return &Fuzzer{
		SourcePath: sourcePath,
		Toolchain:  tc,
		Rand:       rand.New(rand.NewSource(1)),
	}
}

// FuzzTarget instruments line, compiles, then mutates candidate inputs
// against the compiled binary until the line is reached and crashed, or
// budget elapses. A compile failure yields a degenerate, non-crashing
// Result rather than an error, matching the collaborator contract: build
// failures are per-target, not fatal to the campaign.
func (f *Fuzzer) FuzzTarget(ctx context.Context, line int, budget time.Duration) (Result, error) {
	start := time.Now()

	defer f.cleanup()
	if err := f.instrument(line); err != nil {
		return Result{}, err
	}

	if err := f.Toolchain.Compile(ctx, f.instrumentedPath, f.binPath); err != nil {
		logging.Warnf("compile failed for line %d: %v", line, err)
		return Result{Output: "Compilation failed"}, nil
	}

	population := seedPopulation(f.Rand)

	var (
		reached bool
		crashed bool
		best    []byte
		output  string
	)

	deadline := start.Add(budget)
	for time.Now().Before(deadline) {
		parent := population[f.Rand.Intn(len(population))]
		child := mutate(f.Rand, parent)

		runCtx, cancel := context.WithTimeout(ctx, execTimeout)
		res, err := f.Toolchain.Run(runCtx, f.binPath, child, execTimeout, sentinel)
		cancel()
		if err != nil {
			logging.Warnf("execution failed for line %d: %v", line, err)
			continue
		}
		if res.TimedOut {
			continue
		}

		if res.Reached {
			reached = true
			best = child
			output = res.Stdout
			if res.Crashed {
				crashed = true
				break
			}
			population = append(population, child)
			if len(population) > populationCap {
				population = population[len(population)-populationCap:]
			}
		}
	}

	return Result{
		Reached:         reached,
		Crashed:         crashed,
		TriggeringInput: best,
		TimeToExposure:  time.Since(start),
		Output:          output,
	}, nil
}

// seedPopulation mirrors the reference fuzzer's initial corpus: a handful
// of random short printable strings plus three inputs known to stress
// common bug classes (a long run of 'A's for overflows, "10" and "-1" for
// integer boundary conditions).
func seedPopulation(r *rand.Rand) [][]byte {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	seeds := make([][]byte, 0, 8)
	for i := 0; i < 5; i++ {
		n := 1 + r.Intn(20)
		s := make([]byte, n)
		for j := range s {
			s[j] = alphabet[r.Intn(len(alphabet))]
		}
		seeds = append(seeds, s)
	}
	overflow := make([]byte, 100)
	for i := range overflow {
		overflow[i] = 'A'
	}
	seeds = append(seeds, overflow, []byte("10"), []byte("-1"))
	return seeds
}

// instrument rewrites SourcePath to a scratch file with the sentinel
// print+flush inserted immediately before line (1-based).
func (f *Fuzzer) instrument(line int) error {
	dir, err := os.MkdirTemp("", "bayzzer-fuzz-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	f.workDir = dir

	lines, err := readLines(f.SourcePath)
	if err != nil {
		return err
	}
	if line <= 0 || line > len(lines)+1 {
		return fmt.Errorf("invalid target line %d in %s (%d lines)", line, f.SourcePath, len(lines))
	}

	injection := `printf("` + sentinel + `\n");fflush(stdout);`
	insertAt := line - 1
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, injection)
	out = append(out, lines[insertAt:]...)

	base := filepath.Base(f.SourcePath)
	f.instrumentedPath = filepath.Join(dir, "instr_"+base)
	f.binPath = filepath.Join(dir, "fuzz_target.out")

	w, err := os.Create(f.instrumentedPath)
	if err != nil {
		return fmt.Errorf("write instrumented source: %w", err)
	}
	defer w.Close()
	writer := bufio.NewWriter(w)
	for _, l := range out {
		if _, err := writer.WriteString(l + "\n"); err != nil {
			return fmt.Errorf("write instrumented source: %w", err)
		}
	}
	return writer.Flush()
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// cleanup removes the scratch source and executable.
func (f *Fuzzer) cleanup() {
	if f.workDir != "" {
		os.RemoveAll(f.workDir)
	}
}

// LineFromAlarm extracts the numeric argument from an "Alarm(9)"-shaped
// fact id, resolving an alarm to the source line the campaign scheduler
// should fuzz.
func LineFromAlarm(alarmID string) (int, bool) {
	open := -1
	close := -1
	for i, c := range alarmID {
		if c == '(' {
			open = i
		}
		if c == ')' {
			close = i
		}
	}
	if open < 0 || close < 0 || close <= open+1 {
		return 0, false
	}
	n, err := strconv.Atoi(alarmID[open+1 : close])
	if err != nil {
		return 0, false
	}
	return n, true
}
