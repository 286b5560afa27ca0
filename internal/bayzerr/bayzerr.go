// Package bayzerr defines the sentinel error kinds shared across the
// cfront, toolchain, and campaign packages and the CLI so callers can
// distinguish fatal setup failures from per-target, locally recovered
// ones via errors.Is.
package bayzerr

import "errors"

// ErrSetup indicates a fatal condition discovered before the campaign
// loop starts: a missing source file, a front-end parse failure, or an
// empty alarm set. The CLI maps it to exit code 1.
var ErrSetup = errors.New("bayzzer: setup error")

// ErrBuild indicates the instrumented source failed to compile. It is
// per-target: the fuzzer converts it into a degenerate result rather
// than propagating it.
var ErrBuild = errors.New("bayzzer: build error")

// ErrExecution indicates a subprocess spawn failure while running an
// instrumented binary (a timeout is reported through ExecResult.TimedOut,
// not as an error). Per-execution; the mutated input is discarded and the
// loop continues.
var ErrExecution = errors.New("bayzzer: execution error")

// ErrInference indicates a variable-elimination query failed for a
// single alarm (disconnected node, inconsistent evidence). Callers
// substitute a probability of 0.0 and continue.
var ErrInference = errors.New("bayzzer: inference error")
