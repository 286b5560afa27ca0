// Package toolchain is the compile-and-run collaborator the directed
// fuzzer drives: an instrumented C source goes in, a reached/crashed
// verdict comes out. The default implementation shells out to gcc and the
// host's address sanitizer, mirroring the os/exec + captured-output idiom
// the teacher uses to invoke go list and go mod graph.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/bayzzer/bayzzer/internal/bayzerr"
)

// ExecResult is the outcome of running a compiled binary against one input.
type ExecResult struct {
	Reached bool
	Crashed bool
	Stdout  string
	Stderr  string
	TimedOut bool
}

// Toolchain compiles an instrumented source file and runs the resulting
// binary against a candidate input. Fuzzer depends only on this interface
// so tests can substitute a fake compiler/executor.
type Toolchain interface {
	Compile(ctx context.Context, srcPath, binPath string) error
	Run(ctx context.Context, binPath string, arg []byte, timeout time.Duration, sentinel string) (ExecResult, error)
}

// sanitizerMarker is the substring AddressSanitizer prints to stderr on a
// detected memory error.
const sanitizerMarker = "AddressSanitizer"

// GCCAddressSanitizer compiles with `gcc -g -fsanitize=address` and
// classifies sanitizer aborts, segfaults, and timeouts.
type GCCAddressSanitizer struct {
	// CCPath is the compiler to invoke; defaults to "gcc" when empty.
	CCPath string
}

// Compile runs `gcc -g -fsanitize=address -o binPath srcPath`.
func (gc GCCAddressSanitizer) Compile(ctx context.Context, srcPath, binPath string) error {
	cc := gc.CCPath
	if cc == "" {
		cc = "gcc"
	}
	cmd := exec.CommandContext(ctx, cc, "-g", "-fsanitize=address", "-o", binPath, srcPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %s", bayzerr.ErrBuild, err, stderr.String())
	}
	return nil
}

// Run executes binPath with arg as argv[1], after stripping embedded zero
// bytes (they would terminate the C argument string early). The sentinel
// appearing on stdout marks the target line as reached; a sanitizer abort,
// SIGSEGV, or a sanitizer marker in stderr marks it as crashed. A timeout
// is reported but never counted as a crash.
func (gc GCCAddressSanitizer) Run(ctx context.Context, binPath string, arg []byte, timeout time.Duration, sentinel string) (ExecResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clean := bytes.ReplaceAll(arg, []byte{0}, nil)
	cmd := exec.CommandContext(runCtx, binPath, string(clean))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return ExecResult{TimedOut: true}, nil
	}

	res := ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	res.Reached = strings.Contains(res.Stdout, sentinel)

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if strings.Contains(res.Stderr, sanitizerMarker) {
				res.Crashed = true
			}
			if sig, ok := signalOf(exitErr); ok && isSegfault(sig) {
				res.Crashed = true
			}
		} else {
			return ExecResult{}, fmt.Errorf("%w: %v", bayzerr.ErrExecution, err)
		}
	}
	return res, nil
}
