package fuzzer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bayzzer/bayzzer/internal/toolchain"
)

// fakeToolchain avoids invoking a real compiler: Compile returns the
// configured compileErr (nil by default), and Run reports reached/crashed based on a simple predicate over the
// candidate input, so the search loop can be exercised deterministically.
type fakeToolchain struct {
	compileErr error
	reachAll   bool
	crashOn    func([]byte) bool
}

func (f *fakeToolchain) Compile(ctx context.Context, srcPath, binPath string) error {
	return f.compileErr
}

func (f *fakeToolchain) Run(ctx context.Context, binPath string, arg []byte, timeout time.Duration, sentinel string) (toolchain.ExecResult, error) {
	reached := f.reachAll || len(arg) > 0
	crashed := f.crashOn != nil && f.crashOn(arg)
	return toolchain.ExecResult{Reached: reached, Crashed: crashed}, nil
}

var errCompile = errors.New("compile failed")

func writeSource(t *testing.T, lines int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "target.c")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	for i := 0; i < lines; i++ {
		f.WriteString("int x = 0;\n")
	}
	return path
}

func TestFuzzTargetStopsOnFirstCrash(t *testing.T) {
	src := writeSource(t, 5)
	tc := &fakeToolchain{
		reachAll: true,
		crashOn: func(in []byte) bool {
			return len(in) > 50
		},
	}
	f := New(src, tc)
	res, err := f.FuzzTarget(context.Background(), 3, 2*time.Second)
	if err != nil {
		t.Fatalf("FuzzTarget error: %v", err)
	}
	if !res.Crashed {
		t.Fatalf("expected a crash to be found within the budget, got %+v", res)
	}
	if !res.Reached {
		t.Errorf("a crashing result must also be reached")
	}
}

func TestFuzzTargetCompileFailureIsDegenerate(t *testing.T) {
	src := writeSource(t, 5)
	tc := &fakeToolchain{compileErr: errCompile}
	f := New(src, tc)
	res, err := f.FuzzTarget(context.Background(), 2, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("compile failure must not be a FuzzTarget error: %v", err)
	}
	if res.Reached || res.Crashed {
		t.Errorf("expected a degenerate result on compile failure, got %+v", res)
	}
	if res.Output != "Compilation failed" {
		t.Errorf("expected Output = %q, got %q", "Compilation failed", res.Output)
	}
}

func TestFuzzTargetInvalidLine(t *testing.T) {
	src := writeSource(t, 3)
	tc := &fakeToolchain{reachAll: true}
	f := New(src, tc)
	if _, err := f.FuzzTarget(context.Background(), 99, 100*time.Millisecond); err == nil {
		t.Fatal("expected an error for an out-of-range target line")
	}
}

func TestLineFromAlarm(t *testing.T) {
	cases := []struct {
		id   string
		want int
		ok   bool
	}{
		{"Alarm(9)", 9, true},
		{"Alarm(123)", 123, true},
		{"Taint(a)", 0, false},
		{"Alarm()", 0, false},
	}
	for _, c := range cases {
		got, ok := LineFromAlarm(c.id)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("LineFromAlarm(%q) = (%d, %v), want (%d, %v)", c.id, got, ok, c.want, c.ok)
		}
	}
}
