package cfront

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempC(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.c")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write temp source: %v", err)
	}
	return path
}

func TestScanOverflowExample(t *testing.T) {
	src := `#include <string.h>
int main(int argc, char *argv[]) {
    char buffer[10];
    char *input = argv[1];
    strcpy(buffer, input);
    return 0;
}
`
	path := writeTempC(t, src)
	in, err := Scan(path)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	foundInput := false
	for _, s := range in.InputSources {
		if s == "argv1" {
			foundInput = true
		}
	}
	if !foundInput {
		t.Errorf("expected argv1 among input sources, got %v", in.InputSources)
	}

	foundFlow := false
	for _, f := range in.DataFlows {
		if f.Src == "argv" && f.Dst == "input" {
			foundFlow = true
		}
	}
	if !foundFlow {
		t.Errorf("expected a data flow into input, got %v", in.DataFlows)
	}

	foundMem := false
	for _, m := range in.MemoryOps {
		if m.Var == "input" {
			foundMem = true
		}
	}
	if !foundMem {
		t.Errorf("expected a memory operation on strcpy's source argument, got %v", in.MemoryOps)
	}
}

func TestScanArrayAccess(t *testing.T) {
	src := `int main() {
    int arr[10];
    int idx;
    scanf("%d", &idx);
    arr[idx] = 1;
    return 0;
}
`
	path := writeTempC(t, src)
	in, err := Scan(path)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	foundIdx := false
	for _, s := range in.InputSources {
		if s == "idx" {
			foundIdx = true
		}
	}
	if !foundIdx {
		t.Errorf("expected idx among input sources (scanf destination), got %v", in.InputSources)
	}
	foundMem := false
	for _, m := range in.MemoryOps {
		if m.Var == "idx" {
			foundMem = true
		}
	}
	if !foundMem {
		t.Errorf("expected a memory operation for arr[idx], got %v", in.MemoryOps)
	}
}

func TestScanMissingFileIsSetupError(t *testing.T) {
	_, err := Scan("/nonexistent/path/to/file.c")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
