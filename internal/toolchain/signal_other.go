//go:build !unix

package toolchain

import "os/exec"

func signalOf(exitErr *exec.ExitError) (int, bool) {
	return 0, false
}

func isSegfault(sig int) bool {
	return false
}
