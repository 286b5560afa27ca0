//go:build unix

package toolchain

import (
	"os/exec"
	"syscall"
)

// signalOf extracts the terminating signal from a process exit status, if
// the process was killed by one rather than exiting normally.
func signalOf(exitErr *exec.ExitError) (syscall.Signal, bool) {
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return 0, false
	}
	return status.Signal(), true
}

func isSegfault(sig syscall.Signal) bool {
	return sig == syscall.SIGSEGV
}
