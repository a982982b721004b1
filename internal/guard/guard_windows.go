//go:build windows

package guard

import "os"

// pidAlive reports whether a process with the given PID exists.
// Windows has no signal 0; FindProcess succeeding is the best available
// check, so stale markers there fall back to the age bound.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	_, err := os.FindProcess(pid)
	return err == nil
}
