//go:build unix

package db

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// tryLock grabs the exclusive flock without blocking. A held lock
// surfaces as EWOULDBLOCK.
func (l *writeLocker) tryLock() error {
	return unix.Flock(int(l.lockFile.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func (l *writeLocker) unlock() {
	if l.lockFile != nil {
		unix.Flock(int(l.lockFile.Fd()), unix.LOCK_UN)
	}
}

// isProcessAlive reports whether the pid recorded in the lock file still
// belongs to a running process. FindProcess never fails on unix, so the
// real check is the zero signal.
func isProcessAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
