// Unix/Darwin file locking using flock(2).
//
// It uses POSIX advisory locking via [syscall.Flock] so two lessondeck runs
// cannot write the same output directory at once.

//go:build !windows

package main

import (
	"fmt"
	"os"
	"syscall"
)

// ///////////////////////////////////////////////
// File Locking
// ///////////////////////////////////////////////

// removeWhileLocked is true because unlinking an open, flocked file is
// allowed and leaves the lock on the orphaned inode.
const removeWhileLocked = true

// lockFile acquires an exclusive, non-blocking advisory lock on f. LOCK_NB
// makes a held lock fail immediately with EWOULDBLOCK.
func lockFile(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return fmt.Errorf("lock file %s: %w", f.Name(), err)
	}
	return nil
}

// unlockFile releases the advisory flock held on f. The lock is also
// released when the descriptor is closed.
func unlockFile(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		return fmt.Errorf("unlock file %s: %w", f.Name(), err)
	}
	return nil
}
