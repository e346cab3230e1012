package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ///////////////////////////////////////////////
// Output Lock
// ///////////////////////////////////////////////

// errLocked is returned when another lessondeck process holds the output lock.
var errLocked = errors.New("output directory is locked by another lessondeck process")

// outputLock is an advisory lock on the output directory. The lock file holds
// "PID:TOKEN" so release only removes a file this process wrote.
type outputLock struct {
	path  string
	token string
	f     *os.File
}

// lockToken generates a random 16-character hex token used to prove ownership
// of the lock file.
func lockToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// lockAttempts bounds retries when the lock file is replaced under us.
const lockAttempts = 3

// acquireLock takes the lock at path without blocking. When another process
// holds it the error wraps [errLocked] and names that process's PID.
func acquireLock(path string) (*outputLock, error) {
	for range lockAttempts {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open lock file: %w", err)
		}
		if err := lockFile(f); err != nil {
			f.Close()
			if pid := holderPID(path); pid > 0 {
				return nil, fmt.Errorf("%w (pid %d)", errLocked, pid)
			}
			return nil, errLocked
		}
		// A releasing holder may have unlinked the file between our open
		// and lock; that inode no longer guards the path.
		if !stillAt(path, f) {
			_ = unlockFile(f)
			f.Close()
			continue
		}

		token := lockToken()
		if err := f.Truncate(0); err != nil {
			_ = unlockFile(f)
			f.Close()
			return nil, fmt.Errorf("truncate lock file: %w", err)
		}
		if _, err := f.WriteAt([]byte(fmt.Sprintf("%d:%s", os.Getpid(), token)), 0); err != nil {
			_ = unlockFile(f)
			f.Close()
			return nil, fmt.Errorf("write lock file: %w", err)
		}
		return &outputLock{path: path, token: token, f: f}, nil
	}
	return nil, errLocked
}

// stillAt reports whether path names the same file as the open f.
func stillAt(path string, f *os.File) bool {
	held, err := f.Stat()
	if err != nil {
		return false
	}
	cur, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, cur)
}

// release removes the lock file if the stored token is still ours, then
// unlocks and closes it. Where the platform allows it the file is unlinked
// while still locked, so no other process can lock the old file after
// a third has created a new one.
func (l *outputLock) release() {
	if l == nil || l.f == nil {
		return
	}
	buf := make([]byte, 64)
	n, _ := l.f.ReadAt(buf, 0)
	parts := strings.SplitN(string(buf[:n]), ":", 2)
	ours := len(parts) == 2 && parts[1] == l.token

	if ours && removeWhileLocked {
		os.Remove(l.path)
	}
	_ = unlockFile(l.f)
	l.f.Close()
	l.f = nil
	if ours && !removeWhileLocked {
		os.Remove(l.path)
	}
}

// holderPID reads the PID recorded in a lock file, or 0.
func holderPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.SplitN(string(data), ":", 2)[0])
	if err != nil {
		return 0
	}
	return pid
}
