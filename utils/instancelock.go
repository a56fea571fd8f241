package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// InstanceLock keeps a single bot process per token on a host.
// Two processes sharing a token would both receive every gateway event and greet members twice.
type InstanceLock struct {
	lockFile *flock.Flock
	lockPath string
}

// NewInstanceLock derives the lock file from a digest of key so secrets never reach the filesystem
func NewInstanceLock(dir, key string) (*InstanceLock, error) {
	AssertInvariant(key != "", "instance lock key must not be empty")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	digest := sha256.Sum256([]byte(key))
	lockPath := filepath.Join(dir, hex.EncodeToString(digest[:8])+".lock")

	return &InstanceLock{
		lockFile: flock.New(lockPath),
		lockPath: lockPath,
	}, nil
}

// DefaultLockDir is where instance locks live unless overridden
func DefaultLockDir() string {
	return filepath.Join(os.TempDir(), "chxbot")
}

// TryLock returns an error if another process already holds the lock
func (l *InstanceLock) TryLock() error {
	locked, err := l.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another chxbot instance is already running with this token (lock: %s)", l.lockPath)
	}
	return nil
}

// Unlock releases the lock and removes the lock file
func (l *InstanceLock) Unlock() error {
	if err := l.lockFile.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock: %w", err)
	}
	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

func (l *InstanceLock) Path() string {
	return l.lockPath
}
