package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLockAcquisition(t *testing.T) {
	tempDir := t.TempDir()

	lock, err := AcquireLock(tempDir)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	defer lock.Release()

	lockPath := filepath.Join(tempDir, LockFileName)
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Errorf("Lock file was not created: %s", lockPath)
	}

	content, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("Failed to read lock file: %v", err)
	}
	expectedContent := fmt.Sprintf("pid=%d\n", os.Getpid())
	if string(content) != expectedContent {
		t.Errorf("Lock file content mismatch. Expected: %q, Got: %q", expectedContent, string(content))
	}
}

func TestLockConflict(t *testing.T) {
	tempDir := t.TempDir()

	lock1, err := AcquireLock(tempDir)
	if err != nil {
		t.Fatalf("Failed to acquire first lock: %v", err)
	}
	defer lock1.Release()

	lock2, err := AcquireLock(tempDir)
	if err == nil {
		lock2.Release()
		t.Fatalf("Second lock acquisition should have failed")
	}

	var lockErr *LockError
	if !errors.As(err, &lockErr) {
		t.Errorf("Expected LockError, got: %T", err)
	}

	errMsg := err.Error()
	if !strings.Contains(errMsg, "another nursery server is already using this state directory") {
		t.Errorf("Error message should mention another instance running: %s", errMsg)
	}
	if !strings.Contains(errMsg, tempDir) {
		t.Errorf("Error message should contain the lock path: %s", errMsg)
	}
	if !strings.Contains(errMsg, fmt.Sprintf("PID %d (running)", os.Getpid())) {
		t.Errorf("Error message should report the holding process: %s", errMsg)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	tempDir := t.TempDir()

	lock, err := AcquireLock(tempDir)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("First release failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Second release failed: %v", err)
	}

	lockPath := filepath.Join(tempDir, LockFileName)
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("Lock file should be removed after release")
	}
}

func TestReacquireAfterRelease(t *testing.T) {
	tempDir := t.TempDir()

	lock1, err := AcquireLock(tempDir)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	lock1.Release()

	lock2, err := AcquireLock(tempDir)
	if err != nil {
		t.Fatalf("Failed to reacquire released lock: %v", err)
	}
	lock2.Release()
}

func TestStaleLockInfo(t *testing.T) {
	tempDir := t.TempDir()
	lockPath := filepath.Join(tempDir, LockFileName)

	// A lock file without a live flock: content is readable but no process
	// holds the syscall lock, so acquisition succeeds.
	if err := os.WriteFile(lockPath, []byte("pid=999999999\n"), 0644); err != nil {
		t.Fatalf("Failed to write stale lock file: %v", err)
	}

	lock, err := AcquireLock(tempDir)
	if err != nil {
		t.Fatalf("Stale lock file must not block acquisition: %v", err)
	}
	lock.Release()
}

func TestExtractPIDFromLockInfo(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"pid=1234\n", 1234},
		{"pid=", 0},
		{"no pid here", 0},
		{"prefix pid=42 suffix", 42},
	}
	for _, tt := range tests {
		if got := extractPIDFromLockInfo(tt.content); got != tt.want {
			t.Errorf("extractPIDFromLockInfo(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}
