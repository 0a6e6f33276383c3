// Package joblock serializes migration runs against a single jobs
// directory. Two concurrent runs would race on the working tree and on
// the backup branch, so the agent takes an exclusive lock before doing
// anything destructive.
//
// The lock is a JSON file created with O_EXCL in the jobs directory. A
// lock whose recorded process no longer exists is considered stale and
// is reclaimed, so a crashed run does not wedge the agent permanently.
package joblock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ambradan/techscout/internal/errors"
)

// LockFileName is the name of the lock file inside the jobs directory.
const LockFileName = "agent.lock"

// info is the persisted lock payload, enough to identify the holder
// and to decide staleness.
type info struct {
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Lock is a held jobs-directory lock. Release it when the run finishes.
type Lock struct {
	path string
}

// Acquire takes the exclusive lock for jobsDir, creating the directory
// if needed. It returns errors.ErrJobsLocked when another live process
// holds the lock. A lock left behind by a dead process is reclaimed.
func Acquire(jobsDir string) (*Lock, error) {
	if err := os.MkdirAll(jobsDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create jobs directory")
	}
	path := filepath.Join(jobsDir, LockFileName)

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return writeLock(f, path)
		}
		if !os.IsExist(err) {
			return nil, errors.Wrap(err, "create lock file")
		}

		holder, readErr := readLock(path)
		if readErr != nil {
			// Unreadable lock file. Either a partially written lock or
			// garbage; treat it as stale rather than wedging forever.
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				return nil, errors.Wrap(rmErr, "remove unreadable lock file")
			}
			continue
		}
		if processAlive(holder.PID) {
			return nil, errors.Wrapf(errors.ErrJobsLocked,
				"held by pid %d on %s since %s",
				holder.PID, holder.Hostname, holder.AcquiredAt.Format(time.RFC3339))
		}
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, errors.Wrap(rmErr, "remove stale lock file")
		}
	}
	return nil, errors.Wrap(errors.ErrJobsLocked, "could not reclaim lock file")
}

// Release removes the lock file. Releasing twice is harmless.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove lock file")
	}
	return nil
}

// Path returns the lock file location, mainly for diagnostics.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func writeLock(f *os.File, path string) (*Lock, error) {
	hostname, _ := os.Hostname()
	payload := info{
		PID:        os.Getpid(),
		Hostname:   hostname,
		AcquiredAt: time.Now().UTC(),
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.Wrap(err, "write lock file")
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, errors.Wrap(err, "close lock file")
	}
	return &Lock{path: path}, nil
}

func readLock(path string) (info, error) {
	var holder info
	data, err := os.ReadFile(path)
	if err != nil {
		return holder, err
	}
	if err := json.Unmarshal(data, &holder); err != nil {
		return holder, err
	}
	if holder.PID <= 0 {
		return holder, fmt.Errorf("lock file has no pid")
	}
	return holder, nil
}

// processAlive reports whether pid refers to a running process. Signal
// zero performs the existence check without delivering anything.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to someone else.
	return err == syscall.EPERM
}
