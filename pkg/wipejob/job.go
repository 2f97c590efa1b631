// pkg/wipejob/job.go

// Package wipejob runs OS-level destructive wipe actions as asynchronous
// jobs: one worker per job, an append-only audit log persisted line by line,
// and a signed completion certificate on success.
package wipejob

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// State is the lifecycle state of a destructive job.
// Transitions: queued → running → {finished, failed, indeterminate}.
// Terminal states are never left. Indeterminate means the external action was
// killed or interrupted after launch: the destructive side effect may have
// partially occurred, so it is neither a success nor an ordinary failure.
type State string

const (
	StateQueued        State = "queued"
	StateRunning       State = "running"
	StateFinished      State = "finished"
	StateFailed        State = "failed"
	StateIndeterminate State = "indeterminate"
)

// Terminal reports whether no further transitions can occur.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateFailed || s == StateIndeterminate
}

// Supported OS classes and actions.
const (
	OSLinux   = "linux"
	OSWindows = "windows"
	OSMacOS   = "macos"

	ActionLUKSKillSlot = "luks-kill-slot"
	ActionHeaderZero   = "header-zero"
)

var (
	// ErrUnsupportedOS is recorded when the target OS class has no policy.
	ErrUnsupportedOS = cerr.New("unsupported os")
	// ErrUnsupportedAction is recorded for an unknown action on a known OS.
	ErrUnsupportedAction = cerr.New("unsupported action")
	// ErrExternalActionFailed wraps a non-zero exit from an invoked tool.
	ErrExternalActionFailed = cerr.New("external action failed")
	// ErrJobNotFound is returned by status/certificate lookups.
	ErrJobNotFound = cerr.New("job not found")
)

// Job is one OS-level wipe attempt. It is mutated only by its own worker;
// readers get snapshots that may be stale by the time they are read.
type Job struct {
	ID              string     `json:"id"`
	OS              string     `json:"os"`
	Target          string     `json:"target"`
	Action          string     `json:"action"`
	KeySlot         int        `json:"key_slot"`
	State           State      `json:"state"`
	Log             []string   `json:"log"`
	Success         bool       `json:"success"`
	Certified       bool       `json:"certified"`
	CertificatePath string     `json:"certificate_path,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`

	mu      sync.Mutex
	logFile *os.File
	done    chan struct{}
}

// Snapshot returns a copy safe to read while the worker runs.
func (j *Job) Snapshot() Job {
	j.mu.Lock()
	defer j.mu.Unlock()

	copied := Job{
		ID:              j.ID,
		OS:              j.OS,
		Target:          j.Target,
		Action:          j.Action,
		KeySlot:         j.KeySlot,
		State:           j.State,
		Success:         j.Success,
		Certified:       j.Certified,
		CertificatePath: j.CertificatePath,
		CreatedAt:       j.CreatedAt,
	}
	copied.Log = append([]string(nil), j.Log...)
	if j.EndedAt != nil {
		ended := *j.EndedAt
		copied.EndedAt = &ended
	}
	return copied
}

// appendLog records a timestamped line in memory and flushes it to the
// per-job log file immediately, so a crash mid-job still leaves the audit
// trail up to the last completed step.
func (j *Job) appendLog(format string, args ...interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()

	line := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))
	j.Log = append(j.Log, line)

	if j.logFile != nil {
		if _, err := j.logFile.WriteString(line + "\n"); err != nil {
			zap.L().Warn("Failed to append job audit log",
				zap.String("job_id", j.ID),
				zap.Error(err))
		} else {
			_ = j.logFile.Sync()
		}
	}
}

// openLogFile opens the append-only audit log for this job.
func (j *Job) openLogFile(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return cerr.Wrapf(err, "create job log directory %s", dir)
	}
	path := filepath.Join(dir, j.ID+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return cerr.Wrapf(err, "open job log %s", path)
	}
	j.logFile = file
	return nil
}

func (j *Job) closeLogFile() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.logFile != nil {
		_ = j.logFile.Close()
		j.logFile = nil
	}
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.State.Terminal() {
		// Terminal states are immutable.
		return
	}
	j.State = s
	if s.Terminal() {
		now := time.Now()
		j.EndedAt = &now
	}
}

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}
