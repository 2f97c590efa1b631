// pkg/wipejob/engine.go

package wipejob

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/authz"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/certificate"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/execute"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Request describes one requested wipe action. It must already have passed
// boundary-layer admission control; the engine re-validates structure only.
type Request struct {
	OS      string `validate:"required"`
	Target  string `validate:"required"`
	Action  string `validate:"required"`
	KeySlot int    `validate:"gte=0,lte=31"`
}

// Runner abstracts the external tool invocation so tests can stub it.
type Runner func(ctx context.Context, opts execute.Options) (string, error)

// Engine executes destructive jobs. One worker goroutine per job, launched at
// acceptance and never reused. The engine does not bound concurrency; callers
// needing admission control add it at the boundary.
type Engine struct {
	registry     *Registry
	signer       *certificate.Signer
	certDir      string
	logDir       string
	headerZeroMB int
	runner       Runner
	validate     *validator.Validate
}

// NewEngine wires an engine to its registry, signer and directories.
func NewEngine(registry *Registry, signer *certificate.Signer, certDir, logDir string, headerZeroMB int) *Engine {
	return &Engine{
		registry:     registry,
		signer:       signer,
		certDir:      certDir,
		logDir:       logDir,
		headerZeroMB: headerZeroMB,
		runner:       execute.Run,
		validate:     validator.New(),
	}
}

// SetRunner replaces the external tool runner. Intended for tests.
func (e *Engine) SetRunner(r Runner) {
	e.runner = r
}

// Start admits a job and launches its worker. It returns the job ID
// immediately; outcome is observed via Status. Job IDs are v4 UUIDs and act
// as bearer tokens for status and certificate retrieval.
func (e *Engine) Start(rc *lethe_io.RuntimeContext, req Request, attestation authz.Attestation) (string, error) {
	logger := otelzap.Ctx(rc.Ctx)

	// ASSESS
	if !attestation.Valid() {
		return "", cerr.New("wipe job requires a valid ownership attestation")
	}
	if err := e.validate.Struct(req); err != nil {
		return "", cerr.Wrap(err, "invalid wipe request")
	}

	job := &Job{
		ID:        uuid.New().String(),
		OS:        req.OS,
		Target:    req.Target,
		Action:    req.Action,
		KeySlot:   req.KeySlot,
		State:     StateQueued,
		CreatedAt: time.Now(),
		done:      make(chan struct{}),
	}

	if err := job.openLogFile(e.logDir); err != nil {
		return "", err
	}
	if err := e.registry.Add(job); err != nil {
		job.closeLogFile()
		return "", err
	}

	logger.Info("Destructive job accepted",
		zap.String("job_id", job.ID),
		zap.String("os", job.OS),
		zap.String("target", job.Target),
		zap.String("action", job.Action))

	// INTERVENE - one worker per job, never reused
	go e.run(rc, job)

	return job.ID, nil
}

// Wait blocks until the job reaches a terminal state or ctx is cancelled.
// Cancelling Wait does not cancel the job: once the external action has been
// launched the worker always waits for it to exit.
func (e *Engine) Wait(ctx context.Context, id string) error {
	done, ok := e.registry.Done(id)
	if !ok {
		return cerr.Wrapf(ErrJobNotFound, "job %s", id)
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of the job.
func (e *Engine) Status(id string) (Job, error) {
	return e.registry.Get(id)
}

// Certificate returns the certificate payload path for a finished, certified
// job.
func (e *Engine) Certificate(id string) (string, error) {
	job, err := e.registry.Get(id)
	if err != nil {
		return "", err
	}
	if job.State != StateFinished || job.CertificatePath == "" {
		return "", cerr.Newf("certificate not ready for job %s (state %s)", id, job.State)
	}
	return job.CertificatePath, nil
}

// run drives one job to a terminal state. It catches every error internally:
// failures surface only through status queries, never escape the worker.
func (e *Engine) run(rc *lethe_io.RuntimeContext, job *Job) {
	logger := otelzap.Ctx(rc.Ctx)
	defer close(job.done)
	defer job.closeLogFile()
	defer func() {
		if r := recover(); r != nil {
			job.appendLog("Worker panic: %v", r)
			job.setState(StateFailed)
			e.persist(rc, job)
			logger.Error("Job worker panic recovered",
				zap.String("job_id", job.ID), zap.Any("panic", r))
		}
	}()

	job.setState(StateRunning)
	job.appendLog("Starting wipe job %s on %s target=%s action=%s", job.ID, job.OS, job.Target, job.Action)
	e.persist(rc, job)

	if err := e.dispatch(rc, job); err != nil {
		// A killed or interrupted tool is not an ordinary failure: the
		// destructive side effect may already have partially occurred.
		if cerr.IsAny(err, context.DeadlineExceeded, context.Canceled) {
			job.appendLog("Outcome indeterminate: the external action was interrupted and may have partially run: %v", err)
			job.setState(StateIndeterminate)
			e.persist(rc, job)
			logger.Error("Destructive job outcome indeterminate",
				zap.String("job_id", job.ID), zap.Error(err))
			return
		}
		job.appendLog("Action failed: %v", err)
		job.setState(StateFailed)
		e.persist(rc, job)
		logger.Error("Destructive job failed",
			zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	job.appendLog("Wipe command completed successfully")
	job.mu.Lock()
	job.Success = true
	job.mu.Unlock()

	// The destructive action already happened irreversibly: from here the job
	// finishes even if certification fails.
	e.certify(rc, job)

	job.setState(StateFinished)
	e.persist(rc, job)
	logger.Info("Destructive job finished",
		zap.String("job_id", job.ID),
		zap.Bool("certified", job.Snapshot().Certified))
}

// persist writes the job snapshot and logs any failure. The snapshot is the
// only cross-process status surface, so a write failure must not pass silently
// even though it cannot stop the job.
func (e *Engine) persist(rc *lethe_io.RuntimeContext, job *Job) {
	if err := e.registry.persist(job); err != nil {
		otelzap.Ctx(rc.Ctx).Warn("Failed to persist job snapshot",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}
}

// dispatch applies the per-OS action policy. Retries of a destructive action
// are a caller decision, never performed here. Once the external action is
// launched there is no cancellation: the worker waits for it to exit.
func (e *Engine) dispatch(rc *lethe_io.RuntimeContext, job *Job) error {
	switch job.OS {
	case OSLinux:
		return e.runLinuxAction(rc, job)
	case OSWindows:
		job.appendLog("Windows destructive actions must be performed manually.")
		job.appendLog("Guidance: run 'manage-bde -protectors -delete %s' as Administrator, then 'manage-bde -forcerecovery %s'.", job.Target, job.Target)
		return cerr.New("windows encryption management is manual-only by policy")
	case OSMacOS:
		job.appendLog("macOS destructive actions must be performed manually.")
		job.appendLog("Guidance: use 'fdesetup disable' / 'diskutil apfs' or the FileVault GUI on %s.", job.Target)
		return cerr.New("macos encryption management is manual-only by policy")
	default:
		return cerr.Wrapf(ErrUnsupportedOS, "os %q", job.OS)
	}
}

func (e *Engine) runLinuxAction(rc *lethe_io.RuntimeContext, job *Job) error {
	var opts execute.Options

	switch job.Action {
	case ActionLUKSKillSlot:
		opts = execute.Options{
			Command: "cryptsetup",
			Args:    []string{"luksKillSlot", "--batch-mode", job.Target, strconv.Itoa(job.KeySlot)},
			Timeout: execute.NoTimeout,
		}
	case ActionHeaderZero:
		opts = execute.Options{
			Command: "dd",
			Args: []string{
				"if=/dev/zero",
				"of=" + job.Target,
				"bs=1M",
				fmt.Sprintf("count=%d", e.headerZeroMB),
			},
			Timeout: execute.NoTimeout,
		}
	default:
		return cerr.Wrapf(ErrUnsupportedAction, "action %q on linux", job.Action)
	}

	job.appendLog("Running: %s %v", opts.Command, opts.Args)
	output, err := e.runner(rc.Ctx, opts)
	if output != "" {
		job.appendLog("Tool output: %s", output)
	}
	if err != nil {
		// Mark keeps the cause chain intact so dispatch callers can still
		// see a context cancellation underneath.
		return cerr.Mark(cerr.Wrapf(err, "%s invocation", opts.Command), ErrExternalActionFailed)
	}
	return nil
}

// certify signs and writes the completion certificate. A signing failure
// after a successful destructive action is a distinct reported condition:
// the job still finishes, uncertified, and the log records why. It is never
// mapped to an ordinary failure.
func (e *Engine) certify(rc *lethe_io.RuntimeContext, job *Job) {
	record := certificate.Record{
		Action:    job.Action,
		JobID:     job.ID,
		OS:        job.OS,
		Status:    "success",
		Target:    job.Target,
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	}

	signature, err := e.signer.Sign(record)
	if err != nil {
		job.appendLog("WARNING: destructive action succeeded but certificate signing failed: %v", err)
		return
	}

	path, err := certificate.Write(rc, e.certDir, record, signature)
	if err != nil {
		job.appendLog("WARNING: destructive action succeeded but certificate could not be written: %v", err)
		return
	}

	job.mu.Lock()
	job.Certified = true
	job.CertificatePath = path
	job.mu.Unlock()
	job.appendLog("Certificate generated")
}
