// pkg/execute/execute.go

package execute

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_err"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Package execute provides secure command execution with structured logging.
// Shell execution is not supported: args are always passed as a vector so
// device paths and slot numbers can never be reinterpreted by a shell.

// Run executes a command with structured logging and proper error handling.
func Run(ctx context.Context, opts Options) (string, error) {
	cmdStr := buildCommandString(opts.Command, opts.Args...)

	logger := opts.Logger
	if logger == nil {
		logger = zap.L()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx := ctx
	cancel := func() {}
	if t := defaultTimeout(opts.Timeout); t > 0 {
		runCtx, cancel = context.WithTimeout(ctx, t)
	}
	defer cancel()

	runCtx, span := telemetry.Start(runCtx, "execute.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("command", opts.Command),
		attribute.String("args", strings.Join(opts.Args, " ")),
	)

	if opts.DryRun {
		logger.Info("Dry run mode - command not executed", zap.String("command", cmdStr))
		return "", nil
	}

	logger.Info("Starting execution", zap.String("command", cmdStr))

	cmd := exec.CommandContext(runCtx, opts.Command, opts.Args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := buf.String()

	if err != nil {
		// Surface the deadline/cancel cause: callers distinguish "the tool
		// failed" from "the tool was killed before it could finish".
		if ctxErr := runCtx.Err(); ctxErr != nil {
			err = cerr.Mark(err, ctxErr)
		}
		summary := lethe_err.ExtractSummary(output, 2)
		span.RecordError(err)
		logger.Error("Execution failed", zap.Error(err),
			zap.String("command", cmdStr),
			zap.String("summary", summary),
		)
		return output, cerr.Wrapf(err, "command %q failed", opts.Command)
	}

	logger.Info("Execution succeeded", zap.String("command", cmdStr))
	return output, nil
}

// RunSimple executes a command with minimal options and structured logging.
func RunSimple(ctx context.Context, cmd string, args ...string) error {
	_, err := Run(ctx, Options{
		Command: cmd,
		Args:    args,
	})
	return err
}
