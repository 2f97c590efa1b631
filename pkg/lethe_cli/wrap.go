// pkg/lethe_cli/wrap.go

package lethe_cli

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_err"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/logger"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// Wrap ensures panic recovery, telemetry, and logging around a cobra RunE.
func Wrap(fn func(rc *lethe_io.RuntimeContext, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		logger.InitFallback()

		rc := lethe_io.NewContext(context.Background(), cmd.Name())
		defer rc.End(&err)
		defer rc.HandlePanic(&err)

		lethe_io.LogRuntimeExecutionContext(rc)

		err = fn(rc, cmd, args)
		if err != nil && !lethe_err.IsExpectedUserError(err) {
			err = cerr.WithStack(err)
		}
		return err
	}
}
