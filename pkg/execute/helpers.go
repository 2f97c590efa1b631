// pkg/execute/helpers.go

package execute

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// NoTimeout disables the run deadline entirely. Destructive invocations must
// use it: killing a wipe tool mid-run leaves the device in an unknown state.
const NoTimeout time.Duration = -1

// Options configures a single external command invocation.
type Options struct {
	Command string
	Args    []string
	Dir     string
	// Timeout bounds the run. Zero applies a 10 minute default; NoTimeout
	// runs with no deadline.
	Timeout time.Duration
	DryRun  bool
	Logger  *zap.Logger
}

func defaultTimeout(t time.Duration) time.Duration {
	if t < 0 {
		return 0
	}
	if t > 0 {
		return t
	}
	return 10 * time.Minute
}

func buildCommandString(command string, args ...string) string {
	return command + " " + strings.Join(args, " ")
}
