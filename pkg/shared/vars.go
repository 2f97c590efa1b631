// pkg/shared/vars.go

package shared

import "go.uber.org/zap"

// Version is stamped at build time via -ldflags.
var Version = "dev"

// SafeSync flushes the global logger, ignoring the EINVAL that zap returns
// when stderr is not a regular file.
func SafeSync() {
	_ = zap.L().Sync()
}
