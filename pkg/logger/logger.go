// pkg/logger/logger.go

package logger

import (
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// L returns the global logger instance, initializing a fallback if needed.
func L() *zap.Logger {
	if log == nil {
		InitializeWithFallback()
	}
	return log
}

// Sync flushes any buffered log entries.
func Sync() error {
	if log == nil {
		return nil
	}
	return log.Sync()
}

// PlatformLogPaths returns candidate log paths in order of priority.
func PlatformLogPaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			filepath.Join(os.Getenv("HOME"), ".local", "state", "lethe", "lethe.log"),
			"./lethe.log",
			"/tmp/lethe/lethe.log",
		}
	case "linux":
		return []string{
			"/var/log/lethe/lethe.log", // best if writable (root)
			filepath.Join(os.Getenv("HOME"), ".local", "state", "lethe", "lethe.log"),
			"./lethe.log", // current working dir – ideal for devs
			"/tmp/lethe/lethe.log",
		}
	default:
		return []string{"./lethe.log"}
	}
}

// ResolveLogPath attempts to find the best writable log file path.
func ResolveLogPath() string {
	for _, path := range PlatformLogPaths() {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0700); err != nil {
			continue
		}
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err == nil {
			_ = file.Close()
			return path
		}
	}
	return ""
}

// GetLogFileWriter opens an append-only 0600 writer at the specified path.
func GetLogFileWriter(path string) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return zapcore.AddSync(os.Stdout), err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return zapcore.AddSync(os.Stdout), err
	}
	return zapcore.AddSync(file), nil
}

// ParseLogLevel maps a LOG_LEVEL environment value to a zap level.
func ParseLogLevel(level string) zapcore.Level {
	switch level {
	case "TRACE", "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
