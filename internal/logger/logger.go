package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variables consulted by InitFromEnv.
const (
	envLogPath  = "MCP_REMOTE_LOG"
	envLogLevel = "MCP_REMOTE_LOG_LEVEL"
)

var (
	mu            sync.Mutex
	base          *zap.Logger
	std           *zap.SugaredLogger
	isInitialized bool
)

// InitFromEnv initializes the logger using MCP_REMOTE_LOG and
// MCP_REMOTE_LOG_LEVEL. An empty path logs to stderr.
func InitFromEnv() error {
	return Init(os.Getenv(envLogPath), os.Getenv(envLogLevel))
}

// Init initializes the logger to write JSON lines to path at the given level.
// Parent directories are created as needed. Calling Init again before Close
// is a no-op.
func Init(path, level string) error {
	mu.Lock()
	defer mu.Unlock()
	if isInitialized {
		return nil
	}

	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return err
		}
		lvl = parsed
	}

	out := "stderr"
	if path != "" {
		if err := ensureParentDir(path); err != nil {
			return err
		}
		out = path
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Sampling = nil
	cfg.OutputPaths = []string{out}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	base = l
	std = l.Sugar()
	isInitialized = true
	return nil
}

// Close flushes buffered entries and releases the logger. A later call to
// any log function re-initializes from the environment.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		return nil
	}
	err := base.Sync()
	base, std = nil, nil
	isInitialized = false
	// Sync on a terminal returns EINVAL/ENOTTY; nothing was lost.
	if pe, ok := err.(*os.PathError); ok && (pe.Path == "/dev/stderr" || pe.Path == "/dev/stdout") {
		return nil
	}
	return err
}

// Debugf logs verbose diagnostics.
func Debugf(format string, args ...any) { get().Debugf(format, args...) }

// Infof logs informational messages.
func Infof(format string, args ...any) { get().Infof(format, args...) }

// Warnf logs warnings.
func Warnf(format string, args ...any) { get().Warnf(format, args...) }

// Errorf logs errors.
func Errorf(format string, args ...any) { get().Errorf(format, args...) }

// Infow logs a message with structured key/value pairs.
func Infow(msg string, keysAndValues ...any) { get().Infow(msg, keysAndValues...) }

func get() *zap.SugaredLogger {
	mu.Lock()
	l := std
	mu.Unlock()
	if l != nil {
		return l
	}
	// Fallback: initialize with defaults if not already.
	if err := InitFromEnv(); err != nil {
		return zap.NewNop().Sugar()
	}
	mu.Lock()
	defer mu.Unlock()
	if std == nil {
		return zap.NewNop().Sugar()
	}
	return std
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
