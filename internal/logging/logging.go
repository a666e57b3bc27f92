// Package logging provides the structured logger built once in
// cmd/cognia/main.go and passed to the download engine and manager and
// to the plugin host's notifier and meta services.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.SugaredLogger with a fixed verbosity chosen at
// construction. cmd/cognia/main.go builds it from the "quiet" setting
// with verbose off; the --verbose flag does not change its level.
type Logger struct {
	*zap.SugaredLogger
}

// New builds a Logger. verbose enables debug-level output; quiet
// suppresses everything below warn.
func New(verbose, quiet bool) *Logger {
	level := zapcore.InfoLevel
	switch {
	case quiet:
		level = zapcore.WarnLevel
	case verbose:
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "" // commands run short-lived; timestamps add noise
	cfg.DisableStacktrace = true

	base, err := cfg.Build()
	if err != nil {
		// Logger construction failing means the process environment is
		// broken beyond recovery (e.g. stderr closed); fall back to a
		// no-op logger rather than panic on an ambient concern.
		base = zap.NewNop()
	}
	return &Logger{SugaredLogger: base.Sugar()}
}

// Nop returns a Logger that discards everything, for tests.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Sync flushes any buffered log entries. Call before process exit.
func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}
