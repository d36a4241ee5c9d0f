// Package logging wraps zap the way the teacher's utils package wraps
// slog: a tiny surface (one constructor, one printf-style helper, a
// couple of structured convenience methods) instead of exposing the
// full zap API to every caller.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the ambient logger used across every component.
type Logger struct {
	z *zap.Logger
}

// Config selects the encoding/level the way the teacher's repo picks a
// JSON-vs-console encoder based on environment.
type Config struct {
	Development bool
	Level       string
}

// New builds a Logger. Development mode uses a human-readable console
// encoder; production mode emits JSON lines suitable for redirection to
// csopesy-log.txt's sibling files.
func New(cfg Config) (*Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, err
		}
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	z, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z}, nil
}

// Noop returns a Logger that discards everything, for tests that don't
// want log noise.
func Noop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// With returns a child Logger tagged with the given component name,
// mirroring the teacher-adjacent pack's `logger.With(zap.String("component", ...))`.
func (l *Logger) With(component string) *Logger {
	return &Logger{z: l.z.With(zap.String("component", component))}
}

// Logf formats and logs at info level. Kept for call sites migrated
// directly from the teacher's LoggerConFormato(format, args...) idiom.
func (l *Logger) Logf(format string, args ...interface{}) {
	l.z.Sugar().Infof(format, args...)
}

// Info logs a structured message with fields.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.z.Info(msg, fields...)
}

// Warn logs a structured warning with fields.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.z.Warn(msg, fields...)
}

// Error logs a structured error with fields.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.z.Error(msg, fields...)
}

// Sync flushes any buffered log entries. Call before process exit.
func (l *Logger) Sync() error {
	return l.z.Sync()
}
