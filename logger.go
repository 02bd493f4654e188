package govconv

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a *zap.SugaredLogger, the structured logger this pack's
// ausocean-av repo pulls in for exactly this kind of pipeline-warning
// surface. It is the library used everywhere a Converter needs to report
// something without returning an error -- most prominently the single
// "range unspecified" notice required by spec.md section 7.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger wraps an existing *zap.Logger.
func NewLogger(l *zap.Logger) *Logger {
	if l == nil {
		return NewNopLogger()
	}
	return &Logger{sugar: l.Sugar()}
}

// NewProductionLogger builds a Logger from zap's production preset: JSON
// encoding, info level, suitable for the cmd/govconv CLI host.
func NewProductionLogger() (*Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewLogger(l), nil
}

// NewNopLogger returns a Logger that discards everything, used as the
// Converter default and in tests.
func NewNopLogger() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// NewFileLogger builds a Logger that writes JSON-encoded entries to path,
// rotated through gopkg.in/natefinch/lumberjack.v2 the way long-running
// batch conversions want: bounded by size rather than left to grow
// unbounded across a multi-hour encode.
func NewFileLogger(path string, maxSizeMB, maxBackups, maxAgeDays int) *Logger {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(rotator),
		zapcore.InfoLevel,
	)
	return NewLogger(zap.New(core))
}

// Warnf logs a formatted warning.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Debugf logs a formatted debug message, used by Converter.Build to trace
// which coefficient groups a replan actually rebuilt.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Sync flushes any buffered log entries, mirroring the zap idiom of
// deferring Sync() at program exit.
func (l *Logger) Sync() error {
	if l == nil || l.sugar == nil {
		return nil
	}
	return l.sugar.Sync()
}
