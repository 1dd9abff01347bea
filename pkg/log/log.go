// Package log is the structured logger shared by every truckhub component.
// Package-level helpers write through a process-wide logger that stays a
// no-op until Init is called.
package log

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a key/value logger. Keys are strings; a lone error or zap.Field
// may appear in place of a pair.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	// Error logs at error level and attaches err under "error" when non-nil.
	Error(err error, msg string, keysAndValues ...any)

	WithName(name string) Logger
	WithValues(keysAndValues ...any) Logger

	// Logr bridges to libraries that take a logr.Logger.
	Logr() logr.Logger
	Sync() error
}

type zapLogger struct {
	z *zap.Logger
}

// Wrap adapts an existing zap logger.
func Wrap(z *zap.Logger) Logger {
	return &zapLogger{z: z}
}

// NewLogger builds a zap-backed Logger from opts. Nil opts means defaults.
func NewLogger(opts *Options) Logger {
	if opts == nil {
		opts = NewOptions()
	}

	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	sinks := opts.OutputPaths
	if len(sinks) == 0 {
		sinks = []string{"stdout"}
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		DisableCaller:    opts.DisableCaller,
		Encoding:         opts.Format,
		EncoderConfig:    encoderConfig(opts),
		OutputPaths:      sinks,
		ErrorOutputPaths: []string{"stderr"},
	}

	z, err := cfg.Build(zap.AddCallerSkip(opts.CallerSkip), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		panic(fmt.Sprintf("failed to build zap logger: %v", err))
	}
	if opts.Name != "" {
		z = z.Named(opts.Name)
	}
	return Wrap(z)
}

func encoderConfig(opts *Options) zapcore.EncoderConfig {
	ec := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: millis,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if opts.Format == "console" && opts.EnableColor {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return ec
}

// millis renders durations as fractional milliseconds.
func millis(d time.Duration, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendFloat64(float64(d) / float64(time.Millisecond))
}

func (l *zapLogger) Debug(msg string, keysAndValues ...any) {
	l.z.Debug(msg, toFields(keysAndValues...)...)
}

func (l *zapLogger) Info(msg string, keysAndValues ...any) {
	l.z.Info(msg, toFields(keysAndValues...)...)
}

func (l *zapLogger) Warn(msg string, keysAndValues ...any) {
	l.z.Warn(msg, toFields(keysAndValues...)...)
}

func (l *zapLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := toFields(keysAndValues...)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.z.Error(msg, fields...)
}

func (l *zapLogger) WithName(name string) Logger {
	return Wrap(l.z.Named(name))
}

func (l *zapLogger) WithValues(keysAndValues ...any) Logger {
	return Wrap(l.z.With(toFields(keysAndValues...)...))
}

func (l *zapLogger) Logr() logr.Logger { return zapr.NewLogger(l.z) }
func (l *zapLogger) Sync() error       { return l.z.Sync() }

var (
	initOnce sync.Once
	current  atomic.Pointer[Logger]
)

func init() {
	Replace(NewNopLogger())
}

// Init installs the process logger built from opts. Later calls are ignored.
func Init(opts *Options) {
	initOnce.Do(func() {
		Replace(NewLogger(opts))
	})
}

// Replace installs l as the process logger and returns the previous one.
func Replace(l Logger) Logger {
	prev := current.Swap(&l)
	if prev == nil {
		return nil
	}
	return *prev
}

// Std returns the process logger.
func Std() Logger { return *current.Load() }

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger { return Wrap(zap.NewNop()) }

func Debug(msg string, keysAndValues ...any) { Std().Debug(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...any)  { Std().Info(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...any)  { Std().Warn(msg, keysAndValues...) }

func Error(err error, msg string, keysAndValues ...any) {
	Std().Error(err, msg, keysAndValues...)
}

func WithName(name string) Logger            { return Std().WithName(name) }
func WithValues(keysAndValues ...any) Logger { return Std().WithValues(keysAndValues...) }
func Sync() error                            { return Std().Sync() }
