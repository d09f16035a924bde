// Package logging is the zap-backed structured logger shared by the API
// server, the worker and the CLI.  Components take the Logger interface;
// the field constructors below keep zap out of their import lists.
package logging

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a typed key-value pair attached to a log entry.
type Field = zap.Field

func String(key, val string) Field                 { return zap.String(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Int64(key string, val int64) Field            { return zap.Int64(key, val) }
func Float64(key string, val float64) Field        { return zap.Float64(key, val) }
func Bool(key string, val bool) Field              { return zap.Bool(key, val) }
func Time(key string, val time.Time) Field         { return zap.Time(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Any(key string, val interface{}) Field        { return zap.Any(key, val) }

// Err records err under "error".  A nil error adds nothing.
func Err(err error) Field { return zap.Error(err) }

// Logger is safe for concurrent use.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// Fatal logs and exits.  Startup failures only.
	Fatal(msg string, fields ...Field)

	With(fields ...Field) Logger

	// Named appends a dotted segment: "yumzoom" becomes "yumzoom.http".
	Named(name string) Logger
}

// Level names accepted by LogConfig.Level and SetLevel.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// LogConfig selects level, encoding and sinks.
type LogConfig struct {
	Level            string   `mapstructure:"level"`
	Format           string   `mapstructure:"format"` // json or console
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

type zapLogger struct{ z *zap.Logger }

func (l zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }
func (l zapLogger) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, fields...) }
func (l zapLogger) With(fields ...Field) Logger       { return zapLogger{l.z.With(fields...)} }
func (l zapLogger) Named(name string) Logger          { return zapLogger{l.z.Named(name)} }

// level is shared by every logger from NewLogger so a config reload can
// change verbosity in place.
var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// ParseLevel maps a level name to zap.  Unknown names are info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLevel changes the level of every logger built with NewLogger.
func SetLevel(name string) { level.SetLevel(ParseLevel(name)) }

// CurrentLevel returns the active level name.
func CurrentLevel() string { return level.Level().String() }

// NewLogger builds the root "yumzoom" logger.  Nil output paths mean
// stdout and stderr; an explicitly empty OutputPaths is an error.
func NewLogger(cfg LogConfig) (Logger, error) {
	if cfg.OutputPaths == nil {
		cfg.OutputPaths = []string{"stdout"}
	}
	if len(cfg.OutputPaths) == 0 {
		return nil, fmt.Errorf("logging: at least one output path is required")
	}
	if len(cfg.ErrorOutputPaths) == 0 {
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	level.SetLevel(ParseLevel(cfg.Level))

	console := cfg.Format == "console"
	enc := zap.NewProductionEncoderConfig()
	encoding := "json"
	if console {
		enc = zap.NewDevelopmentEncoderConfig()
		encoding = "console"
	}
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	z, err := zap.Config{
		Level:            level,
		Development:      console,
		Encoding:         encoding,
		EncoderConfig:    enc,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: cfg.ErrorOutputPaths,
	}.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("logging: failed to build zap logger: %w", err)
	}
	return zapLogger{z.Named("yumzoom")}, nil
}

// NewLoggerFromCore wraps core, typically a zaptest/observer core.
func NewLoggerFromCore(core zapcore.Core, opts ...zap.Option) Logger {
	return zapLogger{zap.New(core, append([]zap.Option{zap.AddCallerSkip(1)}, opts...)...)}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field)  {}
func (nopLogger) Info(string, ...Field)   {}
func (nopLogger) Warn(string, ...Field)   {}
func (nopLogger) Error(string, ...Field)  {}
func (nopLogger) Fatal(string, ...Field)  {}
func (n nopLogger) With(...Field) Logger  { return n }
func (n nopLogger) Named(string) Logger   { return n }

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

//Personal.AI order the ending
