// Package logger wraps zap with an optional rotating file sink.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger holds the process logger. Log is a no-op logger until Init is
// called.
type Logger struct {
	Log *zap.Logger

	file    string
	console io.Writer
}

// Option configures a Logger.
type Option func(*Logger)

// WithFile writes JSON logs to path, rotated by lumberjack.
func WithFile(path string) Option {
	return func(l *Logger) { l.file = path }
}

// WithConsole sets the console writer. A nil writer disables console
// output, which the interactive client uses to keep its prompt clean.
func WithConsole(w io.Writer) Option {
	return func(l *Logger) { l.console = w }
}

// New returns an uninitialised Logger writing to stderr by default.
func New(opts ...Option) *Logger {
	l := &Logger{Log: zap.NewNop(), console: os.Stderr}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Init builds the zap logger at the given level ("debug", "info", ...).
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if l.console != nil {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(l.console),
			lvl,
		))
	}
	if l.file != "" {
		sink := &lumberjack.Logger{
			Filename:   l.file,
			MaxSize:    20, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(sink),
			lvl,
		))
	}
	if len(cores) == 0 {
		l.Log = zap.NewNop()
		return nil
	}

	l.Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return nil
}
