// Package logging builds the loggers used by the patch and the tools.
package logging

import (
	"github.com/edaniels/golog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger. debug enables debug level output.
func New(name string, debug bool) golog.Logger {
	if debug {
		return golog.NewDebugLogger(name)
	}
	return golog.NewLogger(name)
}

// NewWriterLogger returns a logger encoding plain text lines into w. It is
// used where there is no console, such as inside the host process.
func NewWriterLogger(name string, w zapcore.WriteSyncer, debug bool) golog.Logger {
	return zap.New(newCore(w, debug)).Sugar().Named(name)
}

func newCore(w zapcore.WriteSyncer, debug bool) zapcore.Core {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(enc), w, level)
}
