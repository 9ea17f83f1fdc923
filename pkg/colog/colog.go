// Package colog provides the package-level structured logger shared by carl
// and edgar: a swappable global *zap.Logger reached through package funcs,
// rather than threading a logger through every constructor.
package colog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global = newDefault()

func newDefault() *zap.Logger {
	l, err := NewLoggerWithLevel("", zapcore.InfoLevel)
	if err != nil {
		panic(err)
	}
	return l
}

// NewDefaultEncoderConfig returns the encoder config shared by every logger
// constructed in this module, so that CLI output and embedded component
// output (e.g. the gRPC client) look the same.
func NewDefaultEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

// NewLoggerWithLevel constructs a named logger at the given level, writing
// logfmt-ish console output to stderr.
func NewLoggerWithLevel(name string, level zapcore.Level, opts ...zap.Option) (*zap.Logger, error) {
	enc := zapcore.NewConsoleEncoder(NewDefaultEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	l := zap.New(core, opts...)
	if name != "" {
		l = l.Named(name)
	}
	return l, nil
}

// SetLevel replaces the global logger at the requested level. Called once at
// startup from the CLI's --debug flag.
func SetLevel(level zapcore.Level) {
	l, err := NewLoggerWithLevel("", level)
	if err != nil {
		return
	}
	global = l
}

func L() *zap.Logger { return global }

func Debug(msg string, fields ...zap.Field) { global.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { global.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { global.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { global.Error(msg, fields...) }

func Debugf(format string, args ...interface{}) { global.Sugar().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { global.Sugar().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { global.Sugar().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { global.Sugar().Errorf(format, args...) }
