// Package logging provides zap-backed named loggers shared across the
// application. Components obtain a logger via Named and never construct
// their own zap configuration.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.Mutex
	root *zap.Logger
)

// Init builds the process-wide logger. level is one of debug/info/warn/error;
// anything unrecognized falls back to info. Safe to call more than once; the
// last call wins.
func Init(level string) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	root = logger
	mu.Unlock()
	return nil
}

// Named returns a child logger for the given subsystem. Before Init is
// called it returns a no-op logger so packages can log unconditionally.
func Named(name string) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		return zap.NewNop()
	}
	return root.Named(name)
}

// Sync flushes buffered log entries. Intended for defer in main.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if root != nil {
		_ = root.Sync()
	}
}
