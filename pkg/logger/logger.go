// Package logger provides the process-wide structured logger.
//
// Call sites pass a message followed by alternating key/value pairs:
//
//	logger.Info("Chunk drafted", "chunk", 3, "drafts", 2)
package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	base  = zap.NewNop()
	sugar = base.Sugar()
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init builds the global logger. format is "json" or "console".
func Init(lvl string, format string) error {
	var cfg zap.Config
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	level.SetLevel(parseLevel(lvl))
	cfg.Level = level

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set replaces the global logger. Used by Init and by tests that want to capture output.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.Sugar()
}

// SetLevel changes the level of a logger built by Init without rebuilding it.
func SetLevel(lvl string) {
	level.SetLevel(parseLevel(lvl))
}

// Get returns the underlying zap logger.
func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered entries.
func Sync() {
	_ = Get().Sync()
}

func Debug(msg string, keysAndValues ...interface{}) { s().Debugw(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...interface{})  { s().Infow(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...interface{})  { s().Warnw(msg, keysAndValues...) }
func Error(msg string, keysAndValues ...interface{}) { s().Errorw(msg, keysAndValues...) }

func s() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
