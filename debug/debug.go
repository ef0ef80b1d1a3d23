package debug

import (
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	rootOnce sync.Once
	root     *zap.Logger
)

func init() {
	debugEnv, exists := os.LookupEnv("LIVEVIEW_DEBUG")
	if exists {
		if val, err := strconv.ParseBool(debugEnv); err == nil && val {
			Enable()
		}
	}
}

func base() *zap.Logger {
	rootOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.DisableStacktrace = true
		l, err := cfg.Build()
		if err != nil {
			l = zap.NewNop()
		}
		root = l
	})
	return root
}

// Logger returns a logger for one subsystem. Debug entries are only written
// while debugging is enabled.
func Logger(name string) *zap.SugaredLogger {
	return base().Named(name).Sugar()
}

func Enable() {
	level.SetLevel(zapcore.DebugLevel)
}

func Disable() {
	level.SetLevel(zapcore.InfoLevel)
}

func Enabled() bool {
	return level.Enabled(zapcore.DebugLevel)
}
