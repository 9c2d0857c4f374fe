package claudekit

import (
	"log/slog"
	"sync/atomic"
)

// The SDK logs through slog. By default it uses slog.Default(); SetLogger
// swaps in a dedicated logger for callers who route SDK noise elsewhere.

var sdkLogger atomic.Pointer[slog.Logger]

// SetLogger replaces the logger used by the SDK. Passing nil restores
// slog.Default().
func SetLogger(l *slog.Logger) {
	sdkLogger.Store(l)
}

func logger() *slog.Logger {
	if l := sdkLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}
