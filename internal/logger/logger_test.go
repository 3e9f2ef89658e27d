package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewBuildsLoggerForEveryMode(t *testing.T) {
	for _, mode := range []struct{ json, debug bool }{{false, false}, {true, false}, {false, true}, {true, true}} {
		l, err := New(mode.json, mode.debug)
		if err != nil {
			t.Fatalf("New(%v, %v) returned error: %v", mode.json, mode.debug, err)
		}
		if got := l.Core().Enabled(zapcore.DebugLevel); got != mode.debug {
			t.Fatalf("debug level enabled = %v for mode %+v", got, mode)
		}
	}
}
