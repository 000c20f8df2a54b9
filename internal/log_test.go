package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"error":   LogLevelError,
		" WARN ":  LogLevelWarn,
		"info":    LogLevelInfo,
		"debug":   LogLevelDebug,
		"TRACE":   LogLevelTrace,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapLevel(LogLevelInfo))
	l := newLoggerWithCore(LogLevelInfo, core)

	l.Debug("hidden %d", 1)
	l.Trace("hidden %d", 2)
	l.Info("loaded %s", "data.csv")
	l.With("run", "abc").Warn("failed")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "loaded data.csv", entries[0].Message)
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, "abc", entries[1].ContextMap()["run"])
	}
}

func TestTraceRequiresTraceLevel(t *testing.T) {
	core, logs := observer.New(zapLevel(LogLevelTrace))
	l := newLoggerWithCore(LogLevelTrace, core)

	l.Trace("step %d", 3)
	entries := logs.AllUntimed()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "[TRACE] step 3", entries[0].Message)
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Error("nothing %s", "happens")
	assert.NoError(t, l.Sync())
}
