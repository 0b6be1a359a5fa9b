package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"off":     LevelSilent,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core), LevelDebug)

	l.With(String("run", "abc")).Warn("integrity violation",
		Uint64("body", 7),
		Uint32("tick", 3),
		Float64("health", 12.5),
		Error(errors.New("stale handle")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "integrity violation", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "abc", fields["run"])
	assert.Equal(t, uint64(7), fields["body"])
	assert.Equal(t, uint32(3), fields["tick"])
	assert.Equal(t, 12.5, fields["health"])
	assert.Equal(t, "stale handle", fields["error"])
}

func TestNopLoggerDisabled(t *testing.T) {
	l := NewNop()
	assert.False(t, l.Enabled(LevelError))
	l.Error("dropped")
}
