package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLFallsBackToNop(t *testing.T) {
	prev := Log
	Log = nil
	defer func() { Log = prev }()

	assert.NotNil(t, L())
	assert.NotPanics(t, func() { L().Info("nothing to see") })
}

func TestInitializeWritesFile(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	file := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, Initialize("debug", file))
	assert.Same(t, Log, L())
	_ = Close()
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("verbose"))
}
