package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	t.Run("development config without file", func(t *testing.T) {
		err := Init("debug", "")
		require.NoError(t, err)
		require.NotNil(t, Log)
		assert.True(t, Log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("production config with file", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "app.log")
		err := Init("info", logFile)
		require.NoError(t, err)
		assert.False(t, Log.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, Log.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		err := Init("verbose", "")
		require.NoError(t, err)
		assert.False(t, Log.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, Log.Core().Enabled(zapcore.InfoLevel))
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}
