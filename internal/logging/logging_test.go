package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfigValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})

	t.Run("levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			assert.NoError(t, Config{Level: level, Format: "json"}.Validate(), level)
		}
		assert.Error(t, Config{Level: "verbose", Format: "json"}.Validate())
	})

	t.Run("formats", func(t *testing.T) {
		assert.NoError(t, Config{Level: "info", Format: "console"}.Validate())
		assert.Error(t, Config{Level: "info", Format: "xml"}.Validate())
	})
}

func TestNew(t *testing.T) {
	t.Run("json logger", func(t *testing.T) {
		l, err := New(Config{Level: "debug", Format: "json"})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("level filters", func(t *testing.T) {
		l, err := New(Config{Level: "error", Format: "console"})
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := New(Config{Level: "nope", Format: "json"})
		require.Error(t, err)
	})
}
