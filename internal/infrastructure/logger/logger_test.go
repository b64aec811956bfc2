package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"":        zapcore.InfoLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		l, err := New(nil)
		require.NoError(t, err)
		assert.NotNil(t, l)
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		_, err := New(&Config{Level: "info", Format: "xml"})
		assert.ErrorContains(t, err, "unknown log format")
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := New(&Config{Level: "loud"})
		assert.ErrorContains(t, err, "unknown log level")
	})

	t.Run("rejects unwritable file", func(t *testing.T) {
		_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
		assert.ErrorContains(t, err, "open log file")
	})

	t.Run("writes json lines to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		l, err := New(&Config{Level: "warn", Format: "json", Output: path})
		require.NoError(t, err)

		l.Info("below threshold")
		l.Warn("order cancelled", zap.String("order_number", "SO-2026-00001"))
		require.NoError(t, l.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		out := string(data)
		assert.NotContains(t, out, "below threshold")
		assert.Contains(t, out, `"msg":"order cancelled"`)
		assert.Contains(t, out, `"order_number":"SO-2026-00001"`)
		assert.Contains(t, out, `"level":"warn"`)
	})
}

func TestNewEncoder(t *testing.T) {
	enc, err := newEncoder(&Config{Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, enc)

	enc, err = newEncoder(&Config{})
	require.NoError(t, err)
	assert.NotNil(t, enc)
}

func TestSync(t *testing.T) {
	assert.NoError(t, Sync(zap.NewNop()))
}
