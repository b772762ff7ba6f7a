package logging

import (
	"bytes"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/GriffinCanCode/cipherjs/internal/infrastructure/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		level   zapcore.Level
		wantErr bool
	}{
		{"info", config.LogConfig{Level: "info"}, zapcore.InfoLevel, false},
		{"debug development", config.LogConfig{Level: "debug", Development: true}, zapcore.DebugLevel, false},
		{"warn", config.LogConfig{Level: "warn"}, zapcore.WarnLevel, false},
		{"bad level", config.LogConfig{Level: "loud"}, zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level))
			if tt.level > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.level-1))
			}
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.Default().Logging, &buf)
	require.NoError(t, err)

	logger.Component("signature").Info("extracted spec", zap.Int("length", 8))
	logger.Debug("dropped")
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "signature", entry["logger"])
	assert.Equal(t, "extracted spec", entry["msg"])
	assert.Equal(t, 8.0, entry["length"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "caller")
}

func TestDevelopmentOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LogConfig{Level: "debug", Development: true}, &buf)
	require.NoError(t, err)

	logger.Debug("tokenized", zap.Int("tokens", 12))
	require.NoError(t, logger.Sync())
	assert.Contains(t, buf.String(), "tokenized")
	assert.Contains(t, buf.String(), `{"tokens": 12}`)
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LogConfig{Level: "error"}, &buf)
	require.NoError(t, err)
	child := logger.Component("cache")

	child.Warn("hidden")
	require.NoError(t, logger.SetLevel("warn"))
	child.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	assert.Error(t, logger.SetLevel("loud"))
}

func TestNilLoggerIsNop(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Zap().Info("dropped") })
	assert.NotPanics(t, func() { NewNop().Component("x").Info("dropped") })
}
