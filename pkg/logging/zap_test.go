package logging

import (
	"errors"
	"testing"

	"github.com/kevin07696/square-checkout/internal/domain/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Warn("order total adjusted",
		ports.String("reference_id", "TEST-order-77"),
		ports.Int64("offset", 5),
		ports.Err(errors.New("boom")))
	logger.Debug("debug entry")

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "order total adjusted", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "TEST-order-77", fields["reference_id"])
	assert.Equal(t, int64(5), fields["offset"])
	assert.Equal(t, "boom", fields["error"])
}

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Zap().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Zap().Core().Enabled(zapcore.ErrorLevel))

	logger, err = New(Config{Development: true, Level: "debug"})
	require.NoError(t, err)
	assert.True(t, logger.Zap().Core().Enabled(zapcore.DebugLevel))

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}
