package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, err := New("debug", false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = New("bogus", true)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	logger := zap.NewExample()
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestSetDefaultConcurrentWithReaders(t *testing.T) {
	prev := FromContext(context.Background())
	t.Cleanup(func() { SetDefault(prev) })

	next := zap.NewExample()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			assert.NotNil(t, FromContext(context.Background()))
		}
	}()
	for i := 0; i < 100; i++ {
		SetDefault(next)
	}
	<-done

	assert.Same(t, next, FromContext(context.Background()))
	SetDefault(nil)
	assert.Same(t, next, FromContext(context.Background()))
}
