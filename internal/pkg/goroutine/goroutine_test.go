package goroutine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

func TestManager_CollectsErrors(t *testing.T) {
	// Arrange
	g := NewManager(4)
	var ran atomic.Int32
	errBoom := errors.New("boom")

	// Act
	for i := range 3 {
		g.Go(context.Background(), func(context.Context) error {
			ran.Inc()
			if i == 1 {
				return errBoom
			}
			return nil
		})
	}
	err := g.Wait()

	// Assert
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, int32(3), ran.Load())
}

func TestManager_RecoversPanic(t *testing.T) {
	g := NewManager(1)

	assert.True(t, g.Go(context.Background(), func(context.Context) error { panic("x") }))
	assert.NoError(t, g.Wait())
}

func TestManager_ClosedAndCapacity(t *testing.T) {
	g := NewManager(1)
	release := make(chan struct{})

	assert.True(t, g.Go(context.Background(), func(context.Context) error {
		<-release
		return nil
	}))
	assert.False(t, g.Go(context.Background(), func(context.Context) error { return nil }))

	close(release)
	assert.NoError(t, g.Wait())
	assert.False(t, g.Go(context.Background(), func(context.Context) error { return nil }))

	var nilManager *Manager
	assert.False(t, nilManager.Go(context.Background(), nil))
	assert.NoError(t, nilManager.Wait())
}

func TestManager_SkipsCanceledContext(t *testing.T) {
	g := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	g.Go(ctx, func(context.Context) error {
		ran.Store(true)
		return nil
	})

	assert.NoError(t, g.Wait())
	assert.False(t, ran.Load())
}
