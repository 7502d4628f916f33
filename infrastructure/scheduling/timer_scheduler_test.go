package scheduling

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestTimerScheduler_RunsAfterDelay(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Arrange
	s := NewTimerScheduler(context.Background(), time.Second, zap.NewNop())
	var ran atomic.Int32
	var sawDeadline atomic.Bool

	// Act
	s.After(10*time.Millisecond, "finalize", func(ctx context.Context) {
		_, ok := ctx.Deadline()
		sawDeadline.Store(ok)
		ran.Add(1)
	})
	assert.Equal(t, 1, s.Pending())
	require.NoError(t, s.Wait(context.Background()))

	// Assert
	assert.Equal(t, int32(1), ran.Load())
	assert.True(t, sawDeadline.Load())
	assert.Equal(t, 0, s.Pending())
}

func TestTimerScheduler_FlushRunsEarly(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewTimerScheduler(context.Background(), 0, zap.NewNop())
	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		s.After(time.Hour, "delete", func(ctx context.Context) { ran.Add(1) })
	}

	s.Flush()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))

	assert.Equal(t, int32(3), ran.Load())
}

func TestTimerScheduler_SurvivesPanickingTask(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewTimerScheduler(context.Background(), time.Second, zap.NewNop())
	var after atomic.Bool
	s.After(0, "boom", func(ctx context.Context) { panic("boom") })
	s.After(5*time.Millisecond, "next", func(ctx context.Context) { after.Store(true) })

	require.NoError(t, s.Wait(context.Background()))
	assert.True(t, after.Load())
}

func TestTimerScheduler_WaitHonoursContext(t *testing.T) {
	s := NewTimerScheduler(context.Background(), time.Second, zap.NewNop())
	s.After(time.Hour, "slow", func(ctx context.Context) {})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)

	// release the timer so nothing leaks past the test
	s.Flush()
	require.NoError(t, s.Wait(context.Background()))
}
