package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()

	l := New(64)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l
}

func TestLoop_RunsTasksInOrder(t *testing.T) {
	t.Parallel()

	l := startLoop(t)

	var got []int
	for i := range 10 {
		require.True(t, l.Post(func() { got = append(got, i) }))
	}

	var snapshot []int
	require.NoError(t, l.Call(context.Background(), func() { snapshot = append(snapshot, got...) }))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, snapshot)
}

func TestLoop_RecoversPanics(t *testing.T) {
	t.Parallel()

	l := startLoop(t)

	l.Post(func() { panic("boom") })

	ran := false
	require.NoError(t, l.Call(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestLoop_CallPanicStillReturns(t *testing.T) {
	t.Parallel()

	l := startLoop(t)

	err := l.Call(context.Background(), func() { panic("boom") })
	assert.NoError(t, err)
}

func TestLoop_Stopped(t *testing.T) {
	t.Parallel()

	l := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	cancel()
	<-l.Done()

	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Call(context.Background(), func() {}), ErrStopped)
}

func TestLoop_CallContextCanceled(t *testing.T) {
	t.Parallel()

	// 循环未启动，任务永远不会执行
	l := New(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Call(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_Fires(t *testing.T) {
	t.Parallel()

	l := startLoop(t)
	s := NewScheduler(l)

	var fired atomic.Int32
	require.NoError(t, l.Call(context.Background(), func() {
		s.Schedule("room/tick", 10*time.Millisecond, func() { fired.Add(1) })
	}))

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)

	var pending int
	require.NoError(t, l.Call(context.Background(), func() { pending = s.Pending() }))
	assert.Zero(t, pending)
}

func TestScheduler_ReplaceAndCancel(t *testing.T) {
	t.Parallel()

	l := startLoop(t)
	s := NewScheduler(l)

	var first, second, canceled atomic.Int32
	require.NoError(t, l.Call(context.Background(), func() {
		s.Schedule("a", 10*time.Millisecond, func() { first.Add(1) })
		s.Schedule("a", 20*time.Millisecond, func() { second.Add(1) })
		s.Schedule("b", 10*time.Millisecond, func() { canceled.Add(1) })
		s.Cancel("b")
		s.Cancel("missing")
	}))

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, first.Load())
	assert.Zero(t, canceled.Load())
}

func TestScheduler_TaskCanReschedule(t *testing.T) {
	t.Parallel()

	l := startLoop(t)
	s := NewScheduler(l)

	var count atomic.Int32
	var tick func()
	tick = func() {
		if count.Add(1) < 3 {
			s.Schedule("tick", time.Millisecond, tick)
		}
	}
	require.NoError(t, l.Call(context.Background(), func() {
		s.Schedule("tick", time.Millisecond, tick)
	}))

	assert.Eventually(t, func() bool { return count.Load() == 3 }, time.Second, 5*time.Millisecond)
}
