package eventloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

func TestVirtual_FiresInDeadlineOrder(t *testing.T) {
	l := NewVirtual(epoch)
	var got []string
	l.Schedule(3*time.Second, func() { got = append(got, "c") })
	l.Schedule(time.Second, func() { got = append(got, "a") })
	l.Schedule(time.Second, func() { got = append(got, "b") })

	n := l.RunVirtual(time.Hour)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, epoch.Add(3*time.Second), l.Now())
}

func TestVirtual_PostedRunsBeforeTimers(t *testing.T) {
	l := NewVirtual(epoch)
	var got []string
	l.Schedule(0, func() { got = append(got, "timer") })
	l.Post(func() { got = append(got, "posted") })

	l.RunVirtual(time.Minute)
	assert.Equal(t, []string{"posted", "timer"}, got)
}

func TestVirtual_CancelAndReschedule(t *testing.T) {
	l := NewVirtual(epoch)
	fired := 0
	cancel := l.Schedule(time.Second, func() { fired++ })
	cancel()
	cancel()
	assert.Equal(t, 0, l.Pending())

	// A callback scheduling the next one, like a countdown tick.
	var tick func()
	ticks := 0
	tick = func() {
		ticks++
		if ticks < 5 {
			l.Schedule(time.Second, tick)
		}
	}
	l.Schedule(time.Second, tick)

	l.RunVirtual(time.Hour)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 5, ticks)
	assert.Equal(t, epoch.Add(5*time.Second), l.Now())
}

func TestVirtual_StopsAtLimit(t *testing.T) {
	l := NewVirtual(epoch)
	fired := false
	l.Schedule(10*time.Second, func() { fired = true })

	assert.Equal(t, 0, l.RunVirtual(5*time.Second))
	assert.False(t, fired)
	assert.Equal(t, 1, l.Pending())

	assert.Equal(t, 1, l.RunVirtual(10*time.Second))
	assert.True(t, fired)
}

func TestVirtual_Stop(t *testing.T) {
	l := NewVirtual(epoch)
	later := false
	l.Post(func() { l.Stop() })
	l.Post(func() { later = true })

	assert.Equal(t, 1, l.RunVirtual(time.Minute))
	assert.False(t, later)
}

func TestRun_WallClock(t *testing.T) {
	l := New()
	done := make(chan struct{})
	var order []string

	l.Schedule(20*time.Millisecond, func() {
		order = append(order, "timer")
		l.Stop()
		close(done)
	})
	l.Post(func() { order = append(order, "posted") })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Run(ctx))
	<-done
	assert.Equal(t, []string{"posted", "timer"}, order)
}

func TestRun_ContextCancel(t *testing.T) {
	l := New()
	l.Schedule(time.Hour, func() {})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Run(ctx), context.DeadlineExceeded)
}
