package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestVirtualFiresInDeadlineOrder(t *testing.T) {
	v := NewVirtual(epoch)
	var order []string

	v.AfterFunc(30*time.Millisecond, func() { order = append(order, "c") })
	v.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	v.AfterFunc(20*time.Millisecond, func() { order = append(order, "b1") })
	v.AfterFunc(20*time.Millisecond, func() { order = append(order, "b2") })

	v.Advance(25 * time.Millisecond)
	assert.Equal(t, []string{"a", "b1", "b2"}, order)
	assert.Equal(t, 1, v.Pending())
	assert.Equal(t, epoch.Add(25*time.Millisecond), v.Now())

	v.Advance(5 * time.Millisecond)
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, order)
	assert.Zero(t, v.Pending())
}

func TestVirtualClockReadsDeadlineDuringCallback(t *testing.T) {
	v := NewVirtual(epoch)
	var seen time.Time
	v.AfterFunc(250*time.Millisecond, func() { seen = v.Now() })

	v.Advance(time.Second)
	assert.Equal(t, epoch.Add(250*time.Millisecond), seen)
	assert.Equal(t, epoch.Add(time.Second), v.Now())
}

func TestVirtualStop(t *testing.T) {
	v := NewVirtual(epoch)
	fired := false
	h := v.AfterFunc(10*time.Millisecond, func() { fired = true })

	assert.True(t, h.Stop())
	assert.False(t, h.Stop())
	v.Advance(time.Second)
	assert.False(t, fired)
	assert.Zero(t, v.Pending())
}

func TestVirtualStopAfterFire(t *testing.T) {
	v := NewVirtual(epoch)
	h := v.AfterFunc(10*time.Millisecond, func() {})
	v.Advance(10 * time.Millisecond)
	assert.False(t, h.Stop())
}

func TestVirtualCallbackSchedulesWithinWindow(t *testing.T) {
	v := NewVirtual(epoch)
	var at []time.Duration

	var tick func()
	tick = func() {
		at = append(at, v.Now().Sub(epoch))
		if len(at) < 5 {
			v.AfterFunc(100*time.Millisecond, tick)
		}
	}
	v.AfterFunc(100*time.Millisecond, tick)

	v.Advance(350 * time.Millisecond)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
	}, at)
}

func TestVirtualNeverGoesBackwards(t *testing.T) {
	v := NewVirtual(epoch)
	v.AdvanceTo(epoch.Add(-time.Second))
	assert.Equal(t, epoch, v.Now())
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, Seconds(0.25))
	assert.Equal(t, 1500*time.Millisecond, Seconds(1.5))
}

func TestRealScheduler(t *testing.T) {
	r := NewReal()
	done := make(chan struct{})
	r.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real scheduler callback did not run")
	}

	h := r.AfterFunc(time.Hour, func() {})
	assert.True(t, h.Stop())
}
