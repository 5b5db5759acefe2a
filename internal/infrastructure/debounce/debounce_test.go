package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CollapsesBurst(t *testing.T) {
	d := New(20 * time.Millisecond)
	var calls, last atomic.Int32

	for i := int32(1); i <= 5; i++ {
		v := i
		d.Trigger(func() {
			calls.Add(1)
			last.Store(v)
		})
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(5), last.Load())
}

func TestDebouncer_Cancel(t *testing.T) {
	d := New(time.Hour)
	assert.False(t, d.Cancel())

	d.Trigger(func() { t.Error("cancelled call fired") })
	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())
}

func TestDebouncer_StopIgnoresLaterTriggers(t *testing.T) {
	d := New(5 * time.Millisecond)
	var calls atomic.Int32

	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestNew_DefaultQuietPeriod(t *testing.T) {
	assert.Equal(t, DefaultQuietPeriod, New(0).wait)
	assert.Equal(t, DefaultQuietPeriod, New(-time.Second).wait)
}
