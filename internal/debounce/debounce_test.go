package debounce_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-src/heroicons-viewer/internal/debounce"
	"github.com/codex-src/heroicons-viewer/internal/debounce/debouncetest"
)

const window = 10 * time.Millisecond

func TestOnlyLastTriggerRuns(t *testing.T) {
	clock := debouncetest.New()
	d := debounce.New(window, debounce.WithClock(clock))

	var calls []string
	for _, q := range []string{"c", "ch", "cha"} {
		d.Trigger(func() { calls = append(calls, q) })
		clock.Advance(window / 2)
	}
	assert.Empty(t, calls)
	assert.True(t, d.Pending())

	clock.Advance(window)
	assert.Equal(t, []string{"cha"}, calls)
	assert.False(t, d.Pending())
	assert.Equal(t, 0, clock.Scheduled())
}

func TestTriggersAfterQuietWindowBothRun(t *testing.T) {
	clock := debouncetest.New()
	d := debounce.New(window, debounce.WithClock(clock))

	var calls []string
	d.Trigger(func() { calls = append(calls, "a") })
	clock.Advance(window)
	d.Trigger(func() { calls = append(calls, "b") })
	clock.Advance(window)

	assert.Equal(t, []string{"a", "b"}, calls)
}

// stubbornClock hands out timers that cannot be stopped, which is what a
// real timer looks like once its callback is already running.
type stubbornClock struct{ *debouncetest.Clock }

type stubbornTimer struct{}

func (stubbornTimer) Stop() bool { return false }

func (c stubbornClock) AfterFunc(d time.Duration, f func()) debounce.Timer {
	c.Clock.AfterFunc(d, f)
	return stubbornTimer{}
}

func TestSupersededTimerThatFiresAnywayIsIgnored(t *testing.T) {
	clock := stubbornClock{debouncetest.New()}
	d := debounce.New(window, debounce.WithClock(clock))

	var calls []string
	d.Trigger(func() { calls = append(calls, "old") })
	d.Trigger(func() { calls = append(calls, "new") })

	clock.Advance(window)
	assert.Equal(t, []string{"new"}, calls)
}

func TestCancel(t *testing.T) {
	clock := debouncetest.New()
	d := debounce.New(window, debounce.WithClock(clock))

	ran := false
	d.Trigger(func() { ran = true })
	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())

	clock.Advance(window * 2)
	assert.False(t, ran)
}

func TestFlush(t *testing.T) {
	clock := debouncetest.New()
	d := debounce.New(window, debounce.WithClock(clock))

	assert.False(t, d.Flush())

	runs := 0
	d.Trigger(func() { runs++ })
	assert.True(t, d.Flush())
	assert.Equal(t, 1, runs)

	clock.Advance(window * 2)
	assert.Equal(t, 1, runs)
}

func TestRealClock(t *testing.T) {
	d := debounce.New(5 * time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, d.Window())

	var runs atomic.Int32
	var last atomic.Value
	var wg sync.WaitGroup
	wg.Add(1)
	for i, q := range []string{"c", "ch", "cha"} {
		final := i == 2
		d.Trigger(func() {
			runs.Add(1)
			last.Store(q)
			if final {
				wg.Done()
			}
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced function never ran")
	}

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), runs.Load())
	assert.Equal(t, "cha", last.Load())
}
